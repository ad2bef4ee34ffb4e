package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imannovv/gravitee-audit/internal/pkg/apperrors"
	"github.com/imannovv/gravitee-audit/internal/service"
)

type auditQuery struct {
	PageQuery
	User          string `form:"user"`
	Event         string `form:"event"`
	ReferenceType string `form:"referenceType"`
	StartDate     string `form:"startDate"`
	EndDate       string `form:"endDate"`
}

type AuditHandler struct {
	svc   *service.AuditService
	pager Pager
}

func NewAuditHandler(svc *service.AuditService, pager Pager) *AuditHandler {
	return &AuditHandler{svc: svc, pager: pager}
}

func (h *AuditHandler) List(c *gin.Context) {
	var q auditQuery
	if !bindQuery(c, &q) {
		return
	}

	params := service.AuditFilterParams{
		User:          q.User,
		Event:         q.Event,
		ReferenceType: q.ReferenceType,
		StartDate:     q.StartDate,
		EndDate:       q.EndDate,
	}
	page, err := h.svc.List(c.Request.Context(), params, h.pager.page(q.PageQuery, defaultAuditLimit))
	if err != nil {
		c.Error(storeError("failed to fetch audit logs", err))
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *AuditHandler) Get(c *gin.Context) {
	audit, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrAuditNotFound) {
		c.Error(apperrors.NewNotFound("audit log not found"))
		return
	}
	if err != nil {
		c.Error(storeError("failed to fetch audit log", err))
		return
	}
	c.JSON(http.StatusOK, audit)
}

func (h *AuditHandler) Users(c *gin.Context) {
	h.distinct(c, "user", "failed to fetch users")
}

func (h *AuditHandler) Events(c *gin.Context) {
	h.distinct(c, "event", "failed to fetch events")
}

func (h *AuditHandler) ReferenceTypes(c *gin.Context) {
	h.distinct(c, "referenceType", "failed to fetch reference types")
}

func (h *AuditHandler) distinct(c *gin.Context, field, msg string) {
	values, err := h.svc.Distinct(c.Request.Context(), field)
	if err != nil {
		c.Error(storeError(msg, err))
		return
	}
	c.JSON(http.StatusOK, values)
}

// storeError keeps errors that already carry a client-facing type and hides
// everything else behind msg.
func storeError(msg string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.NewStore(msg, err)
}
