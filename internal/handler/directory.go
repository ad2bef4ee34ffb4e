package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imannovv/gravitee-audit/internal/pkg/apperrors"
	"github.com/imannovv/gravitee-audit/internal/service"
)

type searchQuery struct {
	PageQuery
	Search string `form:"search"`
}

type DirectoryHandler struct {
	svc   *service.DirectoryService
	pager Pager
}

func NewDirectoryHandler(svc *service.DirectoryService, pager Pager) *DirectoryHandler {
	return &DirectoryHandler{svc: svc, pager: pager}
}

func (h *DirectoryHandler) APIs(c *gin.Context) {
	var q searchQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.svc.APIs(c.Request.Context(), q.Search, h.pager.page(q.PageQuery, defaultDirectoryLimit))
	if err != nil {
		c.Error(storeError("failed to fetch APIs", err))
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *DirectoryHandler) Applications(c *gin.Context) {
	var q searchQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.svc.Applications(c.Request.Context(), q.Search, h.pager.page(q.PageQuery, defaultDirectoryLimit))
	if err != nil {
		c.Error(storeError("failed to fetch applications", err))
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *DirectoryHandler) Application(c *gin.Context) {
	app, err := h.svc.Application(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrApplicationNotFound) {
		c.Error(apperrors.NewNotFound("application not found"))
		return
	}
	if err != nil {
		c.Error(storeError("failed to fetch application", err))
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *DirectoryHandler) Users(c *gin.Context) {
	var q searchQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.svc.Users(c.Request.Context(), q.Search, h.pager.page(q.PageQuery, defaultDirectoryLimit))
	if err != nil {
		c.Error(storeError("failed to fetch users", err))
		return
	}
	c.JSON(http.StatusOK, page)
}
