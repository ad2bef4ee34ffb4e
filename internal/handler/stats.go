package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imannovv/gravitee-audit/internal/service"
)

type StatsHandler struct {
	svc *service.AggregateService
}

func NewStatsHandler(svc *service.AggregateService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		c.Error(storeError("failed to fetch stats", err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) Analytics(c *gin.Context) {
	analytics, err := h.svc.Analytics(c.Request.Context())
	if err != nil {
		c.Error(storeError("failed to fetch analytics", err))
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *StatsHandler) Alerts(c *gin.Context) {
	alerts, err := h.svc.Alerts(c.Request.Context())
	if err != nil {
		c.Error(storeError("failed to fetch alerts", err))
		return
	}
	c.JSON(http.StatusOK, alerts)
}
