package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/imannovv/gravitee-audit/internal/pkg/apperrors"
	"github.com/imannovv/gravitee-audit/internal/service"
)

const (
	defaultAuditLimit     = 100
	defaultDirectoryLimit = 50
)

// PageQuery is the skip/limit pair shared by every listing. Zero limit means
// the endpoint default.
type PageQuery struct {
	Limit int64 `form:"limit" binding:"min=0"`
	Skip  int64 `form:"skip" binding:"min=0"`
}

// Pager clamps page sizes to the configured maximum.
type Pager struct {
	MaxLimit int64
}

func (p Pager) page(q PageQuery, def int64) service.Page {
	limit := q.Limit
	if limit == 0 {
		limit = def
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	return service.Page{Skip: q.Skip, Limit: limit}
}

// bindQuery binds query parameters into dst, recording a 400 on failure.
func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		c.Error(apperrors.New(apperrors.ErrInvalidRequest, "limit and skip must be non-negative integers", err))
		return false
	}
	return true
}
