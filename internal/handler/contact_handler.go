package handler

import (
	"strconv"

	"github.com/ashwinyue/assessly/internal/service"
	"github.com/gin-gonic/gin"
)

// ContactHandler 联系人记录处理器
type ContactHandler struct {
	svc *service.Services
}

// NewContactHandler 创建联系人记录处理器
func NewContactHandler(svc *service.Services) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// ListContacts 最近的联系人记录，按时间倒序
// GET /api/v1/contacts?limit=N
func (h *ContactHandler) ListContacts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.svc.Contacts.List(c.Request.Context(), limit)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{
		"items": records,
		"total": len(records),
	})
}
