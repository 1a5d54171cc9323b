package handler

import (
	"github.com/ashwinyue/assessly/internal/service"
	"github.com/gin-gonic/gin"
)

// FAQHandler FAQ处理器
type FAQHandler struct {
	svc *service.Services
}

// NewFAQHandler 创建FAQ处理器
func NewFAQHandler(svc *service.Services) *FAQHandler {
	return &FAQHandler{svc: svc}
}

// ListFAQs 当前生效的问答表，按匹配优先级排列
// GET /api/v1/faqs
func (h *FAQHandler) ListFAQs(c *gin.Context) {
	entries := h.svc.FAQ.Entries()
	Success(c, gin.H{
		"items": entries,
		"total": len(entries),
	})
}
