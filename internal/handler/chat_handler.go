package handler

import (
	"net/http"

	"github.com/ashwinyue/assessly/internal/middleware"
	"github.com/ashwinyue/assessly/internal/service"
	"github.com/gin-gonic/gin"
)

// ChatHandler 聊天处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// ChatRequest 聊天请求
type ChatRequest struct {
	Message string `json:"message"`
}

// Chat 处理一条消息
// POST /chat
// 请求体无法解析时按空消息处理，始终返回 200
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	_ = c.ShouldBindJSON(&req)

	userID, _ := middleware.GetUserID(c)
	reply := h.svc.Chat.Reply(c.Request.Context(), userID, req.Message)
	c.JSON(http.StatusOK, reply)
}
