package handler

import (
	"net/http"

	"github.com/ashwinyue/assessly/internal/middleware"
	"github.com/ashwinyue/assessly/internal/service"
	"github.com/gin-gonic/gin"
)

// PageHandler 页面处理器
type PageHandler struct {
	svc *service.Services
}

// NewPageHandler 创建页面处理器
func NewPageHandler(svc *service.Services) *PageHandler {
	return &PageHandler{svc: svc}
}

// Home 首页，重置对话
// GET /
func (h *PageHandler) Home(c *gin.Context) {
	h.reset(c)
	h.render(c, "index.html", "Home")
}

// Contact 联系页，重置对话
// GET /contact
func (h *PageHandler) Contact(c *gin.Context) {
	h.reset(c)
	h.render(c, "contact.html", "Contact")
}

// About 关于页
// GET /about
func (h *PageHandler) About(c *gin.Context) {
	h.render(c, "about.html", "About")
}

// Blog 博客页
// GET /blog
func (h *PageHandler) Blog(c *gin.Context) {
	h.render(c, "blog.html", "Blog")
}

func (h *PageHandler) reset(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return
	}
	if err := h.svc.Chat.Reset(c.Request.Context(), userID); err != nil {
		_ = c.Error(err)
	}
}

func (h *PageHandler) render(c *gin.Context, name, title string) {
	c.HTML(http.StatusOK, name, gin.H{
		"Title":   title,
		"AppName": h.svc.Config.App.Name,
	})
}
