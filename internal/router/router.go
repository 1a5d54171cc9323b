package router

import (
	"fmt"
	"net/http"

	"github.com/ashwinyue/assessly/internal/handler"
	"github.com/ashwinyue/assessly/internal/middleware"
	"github.com/ashwinyue/assessly/internal/service"
	"github.com/ashwinyue/assessly/internal/web"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter 设置路由
func SetupRouter(svc *service.Services, logger *zap.Logger) (*gin.Engine, error) {
	cfg := svc.Config
	h := handler.NewHandlers(svc)

	r := gin.New()

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// 中间件
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.LoggingMiddleware(logger))

	// 健康检查与指标不需要会话
	r.GET("/health", h.System.Health)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))
	}
	r.StaticFS("/static", http.FS(web.Static()))

	issuer := middleware.NewSessionIssuer(middleware.SessionOptions{
		CookieName: cfg.Session.CookieName,
		Secret:     []byte(cfg.Session.Secret),
		TTL:        cfg.Session.TokenTTL,
		Secure:     cfg.Session.Secure,
	})

	app := r.Group("/")
	app.Use(middleware.SessionMiddleware(issuer))
	{
		// 页面
		app.GET("/", h.Page.Home)
		app.GET("/contact", h.Page.Contact)
		app.GET("/about", h.Page.About)
		app.GET("/blog", h.Page.Blog)

		// 聊天
		app.POST("/chat", h.Chat.Chat)
	}

	// API v1
	v1 := r.Group("/api/v1")
	{
		v1.GET("/faqs", h.FAQ.ListFAQs)

		// 联系人含个人信息，仅在配置管理令牌后开放
		if cfg.Admin.Token != "" {
			v1.GET("/contacts", middleware.RequireAdmin(cfg.Admin.Token), h.Contact.ListContacts)
		} else {
			logger.Info("contacts api disabled, set admin.token to enable")
		}
	}

	return r, nil
}
