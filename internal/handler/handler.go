package handler

import (
	"github.com/ashwinyue/assessly/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Chat    *ChatHandler
	Page    *PageHandler
	Contact *ContactHandler
	FAQ     *FAQHandler
	System  *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Chat:    NewChatHandler(svc),
		Page:    NewPageHandler(svc),
		Contact: NewContactHandler(svc),
		FAQ:     NewFAQHandler(svc),
		System:  NewSystemHandler(svc),
	}
}
