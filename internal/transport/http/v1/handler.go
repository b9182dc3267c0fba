// Package v1 provides the public HTTP handlers.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/solkit/solkit/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the public routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Chat API
	e.POST("/v1/chat", h.Chat)
	e.POST("/v1/chat/conversations", h.LastConversations)
	e.POST("/v1/chat/conversation", h.GetConversation)

	// User API
	e.POST("/v1/users/login", h.Login)
	e.POST("/v1/users/pro-status", h.ProStatus)
	e.POST("/v1/users/upgrade-pro", h.UpgradePro)
	e.POST("/v1/users/generate-wallet", h.GenerateWallet)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
