package http

import (
	"github.com/cloudwego/hertz/pkg/app/server"
)

// Register wires the chatbot routes onto the hertz server.
func Register(h *server.Hertz, handler *Handler) {
	h.POST("/chat", handler.Chat)
	h.GET("/track/:id", handler.Track)
	h.GET("/health", handler.Health)
	h.POST("/api/clear-memory", handler.ClearMemory)
}
