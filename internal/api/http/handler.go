package http

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/pmc-chatbot/server/internal/agent/graph"
	"github.com/pmc-chatbot/server/internal/agent/model"
	errx "github.com/pmc-chatbot/server/internal/core/error"
	"github.com/pmc-chatbot/server/internal/tracking"
	logx "github.com/pmc-chatbot/server/pkg/logger"
)

// ChatRequest is the inbound chat payload. History is caller-held; nothing
// is persisted between requests.
type ChatRequest struct {
	Message             string           `json:"message"`
	ConversationHistory []model.ChatTurn `json:"conversation_history"`
}

// ChatResponse is the outbound chat payload.
type ChatResponse struct {
	Response          string   `json:"response"`
	Timestamp         string   `json:"timestamp"`
	ServiceReferences []string `json:"service_references"`
	IsTracking        bool     `json:"is_tracking"`
	NeedsIdentifier   bool     `json:"needs_identifier"`
}

// TrackResponse is the direct-tracking payload: the raw record plus the same
// narrative the chat branch would produce.
type TrackResponse struct {
	Record    model.StatusRecord `json:"record"`
	Narrative string             `json:"narrative"`
	Timestamp string             `json:"timestamp"`
}

// Handler exposes the pipeline and the direct tracking entry point over HTTP.
type Handler struct {
	runner       graph.Runner
	statusClient model.StatusClient
	apiKeySet    bool
	corpusLoaded bool
}

func NewHandler(runner graph.Runner, statusClient model.StatusClient, apiKeySet, corpusLoaded bool) *Handler {
	return &Handler{
		runner:       runner,
		statusClient: statusClient,
		apiKeySet:    apiKeySet,
		corpusLoaded: corpusLoaded,
	}
}

// Chat handles POST /chat.
func (h *Handler) Chat(ctx context.Context, c *app.RequestContext) {
	var req ChatRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.runner.Invoke(ctx, model.QueryInput{
		Message: req.Message,
		History: req.ConversationHistory,
	})
	if err != nil {
		var ae *errx.AppError
		if errors.As(err, &ae) {
			c.JSON(ae.Status, map[string]string{"error": ae.Message})
			return
		}
		logx.Error().Err(err).Msg("Chat request failed")
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": errx.ModelErrorMessage})
		return
	}

	refs := result.ServiceReferences
	if refs == nil {
		refs = []string{}
	}
	c.JSON(consts.StatusOK, ChatResponse{
		Response:          result.Response,
		Timestamp:         time.Now().Format(time.RFC3339),
		ServiceReferences: refs,
		IsTracking:        result.IsTracking,
		NeedsIdentifier:   result.NeedsIdentifier,
	})
}

// Track handles GET /track/:id, the explicit direct-tracking entry point.
func (h *Handler) Track(ctx context.Context, c *app.RequestContext) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "application identifier is required"})
		return
	}

	rec, err := h.statusClient.Lookup(ctx, id)
	if err != nil {
		var ae *errx.AppError
		if errors.As(err, &ae) {
			c.JSON(ae.Status, map[string]string{"error": ae.Message, "kind": string(ae.Kind)})
			return
		}
		logx.Error().Err(err).Str("identifier", id).Msg("Track request failed")
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": errx.SystemErrorMessage})
		return
	}

	c.JSON(consts.StatusOK, TrackResponse{
		Record:    rec,
		Narrative: tracking.Format(rec, id),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Health handles GET /health.
func (h *Handler) Health(ctx context.Context, c *app.RequestContext) {
	apiKeyStatus := "missing"
	if h.apiKeySet {
		apiKeyStatus = "configured"
	}
	dataStatus := "failed"
	if h.corpusLoaded {
		dataStatus = "loaded"
	}

	c.JSON(consts.StatusOK, map[string]string{
		"status":         "healthy",
		"api_key":        apiKeyStatus,
		"municipal_data": dataStatus,
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// ClearMemory handles POST /api/clear-memory. History lives on the client, so
// this is only an acknowledgement.
func (h *Handler) ClearMemory(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]string{
		"status":    "success",
		"message":   "Chat memory cleared successfully",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
