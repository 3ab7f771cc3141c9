package model

import (
	"context"
)

// TrackingMarker is the sentinel the response model is instructed to emit
// when the user asks to track an application but no identifier is visible.
// The post-processor detects it via exact substring match and strips it from
// the visible reply. Keep this value stable: the prompt template and the
// post-processor both depend on it.
const TrackingMarker = "TRACK_APPLICATION_REQUEST"

// ChatTurn is one prior turn of the conversation, supplied by the caller on
// every request. Role is either "user" or "assistant".
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryInput is the inbound message plus its caller-held history.
type QueryInput struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"conversation_history"`
}

// Classification is the routing decision for one message: detected language,
// the extracted identifier (empty when none matched) and whether tracking
// keywords were found. The identifier always wins over the keyword check.
type Classification struct {
	Message        string
	History        []ChatTurn
	Language       Language
	Identifier     string
	TrackingIntent bool
}

// Language selects the response language for the model branch.
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageMarathi Language = "marathi"
)

// StatusRecord is the structured result of a government status lookup.
// Immutable once received.
type StatusRecord struct {
	Token     string `json:"token"`
	AppStatus string `json:"appStatus"`
	Remark    string `json:"remark"`
}

// PipelineResult is the sole artifact returned to the caller. It is never
// persisted.
type PipelineResult struct {
	Response          string   `json:"response"`
	ServiceReferences []string `json:"service_references"`
	IsTracking        bool     `json:"is_tracking"`
	NeedsIdentifier   bool     `json:"needs_identifier"`
}

// StatusClient looks up an application by identifier against the government
// status endpoint. Implementations convert every transport failure into a
// typed errx value; no raw transport error crosses this boundary.
type StatusClient interface {
	Lookup(ctx context.Context, identifier string) (StatusRecord, error)
}

// AppState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
type AppState struct {
	Message        string
	Language       Language
	Identifier     string
	TrackingIntent bool

	// Accumulated total LLM cost (USD) across model invocations for this query
	TotalCostUSD float64
}
