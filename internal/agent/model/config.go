package model

// ================ Config ================

// ConversationConfig bounds how much caller-supplied history reaches the
// prompt. Older turns are ignored, never mutated.
type ConversationConfig struct {
	MaxTurns int `envconfig:"CONVERSATION_MAX_TURNS" default:"5"`
}

// ResponseModelConfig carries the Gemini generation parameters. The defaults
// favour short, conversational answers. Timeout bounds the whole pipeline
// invocation in seconds so a hung completion resolves to a failure instead of
// keeping the request pending.
type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.0-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"512"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.3"`
	TopP        float32 `envconfig:"RESPONSE_TOP_P" default:"0.9"`
	TopK        int32   `envconfig:"RESPONSE_TOP_K" default:"40"`
	Timeout     int     `envconfig:"RESPONSE_TIMEOUT" default:"30"`
}

// TrackingPromptConfig holds the fixed user-facing strings of the tracking
// branch: the clarifying prompt sent when no identifier is visible, and the
// helpline embedded in lookup-failure apologies.
type TrackingPromptConfig struct {
	Helpline string `envconfig:"TRACKING_HELPLINE" default:"020-25501000"`
}
