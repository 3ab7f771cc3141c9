package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/pmc-chatbot/server/internal/agent/classify"
	"github.com/pmc-chatbot/server/internal/agent/model"
	"github.com/pmc-chatbot/server/internal/agent/postprocess"
	"github.com/pmc-chatbot/server/internal/agent/prompts"
	"github.com/pmc-chatbot/server/internal/tracking"
	errx "github.com/pmc-chatbot/server/internal/core/error"
	logx "github.com/pmc-chatbot/server/pkg/logger"
)

// Node keys of the pipeline graph.
const (
	NodeClassifier        = "classifier"
	NodeStatusLookup      = "status_lookup"
	NodeTrackingPrompt    = "tracking_prompt"
	NodePromptComposer    = "prompt_composer"
	NodeResponseChatModel = "response_chat_model"
	NodeFallbackResponder = "fallback_responder"
	NodePostProcessor     = "post_processor"
)

// ClarifyingPrompt is the fixed reply when tracking intent is detected but no
// identifier could be extracted. No external call is made on this branch.
const ClarifyingPrompt = "I can help you track your application. Please share your application number (for example PL10000004252600772) and I'll look it up for you."

// NewClassifierNode creates the Classifier node: language detection,
// identifier extraction and the tracking-keyword check. The identifier check
// runs unconditionally before the keyword check; an extracted identifier
// short-circuits intent classification.
func NewClassifierNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) (model.Classification, error) {
		cls := model.Classification{
			Message:  input.Message,
			History:  input.History,
			Language: classify.DetectLanguage(input.Message),
		}
		if id, ok := classify.ExtractIdentifier(input.Message); ok {
			cls.Identifier = id
			return cls, nil
		}
		cls.TrackingIntent = classify.HasTrackingIntent(input.Message)
		return cls, nil
	})
}

// NewClassifierPostHandler stores the classification in graph state for the
// downstream nodes that only see message slices.
func NewClassifierPostHandler() func(context.Context, model.Classification, *model.AppState) (model.Classification, error) {
	return func(ctx context.Context, out model.Classification, state *model.AppState) (model.Classification, error) {
		state.Message = out.Message
		state.Language = out.Language
		state.Identifier = out.Identifier
		state.TrackingIntent = out.TrackingIntent
		// Reset accumulated cost for each new query
		state.TotalCostUSD = 0

		logx.Debug().
			Str("language", string(out.Language)).
			Str("identifier", out.Identifier).
			Bool("tracking_intent", out.TrackingIntent).
			Msg("Classified incoming message")
		return out, nil
	}
}

// NewRouteCondition routes a classified message to exactly one branch, in
// priority order: identifier lookup, clarifying prompt, model call.
func NewRouteCondition() func(context.Context, model.Classification) (string, error) {
	return func(ctx context.Context, input model.Classification) (string, error) {
		if input.Identifier != "" {
			logx.Debug().Str("identifier", input.Identifier).Msg("Routing to status lookup")
			return NodeStatusLookup, nil
		}
		if input.TrackingIntent {
			logx.Debug().Msg("Tracking intent without identifier - routing to clarifying prompt")
			return NodeTrackingPrompt, nil
		}
		logx.Debug().Msg("Routing to prompt composer")
		return NodePromptComposer, nil
	}
}

// NewStatusLookupNode creates the tracking branch terminal: one lookup, then
// either the formatted narrative or an apology embedding the typed failure
// reason and the helpline. Lookup failures never escape this node.
func NewStatusLookupNode(client model.StatusClient, helpline string) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.Classification) (*model.PipelineResult, error) {
		rec, err := client.Lookup(ctx, input.Identifier)
		if err != nil {
			reason := "something went wrong while checking the status"
			var ae *errx.AppError
			if errors.As(err, &ae) {
				reason = ae.Message
			}
			logx.Warn().
				Str("identifier", input.Identifier).
				Str("kind", string(errx.KindOf(err))).
				Err(err).
				Msg("Status lookup failed")
			return &model.PipelineResult{
				Response: fmt.Sprintf(
					"Sorry, I couldn't fetch the status of application %s right now: %s. You can also call the PMC helpline at %s for an update.",
					input.Identifier, reason, helpline,
				),
				IsTracking: true,
			}, nil
		}
		return &model.PipelineResult{
			Response:   tracking.Format(rec, input.Identifier),
			IsTracking: true,
		}, nil
	})
}

// NewTrackingPromptNode creates the clarifying-prompt terminal.
func NewTrackingPromptNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.Classification) (*model.PipelineResult, error) {
		return &model.PipelineResult{
			Response:        ClarifyingPrompt,
			IsTracking:      true,
			NeedsIdentifier: true,
		}, nil
	})
}

// NewPromptComposerNode creates the PromptComposer node for the
// general-knowledge branch.
func NewPromptComposerNode(composer *prompts.Composer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.Classification) ([]*schema.Message, error) {
		text, err := composer.Compose(ctx, input.Message, input.History, input.Language)
		if err != nil {
			return nil, fmt.Errorf("compose prompt: %w", err)
		}
		return []*schema.Message{schema.UserMessage(text)}, nil
	})
}

// NewResponseChatModelPreHandler logs the outbound model call.
func NewResponseChatModelPreHandler() func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		logx.Debug().Msg("AI thinking...")
		return in, nil
	}
}

// NewResponseChatModelPostHandler computes usage cost and rejects empty
// completions.
func NewResponseChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if model.CostEnabled() && out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			pricing := model.ResolvePricing(modelName)
			inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
			state.TotalCostUSD += totalC
			logx.Debug().
				Str("node", NodeResponseChatModel).
				Str("model", modelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
				Float64("input_cost_usd", inC).
				Float64("output_cost_usd", outC).
				Float64("total_cost_usd", state.TotalCostUSD).
				Msg("LLM usage")
		}

		if out == nil || strings.TrimSpace(out.Content) == "" {
			return nil, errx.ModelError(fmt.Errorf("empty completion"))
		}
		return out, nil
	}
}

// NewFallbackResponderNode substitutes the model call when no API key is
// configured: a fixed placeholder response, no outbound call, no references.
// Terminal node; the placeholder skips output shaping entirely so the echoed
// user text is never scanned for references or list items.
func NewFallbackResponderNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input []*schema.Message) (*model.PipelineResult, error) {
		var message string
		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			message = state.Message
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		logx.Warn().Msg("Model not configured, returning placeholder response")
		text := fmt.Sprintf(
			"I understand you asked: %q. The assistant model is not configured on this server, so I cannot generate a detailed answer right now. Please try again later or call PMC customer service at 020-25501000.",
			message,
		)
		return &model.PipelineResult{Response: text}, nil
	})
}

// NewPostProcessorNode shapes the model output into the final result. The
// tracking flag mirrors the sentinel detection.
func NewPostProcessorNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input *schema.Message) (*model.PipelineResult, error) {
		if input == nil {
			return nil, errx.ModelError(fmt.Errorf("nil completion"))
		}

		var userMessage string
		if err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			userMessage = state.Message
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		shaped := postprocess.Process(input.Content, userMessage)
		return &model.PipelineResult{
			Response:          shaped.CleanedText,
			ServiceReferences: shaped.References,
			IsTracking:        shaped.WasTrackingSignal,
		}, nil
	})
}
