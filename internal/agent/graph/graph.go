package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/pmc-chatbot/server/internal/agent/graph/nodes"
	"github.com/pmc-chatbot/server/internal/agent/graph/observers"
	"github.com/pmc-chatbot/server/internal/agent/model"
	"github.com/pmc-chatbot/server/internal/agent/prompts"
	errx "github.com/pmc-chatbot/server/internal/core/error"
	"github.com/pmc-chatbot/server/internal/knowledge"
	logx "github.com/pmc-chatbot/server/pkg/logger"
)

// Runner executes the compiled pipeline for one message. Blank messages are
// rejected before any processing.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (*model.PipelineResult, error)
}

// Config holds everything needed to compose the full pipeline end-to-end.
// This is a convenience layer over GraphConfig that also constructs the chat
// model and the prompt composer. An empty APIKey builds the graph with a
// placeholder responder instead of the model node.
type Config struct {
	APIKey        string
	BaseURL       string
	ResponseModel model.ResponseModelConfig
	Conversation  model.ConversationConfig
	Tracking      model.TrackingPromptConfig
	Corpus        knowledge.Corpus
	StatusClient  model.StatusClient
}

// GraphConfig holds all configuration needed to build the graph. A nil
// ChatModel routes the general-knowledge branch through the fallback
// responder.
type GraphConfig struct {
	ChatModel    einomodel.BaseChatModel
	ModelName    string
	Composer     *prompts.Composer
	StatusClient model.StatusClient
	Helpline     string
}

// GraphBuilder handles the construction of the pipeline graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.QueryInput, *model.PipelineResult]
}

// defaultInvokeTimeout bounds a pipeline invocation when no explicit timeout
// is configured.
const defaultInvokeTimeout = 30 * time.Second

// ModelTimeoutMessage is the user-facing reason when the completion call does
// not finish within the request bound.
const ModelTimeoutMessage = "the assistant took too long to respond, please try again later"

type pipelineRunner struct {
	runnable compose.Runnable[model.QueryInput, *model.PipelineResult]
	timeout  time.Duration
}

func (r *pipelineRunner) Invoke(ctx context.Context, in model.QueryInput) (*model.PipelineResult, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, errx.EmptyInput()
	}

	timeout := r.timeout
	if timeout <= 0 {
		timeout = defaultInvokeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().Err(err).Msg("Pipeline invocation failed")
		var ae *errx.AppError
		if errors.As(err, &ae) {
			return nil, ae
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errx.Timeout(err, ModelTimeoutMessage)
		}
		// Tracking branches convert their own failures; anything escaping
		// here came from the model path.
		return nil, errx.ModelError(err)
	}
	return out, nil
}

// BuildPipelineGraph composes the chat model and prompt composer, builds the
// graph, and returns a Runner.
func BuildPipelineGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.StatusClient == nil {
		return nil, fmt.Errorf("status client is nil")
	}

	var chatModel einomodel.BaseChatModel
	if cfg.APIKey != "" {
		cm, err := nodes.NewResponseChatModel(ctx, nodes.ChatModelConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			RespConfig: &cfg.ResponseModel,
		})
		if err != nil {
			return nil, err
		}
		chatModel = cm
	} else {
		logx.Warn().Msg("GEMINI_API_KEY not set; general questions get a placeholder response")
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModel:    chatModel,
		ModelName:    cfg.ResponseModel.Model,
		Composer:     prompts.NewComposer(cfg.Corpus, cfg.Conversation),
		StatusClient: cfg.StatusClient,
		Helpline:     cfg.Tracking.Helpline,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Pipeline graph built successfully")
	return &pipelineRunner{
		runnable: runnable,
		timeout:  time.Duration(cfg.ResponseModel.Timeout) * time.Second,
	}, nil
}

// BuildGraph constructs and returns the compiled pipeline graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *model.PipelineResult], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Composer == nil {
		return nil, fmt.Errorf("prompt composer is nil")
	}
	if config.StatusClient == nil {
		return nil, fmt.Errorf("status client is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.QueryInput, *model.PipelineResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeClassifier,
		nodes.NewClassifierNode(),
		compose.WithStatePostHandler(nodes.NewClassifierPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeStatusLookup,
		nodes.NewStatusLookupNode(b.config.StatusClient, b.config.Helpline),
	)

	b.graph.AddLambdaNode(nodes.NodeTrackingPrompt,
		nodes.NewTrackingPromptNode(),
	)

	b.graph.AddLambdaNode(nodes.NodePromptComposer,
		nodes.NewPromptComposerNode(b.config.Composer),
	)

	if b.config.ChatModel != nil {
		b.graph.AddChatModelNode(nodes.NodeResponseChatModel,
			b.config.ChatModel,
			compose.WithStatePreHandler(nodes.NewResponseChatModelPreHandler()),
			compose.WithStatePostHandler(nodes.NewResponseChatModelPostHandler(b.config.ModelName)),
		)
		b.graph.AddLambdaNode(nodes.NodePostProcessor,
			nodes.NewPostProcessorNode(),
		)
	} else {
		b.graph.AddLambdaNode(nodes.NodeFallbackResponder,
			nodes.NewFallbackResponderNode(),
		)
	}
}

// addEdges creates the main flow connections between nodes. Model output
// goes through the post-processor; the placeholder responder is terminal.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeClassifier},
		{nodes.NodeStatusLookup, compose.END},
		{nodes.NodeTrackingPrompt, compose.END},
	}

	if b.config.ChatModel != nil {
		edges = append(edges,
			[2]string{nodes.NodePromptComposer, nodes.NodeResponseChatModel},
			[2]string{nodes.NodeResponseChatModel, nodes.NodePostProcessor},
			[2]string{nodes.NodePostProcessor, compose.END},
		)
	} else {
		edges = append(edges,
			[2]string{nodes.NodePromptComposer, nodes.NodeFallbackResponder},
			[2]string{nodes.NodeFallbackResponder, compose.END},
		)
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates the conditional routing branch after classification
func (b *GraphBuilder) addBranches() error {
	routeBranch := compose.NewGraphBranch(
		nodes.NewRouteCondition(),
		map[string]bool{
			nodes.NodeStatusLookup:   true,
			nodes.NodeTrackingPrompt: true,
			nodes.NodePromptComposer: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeClassifier, routeBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding routing branch")
		return fmt.Errorf("error adding routing branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *model.PipelineResult], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
