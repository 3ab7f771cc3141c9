package main

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/pmc-chatbot/server/internal/agent/graph"
	"github.com/pmc-chatbot/server/internal/agent/model"
	apihttp "github.com/pmc-chatbot/server/internal/api/http"
	"github.com/pmc-chatbot/server/internal/core"
	"github.com/pmc-chatbot/server/internal/knowledge"
	"github.com/pmc-chatbot/server/internal/tracking"
	logx "github.com/pmc-chatbot/server/pkg/logger"
)

// AppConfig defines all configurable parameters for the chatbot service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	Port        int    `envconfig:"PORT" default:"8000"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Knowledge base
	KnowledgePath string `envconfig:"KNOWLEDGE_DATA_PATH" default:"data/services.json"`

	// Pipeline configs
	Response     model.ResponseModelConfig
	Conversation model.ConversationConfig
	Tracking     model.TrackingPromptConfig
	StatusAPI    tracking.Config
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	// Flatten the knowledge base once at startup. A failed load keeps the
	// service up: tracking still works and /health reports the failure.
	corpus, err := knowledge.NewLoader(cfg.KnowledgePath).Load()
	if err != nil {
		logx.Error().Err(err).Str("path", cfg.KnowledgePath).Msg("Municipal data not loaded properly")
	}

	statusClient := cfg.StatusAPI.New()

	runner, err := graph.BuildPipelineGraph(ctx, graph.Config{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		ResponseModel: cfg.Response,
		Conversation:  cfg.Conversation,
		Tracking:      cfg.Tracking,
		Corpus:        corpus,
		StatusClient:  statusClient,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build pipeline graph")
	}

	handler := apihttp.NewHandler(runner, statusClient, cfg.APIKey != "", corpus != "")

	h := server.Default(server.WithHostPorts(fmt.Sprintf(":%d", cfg.Port)))
	apihttp.Register(h, handler)

	logx.Info().Int("port", cfg.Port).Msg("PMC services chatbot starting")
	h.Spin()
}
