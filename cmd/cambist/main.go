package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cambist-ai/cambist/assistant"
	"github.com/cambist-ai/cambist/config"
	"github.com/cambist-ai/cambist/conversation"
	"github.com/cambist-ai/cambist/currency"
	"github.com/cambist-ai/cambist/errors"
	"github.com/cambist-ai/cambist/llm"
	"github.com/cambist-ai/cambist/server"
	"github.com/cambist-ai/cambist/server/handlers"
	"github.com/cambist-ai/cambist/server/metrics"
)

var (
	configFile = flag.String("config", "cambist.yaml", "Path to configuration file")
	validate   = flag.Bool("validate", false, "Validate configuration and exit")
	version    = flag.Bool("version", false, "Print version and exit")
)

const Version = "v0.1.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("cambist %s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Just validate and exit if requested
	if *validate {
		fmt.Println("Configuration is valid")
		os.Exit(0)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	errors.SetLogger(logger)

	tokens, err := llm.NewTokenCounter(cfg.LLM.TokenizerModel)
	if err != nil {
		// The assistant degrades to message-count windowing without it.
		logger.Warn("token counter unavailable, history will not be token-budgeted", zap.Error(err))
		tokens = nil
	}

	rates := currency.NewClient(cfg.Rates, logger)
	completer := llm.NewClient(cfg.LLM, logger)
	m := metrics.NewMetrics()

	store := conversation.NewStore(cfg.Conversation, logger)
	store.Start()
	defer store.Stop()

	bot := assistant.New(rates, completer, tokens, cfg.LLM, cfg.Conversation, m, logger)

	chat := handlers.NewChatHandler(bot, store, logger)
	conversations := handlers.NewConversationHandler(store, logger)
	router := server.NewRouter(chat, conversations, m, logger)
	srv := server.NewServer(cfg.Server, router, logger)

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	logger.Info("Starting cambist",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("model", cfg.LLM.Model),
	)
	if err := srv.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

// buildLogger constructs a zap logger from the logging configuration.
func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "text" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
