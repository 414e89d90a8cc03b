package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smartroom-ai/environment-router/internal/classifier"
	"github.com/smartroom-ai/environment-router/internal/config"
	"github.com/smartroom-ai/environment-router/internal/convlog"
	"github.com/smartroom-ai/environment-router/internal/handler"
	"github.com/smartroom-ai/environment-router/internal/llm"
	natsclient "github.com/smartroom-ai/environment-router/internal/nats"
	"github.com/smartroom-ai/environment-router/internal/query"
	"github.com/smartroom-ai/environment-router/internal/responder"
	"github.com/smartroom-ai/environment-router/internal/service"
	"github.com/smartroom-ai/environment-router/internal/store"
	"github.com/smartroom-ai/environment-router/pkg/logger"
	"github.com/smartroom-ai/environment-router/pkg/tracing"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			if port != "" {
				cfg.ServerPort = port
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Info("starting environment router", zap.String("version", version))

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "environment-router", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, conversation history is kept in memory")
	}

	logOpts := []convlog.Option{convlog.WithTimeout(cfg.QueryTimeout)}

	var natsClient *natsclient.Client
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()

		events := natsclient.NewEventStream(natsClient)
		if err := events.EnsureStream(ctx); err != nil {
			return fmt.Errorf("failed to ensure stream: %w", err)
		}
		logOpts = append(logOpts, convlog.WithMirror(events))
	}

	classifierClient, generatorClient := buildClients(cfg, log)

	coord := service.NewCoordinator(cfg.ScanCooldown, log)
	gen := responder.New(generatorClient, responder.Config{
		Model:       cfg.GenerationModel,
		Timeout:     cfg.GenerationTimeout,
		MaxTokens:   cfg.GenerationMaxTokens,
		Temperature: cfg.GenerationTemperature,
	}, log)
	chatSvc := service.NewChatService(
		coord,
		classifier.New(classifierClient, coord, classifier.Config{
			Model:   cfg.ClassifierModel,
			Timeout: cfg.ClassifierTimeout,
		}, log),
		query.NewExecutor(db, cfg.QueryTimeout, log),
		gen,
		convlog.New(db, log, logOpts...),
		log,
	)

	router := handler.NewRouter(handler.RouterConfig{
		Chat: chatSvc,
		Health: handler.HealthConfig{
			DB:                   db,
			NATS:                 natsClient,
			Coordinator:          coord,
			ClassifierConfigured: classifierClient != nil,
			GeneratorConfigured:  gen.Configured(),
			ScanCooldown:         cfg.ScanCooldown,
		},
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if n := coord.Shutdown(); n > 0 {
		log.Warn("pending requests abandoned at shutdown", zap.Int("count", n))
	}

	log.Info("server stopped")
	return nil
}

// buildClients returns the classification and generation backends. Either may
// be nil when its credential is missing; callers then take their fallbacks.
func buildClients(cfg *config.Config, log *logger.Logger) (classifierClient, generatorClient llm.Client) {
	var openRouter llm.Client
	if cfg.OpenRouterAPIKey != "" {
		c, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenRouterBaseURL,
			Headers: map[string]string{
				"HTTP-Referer": cfg.OpenRouterReferer,
				"X-Title":      cfg.OpenRouterTitle,
			},
		})
		if err != nil {
			log.Warn("failed to create OpenRouter client", zap.Error(err))
		} else {
			openRouter = c
		}
	} else {
		log.Warn("OPENROUTER_API_KEY not set, classification falls back to sensor scans")
	}
	classifierClient = openRouter

	provider, err := llm.ParseProvider(cfg.GenerationProvider)
	if err != nil {
		log.Warn("unknown generation provider, using openrouter", zap.Error(err))
		provider = llm.ProviderOpenRouter
	}

	switch provider {
	case llm.ProviderAnthropic:
		c, err := llm.NewAnthropicClient(cfg.AnthropicAPIKey)
		if err != nil {
			log.Warn("failed to create Anthropic client, replies will apologize", zap.Error(err))
		} else {
			generatorClient = c
		}
	default:
		generatorClient = openRouter
	}
	return classifierClient, generatorClient
}
