package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/promptforge/promptforge/internal/adapter/cli"
	"github.com/promptforge/promptforge/internal/adapter/llm"
	"github.com/promptforge/promptforge/internal/adapter/llm/gemini"
	llmhttp "github.com/promptforge/promptforge/internal/adapter/llm/http"
	"github.com/promptforge/promptforge/internal/adapter/llm/static"
	"github.com/promptforge/promptforge/internal/adapter/observability"
	"github.com/promptforge/promptforge/internal/adapter/registry"
	"github.com/promptforge/promptforge/internal/adapter/vectorstore"
	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/security/redact"
	"github.com/promptforge/promptforge/internal/security/validate"
	"github.com/promptforge/promptforge/internal/server"
	"github.com/promptforge/promptforge/internal/usecase/generate"
	"github.com/promptforge/promptforge/internal/usecase/ingest"
	"github.com/promptforge/promptforge/internal/usecase/quality"
	"github.com/promptforge/promptforge/internal/usecase/retrieval"
	"github.com/promptforge/promptforge/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "pf",
		EnvPrefix:   "PF",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zl, err := buildZapLogger(cfg.Observability.Logging)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := observability.NewLogger(zl)

	// Vector store: remote search service when configured, in-memory otherwise.
	var store vectorstore.Store
	if cfg.VectorStore.URL != "" {
		store = vectorstore.NewHTTPStore(cfg.VectorStore.URL, cfg.VectorStore.Collection)
	} else {
		zl.Warn("no vector store URL configured, using in-memory store")
		store = vectorstore.NewMemoryStore()
	}

	// Document registry is optional; ingestion works without it.
	var docRegistry ingest.Registry
	if cfg.Registry.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Registry.Path), 0o755); err != nil {
			zl.Warn("failed to create registry directory", zap.Error(err))
		} else if sqliteStore, err := registry.NewStore(cfg.Registry.Path); err != nil {
			zl.Warn("failed to initialize registry", zap.Error(err))
		} else {
			docRegistry = sqliteStore
			defer sqliteStore.Close()
		}
	}

	provider := buildProvider(cfg.LLM, zl, cfg.Observability.Logging.RedactAPIKeys)

	chain := generate.NewChain(generate.Deps{
		Validator: validate.New(validate.Limits{
			MaxRequestBytes: cfg.Security.MaxRequestBytes,
			MaxContextBytes: cfg.Security.MaxContextBytes,
		}),
		Retriever: retrieval.New(vectorstore.NewSearcher(store), logger, cfg.Retrieval.MinRelevanceScore),
		Builder:   generate.NewBuilder(),
		Gates: quality.New(quality.Thresholds{
			MinSystemLength: cfg.Quality.MinSystemLength,
			MinTotalLength:  cfg.Quality.MinTotalLength,
			MinAgentLength:  cfg.Quality.MinAgentLength,
			PassScore:       cfg.Quality.PassScore,
		}),
		Redactor: redact.New(redact.WithReplacement(cfg.Security.RedactionReplacement)),
		LLM:      provider,
		Tokens:   llm.TokenEstimator{},
		Logger:   logger,
	})

	ingestSvc := ingest.NewService(ingest.Deps{
		Store:    store,
		Registry: docRegistry,
		Chunker:  ingest.NewChunker(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap),
		Logger:   logger,
	})

	srv := server.New(server.Deps{
		Generator:    chain,
		Ingestor:     ingestSvc,
		Logger:       logger,
		APIKeys:      cfg.Server.APIKeys,
		MaxBodyBytes: int64(cfg.Security.MaxContextBytes) * 2,
		Version:      version.Version(),
	})

	root := cli.NewRootCommand(cli.Dependencies{
		Generator:   chain,
		Ingestor:    ingestSvc,
		Serve:       serveFunc(srv, zl),
		DefaultAddr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Version:     version.Version(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return err
	}
	return nil
}

// serveFunc runs the HTTP server until the context is cancelled, then shuts
// down gracefully.
func serveFunc(srv *server.Server, zl *zap.Logger) func(ctx context.Context, addr string) error {
	return func(ctx context.Context, addr string) error {
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zl.Info("serving HTTP API", zap.String("addr", addr))
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	}
}

// buildProvider returns the configured LLM client, falling back to the
// static provider when no usable configuration exists. The pipeline
// degrades rather than failing to start.
func buildProvider(cfg config.LLMConfig, zl *zap.Logger, redactKeys bool) generate.LLM {
	if cfg.Provider != "gemini" || cfg.APIKey == "" {
		if cfg.Provider == "gemini" {
			zl.Warn("no Gemini API key configured, using static provider")
		}
		return static.NewProvider()
	}

	opts := []gemini.Option{
		gemini.WithTemperature(cfg.Temperature),
		gemini.WithLogger(observability.NewLLMLogger(zl, redactKeys)),
	}
	if timeout, err := time.ParseDuration(cfg.Timeout); err == nil {
		opts = append(opts, gemini.WithTimeout(timeout))
	}

	retryConf := llmhttp.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retryConf.MaxRetries = cfg.MaxRetries
	}
	if backoff, err := time.ParseDuration(cfg.InitialBackoff); err == nil {
		retryConf.InitialBackoff = backoff
	}
	if backoff, err := time.ParseDuration(cfg.MaxBackoff); err == nil {
		retryConf.MaxBackoff = backoff
	}
	opts = append(opts, gemini.WithRetryConfig(retryConf))

	return gemini.NewClient(cfg.APIKey, cfg.Model, opts...)
}

func buildZapLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "pf"))
	}
	return paths
}
