package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agdev/finagent/internal/agent/graph"
	"github.com/agdev/finagent/internal/agent/graph/conversations"
	"github.com/agdev/finagent/internal/agent/graph/nodes"
	"github.com/agdev/finagent/internal/agent/model"
	"github.com/agdev/finagent/internal/agent/repo"
	"github.com/agdev/finagent/internal/core"
	errx "github.com/agdev/finagent/internal/core/error"
	"github.com/agdev/finagent/pkg/fmp"
	logx "github.com/agdev/finagent/pkg/logger"
	"github.com/agdev/finagent/pkg/openrouter"
	pkgredis "github.com/agdev/finagent/pkg/redis"
)

// AppConfig defines all configurable parameters of the assistant,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis       pkgredis.Config
	Memory      model.MemoryConfig
	Thread      model.ThreadConfig
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	// LLM providers
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL"`
	OpenRouter    openrouter.Config
	model.ModelsConfig

	// Financial data
	FMP fmp.Config

	// Execution context of this session
	UserID   string `envconfig:"USER_ID" default:"local-user"`
	ThreadID string `envconfig:"THREAD_ID"`
}

type backends struct {
	memory  model.MemoryStore
	threads model.ThreadRepository
	close   func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load .env file: %v\n", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to process environment config: %v\n", err)
		os.Exit(1)
	}

	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(cfg.Environment),
		Level:       cfg.LogLevel,
	})

	store, err := openBackends(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise storage backend")
	}
	defer store.close()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	runner, err := graph.BuildFinanceGraph(ctx, graph.Config{
		ChatModels: nodes.ChatModelConfig{
			Provider:      cfg.Provider,
			GeminiAPIKey:  cfg.GeminiAPIKey,
			GeminiBaseURL: cfg.GeminiBaseURL,
			OpenRouter:    &cfg.OpenRouter,
			Models:        cfg.ModelsConfig,
		},
		Memory:       store.memory,
		DataProvider: cfg.FMP.New(),
		ThreadRepo:   store.threads,
		Thread:       cfg.Thread,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build graph")
	}

	threadID := cfg.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}
	threads := conversations.NewThreadManager(store.threads, cfg.Thread)

	fmt.Printf("Financial assistant ready (user %s, thread %s)\n", cfg.UserID, threadID)
	fmt.Println("Commands: /history, /reset, /quit")

	repl(ctx, runner, threads, cfg.UserID, threadID, cfg.FMP.APIKey)
}

func repl(ctx context.Context, runner graph.Runner, threads *conversations.ThreadManager, userID, threadID, apiKey string) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return
		case "/history":
			turns, err := threads.History(ctx, threadID)
			if err != nil {
				logx.Error().Err(err).Msg("Failed to load history")
				continue
			}
			if len(turns) == 0 {
				fmt.Println("(no turns yet)")
				continue
			}
			fmt.Println(conversations.FormatHistory(turns))
			continue
		case "/reset":
			if err := threads.Reset(ctx, threadID); err != nil {
				logx.Error().Err(err).Msg("Failed to reset thread")
				continue
			}
			fmt.Println("Thread cleared.")
			continue
		}

		start := time.Now()
		res, err := runner.Invoke(ctx, model.QueryInput{
			UserID:   userID,
			ThreadID: threadID,
			Query:    line,
			APIKey:   apiKey,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Printf("Sorry, something went wrong (%d). Please try again.\n", errx.StatusOf(err))
			continue
		}

		fmt.Println(res.FinalAnswer)
		logx.Debug().
			Str("invocation_id", res.InvocationID).
			Dur("elapsed", time.Since(start)).
			Msg("answered")
	}
}

func openBackends(ctx context.Context, cfg AppConfig) (*backends, error) {
	switch strings.ToLower(cfg.Memory.Backend) {
	case "", "memory":
		logx.Info().Msg("Using in-process memory store")
		return &backends{
			memory:  repo.NewInMemoryStore(),
			threads: repo.NewInMemoryThreadRepository(),
			close:   func() {},
		}, nil
	case "redis":
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, err
		}
		logx.Info().Msg("Connected to Redis successfully")
		return &backends{
			memory:  repo.NewRedisMemoryStore(rdb),
			threads: repo.NewRedisThreadRepository(rdb, cfg.Thread.TTL),
			close:   func() { _ = rdb.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported memory backend %q", cfg.Memory.Backend)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logx.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Error().Err(err).Msg("Metrics server stopped")
	}
}
