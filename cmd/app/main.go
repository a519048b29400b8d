package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-fortune-report/internal/config"
	"ai-fortune-report/internal/domain/ports/adapter"
	aiAdapters "ai-fortune-report/internal/infra/adapters/ai"
	"ai-fortune-report/internal/infra/adapters/fortune"
	pg "ai-fortune-report/internal/infra/db/postgres"
	"ai-fortune-report/internal/infra/logging"
	"ai-fortune-report/internal/infra/metrics"
	"ai-fortune-report/internal/infra/notify"
	red "ai-fortune-report/internal/infra/redis"
	"ai-fortune-report/internal/infra/web"
	"ai-fortune-report/internal/infra/worker"
	"ai-fortune-report/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop external adapters allowed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	reportCache := red.NewReportCache(redisClient, cfg.Redis.TTL)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	codeRepo := pg.NewCodeRepo(pool)
	unlockRepo := pg.NewUnlockRepo(pool)
	reportRepo := pg.NewCachedReportRepo(pg.NewReportRepo(pool), reportCache, logger)
	tm := pg.NewTxManager(pool)

	// ---- External adapters ----
	var ai adapter.AIServiceAdapter
	switch {
	case cfg.AI.GeminiKey != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: Gemini")
	case cfg.AI.OpenAIKey != "":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel, cfg.AI.OpenAIBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: OpenAI")
	case cfg.Runtime.Dev:
		ai = aiAdapters.NewNoopAI()
		logger.Warn().Msg("AI adapter: noop (dev)")
	default:
		logger.Fatal().Msg("no AI provider configured: set ai.gemini_key or ai.openai_key")
	}
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)

	var fortuneProvider adapter.FortuneProvider
	fortuneProvider, err = fortune.NewAstroClient(cfg.Fortune.BaseURL, cfg.Fortune.APIKey, cfg.Fortune.Timeout)
	if err != nil {
		if !cfg.Runtime.Dev {
			logger.Fatal().Err(err).Msg("fortune adapter")
		}
		fortuneProvider = fortune.NewNoopProvider()
		logger.Warn().Msg("fortune adapter: noop (dev)")
	}

	var notifier adapter.AdminNotifier
	if cfg.Notify.TelegramToken != "" {
		notifier, err = notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.AdminChatIDs, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier")
		}
	} else {
		notifier = notify.NewNoopNotifier()
	}

	// ---- Workers ----
	pool2 := worker.NewPool(cfg.Worker.Count, logger)
	pool2.Start(ctx)
	defer pool2.Stop()

	// ---- Use cases ----
	authUC := usecase.NewAuthUseCase(userRepo, logger)
	unlockUC := usecase.NewUnlockUseCase(codeRepo, unlockRepo, reportRepo, tm, logger)
	reportUC := usecase.NewReportUseCase(reportRepo, unlockUC, fortuneProvider, ai, pool2, notifier, cfg.AI.DefaultModel, logger)

	// ---- HTTP ----
	jwtSecret := cfg.Web.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "dev-secret-do-not-use-in-prod"
	}
	authMgr := web.NewAuthManager(jwtSecret, !cfg.Runtime.Dev, cfg.Web.SessionTTL)
	server := web.NewServer(authUC, reportUC, unlockUC, authMgr, rateLimiter,
		cfg.Unlock.AttemptLimit, cfg.Unlock.AttemptWindow, logger)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Web.Port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
}
