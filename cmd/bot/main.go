package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/designdesk/internal/config"
	"github.com/openclaw/designdesk/internal/database"
	"github.com/openclaw/designdesk/internal/discord"
	apperrors "github.com/openclaw/designdesk/internal/errors"
	"github.com/openclaw/designdesk/internal/handler"
	"github.com/openclaw/designdesk/internal/jobs"
	"github.com/openclaw/designdesk/internal/middleware"
	"github.com/openclaw/designdesk/internal/quota"
	"github.com/openclaw/designdesk/internal/redis"
	"github.com/openclaw/designdesk/internal/repository"
	"github.com/openclaw/designdesk/internal/service"
)

const (
	statusRateLimit  = 60
	statusRateWindow = time.Minute
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Debug().Str("file", envFile).Msg("no env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	location, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timezone")
	}
	cutoff, err := cfg.Cutoff()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid unlimited cutoff")
	}

	policy := quota.DefaultPolicy(cutoff)
	policy.DisplayCeiling = cfg.DisplayCeiling
	policy.UnlimitedSentinel = cfg.UnlimitedSentinel

	var clientRepo repository.ClientRepository
	switch cfg.ClientBackend {
	case config.BackendPostgres:
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := repository.EnsureClientSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare client schema")
		}
		cancel()
		log.Info().Msg("database connected")

		clientRepo = repository.NewPostgresClientRepository(db, cfg.UnlimitedSentinel)
	default:
		clientRepo = repository.NewFileClientRepository(cfg.ClientsFile, cfg.UnlimitedSentinel)
	}

	root, err := clientRepo.Load(context.Background())
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeConfigIntegrity {
			log.Fatal().Err(err).Msg("client configuration is invalid")
		}
		log.Fatal().Err(err).Msg("failed to load client configuration")
	}
	log.Info().Int("clients", len(root.Clients)).Str("backend", cfg.ClientBackend).Msg("client configuration loaded")

	var limiter, statusLimiter service.CommandLimiter
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		limiter = service.NewRateLimiter(redisClient.Client, service.WithFailOpen())
		statusLimiter = service.NewRateLimiter(redisClient.Client)
	} else {
		limiter = service.NewMemoryLimiter()
		statusLimiter = limiter
	}

	requestService := service.NewRequestService(
		clientRepo, policy, limiter, cfg.RequestRateLimit, cfg.RequestRateWindow(),
	)
	usageService := service.NewUsageService(clientRepo, policy)

	bot, err := discord.New(cfg.DiscordToken, cfg.PlatformCallTimeout())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create discord session")
	}

	requestHandler := handler.NewRequestHandler(requestService, bot.Client(), handler.RequestHandlerConfig{
		Prefix:             cfg.CommandPrefix,
		ApprovalEmoji:      cfg.ApprovalEmoji,
		AdminUserID:        cfg.AdminUserID,
		AutoArchiveMinutes: cfg.ThreadAutoArchiveMinutes,
		AddRequester:       cfg.ThreadAddRequester,
		MentionAdmin:       cfg.MentionAdmin,
	})
	completionHandler := handler.NewCompletionHandler(bot.Client(), handler.CompletionHandlerConfig{
		ApprovalEmoji:      cfg.ApprovalEmoji,
		AdminUserID:        cfg.AdminUserID,
		CompletedChannelID: cfg.CompletedChannelID,
		Location:           location,
	})
	statusHandler := handler.NewStatusHandler(usageService)

	bot.Register(requestHandler, completionHandler)
	if err := bot.Open(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to discord")
	}

	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(cfg.EnableHSTS)
	statusRateLimitMiddleware := middleware.NewIPRateLimitMiddleware(statusLimiter, statusRateLimit, statusRateWindow, "status")

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", statusHandler.Health)

	if cfg.StatusAPIToken != "" {
		r.Route("/v1", func(r chi.Router) {
			r.Use(statusRateLimitMiddleware.Handler)
			r.Use(middleware.NewTokenAuthMiddleware(cfg.StatusAPIToken).Handler)
			r.Mount("/", statusHandler.Routes())
		})
	}

	var resetJob *jobs.PeriodResetJob
	if cfg.PeriodResetEnabled {
		resetJob = jobs.NewPeriodResetJob(usageService, location, config.PeriodResetInterval)
		resetJob.Start()
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerRequestTimeout + 5*time.Second,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting status server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	if resetJob != nil {
		resetJob.Stop()
	}

	if err := bot.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close discord session")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("bot stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
