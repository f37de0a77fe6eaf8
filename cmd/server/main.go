package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/memberledger/internal/featureflags"
	"github.com/aryan0dhankhar/memberledger/internal/handler"
	"github.com/aryan0dhankhar/memberledger/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/memberledger/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/memberledger/internal/observability/tracing"
	"github.com/aryan0dhankhar/memberledger/internal/reliability/retry"
	"github.com/aryan0dhankhar/memberledger/internal/repository"
	"github.com/aryan0dhankhar/memberledger/internal/security"
	"github.com/aryan0dhankhar/memberledger/internal/security/audit"
	"github.com/aryan0dhankhar/memberledger/internal/security/auth"
	"github.com/aryan0dhankhar/memberledger/internal/security/ratelimit"
	"github.com/aryan0dhankhar/memberledger/internal/service"
	"github.com/aryan0dhankhar/memberledger/internal/worker"
	"github.com/aryan0dhankhar/memberledger/pkg/config"
	"github.com/aryan0dhankhar/memberledger/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting memberledger server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Connect to the record store
	dbCfg := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	pool, err := retry.Do(ctx, retry.DefaultConfig(), log, "connect database",
		func(ctx context.Context) (*database.ConnectionPool, error) {
			return database.NewConnectionPool(ctx, dbCfg, log)
		})
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := pool.Migrate(ctx); err != nil {
			log.Error("failed to migrate database", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 4. Statistics cache
	var (
		statsCache  service.StatsCache
		redisClient *redis.Client
		redisProbe  handler.Pinger
	)
	if featureflags.Enabled(featureflags.StatsCache) {
		if cfg.RedisURL != "" {
			redisClient, err = redis.NewClient(ctx, cfg.RedisURL, log)
			if err != nil {
				log.Error("failed to connect to Redis", slog.String("error", err.Error()))
				os.Exit(1)
			}
			defer redisClient.Close()
			statsCache = redis.NewStatsCache(redisClient, cfg.StatsCacheTTL, log)
			redisProbe = redisClient
		} else {
			statsCache = service.NewMemoryStatsCache(cfg.StatsCacheTTL)
		}
	}

	// 5. Initialize repositories
	db := pool.GetDB()
	memberRepo := repository.NewPostgresMemberRepository(db, log)
	contributionRepo := repository.NewPostgresContributionRepository(db, log)
	userRepo := repository.NewPostgresUserRepository(db, log)

	// 6. Security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "", cfg.TokenTTL)
	authz := security.NewAuthorizationService(log)
	auditLogger := audit.NewLogger(log)
	loginLimiter := ratelimit.NewLimiter(cfg.LoginRatePerMinute, time.Minute)
	defer loginLimiter.Stop()

	// 7. Initialize services
	authService := service.NewAuthService(userRepo, tokenManager, auditLogger, log)
	if created, err := authService.Bootstrap(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword); err != nil {
		log.Error("failed to bootstrap admin account", slog.String("error", err.Error()))
		os.Exit(1)
	} else if created {
		log.Info("bootstrap admin account ready", slog.String("username", cfg.BootstrapAdminUsername))
	}

	statsService := service.NewStatsService(memberRepo, contributionRepo, statsCache, log)
	memberService := service.NewMemberService(memberRepo, statsService, log)
	contributionService := service.NewContributionService(contributionRepo, statsService, log)
	userService := service.NewUserService(userRepo, authz, auditLogger, log)

	if statsCache != nil && cfg.StatsWarmInterval > 0 {
		go worker.NewStatsWarmer(statsService, log, cfg.StatsWarmInterval).Start(ctx)
	}

	// 8. Setup HTTP routes
	router := handler.NewRouter(handler.RouterDeps{
		Auth:           authService,
		Members:        memberService,
		Contributions:  contributionService,
		Stats:          statsService,
		Users:          userService,
		Health:         handler.NewHealthHandler(pool, redisProbe, log),
		Authz:          authz,
		Audit:          auditLogger,
		LoginLimiter:   loginLimiter,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         log,
	})

	// 9. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(router, "memberledger"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("stats_cache", statsCache != nil),
		slog.Bool("redis", redisClient != nil),
		slog.Int("login_rate_per_minute", cfg.LoginRatePerMinute),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracer shutdown error", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}
