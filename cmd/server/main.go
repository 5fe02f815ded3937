package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	bookingapi "github.com/lectoria/lectoria/api/echo"
	"github.com/lectoria/lectoria/cache"
	rediscache "github.com/lectoria/lectoria/cache/redis"
	"github.com/lectoria/lectoria/config"
	"github.com/lectoria/lectoria/domain"
	"github.com/lectoria/lectoria/internal/bot"
	"github.com/lectoria/lectoria/internal/server"
	"github.com/lectoria/lectoria/internal/telegram"
	"github.com/lectoria/lectoria/log"
	"github.com/lectoria/lectoria/mongodb"
	"github.com/lectoria/lectoria/services"
	"github.com/lectoria/lectoria/tracing"
)

var (
	appLogger      log.Logger
	httpServer     *http.Server
	tracerProvider *sdktrace.TracerProvider
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootstrapLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootstrapLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
	}
	appLogger = log.NewZerologAdapter(logLevel, cfg.LogPretty)
	ctx := context.Background()
	appLogger.Info(ctx, "Starting lectoria server...", map[string]interface{}{
		"http_port":     cfg.HTTPPort,
		"mongo_db_name": cfg.MongoDBName,
		"log_level":     cfg.LogLevel,
		"bot_polling":   cfg.BotPolling,
	})

	tp, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize TracerProvider", err)
	}
	tracerProvider = tp

	if initErr := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); initErr != nil {
		appLogger.Fatal(ctx, "Failed to initialize MongoDB connection", initErr)
	}
	db := mongodb.GetDB()

	// Repositories
	userRepo, err := mongodb.NewUserRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize UserRepository", err)
	}
	appointmentRepo, err := mongodb.NewAppointmentRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize AppointmentRepository", err)
	}
	eventRepo, err := mongodb.NewEventRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize EventRepository", err)
	}

	// Validated-token cache: Redis when configured, in-memory otherwise.
	var tokenStore cache.TokenStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		tokenStore = rediscache.NewTokenStore(redisClient, "lectoria")
		appLogger.Info(ctx, "Using Redis token cache", map[string]interface{}{"addr": cfg.RedisAddr})
	} else {
		tokenStore = cache.NewMemoryTokenStore(time.Minute)
		appLogger.Info(ctx, "Using in-memory token cache")
	}

	// Services
	signer := services.NewTokenSigner()
	signer.AddKeySigner(cfg.JWTSecretKey)
	tokenService := services.NewTokenService(
		signer,
		tokenStore,
		cfg.OtelServiceName,
		cfg.JWTSecretKey,
		time.Duration(cfg.AccessTokenTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTokenTTLHour)*time.Hour,
	)

	gate := domain.ChainGate{domain.ActiveAccountGate{}}
	authService := services.NewAuthService(userRepo, tokenService, gate, cfg.UpdateLastLogin)

	verifier := telegram.NewVerifier(cfg.TelegramBotToken)

	// Telegram bot. Without a token the server still runs, it just cannot
	// send notifications.
	var notifier bot.Notifier = bot.NopNotifier{}
	var tgBot *bot.Bot
	if cfg.TelegramBotToken != "" {
		tgBot, err = bot.New(cfg.TelegramBotToken, appLogger)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to initialize Telegram bot", err)
		}
		notifier = tgBot
		if cfg.BotPolling {
			go tgBot.Start()
		}
	} else {
		appLogger.Warn(ctx, "TELEGRAM_BOT_TOKEN not set, bot notifications disabled")
	}

	api := bookingapi.NewBookingAPI(
		verifier, authService, tokenService,
		userRepo, appointmentRepo, eventRepo,
		notifier, mongodb.Ping,
	)

	httpServer = server.NewHTTPServer(cfg, appLogger, api)
	go func() {
		appLogger.Info(ctx, fmt.Sprintf("HTTP server listening on port %s", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(ctx, "Failed to start HTTP server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit

	appLogger.Info(ctx, fmt.Sprintf("Received signal: %v. Shutting down server...", receivedSignal))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "HTTP server shutdown error", err)
		}
	}

	if tgBot != nil && cfg.BotPolling {
		tgBot.Stop()
	}

	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "TracerProvider shutdown error", err)
		}
	}

	mongodb.CloseMongoDB(shutdownCtx)

	appLogger.Info(shutdownCtx, "Server gracefully stopped.")
}
