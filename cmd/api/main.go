package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jdfmarine/leadengine/internal/api/router"
	"github.com/jdfmarine/leadengine/internal/catalog"
	"github.com/jdfmarine/leadengine/internal/chat"
	appconfig "github.com/jdfmarine/leadengine/internal/config"
	"github.com/jdfmarine/leadengine/internal/notify"
	"github.com/jdfmarine/leadengine/internal/observability/metrics"
	"github.com/jdfmarine/leadengine/internal/store"
	"github.com/jdfmarine/leadengine/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadengine API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	business := catalog.JDFMarine
	if cfg.BusinessName != "" {
		business.Name = cfg.BusinessName
	}
	if cfg.BusinessPhone != "" {
		business.Phone = cfg.BusinessPhone
	}
	if cfg.BusinessEmail != "" {
		business.Email = cfg.BusinessEmail
	}

	registry := prometheus.NewRegistry()
	chatMetrics := metrics.NewChatMetrics(registry)

	llm, err := chat.NewProviderClient(ctx, chat.ProviderConfig{
		GatewayAPIKey:  cfg.GatewayAPIKey,
		GatewayBaseURL: cfg.GatewayBaseURL,
		GatewayModel:   cfg.GatewayModel,
		GeminiAPIKey:   cfg.GeminiAPIKey,
		GeminiModel:    cfg.GeminiModel,
		Temperature:    cfg.LLMTemperature,
		MaxTokens:      cfg.LLMMaxTokens,
		TopP:           cfg.LLMTopP,
		Timeout:        cfg.LLMTimeout,
	}, logger.WithComponent("chat"))
	if err != nil {
		logger.Error("failed to build LLM client", "error", err)
		os.Exit(1)
	}

	st := buildStore(ctx, cfg, logger)
	sender := buildEmailSender(ctx, cfg, logger)

	dispatcher := notify.NewDispatcher(st, sender, cfg.NotifyEmailTo, cfg.NotifySubjectPrefix,
		logger.WithComponent("notify"), chatMetrics)

	svc := chat.NewService(llm, st, dispatcher, chat.NewShaper(nil),
		chat.SamplingConfig{
			Model:       cfg.GatewayModel,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
			TopP:        cfg.LLMTopP,
		},
		business, logger.WithComponent("chat"), chatMetrics)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chat.NewHandler(svc, logger.WithComponent("http")),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildStore picks the persistence backend from configuration: Postgres when
// DATABASE_URL is set, Redis when REDIS_ADDR is set, otherwise in-process
// memory. A backend that fails to connect downgrades to memory so the chat
// keeps answering.
func buildStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) store.Store {
	if cfg.DatabaseURL != "" {
		db, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("postgres unavailable, falling back to memory store", "error", err)
			return store.NewMemoryStore()
		}
		logger.Info("using postgres conversation store")
		return store.NewPostgresStore(db)
	}

	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("redis unavailable, falling back to memory store", "error", err)
			return store.NewMemoryStore()
		}
		logger.Info("using redis conversation store", "addr", cfg.RedisAddr)
		return store.NewRedisStore(client, nil)
	}

	logger.Warn("no DATABASE_URL or REDIS_ADDR configured, conversation state is in-memory only")
	return store.NewMemoryStore()
}

// buildEmailSender picks the notification provider. "auto" prefers SendGrid
// when its key is present, then SES, then the logging stub.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	provider := cfg.EmailProvider
	if provider == "auto" {
		switch {
		case cfg.SendGridAPIKey != "":
			provider = "sendgrid"
		case cfg.SESFromEmail != "":
			provider = "ses"
		default:
			provider = ""
		}
	}

	switch provider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger.WithComponent("notify"))
		if sender != nil {
			logger.Info("lead alerts via sendgrid", "from", cfg.SendGridFromEmail)
			return sender
		}
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config for SES", "error", err)
			break
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger.WithComponent("notify"))
		if sender != nil {
			logger.Info("lead alerts via SES", "from", cfg.SESFromEmail, "region", cfg.AWSRegion)
			return sender
		}
	}

	logger.Warn("no email provider configured, lead alerts will only be logged")
	return notify.NewStubEmailSender(logger.WithComponent("notify"))
}
