package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storelane/authcore/adapters/credentials"
	"github.com/storelane/authcore/adapters/events"
	"github.com/storelane/authcore/adapters/store"
	"github.com/storelane/authcore/adapters/tokenizer"
	"github.com/storelane/authcore/config"
	"github.com/storelane/authcore/csrf"
	"github.com/storelane/authcore/ports"
	"github.com/storelane/authcore/ratelimit"
	"github.com/storelane/authcore/service"
	transport "github.com/storelane/authcore/transport/http"
	"github.com/storelane/authcore/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	tok, err := tokenizer.NewJWTTokenizer(cfg.SigningSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		logger.Fatal("tokenizer", zap.Error(err))
	}

	v := vault.New(vault.Params{
		Time:     cfg.ArgonTime,
		MemoryKB: cfg.ArgonMemoryKB,
		Threads:  cfg.ArgonThreads,
		KeyLen:   32,
		SaltLen:  16,
	}, cfg.HashConcurrency)

	loginLimiter := ratelimit.New(ratelimit.Config{
		Window:      cfg.LoginRateWindow,
		MaxRequests: cfg.LoginRateMax,
	})
	defer loginLimiter.Close()

	apiLimiter := ratelimit.New(ratelimit.Config{
		Window:      cfg.APIRateWindow,
		MaxRequests: cfg.APIRateMax,
	})
	defer apiLimiter.Close()

	watermarks, publisher, err := newStateBackends(cfg, logger)
	if err != nil {
		logger.Fatal("state backends", zap.Error(err))
	}

	creds, err := newCredentialStore(cfg, v)
	if err != nil {
		logger.Fatal("credential store", zap.Error(err))
	}

	sessions := service.NewSessionService(
		v, tok, creds, watermarks, publisher,
		loginLimiter, cfg.RefreshTokenTTL, logger,
	)

	guard := csrf.NewGuard(cfg.CookieSecure)
	cookies := transport.CookieConfig{Secure: cfg.CookieSecure}
	handlers := transport.NewSessionHandlers(sessions, guard, cookies, logger)
	router := transport.SetupRouter(handlers, sessions, guard, apiLimiter, cookies, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// newCredentialStore seeds the built-in store with the configured
// admin account. Deployments embedding this module as a library pass
// their own ports.CredentialStore to the session service instead.
func newCredentialStore(cfg config.Config, v *vault.Vault) (ports.CredentialStore, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	creds := credentials.NewMemoryStore()
	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := creds.Seed(seedCtx, v, cfg.AdminEmail, cfg.AdminPassword, "admin"); err != nil {
		return nil, err
	}
	return creds, nil
}

// newStateBackends picks Redis-backed watermarks and events when a
// Redis URL is configured, and in-process fallbacks otherwise. The
// fallbacks are only suitable for a single node.
func newStateBackends(cfg config.Config, logger *zap.Logger) (ports.WatermarkStore, ports.EventPublisher, error) {
	wmLogger := watermill.NewStdLogger(false, false)

	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, using in-process watermark store and event bus")
		pubsub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		return store.NewMemoryStore(), events.NewWatermillPublisher(pubsub), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, nil, err
	}

	var publisher message.Publisher
	publisher, err = redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: client},
		wmLogger,
	)
	if err != nil {
		return nil, nil, err
	}

	return store.NewRedisStore(client), events.NewWatermillPublisher(publisher), nil
}
