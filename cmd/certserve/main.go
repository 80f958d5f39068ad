// Package main is the entry point for the certserve server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medipause/certserve/internal/config"
	"github.com/medipause/certserve/internal/document"
	"github.com/medipause/certserve/internal/fulfillment"
	"github.com/medipause/certserve/internal/mail"
	"github.com/medipause/certserve/internal/observability"
	"github.com/medipause/certserve/internal/payment"
	"github.com/medipause/certserve/internal/transport"
	"github.com/medipause/certserve/internal/wizard"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "certserve", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Wizard step definitions: file override or embedded defaults.
	var steps *wizard.StepSet
	if cfg.Wizard.StepsFile != "" {
		steps, err = wizard.LoadFile(cfg.Wizard.StepsFile)
	} else {
		steps, err = wizard.Default()
	}
	if err != nil {
		logger.Error("step definitions failed to load", zap.Error(err))
		return 1
	}

	claimStore, claimCloser, err := buildClaimStore(ctx, cfg.Claims, logger)
	if err != nil {
		logger.Error("claim store initialization failed", zap.Error(err))
		return 1
	}

	processor := payment.NewHTTPProcessor(cfg.Payment.BaseURL, cfg.Payment.Secret, cfg.Payment.Timeout)
	initiator := payment.NewInitiator(processor, cfg.Payment.SuccessURL, cfg.Payment.CancelURL, logger)

	renderer := document.NewHTTPRenderer(cfg.Renderer.BaseURL, cfg.Renderer.Timeout)
	mailer := mail.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.Secure)
	verifier := fulfillment.NewVerifier(cfg.Webhook.Secret, cfg.Webhook.Tolerance)

	pipeline := fulfillment.NewPipeline(verifier, claimStore, renderer, mailer, metrics, logger,
		fulfillment.PipelineConfig{
			ClaimTTL:     cfg.Claims.TTL,
			StageTimeout: cfg.Renderer.Timeout,
		})

	readiness := observability.ReadinessChecks{Renderer: renderer}
	if hc, ok := claimStore.(observability.HealthChecker); ok {
		readiness.ClaimStore = hc
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Steps:     steps,
		Initiator: initiator,
		Pipeline:  pipeline,
		Readiness: readiness,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("claims_driver", cfg.Claims.Driver),
		zap.Int("wizard_steps", steps.Count()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Let background fulfillment finish: an acknowledged notification must
	// not lose its certificate to a restart when we can avoid it.
	if err := pipeline.Drain(shutdownCtx); err != nil {
		logger.Error("fulfillment drain timed out", zap.Error(err))
	}

	if claimCloser != nil {
		claimCloser()
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// buildClaimStore creates the event claim store based on config.
func buildClaimStore(ctx context.Context, cfg config.ClaimsConfig, logger *zap.Logger) (fulfillment.ClaimStore, func(), error) {
	switch cfg.Driver {
	case "memory", "":
		logger.Info("using in-memory claim store")
		return fulfillment.NewMemoryClaimStore(), nil, nil

	case "redis":
		addr := os.Getenv(cfg.AddrEnv)
		if addr == "" {
			return nil, nil, fmt.Errorf("claim store: %s environment variable not set", cfg.AddrEnv)
		}
		client := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("claim store: redis ping: %w", err)
		}
		return fulfillment.NewRedisClaimStore(client), func() { _ = client.Close() }, nil

	case "postgres":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("claim store: %s environment variable not set", cfg.DSNEnv)
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("claim store: connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("claim store: ping: %w", err)
		}
		store := fulfillment.NewPostgresClaimStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported claim store driver: %q", cfg.Driver)
	}
}
