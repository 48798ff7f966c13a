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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/eyeclinic-web/cmd/mainconfig"
	"github.com/wolfman30/eyeclinic-web/internal/api/router"
	"github.com/wolfman30/eyeclinic-web/internal/app/bootstrap"
	"github.com/wolfman30/eyeclinic-web/internal/clinicapi"
	appconfig "github.com/wolfman30/eyeclinic-web/internal/config"
	httpmiddleware "github.com/wolfman30/eyeclinic-web/internal/http/middleware"
	"github.com/wolfman30/eyeclinic-web/internal/notify"
	"github.com/wolfman30/eyeclinic-web/internal/observability/metrics"
	"github.com/wolfman30/eyeclinic-web/internal/session"
	"github.com/wolfman30/eyeclinic-web/internal/web"
	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

func main() {
	// A local .env is optional.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic website",
		"env", cfg.Env,
		"port", cfg.Port,
		"clinic_api", cfg.ClinicAPIBaseURL,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsHandler, apiMetrics, bookingMetrics := setupMetrics()

	api := clinicapi.NewClient(cfg.ClinicAPIBaseURL,
		clinicapi.WithTimeout(cfg.ClinicAPITimeout),
		clinicapi.WithLogger(logger),
		clinicapi.WithMetrics(apiMetrics),
	)

	sessions, closeSessions, err := bootstrap.BuildSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSessions(); err != nil {
			logger.Warn("closing session store failed", "error", err)
		}
	}()

	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return errors.New("SESSION_SECRET is required in production")
		}
		logger.Warn("SESSION_SECRET not set; booking sessions will not survive a restart")
	}
	cookies, err := session.NewCookies(cfg.SessionSecret, cfg.SessionTTL, cfg.SessionCookieSecure)
	if err != nil {
		return err
	}

	var ses notify.SESAPI
	if cfg.EmailProvider == "ses" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		ses = mainconfig.NewSESClient(awsCfg, cfg)
	}
	emailSender, err := bootstrap.BuildEmailSender(cfg, ses, logger)
	if err != nil {
		return err
	}
	notifier := notify.NewBookingNotifier(emailSender, cfg.ClinicName, logger,
		notify.WithStaffEmail(cfg.ClinicNotifyEmail),
	)

	handler, err := web.NewHandler(web.Config{
		API:        api,
		Sessions:   sessions,
		Cookies:    cookies,
		Notifier:   notifier,
		Metrics:    bookingMetrics,
		Logger:     logger,
		ClinicName: cfg.ClinicName,
	})
	if err != nil {
		return err
	}

	formLimiter := httpmiddleware.NewRateLimiter(cfg.FormRateLimitRPS, cfg.FormRateLimitBurst)
	go formLimiter.RunEviction(ctx, 5*time.Minute, 10*time.Minute)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(&router.Config{
			Logger:             logger,
			Web:                handler,
			MetricsHandler:     metricsHandler,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			PublicBaseURL:      cfg.PublicBaseURL,
			FormLimiter:        formLimiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Booking submits wait on the clinic API.
		WriteTimeout: cfg.ClinicAPITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := notifier.Wait(shutdownCtx); err != nil {
		logger.Warn("pending confirmation emails abandoned", "error", err)
	}
	return nil
}

func setupMetrics() (http.Handler, *metrics.ClinicAPIMetrics, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return handler, metrics.NewClinicAPIMetrics(reg), metrics.NewBookingMetrics(reg)
}
