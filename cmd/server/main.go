package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ddtips/dashboard/internal/api"
	"github.com/ddtips/dashboard/internal/config"
	"github.com/ddtips/dashboard/internal/exposure"
	"github.com/ddtips/dashboard/internal/metrics"
	"github.com/ddtips/dashboard/internal/notify"
	"github.com/ddtips/dashboard/internal/quote"
	"github.com/ddtips/dashboard/internal/report"
	"github.com/ddtips/dashboard/internal/scheduler"
	"github.com/ddtips/dashboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize store ---
	st, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("store initialization failed", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	// --- Notifications ---
	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			slog.Error("telegram initialization failed", "err", err)
			os.Exit(1)
		}
		notifier = tg
		slog.Info("telegram notifications enabled", "chat_id", cfg.TelegramChatID)
	} else {
		slog.Warn("TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID not set, notifications are only logged")
	}

	// --- Scheduled reports ---
	loc := cfg.Location()
	sched := scheduler.New(st, notifier, loc)
	for kind, spec := range map[report.Kind]string{
		report.KindDaily:   cfg.DailyCron,
		report.KindWeekly:  cfg.WeeklyCron,
		report.KindMonthly: cfg.MonthlyCron,
	} {
		if err := sched.Schedule(kind, spec); err != nil {
			slog.Error("report schedule rejected", "kind", kind, "spec", spec, "err", err)
			os.Exit(1)
		}
	}
	if cfg.ValueBotCron != "" {
		if err := sched.ScheduleValueBot(cfg.ValueBotCron, cfg.ValueBot()); err != nil {
			slog.Error("value bot schedule rejected", "spec", cfg.ValueBotCron, "err", err)
			os.Exit(1)
		}
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	// --- Exposure limits ---
	limiter := exposure.NewLimiter(cfg.Capital, cfg.ExposureFraction)
	if limiter.Enabled() {
		slog.Info("exposure limiter enabled", "fraction", cfg.ExposureFraction.String(), "capital", cfg.Capital.Total().String())
	}

	// --- WebSocket hub ---
	wsHub := api.NewWSHub(cfg.CORSOrigins)
	go wsHub.Run(ctx)

	// --- Dashboard service ---
	svc := api.NewService(st, api.Options{
		Capital:  cfg.Capital,
		Limiter:  limiter,
		Hub:      wsHub,
		Reports:  sched,
		Notifier: notifier,
		Quotes:   quote.NewClient(cfg.QuoteURL),
		Location: loc,
	})

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", api.UserEmailHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"ddtips-dashboard"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Request timeouts would cut long-lived websocket connections.
		r.Use(func(next http.Handler) http.Handler {
			timeout := middleware.Timeout(30 * time.Second)(next)
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/v1/ws" {
					next.ServeHTTP(w, r)
					return
				}
				timeout.ServeHTTP(w, r)
			})
		})
		svc.Routes(r, api.AdminOnly(api.EmailAllowList(cfg.AdminEmails)))
	})

	// --- Server ---
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("ddtips dashboard listening", "port", cfg.Port, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			stop()
		}
	}()

	// Graceful shutdown.
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down ddtips dashboard...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("ddtips dashboard stopped")
}
