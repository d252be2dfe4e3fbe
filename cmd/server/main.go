package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/aggregator"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/alerts"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/analytics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/api"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/auth"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/config"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/ingestion"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/metrics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/poller"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/state"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/storage"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/websocket"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/pkg/middleware"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(console)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	out, closeLog := logOutput(console, cfg.LogFile)
	defer closeLog()
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Str("timezone", cfg.Timezone.String()).
		Msg("starting E-PROSYS analytics server")

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.Get()

	// Create feed store
	storeCfg, err := storage.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load store configuration")
	}
	store, err := storage.NewStore(ctx, storeCfg, component("storage"))
	if err != nil {
		log.Fatal().Err(err).Str("mode", string(storeCfg.Mode)).Msg("failed to create store")
	}
	defer store.Close()

	// Create state container and poller
	st := state.NewContainer(cfg.Timezone)
	feedPoller := poller.NewPoller(store, st, poller.Intervals{
		Presence: cfg.PollPresence,
		Tickets:  cfg.PollTickets,
		Alerts:   cfg.PollAlerts,
		Ranking:  cfg.PollRanking,
	}, m, component("poller"))

	// Create WebSocket hub
	hub := websocket.NewHub(m, component("hub"))
	go hub.Run()

	// Create aggregator
	aggregatorService := aggregator.NewAggregator(st, hub, analytics.Options{
		Location: cfg.Timezone,
		Denylist: analytics.DefaultAgentDenylist,
		Aging: alerts.Thresholds{
			Warning:  cfg.AgingWarning,
			Critical: cfg.AgingCritical,
		},
	}, m, component("aggregator"))

	go feedPoller.Start(ctx)
	go aggregatorService.Start(ctx)

	// Create refresh triggers
	trigger := ingestion.NewTrigger(feedPoller, storeCfg.Schema, m, component("trigger"))
	go trigger.Run(ctx)
	webhook := ingestion.NewWebhookReceiver(trigger, component("webhook"))

	if len(cfg.KafkaBrokers) > 0 {
		kafkaTrigger := ingestion.NewKafkaTrigger(ingestion.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		}, trigger, component("kafka"))
		go kafkaTrigger.Start(ctx)
		defer kafkaTrigger.Close()
	}

	// Create handlers
	wsHandler := websocket.NewHandler(hub, cfg, component("websocket"))
	dashboardHandler := api.NewDashboardHandler(st, feedPoller, aggregatorService, log.Logger)
	agentHandler := api.NewAgentHandler(store, st, aggregatorService, log.Logger)
	authenticator := auth.New(auth.Options{
		SkipAuth:        cfg.SkipAuth,
		JWTSecret:       cfg.SupabaseJWTSecret,
		OIDCIssuer:      cfg.OIDCIssuer,
		AllowUnverified: cfg.AllowUnverifiedTokens(),
	}, component("auth"))

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Handle("/metrics", m.Handler())

	// Internal routes (no auth - for database webhooks)
	r.Route("/internal", func(r chi.Router) {
		r.Post("/refresh", webhook.HandleRefresh)
		r.Get("/refresh/stats", webhook.GetStats)
	})

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(authenticator.Middleware)
		r.Get("/ws", wsHandler.ServeHTTP)

		r.Route("/api", func(r chi.Router) {
			r.Get("/dashboard", dashboardHandler.GetDashboard)
			r.Put("/view", dashboardHandler.PutView)
			r.Get("/warroom", dashboardHandler.GetWarRoom)
			r.Get("/clients", dashboardHandler.GetClients)
			r.Get("/presence", dashboardHandler.GetPresence)
			r.Get("/alerts", dashboardHandler.GetAlerts)
			r.Get("/agents/ranking", agentHandler.GetRanking)
			r.Get("/agents/{agentId}/transfers", agentHandler.GetTransfers)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop polling, aggregation and triggers
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Dur("uptime", m.Uptime()).Msg("server stopped")
}

// component returns the global logger scoped to a component
func component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"eprosys-analytics"}`)
}
