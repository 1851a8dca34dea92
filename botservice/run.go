// Package botservice assembles and runs the bot: storage, catalog and
// gateway clients, the update poll loop, background sweepers and the
// HTTP status surface.
package botservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinephiles/cinebot/internal/api"
	"github.com/cinephiles/cinebot/internal/bot"
	"github.com/cinephiles/cinebot/internal/config"
	"github.com/cinephiles/cinebot/internal/health"
	"github.com/cinephiles/cinebot/internal/notify"
	"github.com/cinephiles/cinebot/internal/platform/factory"
	"github.com/cinephiles/cinebot/internal/platform/logger"
	"github.com/cinephiles/cinebot/internal/ratelimit"
	"github.com/cinephiles/cinebot/internal/render"
	"github.com/cinephiles/cinebot/internal/session"
	"github.com/cinephiles/cinebot/internal/store"
	"github.com/cinephiles/cinebot/internal/telegram"
	"github.com/cinephiles/cinebot/internal/tmdb"
)

// Run starts the bot service and blocks until shutdown or error.
func Run() error {
	log := logger.New("cinebot")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	// Cancellable root context bound to SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Store adapter unavailable")
		return err
	}

	catalog := tmdb.New(cfg.TMDBBaseURL, cfg.TMDBAPIKey, cfg.TMDBImageBaseURL,
		time.Duration(cfg.UpstreamTimeout)*time.Second)
	gateway := telegram.NewClient(cfg.GatewayBaseURL, cfg.BotToken, cfg.PollTimeout)

	sessions := session.NewStore(cfg.SessionTTL())
	limiter := ratelimit.New(cfg.RateLimitEvents, cfg.RateWindow())
	renderer := render.New(cfg.MovieSourceTemplates, cfg.TVSourceTemplates)

	b := bot.New(gateway, catalog, st, sessions, limiter, renderer, log)

	// Component health checkers feed the aggregate used by /metrics and
	// the startup gate.
	svcHealth := startHealthCheckers(ctx, cfg, log, st, catalog, gateway)
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Err(err).Msg("startup health check failed")
		return err
	}

	// Background maintenance.
	sessions.StartSweeper(ctx, cfg.SweepInterval(), log)
	startLimiterSweeper(ctx, limiter, cfg.RateWindow())
	notify.New(gateway, catalog, st, log).Start(ctx, time.Duration(cfg.NotifyIntervalHours)*time.Hour)

	// HTTP status surface.
	statusSrv := api.NewServer(sessions, svcHealth, time.Now(), log)
	server := newHTTPServer(ctx, cfg, statusSrv.Router())
	errCh := serveHTTP(server, log, cfg)

	// Update poll loop.
	go pollUpdates(ctx, gateway, b, log)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down bot service")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Bot service exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}

// pollUpdates long-polls the gateway and dispatches each update on its
// own goroutine so a slow screen for one user never stalls the others.
func pollUpdates(ctx context.Context, gw *telegram.Client, b *bot.Bot, log zerolog.Logger) {
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := gw.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("getUpdates failed, backing off")
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}
		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			go b.HandleUpdate(ctx, upd)
		}
	}
}

// startHealthCheckers starts component checkers and the service-level aggregate.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger,
	st store.Store, catalog *tmdb.Client, gateway *telegram.Client) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	var checkers []health.Checker

	if pinger, ok := st.(health.Pinger); ok {
		c := health.NewPingChecker("store", pinger, log, probeTimeout)
		go c.Start(ctx, interval)
		checkers = append(checkers, c)
	}

	catalogChecker := health.NewPingChecker("tmdb", catalog, log, probeTimeout)
	go catalogChecker.Start(ctx, interval)
	checkers = append(checkers, catalogChecker)

	gatewayChecker := health.NewPingChecker("telegram", gateway, log, probeTimeout)
	go gatewayChecker.Start(ctx, interval)
	checkers = append(checkers, gatewayChecker)

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

// waitUntilHealthy blocks until the aggregate reports healthy or the
// startup window expires. Checkers start unhealthy, so the window covers
// at least two probe cycles.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := cfg.HealthIntervalSeconds * 2
	if timeoutSeconds < 60 {
		timeoutSeconds = 60
	}
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("dependencies not healthy after %ds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func startLimiterSweeper(ctx context.Context, l *ratelimit.Limiter, window time.Duration) {
	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep(time.Now())
			}
		}
	}()
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}
