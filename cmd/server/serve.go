package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"lectern/internal/platform/config"
	"lectern/internal/platform/httpserver"
	"lectern/internal/platform/logger"
	"lectern/internal/platform/metrics"
	"lectern/internal/platform/middleware"
	"lectern/pkg/platform/httputil"
	"lectern/pkg/platform/middleware/metadata"
	"lectern/pkg/platform/middleware/request"
	"lectern/pkg/platform/middleware/requesttime"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the verification HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString(configFlag)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx, path)
			if err != nil {
				return err
			}
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.Environment, cfg.Server.LogLevel)

	deps, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(request.RequestID)
	router.Use(requesttime.Middleware)
	router.Use(metadata.ClientMetadata)
	router.Use(middleware.Observe(log, metrics.New(deps.registry)))
	router.Get("/healthz", deps.healthz)
	router.Handle("/metrics", metrics.Handler())
	deps.handler.Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting lectern", "addr", cfg.Server.Addr, "environment", cfg.Environment)
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

	log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	deps.drain()
	return nil
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Time   time.Time         `json:"time"`
}

// healthz reports ok only when every configured backend answers.
func (d *dependencies) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: map[string]string{}, Time: time.Now().UTC()}
	check := func(name string, err error) {
		if err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			return
		}
		resp.Checks[name] = "ok"
	}
	if d.db != nil {
		check("postgres", d.db.PingContext(ctx))
	}
	if d.redis != nil {
		check("redis", d.redis.Health(ctx))
	}
	if d.kafka != nil {
		check("kafka", d.kafka.Ping(ctx))
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}
