package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-bayesnet/pkg/bayesnet"
	"github.com/dd0wney/cluso-bayesnet/pkg/graphql"
	"github.com/dd0wney/cluso-bayesnet/pkg/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GraphQL inspection and Prometheus metrics over HTTP",
		Long: `serve builds the model once and serves it read-only:

  /graphql   GraphQL queries (GET ?query= or POST JSON)
  /metrics   Prometheus metrics of the modeling layer
  /healthz   liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m, err := a.openModel()
			if err != nil {
				return err
			}
			handler, err := a.newMux(m, time.Now())
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              a.cfg.Listen,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			a.log.Info("serving model", logging.Model(m.ID()), logging.String("listen", a.cfg.Listen))

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			a.events.Shutdown()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			a.log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().String("listen", "127.0.0.1:8089", "address to listen on")
	cmd.Flags().Int("max-depth", graphql.DefaultMaxDepth, "maximum query nesting depth")
	return cmd
}

func (a *app) newMux(m *bayesnet.Model, started time.Time) (http.Handler, error) {
	schema, err := graphql.GenerateSchema(m)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", graphql.NewGraphQLHandler(schema, a.cfg.MaxQueryDepth, a.log.With(logging.Component("graphql"))))

	metricsHandler := promhttp.HandlerFor(a.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		a.metrics.UpdateSystemMetrics(started)
		metricsHandler.ServeHTTP(w, r)
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux, nil
}
