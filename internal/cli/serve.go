package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/karupanerura/snapshot-cache/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(r *runner) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ship booking over HTTP.",
		Long: `Serve the ship booking over HTTP until interrupted.

  GET    /api/booking[?refresh=true]
  GET    /api/booking/cache
  DELETE /api/booking/cache
  GET    /healthz

With --refresh-interval the cache is refreshed in the background at that interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if cmd.Flags().Changed("listen") {
				r.cfg.Listen = listen
			}

			a, err := r.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Addr:              r.cfg.Listen,
				Handler:           httpapi.NewRouter(a, r.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				r.logger.Info("listening", slog.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				if done := a.StartRefresher(ctx); done != nil {
					defer func() { <-done }()
				}
				<-ctx.Done()

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				r.logger.Info("shutting down")
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, :8080)")
	return cmd
}
