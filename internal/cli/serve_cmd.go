package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/tranche/internal/httpapi"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and the outbox dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			if cfg.JWT.Secret == "" {
				return errors.New("serve needs jwt.secret (or TRANCHE_JWT_SECRET)")
			}
			if addr == "" {
				addr = cfg.HTTP.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pub, closePub, err := app.Publisher()
			if err != nil {
				return err
			}
			defer closePub()

			logger := app.logger()
			router := httpapi.NewRouter(httpapi.Options{
				Projects:  app.Projects,
				Accounts:  app.Accounts,
				Logger:    logger.Named("http"),
				JWTSecret: cfg.JWT.Secret,
				JWTIssuer: cfg.JWT.Issuer,
				Metrics:   app.Metrics,
				Now:       app.Now,
			})
			srv := httpapi.NewServer(addr, router, cfg.HTTP.ShutdownTimeout, logger.Named("http"))
			dispatcher := app.Dispatcher(pub)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(ctx) })
			g.Go(func() error {
				dispatcher.Run(ctx)
				return nil
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to http.addr)")
	return cmd
}
