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

	"github.com/spf13/cobra"

	"github.com/AlenaMolokova/circlepay/internal/matching"
	"github.com/AlenaMolokova/circlepay/internal/pending"
	"github.com/AlenaMolokova/circlepay/internal/router"
	"github.com/AlenaMolokova/circlepay/internal/usecase"
	"github.com/AlenaMolokova/circlepay/internal/worker"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var (
		addr    string
		noSweep bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the background sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.cfg.RunAddr
			}
			if a.cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is required to serve the API")
			}
			if err := a.ensureSheets(ctx); err != nil {
				a.log.Warn().Err(err).Msg("Failed to prepare sheets, continuing")
			}

			engine := matching.NewEngine(a.ledger, a.settings, a.log)
			intents := pending.NewStore(a.cfg.PendingTTL, a.log)

			r, err := router.SetupRoutes(router.Deps{
				Withdrawals: usecase.NewWithdrawalUseCase(a.ledger, a.settings),
				BuyIns:      usecase.NewBuyInUseCase(engine, a.settings),
				Pending:     intents,
				JWTSecret:   a.cfg.JWTSecret,
				RateLimit:   a.cfg.APIRateLimit,
				Logger:      a.log,
			})
			if err != nil {
				return err
			}

			go func() {
				if err := intents.Run(ctx, time.Minute); err != nil {
					a.log.Error().Err(err).Msg("Pending intent janitor stopped")
				}
			}()
			if !noSweep {
				go worker.NewSweeper(a.ledger, a.settings, a.cfg.SweepInterval, a.log).Start(ctx)
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", addr).Msg("Starting circlepay server")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides RUN_ADDRESS)")
	cmd.Flags().BoolVar(&noSweep, "no-sweep", false, "do not run the background sweeper")
	return cmd
}
