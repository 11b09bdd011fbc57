package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/keyrush/internal/config"
	"github.com/verte-zerg/keyrush/internal/leaderboard"
	"github.com/verte-zerg/keyrush/internal/server"
	"github.com/verte-zerg/keyrush/internal/store"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the shared leaderboard server",
		Long:  "Run the shared leaderboard server. Settings come from KEYRUSH_* environment variables or a .env file.",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides KEYRUSH_ADDR)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	env := config.LoadServerEnv()
	if serveAddr != "" {
		env.Addr = serveAddr
	}

	st, err := store.Open(env.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	srv := server.New(leaderboard.NewService(st), server.Config{
		Addr:            env.Addr,
		RateRPS:         env.RateRPS,
		RateBurst:       env.RateBurst,
		ShutdownTimeout: env.ShutdownTimeout,
	})
	ctx, stop := signal.NotifyContext(baseContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
