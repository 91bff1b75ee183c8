package internal

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runrelay/runrelay/internal/server"
)

func NewServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the relay HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, orch, err := buildRelay(*cfgPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return server.New(cfg, orch, log).Run(ctx)
		},
	}
}
