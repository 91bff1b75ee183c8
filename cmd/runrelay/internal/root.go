package internal

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "runrelay",
		Short: "RunRelay triggers GitHub Actions workflow runs and correlates them with caller-issued tokens.",
		Long: `RunRelay dispatches GitHub Actions workflows, which return no run id at
trigger time, and correlates the resulting runs back to opaque caller-issued
tokens so jobs can be queried and cancelled across reloads and restarts
without any storage of its own.`,
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to the YAML config file.")
	cmd.AddCommand(NewServeCmd(&cfgPath))
	cmd.AddCommand(NewTriggerCmd(&cfgPath))
	cmd.AddCommand(NewStatusCmd(&cfgPath))
	cmd.AddCommand(NewCancelCmd(&cfgPath))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
