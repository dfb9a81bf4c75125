package main

import (
	"github.com/spf13/cobra"

	"github.com/copyleftdev/firefly/internal/config"
	"github.com/copyleftdev/firefly/internal/logging"
)

// cli holds the state shared by all commands.
type cli struct {
	logLevel  string
	logFormat string
	logger    *logging.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "firefly",
		Short: "Firefly Algorithm optimizer for 2-D functions",
		Long: `firefly moves a swarm of fireflies through a bounded 2-D domain toward
brighter neighbours and writes the initial and final swarm as point files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(&logging.Config{
				Level:  c.logLevel,
				Format: c.logFormat,
				Output: "stderr",
			})
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", config.GetEnv("LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", config.GetEnv("LOG_FORMAT", "text"), "Log format (text, json)")

	root.AddCommand(newRunCmd(c), newObjectivesCmd(), newVersionCmd())
	return root
}
