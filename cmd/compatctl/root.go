package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/baditaflorin/go_compatibility/internal/adapters/logger"
	"github.com/baditaflorin/go_compatibility/internal/config"
	"github.com/baditaflorin/go_compatibility/internal/ports"
)

type commandContext struct {
	configPath *string
	verbose    *bool
	cfg        *config.Config
	log        ports.Logger
}

// logger writes to stderr with --verbose and discards otherwise.
func (c *commandContext) logger() ports.Logger {
	if c.log != nil {
		return c.log
	}
	c.log = logger.NewNopLogger()
	if *c.verbose {
		if l, err := logger.NewCustomStdLogger(logger.DefaultConfig(os.Stderr, false)); err == nil {
			c.log = l
		}
	}
	return c.log
}

func (c *commandContext) close() {
	if c.log != nil {
		_ = c.log.Close()
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	var (
		configFlag  string
		verboseFlag bool
	)
	ctx := &commandContext{configPath: &configFlag, verbose: &verboseFlag}

	rootCmd := &cobra.Command{
		Use:           "compatctl",
		Short:         "Score quiz answers and manage compatibility rooms",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log scoring details to stderr")

	rootCmd.AddCommand(newScoreCommand(ctx))
	rootCmd.AddCommand(newRoomsCommand(ctx))

	return rootCmd
}
