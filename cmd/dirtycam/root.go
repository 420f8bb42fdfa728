package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-dirtycam/internal/config"
	"go-dirtycam/internal/logger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "dirtycam",
	Short: "Screen camera images for hardware and capture defects",
	Long: `dirtycam splits every image into quadrants and flags flat color, noise,
color tint, blur and bad exposure. An image with any faulty quadrant
counts that fault once, for a score between 0 and 5.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("log-level") {
			logger.SetLevel(logLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// loadConfig reads the environment and applies the log level unless the
// flag already set it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	} else {
		logger.SetLevel(cfg.LogLevel)
	}
	return cfg, nil
}
