package main

import (
	"os"

	"go-dirtycam/internal/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
