package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/aki/nexus/internal/core/logger"
)

// Global flags for logging configuration
var (
	flagLogLevel  string
	flagLogFormat string
)

// RegisterLoggerFlags registers global logging flags
func RegisterLoggerFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
}

// CreateLogger creates a logger based on CLI flags, writing to w
func CreateLogger(w io.Writer) (logger.Logger, error) {
	level, err := logger.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logger.ParseFormat(flagLogFormat)
	if err != nil {
		return nil, err
	}

	return logger.New(
		logger.WithLevel(level),
		logger.WithFormat(format),
		logger.WithOutput(w),
	), nil
}

// CreateQuietLogger creates a logger that only shows warnings and errors
func CreateQuietLogger(w io.Writer) logger.Logger {
	return logger.New(
		logger.WithQuiet(),
		logger.WithFormat(logger.FormatText),
		logger.WithOutput(w),
	)
}
