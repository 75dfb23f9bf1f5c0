package main

import (
	"context"
	"errors"
	"os"
	"syscall"

	"github.com/MrEthical07/goHash/cmd/gohash/commands"
	"github.com/MrEthical07/goHash/lifecycle"
	"github.com/rs/zerolog"
)

// Version is set via ldflags.
var Version = "dev"

func main() {
	logger := newLogger()

	hooks := lifecycle.New()
	ctx, cancel := lifecycle.NotifyOnSignal(context.Background(), hooks, os.Interrupt, syscall.SIGTERM)

	err := commands.Execute(ctx, commands.Env{
		Hooks:   hooks,
		Logger:  logger,
		Version: Version,
	})
	hooks.Shutdown()
	cancel()

	if err != nil {
		var exit commands.ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
