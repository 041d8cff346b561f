package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/seqvec/helix/internal/logger"
)

var (
	logLevel  string
	logFormat string
	debug     bool

	embeddingsPath string
	classifierPath string
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func modelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embeddings",
			Aliases:     []string{"e"},
			Usage:       "path to exported embedding table JSON",
			Destination: &embeddingsPath,
		},
		&cli.StringFlag{
			Name:        "classifier",
			Usage:       "path to exported classifier JSON",
			Destination: &classifierPath,
		},
	}
}

func newLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	switch logFormat {
	case "json":
		return logger.JSON(os.Stderr, level)
	case "text":
		return logger.Text(os.Stderr, level)
	default:
		return logger.Pretty(os.Stderr, level)
	}
}
