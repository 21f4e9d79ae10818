package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"phishdetect/pkg/config"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal("phishdetect failed", "err", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "phishdetect",
		Usage: "classify URLs as phishing or legitimate",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "path to the classifier artifact (overrides model.path)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides log.level)",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			checkCommand(),
		},
	}
}

// loadConfig applies the global flags on top of file and environment values.
func loadConfig(c *cli.Context) (config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("model") {
		cfg.Model.Path = c.String("model")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	formatter := log.TextFormatter
	switch strings.ToLower(cfg.Format) {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          "phishdetect",
	}), nil
}
