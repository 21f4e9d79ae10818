package main

import (
	"errors"
	"fmt"
	"net/http"
	"phishdetect/pkg/cmd"
	"phishdetect/pkg/history"
	"phishdetect/pkg/model"
	"phishdetect/pkg/server"
	"phishdetect/pkg/service"

	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the web form and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address (overrides server.addr)",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	// Loaded once; every request shares it.
	classifier, err := model.Load(cfg.Model.Path)
	if err != nil {
		return err
	}
	logger.Info("model loaded", "path", cfg.Model.Path)

	store := history.NewStore(cfg.History.MaxRecords)
	extractor := cmd.NewExtractor(cfg, cmd.WithLogger(logger))
	svc := service.New(extractor, classifier, store, logger)

	srv, err := server.New(svc, store, logger)
	if err != nil {
		return err
	}
	if err := srv.ListenAndServe(c.Context, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
