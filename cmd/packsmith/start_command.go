package main

import (
	"fmt"
	"log/slog"

	"github.com/packsmith/packsmith/bundle"
	ristrettoCache "github.com/packsmith/packsmith/cache/ristretto"
	"github.com/packsmith/packsmith/config"
	"github.com/packsmith/packsmith/resolve"
	"github.com/packsmith/packsmith/server"
)

func runStart(cfg *config.Config, resolved resolve.Config, logger *slog.Logger) error {
	assetCache, err := ristrettoCache.New[string, []byte]()
	if err != nil {
		return fmt.Errorf("failed to create asset cache: %w", err)
	}

	srv := server.New(
		cfg.Server,
		cfg.Project.SourceDir,
		resolved,
		bundle.New(logger),
		server.NewAssetStore(assetCache),
		logger,
	)
	return srv.Run()
}
