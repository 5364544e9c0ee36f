package main

import (
	"context"
	"log/slog"

	"github.com/packsmith/packsmith/bundle"
	"github.com/packsmith/packsmith/config"
	"github.com/packsmith/packsmith/publish"
	"github.com/packsmith/packsmith/resolve"
	"github.com/packsmith/packsmith/stats"
)

// runBuild handles build, stats and deploy: one bundler run, then
// whatever the resolved plugin list layered on top.
func runBuild(cfg *config.Config, resolved resolve.Config, logger *slog.Logger) error {
	runner := bundle.New(logger)
	res, err := runner.Run(resolved)
	if err != nil {
		return err
	}

	var total int
	for _, a := range res.Artifacts {
		total += a.Bytes
	}
	logger.Info("build complete",
		"out", res.OutDir,
		"artifacts", len(res.Artifacts),
		"total_bytes", total,
	)

	if resolved.Has(resolve.PluginStats) {
		if err := stats.Write(res.OutDir, res.Meta, res.RawMetafile, logger); err != nil {
			return err
		}
	}

	if resolved.Has(resolve.PluginPublish) {
		// The build already succeeded and stays on disk whatever the
		// remote does.
		publisher := publish.NewGitPublisher(
			cfg.Deploy.Remote,
			cfg.Deploy.Branch,
			cfg.Deploy.CommitMessage,
			cfg.Deploy.AuthorName,
			cfg.Deploy.AuthorEmail,
			logger,
		)
		if err := publisher.Publish(context.Background(), res.OutDir); err != nil {
			return err
		}
	}

	return nil
}
