package main

import (
	"github.com/urfave/cli/v2"

	"github.com/dev-tams/deltapurge/internal/config"
)

func purgeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "chunk-size",
			Aliases: []string{"c"},
			Value:   config.DefaultChunkSize,
			Usage:   "keys per delete request",
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Aliases: []string{"d"},
			Usage:   "print the files that would be deleted and exit",
		},
		&cli.IntFlag{
			Name:    "parallelism",
			Aliases: []string{"p"},
			Value:   config.DefaultParallelism,
			Usage:   "delete requests in flight at once",
		},
		&cli.Int64Flag{
			Name:    "retention-period-hours",
			Aliases: []string{"r"},
			Value:   config.DefaultRetentionPeriodHours,
			Usage:   "only files unreferenced for longer than this are deleted",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to config yaml (optional)",
		},
		&cli.StringFlag{
			Name:  "storage-type",
			Usage: "object store client: s3 or minio",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "custom object store endpoint",
		},
		&cli.StringFlag{
			Name:  "region",
			Usage: "object store region",
		},
		&cli.BoolFlag{
			Name:  "path-style",
			Usage: "use path-style addressing for s3",
		},
		&cli.DurationFlag{
			Name:  "chunk-timeout",
			Usage: "timeout for a single delete request (0 = none)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "text or json",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging (same as --log-level=debug)",
		},
		&cli.StringFlag{
			Name:  "metrics-textfile",
			Usage: "write prometheus metrics to this file on exit",
		},
	}
}

// applyFlags overlays explicitly set flags and the table argument on cfg.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if uri := c.Args().First(); uri != "" {
		cfg.Table = uri
	}
	if c.IsSet("chunk-size") {
		cfg.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("dry-run") {
		cfg.DryRun = c.Bool("dry-run")
	}
	if c.IsSet("parallelism") {
		cfg.Parallelism = c.Int("parallelism")
	}
	if c.IsSet("retention-period-hours") {
		cfg.RetentionPeriodHours = c.Int64("retention-period-hours")
	}
	if c.IsSet("storage-type") {
		cfg.Storage.Type = c.String("storage-type")
	}
	if c.IsSet("endpoint") {
		cfg.Storage.Endpoint = c.String("endpoint")
	}
	if c.IsSet("region") {
		cfg.Storage.Region = c.String("region")
	}
	if c.IsSet("path-style") {
		cfg.Storage.PathStyle = c.Bool("path-style")
	}
	if c.IsSet("chunk-timeout") {
		cfg.ChunkTimeout = c.Duration("chunk-timeout")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}
	if c.IsSet("metrics-textfile") {
		cfg.Metrics.Textfile = c.String("metrics-textfile")
	}
}
