package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/orogen-io/sideband/cli/config"
	"github.com/orogen-io/sideband/iox"
	"github.com/orogen-io/sideband/trace"
)

// ArchiveCommand returns the archive command: upload a completed session
// journal to S3-compatible storage.
func ArchiveCommand() *cli.Command {
	return &cli.Command{
		Name:      "archive",
		Usage:     "Upload a session journal to S3-compatible storage",
		ArgsUsage: "<journal>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to sideband.yaml"},
			&cli.StringFlag{Name: "bucket", Usage: "S3 bucket (overrides config)"},
			&cli.StringFlag{Name: "prefix", Usage: "Key prefix within the bucket"},
			&cli.StringFlag{Name: "region", Usage: "AWS region"},
			&cli.StringFlag{Name: "endpoint", Usage: "Custom S3 endpoint URL (R2, MinIO, ...)"},
			&cli.BoolFlag{Name: "s3-path-style", Usage: "Force path-style addressing"},
			&cli.StringFlag{Name: "session", Usage: "Session ID (default: journal file name)"},
		},
		Action: archiveAction,
	}
}

func archiveAction(c *cli.Context) error {
	var cfg config.Config
	if configPath := c.String("config"); configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}

	path := c.Args().First()
	if path == "" {
		path = cfg.Trace.Path
	}
	if path == "" {
		return cli.Exit("journal path required", 1)
	}

	s3cfg, err := archiveConfig(c, cfg)
	if err != nil {
		return err
	}

	sessionID := c.String("session")
	if sessionID == "" {
		sessionID = strings.TrimSuffix(filepath.Base(path), ".journal")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open journal %q: %w", path, err)
	}
	defer iox.DiscardClose(f)

	archive, err := trace.NewArchive(c.Context, s3cfg)
	if err != nil {
		return err
	}
	if err := archive.Put(c.Context, sessionID, f); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "archived %s as %s\n", path, archive.Key(sessionID))
	return nil
}

// archiveConfig resolves archive settings: config file values first,
// flags override.
func archiveConfig(c *cli.Context, cfg config.Config) (trace.S3Config, error) {
	s3cfg := trace.S3Config{
		Bucket:       cfg.Trace.Archive.Bucket,
		Prefix:       cfg.Trace.Archive.Prefix,
		Region:       cfg.Trace.Archive.Region,
		Endpoint:     cfg.Trace.Archive.Endpoint,
		UsePathStyle: cfg.Trace.Archive.S3PathStyle,
	}

	if v := c.String("bucket"); v != "" {
		s3cfg.Bucket = v
	}
	if v := c.String("prefix"); v != "" {
		s3cfg.Prefix = v
	}
	if v := c.String("region"); v != "" {
		s3cfg.Region = v
	}
	if v := c.String("endpoint"); v != "" {
		s3cfg.Endpoint = v
	}
	if c.Bool("s3-path-style") {
		s3cfg.UsePathStyle = true
	}

	if err := s3cfg.Validate(); err != nil {
		return trace.S3Config{}, cli.Exit(err.Error(), 1)
	}
	return s3cfg, nil
}
