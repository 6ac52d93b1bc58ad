// Package cmd implements the sideband CLI commands. All commands operate
// on session journals after the fact; only archive writes anywhere, and
// never to the journal itself.
package cmd

import "github.com/urfave/cli/v2"

// ReadOnlyFlags returns flags shared by all read-only commands.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: json, table, or yaml (default: table on TTY, json otherwise)",
		},
	}
}

// TUIReadOnlyFlags returns the read-only flags plus the opt-in TUI flag.
func TUIReadOnlyFlags() []cli.Flag {
	return append(ReadOnlyFlags(),
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Interactive TUI mode",
		},
	)
}
