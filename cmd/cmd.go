// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/snaplist/internal/formatter"
	"github.com/urfave/cli/v3"
)

// OwnerEnv supplies --owner when the flag is omitted.
const OwnerEnv = "SNAPLIST_OWNER"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func ownerFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "owner",
		Aliases:  []string{"u"},
		Usage:    "Owner ID used to scope history",
		Sources:  cli.EnvVars(OwnerEnv),
		Required: required,
	}
}

func formatFlag() cli.Flag {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   fmt.Sprintf("Output format (%s)", strings.Join(names, ", ")),
		Value:   string(formatter.FormatText),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write output to a file instead of stdout",
	}
}

func limitFlag(value int) cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of records to return",
		Value:   value,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the image resolution HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (overrides [server] host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides [server] port)",
			},
		},
		Action: r.Serve,
	}
}

// resolveCommand resolves screenshots from the command line
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve the songs shown in one or more screenshots",
		ArgsUsage: "<image>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Resolution mode: multi (one search per title) or single (one query)",
			},
			ownerFlag(false),
			formatFlag(),
			outputFlag(),
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Images processed in parallel when several are given",
				Value: 3,
			},
			&cli.StringFlag{
				Name:  "manifest",
				Usage: "Write a batch summary to this file when several images are given",
			},
		},
		Action: r.Resolve,
	}
}

// historyCommand handles owner-scoped history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse and manage resolution history",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List recent resolutions, newest first",
				Flags:  []cli.Flag{ownerFlag(true), limitFlag(10), formatFlag(), outputFlag()},
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Show the songs of one resolution",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{ownerFlag(true), formatFlag()},
				Action:    r.HistoryShow,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete one resolution",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{ownerFlag(true)},
				Action:    r.HistoryDelete,
			},
		},
	}
}

// playlistCommand handles YouTube playlist export
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Export resolved songs to a private YouTube playlist",
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Create a playlist from a history entry or explicit video IDs",
				Flags: []cli.Flag{
					ownerFlag(false),
					&cli.StringFlag{
						Name:  "history",
						Usage: "History entry whose songs are exported (requires --owner)",
					},
					&cli.StringSliceFlag{
						Name:  "video",
						Usage: "Video ID to append; repeat in playlist order",
					},
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "Playlist title",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "Path to the saved OAuth token (overrides [credentials.google] token_path)",
					},
				},
				Action: r.PlaylistExport,
			},
			{
				Name:   "list",
				Usage:  "List past exports",
				Flags:  []cli.Flag{ownerFlag(true), limitFlag(10), &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.PlaylistList,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "google",
				Usage: "Authorize playlist export with a Google account",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 5 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthGoogle,
			},
			{
				Name:   "status",
				Usage:  "Show whether a playlist token is saved",
				Action: r.AuthStatus,
			},
		},
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write an example configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing history.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse resolution history interactively",
		Flags:   []cli.Flag{ownerFlag(true), limitFlag(50)},
		Action:  r.TUI,
	}
}
