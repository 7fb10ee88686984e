// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootFlags are shared by every command.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Environment file overriding required settings",
			Value: ".env",
		},
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config if missing, initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "rollback",
				Usage: "Roll back the most recently applied migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "steps",
						Usage: "Number of migrations to roll back",
						Value: 1,
					},
				},
				Action: r.RollbackDatabase,
			},
		},
	}
}

// authCommand handles the Spotify authorization code flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Log in to Spotify",
		Before: r.Connect,
		Commands: []*cli.Command{
			{
				Name:   "url",
				Usage:  "Store a new verifier and print the authorization URL",
				Action: r.AuthURL,
			},
			{
				Name:  "exchange",
				Usage: "Exchange an authorization code using the stored verifier",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "code",
						Usage: "Authorization code",
					},
					&cli.StringFlag{
						Name:  "redirect",
						Usage: "Full redirect URL containing the code",
					},
					&cli.BoolFlag{
						Name:  "show-token",
						Usage: "Print the access token",
					},
				},
				Action: r.AuthExchange,
			},
			{
				Name:  "login",
				Usage: "Open the browser and wait for the redirect on the configured redirect URL",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "show-token",
						Usage: "Print the access token",
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening it",
					},
				},
				Action: r.AuthLogin,
			},
		},
	}
}

// recommendCommand fetches and renders annotated recommendations
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Generate recommendations from your Spotify library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "token",
				Usage: "Access token from a previous exchange (skips login)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown or json",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "last",
				Usage: "Render the most recent stored result without fetching",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write a Markdown export (README.md and flier) to this directory",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening it",
			},
		},
		Before: r.ConnectUnlessLast,
		Action: r.Recommend,
	}
}

// historyCommand lists stored recommendation results
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List stored recommendation results",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results to list",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Before: r.OpenStore,
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive recommendation browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "code",
				Usage: "Authorization code to exchange on start",
			},
		},
		Before: r.ConnectTUI,
		Action: r.TUI,
	}
}
