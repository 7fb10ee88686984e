package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotme/internal/server"
	"github.com/desertthunder/spotme/internal/shared"
	"github.com/desertthunder/spotme/internal/ui"
	"github.com/urfave/cli/v3"
)

// ConnectTUI redirects logs to the configured file, then connects.
func (r *Runner) ConnectTUI(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Logging.File)
	if err != nil {
		return ctx, fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	return r.Connect(ctx, cmd)
}

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	opts := ui.Options{
		Code:              cmd.String("code"),
		OpenBrowser:       r.openBrowser,
		RegistrationEmail: r.config.Recommendations.RegistrationEmail,
		Logger:            r.logger,
	}

	if loopback, err := server.NewLoopback(r.config.Spotify.RedirectURL, r.config.CallbackTimeout(), r.logger); err != nil {
		r.logger.Warn("redirect URL is not local, login will need --code", "error", err)
	} else {
		opts.Waiter = loopback
	}

	model := ui.NewModel(ctx, r.controller, opts)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
