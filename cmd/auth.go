package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotme/internal/auth"
	"github.com/desertthunder/spotme/internal/server"
	"github.com/desertthunder/spotme/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthURL stores a fresh verifier and prints the authorization URL.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	url, err := r.controller.StartLogin(ctx)
	if err != nil {
		return err
	}

	r.writePlain("%s\n", url)
	r.writePlain("\nAfter approving, run: spotme auth exchange --redirect '<redirect URL>'\n")
	return nil
}

// AuthExchange exchanges a code from --code or --redirect with the verifier stored by a previous login.
func (r *Runner) AuthExchange(ctx context.Context, cmd *cli.Command) error {
	code := cmd.String("code")
	if redirect := cmd.String("redirect"); redirect != "" {
		if code != "" {
			return fmt.Errorf("%w: cannot specify both --code and --redirect", shared.ErrInvalidArgument)
		}
		var ok bool
		if code, ok = auth.CodeFromURL(redirect); !ok {
			return fmt.Errorf("%w: no code in redirect URL", shared.ErrInvalidArgument)
		}
	}
	if code == "" {
		return fmt.Errorf("%w: either --code or --redirect must be provided", shared.ErrMissingArgument)
	}

	if err := r.controller.ReceiveCode(ctx, code); err != nil {
		return err
	}
	return r.reportSession(cmd.Bool("show-token"))
}

// AuthLogin runs the full flow through a loopback server on the redirect URL.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.login(ctx, cmd.Bool("no-browser")); err != nil {
		return err
	}
	return r.reportSession(cmd.Bool("show-token"))
}

// login starts a login, waits for the redirect and exchanges the code.
func (r *Runner) login(ctx context.Context, noBrowser bool) error {
	loopback, err := server.NewLoopback(r.config.Spotify.RedirectURL, r.config.CallbackTimeout(), r.logger)
	if err != nil {
		return err
	}
	url, err := r.controller.StartLogin(ctx)
	if err != nil {
		return err
	}
	if err := loopback.Start(); err != nil {
		return err
	}

	if noBrowser {
		r.writePlain("Open this URL to log in:\n%s\n", url)
	} else if err := r.openBrowser(url); err != nil {
		r.logger.Warn("could not open browser", "error", err)
		r.writePlain("Open this URL to log in:\n%s\n", url)
	}

	code, err := loopback.WaitForCode(ctx)
	if err != nil {
		return err
	}
	return r.controller.ReceiveCode(ctx, code)
}

func (r *Runner) reportSession(showToken bool) error {
	snap := r.controller.Snapshot()
	switch snap.State {
	case auth.Authenticated:
		r.writePlain("✓ Logged in to Spotify\n")
		if showToken {
			r.writePlain("Access token: %s\n", r.controller.Session().Token())
		}
		return nil
	case auth.LoggedOut:
		return fmt.Errorf("%w: code was not accepted, run 'spotme auth login' again", shared.ErrNotAuthenticated)
	default:
		return fmt.Errorf("%w: session is %s", shared.ErrAuthFailed, snap.State)
	}
}
