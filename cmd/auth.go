package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/snaplist/internal/server"
	"github.com/desertthunder/snaplist/internal/services"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthGoogle runs the OAuth authorization code flow on a loopback server and saves the token.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	if r.oauth == nil {
		return fmt.Errorf("%w: set client_id and client_secret under [credentials.google]", shared.ErrMissingCredentials)
	}

	addr, err := server.CallbackAddr(r.oauth.RedirectURL)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidConfig, err)
	}

	state, err := services.NewState()
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(r.oauth, state)
	router := server.NewBasicRouter()
	router.Handler(handler)

	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handler.Fail(fmt.Errorf("callback server failed: %w", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := services.AuthURL(r.oauth, state)
	r.logger.Info("waiting for authorization", "callback", r.oauth.RedirectURL)

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to authorize snaplist:\n%s\n", authURL)
	} else if err := r.openBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL to authorize snaplist:\n%s\n", authURL)
	}

	waitCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	token, err := handler.Wait(waitCtx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: no callback received", shared.ErrTimeout)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	path := r.config.Credentials.Google.TokenPath
	if err := services.SaveToken(path, token); err != nil {
		return err
	}

	r.logger.Info("token saved", "path", path)
	return r.writePlain("✓ YouTube account connected\nToken saved to: %s\n", path)
}

// AuthStatus reports whether a playlist token is saved and whether it can be refreshed.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Credentials.Google.TokenPath

	token, err := services.LoadToken(path)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return r.writePlain("✗ Not authenticated\nRun `snaplist auth google` to connect a YouTube account.\n")
	}
	if err != nil {
		return err
	}

	r.writePlain("✓ Token saved at %s\n", path)
	if token.RefreshToken != "" {
		r.writePlain("Refresh: available\n")
	} else {
		r.writePlain("Refresh: unavailable\n")
	}
	if !token.Expiry.IsZero() {
		r.writePlain("Access token expires: %s\n", token.Expiry.Local().Format(time.RFC1123))
	}
	return nil
}
