// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/tejzpr/memorybook/internal/auth"
	"github.com/tejzpr/memorybook/internal/server"
	"github.com/tejzpr/memorybook/pkg/scheduler"
)

func cmdServe(opts *globalOptions) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := setup(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			secret, err := a.jwtSecret()
			if err != nil {
				return err
			}
			tokens, err := auth.NewTokenManager(secret, a.cfg.Security.Issuer,
				time.Duration(a.cfg.Security.TokenTTL)*time.Hour)
			if err != nil {
				return err
			}

			mcpSrv := server.NewMCPServer(a.service, a.logger.Named("mcp"))
			httpSrv := server.NewHTTPServer(a.service, auth.NewAccounts(a.db), tokens, mcpSrv, a.logger.Named("http"))

			cleanup := scheduler.NewScheduler(a.locker,
				time.Duration(a.cfg.Locking.CleanupIntervalMinutes)*time.Minute, a.logger.Named("scheduler"))
			cleanup.Start()
			defer cleanup.Stop()

			addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           httpSrv.Routes(),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting HTTP server", zap.String("addr", addr), zap.Bool("tls", a.cfg.Server.TLS.Enabled))
				var err error
				if a.cfg.Server.TLS.Enabled {
					err = srv.ListenAndServeTLS(a.cfg.Server.TLS.CertFile, a.cfg.Server.TLS.KeyFile)
				} else {
					err = srv.ListenAndServe()
				}
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- fmt.Errorf("failed to start server: %w", err)
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				a.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shutdown server gracefully: %w", err)
			}
			a.logger.Info("server stopped")
			return nil
		},
	}
}

func cmdMCP(opts *globalOptions) *cli.Command {
	var withAccessingUser bool

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio for the local user",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "with-accessinguser",
				Usage:       "Use the ACCESSING_USER environment variable as the username instead of whoami",
				Destination: &withAccessingUser,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := setup(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			localAuth := auth.NewLocalAuthenticator()
			if withAccessingUser {
				localAuth = auth.NewLocalAuthenticatorWithAccessingUser()
			}
			user, err := localAuth.Authenticate(ctx, a.db)
			if err != nil {
				return fmt.Errorf("failed to authenticate local user: %w", err)
			}
			a.logger.Info("local user authenticated",
				zap.String("username", user.Username), zap.Uint("user_id", user.ID))

			// Expired locks from a crashed process would otherwise block shares
			if _, err := a.locker.CleanupExpired(ctx); err != nil {
				a.logger.Warn("failed to clean up expired locks", zap.Error(err))
			}

			mcpSrv := server.NewMCPServer(a.service, a.logger.Named("mcp"))
			mcpSrv.RegisterToolsForUser(user.ID)

			a.logger.Info("starting MCP server on stdio")
			if err := mcpserver.ServeStdio(mcpSrv.GetMCPServer()); err != nil {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		},
	}
}

func cmdMigrate(opts *globalOptions) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema and exit",
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := setup(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			a.logger.Info("migrations complete", zap.String("type", a.cfg.Database.Type))
			return nil
		},
	}
}
