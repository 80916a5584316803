package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/bigbook-mcp/internal/httpapi"
	"github.com/dshills/bigbook-mcp/internal/mcp"
)

const shutdownTimeout = 5 * time.Second

func (c *cli) newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Long: `Run the Model Context Protocol server on stdin/stdout.

Logs go to stderr; stdout carries only protocol messages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			_, logger, a, cleanup, err := c.setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			server, err := mcp.NewServer(a)
			if err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				logger.WithField("version", version).Info("MCP server ready, listening on stdio")
				errChan <- server.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				logger.WithField("signal", sig.String()).Info("shutting down")
				cancel()
			case err := <-errChan:
				if err != nil {
					return err
				}
			}

			logger.Info("server stopped")
			return nil
		},
	}
}

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, a, cleanup, err := c.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			access := logger.Writer()
			defer access.Close()
			srv := httpapi.New(a, httpapi.Options{AccessLog: access})

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				logger.WithField("addr", cfg.HTTP.Addr).Info("HTTP server listening")
				errChan <- srv.Listen(cfg.HTTP.Addr)
			}()

			select {
			case sig := <-sigChan:
				logger.WithField("signal", sig.String()).Info("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.ShutdownWithContext(ctx)
			case err := <-errChan:
				return err
			}
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cobra.CheckErr(c.v.BindPFlag("http.addr", cmd.Flags().Lookup("addr")))
	return cmd
}
