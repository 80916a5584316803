package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/bigbook-mcp/internal/app"
	"github.com/dshills/bigbook-mcp/internal/config"
	"github.com/dshills/bigbook-mcp/internal/logging"
	"github.com/dshills/bigbook-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the state shared by every subcommand
type cli struct {
	v          *viper.Viper
	configFile string
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:   "bigbook",
		Short: "Read, search and annotate the Big Book",
		Long: `bigbook serves the text of the Big Book together with the reader's
highlights and bookmarks.

It runs as an MCP server for assistants (bigbook mcp), as a JSON HTTP API
(bigbook serve), or as a plain command-line reader.

Configuration is read from bigbook.yaml, BIGBOOK_* environment variables
and flags, in increasing order of precedence.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (default: ./bigbook.yaml, then the user config dir)")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")
	flags.String("storage", "", "annotation store: sqlite, postgres or memory")
	flags.String("db", "", "SQLite database path")
	flags.String("content", "", "directory holding chapters.yaml and chapter sources (default: embedded)")
	cobra.CheckErr(c.v.BindPFlag("log.level", flags.Lookup("log-level")))
	cobra.CheckErr(c.v.BindPFlag("log.format", flags.Lookup("log-format")))
	cobra.CheckErr(c.v.BindPFlag("storage.backend", flags.Lookup("storage")))
	cobra.CheckErr(c.v.BindPFlag("storage.path", flags.Lookup("db")))
	cobra.CheckErr(c.v.BindPFlag("content.path", flags.Lookup("content")))

	root.AddCommand(
		c.newMCPCmd(),
		c.newServeCmd(),
		c.newChaptersCmd(),
		c.newPageCmd(),
		c.newSearchCmd(),
		c.newHighlightsCmd(),
		c.newBookmarksCmd(),
		c.newExportCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration, builds the logger and opens the application.
// The returned cleanup closes the annotation store.
func (c *cli) setup(ctx context.Context) (*config.Config, *logrus.Logger, *app.App, func(), error) {
	cfg, err := config.Load(c.v, c.configFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		if err := a.Close(); err != nil {
			logger.WithError(err).Warn("failed to close store")
		}
	}
	return cfg, logger, a, cleanup, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Big Book MCP Server\n")
			fmt.Fprintf(out, "Version: %s\n", version)
			fmt.Fprintf(out, "Build Time: %s\n", buildTime)
			fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
			fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
		},
	}
}
