// Package app wires the content table, annotation store, searcher, navigator
// and caches together. Every outer surface (MCP, HTTP, CLI) starts from App.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/dshills/bigbook-mcp/internal/annotations"
	"github.com/dshills/bigbook-mcp/internal/config"
	"github.com/dshills/bigbook-mcp/internal/content"
	"github.com/dshills/bigbook-mcp/internal/navigator"
	"github.com/dshills/bigbook-mcp/internal/searcher"
	"github.com/dshills/bigbook-mcp/internal/storage"
)

// App holds the long-lived components of one process
type App struct {
	Content    *content.Table
	Store      *storage.Service
	Searcher   *searcher.Searcher
	Navigator  *navigator.Navigator
	Highlights *annotations.Highlights
	Bookmarks  *annotations.Bookmarks
	Logger     logrus.FieldLogger

	kv storage.KV
}

// Option customizes New
type Option func(*options)

type options struct {
	contentFS fs.FS
	cacheOpts []annotations.Option
}

// WithContentFS loads content from fsys instead of the configured source
func WithContentFS(fsys fs.FS) Option {
	return func(o *options) { o.contentFS = fsys }
}

// WithCacheOptions passes options through to the annotation caches
func WithCacheOptions(opts ...annotations.Option) Option {
	return func(o *options) { o.cacheOpts = append(o.cacheOpts, opts...) }
}

// New loads the content, opens the annotation store and builds every component
func New(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	fsys := o.contentFS
	if fsys == nil {
		fsys = contentSource(cfg.Content.Path)
	}

	table, stats, err := content.LoadWithStats(ctx, fsys, content.LoadOptions{
		Workers: cfg.Content.Workers,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"chapters":   stats.Chapters,
		"paragraphs": stats.Paragraphs,
		"duration":   stats.Duration,
	}).Info("content loaded")

	kv, err := storage.Open(ctx, storage.Options{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
		DSN:     cfg.Storage.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.WithField("backend", cfg.Storage.Backend).Info("storage opened")

	svc := storage.NewService(kv)
	cacheOpts := append([]annotations.Option{annotations.WithLogger(logger)}, o.cacheOpts...)

	highlights, err := annotations.NewHighlights(ctx, svc, cacheOpts...)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to load highlights: %w", err)
	}
	bookmarks, err := annotations.NewBookmarks(ctx, svc, cacheOpts...)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	return &App{
		Content:    table,
		Store:      svc,
		Searcher:   searcher.NewSearcher(table, cfg.Search.CacheSize),
		Navigator:  navigator.New(table, logger),
		Highlights: highlights,
		Bookmarks:  bookmarks,
		Logger:     logger,
		kv:         kv,
	}, nil
}

// contentSource returns the content pack at path, or the embedded pack
func contentSource(path string) fs.FS {
	if path == "" {
		return content.DefaultFS()
	}
	return os.DirFS(path)
}

// Close releases the annotation store
func (a *App) Close() error {
	return a.kv.Close()
}
