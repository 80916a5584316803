package content

import (
	"context"
	"fmt"
	"io/fs"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/bigbook-mcp/pkg/types"
)

// LoadOptions configures content loading
type LoadOptions struct {
	Workers int                // Number of concurrent source parsers (default: runtime.NumCPU())
	Logger  logrus.FieldLogger // Optional
}

// LoadStats describes a completed load
type LoadStats struct {
	Chapters   int
	Paragraphs int
	Duration   time.Duration
}

// Load reads the metadata table and every chapter source from fsys and
// builds the content Table. Sources are parsed concurrently; the resulting
// chapters keep the metadata order.
func Load(ctx context.Context, fsys fs.FS, opts LoadOptions) (*Table, error) {
	table, _, err := LoadWithStats(ctx, fsys, opts)
	return table, err
}

// LoadWithStats is Load plus load statistics
func LoadWithStats(ctx context.Context, fsys fs.FS, opts LoadOptions) (*Table, *LoadStats, error) {
	start := time.Now()
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	raw, err := fs.ReadFile(fsys, MetadataFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read chapter metadata: %w", err)
	}
	md, err := parseMetadata(raw)
	if err != nil {
		return nil, nil, err
	}

	chapters := make([]types.Chapter, len(md.Chapters))

	// Each goroutine writes only its own slot, so no locking is needed
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, entry := range md.Chapters {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chapter, err := loadChapter(fsys, entry)
			if err != nil {
				return err
			}
			chapters[i] = *chapter
			log.WithFields(logrus.Fields{
				"chapter_id": chapter.ID,
				"paragraphs": len(chapter.Paragraphs),
			}).Debug("chapter loaded")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to load content: %w", err)
	}

	table, err := NewTable(chapters)
	if err != nil {
		return nil, nil, err
	}

	stats := &LoadStats{
		Chapters:   table.Len(),
		Paragraphs: table.ParagraphCount(),
		Duration:   time.Since(start),
	}
	log.WithFields(logrus.Fields{
		"chapters":    stats.Chapters,
		"paragraphs":  stats.Paragraphs,
		"duration_ms": stats.Duration.Milliseconds(),
	}).Info("content loaded")

	return table, stats, nil
}

// loadChapter parses one chapter source file
func loadChapter(fsys fs.FS, entry chapterEntry) (*types.Chapter, error) {
	src, err := fs.ReadFile(fsys, entry.Source)
	if err != nil {
		return nil, fmt.Errorf("chapter %s: failed to read %s: %w", entry.ID, entry.Source, err)
	}

	paragraphs, err := ParseChapterSource(entry.ID, src)
	if err != nil {
		return nil, err
	}
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("chapter %s: source %s has no paragraphs", entry.ID, entry.Source)
	}

	chapter := &types.Chapter{
		ID:            entry.ID,
		Title:         entry.Title,
		ChapterNumber: entry.Number,
		PageRange:     entry.pageRange(),
		Roman:         entry.Roman,
		Paragraphs:    paragraphs,
	}
	if err := chapter.Validate(); err != nil {
		return nil, err
	}
	return chapter, nil
}
