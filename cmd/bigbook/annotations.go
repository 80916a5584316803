package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/bigbook-mcp/pkg/types"
)

func (c *cli) newHighlightsCmd() *cobra.Command {
	var chapterID string

	cmd := &cobra.Command{
		Use:   "highlights",
		Short: "List highlights, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, a, cleanup, err := c.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			highlights := a.Highlights.All()
			if chapterID != "" {
				highlights = a.Highlights.ByChapter(chapterID)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPARAGRAPH\tSENTENCE\tCOLOR\tCREATED\tNOTE")
			for _, h := range highlights {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					h.ID, h.ParagraphID, h.SentenceIndex, h.Color, formatMillis(h.CreatedAt), h.Note)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&chapterID, "chapter", "", "only list highlights in this chapter")
	return cmd
}

func (c *cli) newBookmarksCmd() *cobra.Command {
	var chapterID string

	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "List bookmarks in page order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, a, cleanup, err := c.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			bookmarks := a.Bookmarks.All()
			if chapterID != "" {
				bookmarks = a.Bookmarks.ByChapter(chapterID)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPAGE\tCHAPTER\tLABEL")
			for _, b := range bookmarks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, types.FormatPage(b.PageNumber), b.ChapterID, b.Label)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&chapterID, "chapter", "", "only list bookmarks in this chapter")

	cmd.AddCommand(&cobra.Command{
		Use:   "add <page> [label...]",
		Short: "Bookmark a page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := types.ParsePage(args[0])
			if err != nil {
				return err
			}

			_, _, a, cleanup, err := c.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			ch, ok := a.Content.ChapterForPage(page)
			if !ok {
				return fmt.Errorf("%w: %s", types.ErrPageNotFound, types.FormatPage(page))
			}
			b, created, err := a.Bookmarks.Add(cmd.Context(), page, ch.ID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "Page %s is already bookmarked (%s)\n", types.FormatPage(b.PageNumber), b.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bookmarked page %s in %s (%s)\n", types.FormatPage(b.PageNumber), ch.Title, b.ID)
			return nil
		},
	})
	return cmd
}

func (c *cli) newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all highlights and bookmarks as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, a, cleanup, err := c.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := a.Store.Export(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer func() {
					if err := f.Close(); err != nil {
						logger.WithError(err).Warn("failed to close export file")
					}
				}()
				w = f
			}

			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(snap); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			logger.WithFields(logrus.Fields{
				"highlights": len(snap.Highlights),
				"bookmarks":  len(snap.Bookmarks),
			}).Info("annotations exported")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

// formatMillis renders an epoch-milliseconds timestamp in local time
func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}
