package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/bigbook-mcp/internal/searcher"
	"github.com/dshills/bigbook-mcp/pkg/types"
)

func (c *cli) newChaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chapters",
		Short: "List the chapters in reading order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, a, cleanup, err := c.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tPAGES\tPARAGRAPHS")
			for _, m := range a.Content.GetAllChapters() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", m.ID, m.Title, m.PageRange, m.ParagraphCount)
			}
			return w.Flush()
		},
	}
}

func (c *cli) newPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "page <page>",
		Short: "Print the text printed on a page",
		Long: `Print every paragraph that starts on a page. Front matter pages use
roman numerals:

  bigbook page xiii
  bigbook page 58`,
		Args: cobra.ExactArgs(1),
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

			loc, ok := a.Navigator.GoToPage(page)
			if !ok {
				return fmt.Errorf("%w: %s", types.ErrPageNotFound, types.FormatPage(page))
			}
			ch, _ := a.Content.GetChapter(loc.ChapterID)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s, page %s\n", ch.Title, types.FormatPage(page))
			for _, p := range ch.Paragraphs {
				if p.PageNumber == page {
					fmt.Fprintf(out, "\n%s\n", p.Content)
				}
			}
			return nil
		},
	}
}

func (c *cli) newSearchCmd() *cobra.Command {
	var limit int
	var chapterID string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the book for a phrase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, a, cleanup, err := c.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := a.Searcher.SearchWithRequest(cmd.Context(), searcher.SearchRequest{
				Query:     strings.Join(args, " "),
				Limit:     limit,
				ChapterID: chapterID,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(resp.Results) == 0 {
				fmt.Fprintln(out, "No matches.")
				return nil
			}
			for _, r := range resp.Results {
				fmt.Fprintf(out, "%s, page %s (score %d)\n", r.ChapterTitle, types.FormatPage(r.PageNumber), r.RelevanceScore)
				for _, m := range r.Matches {
					fmt.Fprintf(out, "  %s[%s]%s\n", m.Before, m.Match, m.After)
				}
			}
			fmt.Fprintf(out, "\n%d of %d paragraphs shown\n", len(resp.Results), resp.TotalResults)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", searcher.DefaultLimit, "maximum number of paragraphs to show")
	cmd.Flags().StringVar(&chapterID, "chapter", "", "only search this chapter")
	return cmd
}
