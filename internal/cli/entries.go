package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"atlas-cli/internal/api"
	"atlas-cli/internal/browse"
	"atlas-cli/internal/model"
)

func newEntriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"entry", "ls"},
		Short:   "Browse and edit backend entries",
	}
	cmd.AddCommand(newEntriesListCmd(app))
	cmd.AddCommand(newEntriesReprocessCmd(app))
	cmd.AddCommand(newEntriesSetCmd(app))
	return cmd
}

// entryList is the list payload; it doubles as a table for --format table.
type entryList struct {
	Entries []model.Entry `json:"entries"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
	Pages   int           `json:"pages"`
}

func (l entryList) Header() []string {
	return []string{"ID", "Theme", "Type", "Date", "Stage", "Caption", "Updated"}
}

func (l entryList) Rows() [][]string {
	rows := make([][]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		caption := strings.Join(strings.Fields(e.SummaryCaption), " ")
		if r := []rune(caption); len(r) > 60 {
			caption = string(r[:59]) + "…"
		}
		rows = append(rows, []string{e.ID, e.Theme, string(e.SourceType), e.EntryDate, string(e.Stage), caption, e.UpdatedAt.Short()})
	}
	return rows
}

func newEntriesListCmd(app *App) *cobra.Command {
	var page, limit int
	var keyword string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			if !cmd.Flags().Changed("limit") {
				limit = app.cfg.PageSize
			}
			if page < 1 || limit < 1 {
				return writeErr(cmd, errors.New("--page and --limit must be positive"))
			}

			q := browse.NewQuery(limit)
			q.Page = page
			q.Keyword = strings.TrimSpace(keyword)
			req := q.Fetch()
			res, err := browse.Run(cmd.Context(), c, req)
			q.Apply(req, res, err)
			if err != nil {
				return writeErr(cmd, err)
			}

			out := entryList{Entries: q.Rows, Total: q.Total, Page: q.Page, Limit: q.PageSize, Pages: q.Pages()}
			meta := map[string]any{"page": q.Page, "limit": q.PageSize, "total": q.Total, "pages": q.Pages()}
			if q.Keyword != "" {
				meta["keyword"] = q.Keyword
			}
			return writeOut(cmd, app, out, meta)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Entries per page (default from config)")
	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Keyword filter")
	return cmd
}

func newEntriesReprocessCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <entry-id>",
		Short: "Re-run the processing pipeline for an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			msg, err := c.Reprocess(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, notFoundOr(err, "entry", id))
			}
			return writeOut(cmd, app, map[string]any{"id": id, "message": msg.Message}, nil)
		},
	}
}

func newEntriesSetCmd(app *App) *cobra.Command {
	var theme, date string

	cmd := &cobra.Command{
		Use:   "set <entry-id>",
		Short: "Update an entry's theme or date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			var patch api.EntryPatch
			if cmd.Flags().Changed("theme") {
				theme = strings.TrimSpace(theme)
				if !model.HasTheme(app.cfg.Themes, theme) {
					return writeErr(cmd, fmt.Errorf("%w: %q (allowed: %s)", browse.ErrUnknownTheme, theme, strings.Join(app.cfg.Themes, ", ")))
				}
				patch.Theme = theme
			}
			if cmd.Flags().Changed("date") {
				ym, err := model.ParseYearMonth(date)
				if err != nil {
					return writeErr(cmd, err)
				}
				patch.EntryDate = ym.String()
			}
			if patch.Empty() {
				return writeErr(cmd, errors.New("nothing to update: pass --theme and/or --date"))
			}

			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			e, err := c.UpdateEntry(cmd.Context(), id, patch)
			if err != nil {
				return writeErr(cmd, notFoundOr(err, "entry", id))
			}
			if e.ID == "" {
				// Acknowledged without a body.
				return writeOut(cmd, app, map[string]any{"id": id, "updated": patch}, nil)
			}
			return writeOut(cmd, app, e, nil)
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "New theme label")
	cmd.Flags().StringVar(&date, "date", "", "New entry date (YYYY-MM)")
	return cmd
}
