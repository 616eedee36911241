package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"atlas-cli/internal/model"
	"atlas-cli/internal/staging"
	"atlas-cli/internal/submit"
)

type uploadFailure struct {
	Item  string `json:"item"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

type uploadOutput struct {
	Attempted int             `json:"attempted"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Pending   int             `json:"pending,omitempty"`
	Uploaded  []string        `json:"uploaded"`
	Failures  []uploadFailure `json:"failures,omitempty"`
	Remaining []string        `json:"remaining,omitempty"`
	Summary   string          `json:"summary"`
}

func (o uploadOutput) Header() []string { return []string{"Result", "Name", "Detail"} }

func (o uploadOutput) Rows() [][]string {
	rows := make([][]string, 0, len(o.Uploaded)+len(o.Failures)+1)
	for _, id := range o.Uploaded {
		rows = append(rows, []string{"ok", "", id})
	}
	for _, f := range o.Failures {
		rows = append(rows, []string{"failed", f.Name, f.Error})
	}
	rows = append(rows, []string{"", "", o.Summary})
	return rows
}

func newUploadCmd(app *App) *cobra.Command {
	var links []string
	var linksFile, theme, date string
	var keepFailed bool

	cmd := &cobra.Command{
		Use:   "upload [image files...]",
		Short: "Stage images and links, then submit them one by one",
		Example: strings.TrimSpace(`
  atlas upload ./a.png ./b.jpg --theme Science
  atlas upload --link https://example.org/post --date 2024-05
  pbpaste | atlas upload --links-file -
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg
			if cmd.Flags().Changed("keep-failed") {
				cfg.KeepFailed = keepFailed
			}

			st := staging.New(cfg.DefaultTheme, staging.WithThemes(cfg.Themes))

			var refs []staging.FileRef
			for _, p := range args {
				// URLs given positionally (e.g. through the argv shortcut) are links.
				if isURL(p) {
					links = append(links, p)
					continue
				}
				fi, err := os.Stat(p)
				if err != nil {
					return writeErr(cmd, err)
				}
				if fi.IsDir() {
					return writeErr(cmd, fmt.Errorf("%s is a directory", p))
				}
				if !model.IsImagePath(p) {
					return writeErr(cmd, fmt.Errorf("%w: %s (allowed: %s)", model.ErrNotImage, p, strings.Join(model.ImageExtensions, " ")))
				}
				refs = append(refs, staging.NewFileRef(p, fi.Size()))
			}
			st.AddFiles(refs)

			text := strings.Join(links, "\n")
			if linksFile != "" {
				b, err := readLinksFile(cmd, linksFile)
				if err != nil {
					return writeErr(cmd, err)
				}
				text += "\n" + string(b)
			}
			st.AddLinksFromText(text)

			if st.Len() == 0 {
				return writeErr(cmd, submit.ErrNothingStaged)
			}
			if err := applyOverrides(st, cfg.Themes, theme, date, cmd.Flags().Changed("theme"), cmd.Flags().Changed("date")); err != nil {
				return writeErr(cmd, err)
			}

			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			stderr := cmd.ErrOrStderr()
			seq := &submit.Sequencer{
				Uploader:   c,
				Logger:     app.log.With("component", "submit"),
				KeepFailed: cfg.KeepFailed,
				Progress: func(p submit.Progress) {
					if p.Err != nil {
						fmt.Fprintf(stderr, "[%d/%d] failed %s: %v\n", p.Index+1, p.Total, p.Item.Name(), p.Err)
						return
					}
					fmt.Fprintf(stderr, "[%d/%d] uploaded %s -> %s\n", p.Index+1, p.Total, p.Item.Name(), p.ID)
				},
			}

			res, err := seq.Submit(cmd.Context(), st)
			if err != nil {
				return writeErr(cmd, err)
			}

			out := uploadOutput{
				Attempted: res.Attempted,
				Succeeded: res.Succeeded,
				Failed:    res.Failed(),
				Pending:   res.Pending,
				Uploaded:  res.Uploaded,
				Summary:   res.Summary(),
			}
			if out.Uploaded == nil {
				out.Uploaded = []string{}
			}
			for _, f := range res.Failures {
				out.Failures = append(out.Failures, uploadFailure{Item: f.ItemID, Name: f.Name, Error: f.Err.Error()})
			}
			for _, it := range st.Items() {
				out.Remaining = append(out.Remaining, it.Name())
			}
			if err := writeOut(cmd, app, out, nil); err != nil {
				return err
			}
			if !res.OK() {
				return writeErr(cmd, submitFailedError{res: res})
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&links, "link", nil, "Link to submit (repeatable)")
	cmd.Flags().StringVar(&linksFile, "links-file", "", "Read links from a file, one per line (- for stdin)")
	cmd.Flags().StringVar(&theme, "theme", "", "Theme for every staged item (default from config)")
	cmd.Flags().StringVar(&date, "date", "", "Entry date for every staged item (YYYY-MM, default current month)")
	cmd.Flags().BoolVar(&keepFailed, "keep-failed", false, "Report failed items as remaining instead of clearing the list")
	return cmd
}

func isURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func readLinksFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// applyOverrides sets theme and date on every staged item.
func applyOverrides(st *staging.Store, themes []string, theme, date string, setTheme, setDate bool) error {
	if setTheme {
		theme = strings.TrimSpace(theme)
		if !model.HasTheme(themes, theme) {
			return fmt.Errorf("unknown theme %q (allowed: %s)", theme, strings.Join(themes, ", "))
		}
	}
	if setDate {
		if _, err := model.ParseYearMonth(date); err != nil {
			return err
		}
	}
	for _, it := range st.Items() {
		if setTheme && !st.UpdateField(it.ID(), staging.FieldTheme, theme) {
			return errors.New("could not set theme on " + it.Name())
		}
		if setDate && !st.UpdateField(it.ID(), staging.FieldDate, date) {
			return errors.New("could not set date on " + it.Name())
		}
	}
	return nil
}
