package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"atlas-cli/internal/api"
	"atlas-cli/internal/config"
	"atlas-cli/internal/format"
	"atlas-cli/internal/logging"
	"atlas-cli/internal/tui"
)

const envFormat = "ATLAS_FORMAT"

type App struct {
	APIURL   string
	Timeout  time.Duration
	Format   string
	Pretty   bool
	LogFile  string
	LogLevel string

	cfg      *config.Config
	log      logging.Logger
	closeLog func() error
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "atlas",
		Short:        "Atlas knowledge-entry dashboard (TUI + CLI)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive dashboard
  atlas

  # List entries matching a keyword
  atlas entries list --keyword comet --limit 20

  # Upload images and links (shortcut for: atlas upload ...)
  atlas ./comet.png https://example.org/article
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal.
		_ = godotenv.Load()
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.closeLog != nil {
			return app.closeLog()
		}
		return nil
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.APIURL, "api", "", "Backend base URL (default from config or "+config.EnvAPIURL+")")
	pf.DurationVar(&app.Timeout, "timeout", 0, "Per-request timeout (default from config, 30s)")
	pf.StringVar(&app.Format, "format", "", "Output format (json|edn|table)")
	pf.BoolVar(&app.Pretty, "pretty", false, "Pretty-print output")
	pf.StringVar(&app.LogFile, "log-file", "", "Append logs to this file")
	pf.StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newEntriesCmd(app))
	cmd.AddCommand(newUploadCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// setup resolves config (defaults, file, env, then flags) and the logger.
func (app *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return writeErr(cmd, err)
	}
	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIURL = strings.TrimSpace(app.APIURL)
	}
	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration{Duration: app.Timeout}
	}
	if flags.Changed("log-file") {
		cfg.LogFile = app.LogFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = app.LogLevel
	}
	if !flags.Changed("format") {
		app.Format = envOr(envFormat, "json")
	}
	app.cfg = cfg

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return writeErr(cmd, err)
	}
	switch {
	case cfg.LogFile != "":
		l, closer, err := logging.OpenFile(cfg.LogFile, level)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.log, app.closeLog = l, closer
	case cmd.Parent() == nil:
		// The TUI owns the terminal.
		app.log = logging.Discard()
	default:
		app.log = logging.New(cmd.ErrOrStderr(), level)
	}
	return nil
}

func (app *App) client() (*api.Client, error) {
	if err := app.cfg.Validate(); err != nil {
		return nil, err
	}
	return api.New(app.cfg.APIURL,
		api.WithTimeout(app.cfg.Timeout.Duration),
		api.WithLogger(app.log),
	)
}

func runTUI(cmd *cobra.Command, app *App) error {
	c, err := app.client()
	if err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(cmd.Context(), tui.Options{
		Backend:  c,
		Config:   *app.cfg,
		Logger:   app.log,
		APILabel: c.BaseURL(),
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

type envelope struct {
	Data any            `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

// writeOut prints data in the selected format. Table output skips the envelope.
func writeOut(cmd *cobra.Command, app *App, data any, meta map[string]any) error {
	if strings.EqualFold(strings.TrimSpace(app.Format), "table") {
		return format.Write(cmd.OutOrStdout(), data, app.Format, app.Pretty)
	}
	return format.Write(cmd.OutOrStdout(), envelope{Data: data, Meta: meta}, app.Format, app.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	if Reported(err) {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return reportedError{err: err}
}
