// Package tui is the interactive dashboard: an entry browser and an intake
// view for staging and submitting new sources.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()

	if ctx == nil {
		ctx = context.Background()
	}
	opts.Context = ctx
	_, err := tea.NewProgram(newAppModel(opts), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
