package tui

import (
	"atlas-cli/internal/browse"
	"atlas-cli/internal/model"
	"atlas-cli/internal/submit"
)

type view int

const (
	viewBrowser view = iota
	viewIntake
)

func (v view) String() string {
	switch v {
	case viewIntake:
		return "Intake"
	default:
		return "Entries"
	}
}

type entriesLoadedMsg struct {
	req  browse.Request
	page model.EntryPage
	err  error
}

type reprocessDoneMsg struct {
	id  string
	err error
}

type themeUpdatedMsg struct {
	id    string
	theme string
	err   error
}

type submitDoneMsg struct {
	res  submit.Result
	done []string
}

// flashDoneMsg clears the minibuffer if nothing newer was shown since.
type flashDoneMsg struct {
	seq int
}
