package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/fang"

	"atlas-cli/internal/api"
	"atlas-cli/internal/submit"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// notFoundOr maps a backend 404 to a notFoundError.
func notFoundOr(err error, kind, id string) error {
	if api.IsNotFound(err) {
		return errNotFound(kind, id)
	}
	return err
}

// submitFailedError makes `atlas upload` exit non-zero when nothing got through.
type submitFailedError struct {
	res submit.Result
}

func (e submitFailedError) Error() string {
	return e.res.Summary()
}

// reportedError marks an error a command already printed with writeErr.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already written to stderr by a command.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// ErrorHandler renders errors for fang, skipping the ones commands already printed.
func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	if Reported(err) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
