// Package submit sends staged items to the backend one request at a time.
package submit

import (
	"context"
	"errors"
	"fmt"
	"os"

	"atlas-cli/internal/api"
	"atlas-cli/internal/logging"
	"atlas-cli/internal/model"
	"atlas-cli/internal/staging"
)

var ErrNothingStaged = errors.New("nothing staged: add files or links first")

type Uploader interface {
	Upload(ctx context.Context, r api.UploadRequest) (api.UploadResult, error)
}

// Progress is reported once per settled item, in list order.
type Progress struct {
	Index int
	Total int
	Item  staging.Item
	ID    string
	Err   error
}

type Failure struct {
	ItemID string
	Name   string
	Err    error
}

type Result struct {
	Attempted int
	Succeeded int
	Failures  []Failure

	// Uploaded holds the backend ids of successful uploads, in order.
	Uploaded []string
	// Pending counts items never attempted because the context ended.
	Pending  int
}

func (r Result) Failed() int { return len(r.Failures) }

// OK reports whether at least one item made it to the backend.
func (r Result) OK() bool { return r.Succeeded > 0 }

func (r Result) Summary() string {
	total := r.Attempted + r.Pending
	switch {
	case r.Succeeded == 0 && r.Pending > 0:
		return fmt.Sprintf("Submit interrupted: 0 of %d items uploaded", total)
	case r.Succeeded == 0:
		return fmt.Sprintf("All %d uploads failed", r.Attempted)
	case r.Succeeded == total:
		if total == 1 {
			return "Submitted 1 item"
		}
		return fmt.Sprintf("Submitted %d items", total)
	default:
		return fmt.Sprintf("Submitted %d of %d items (%d failed)", r.Succeeded, total, r.Failed())
	}
}

type Sequencer struct {
	Uploader Uploader
	Logger   logging.Logger

	// KeepFailed removes only successful items after a partially successful
	// submit. By default the whole list is cleared once anything succeeds.
	KeepFailed bool

	Progress func(Progress)

	// Open opens an image item's file; defaults to os.Open.
	Open func(path string) (*os.File, error)
}

// Submit uploads every staged item in order, each request waiting for the
// previous one to settle. Per-item failures never stop the batch.
//
// When at least one upload succeeds the staging list is cleared (or, with
// KeepFailed, reduced to the failures). When none succeed every item stays staged.
func (s *Sequencer) Submit(ctx context.Context, st *staging.Store) (Result, error) {
	if st == nil || st.Len() == 0 {
		return Result{}, ErrNothingStaged
	}
	items := st.Items()
	res, done := s.Run(ctx, items)
	s.Apply(st, res, done)
	return res, nil
}

// Run uploads a snapshot of items without touching any store. It returns the
// result plus the ids of items that uploaded successfully.
func (s *Sequencer) Run(ctx context.Context, items []staging.Item) (Result, []string) {
	log := s.logger()
	var res Result
	var done []string

	for i, it := range items {
		if err := ctx.Err(); err != nil {
			res.Pending = len(items) - i
			log.Warn(ctx, "submit interrupted", "remaining", res.Pending, "err", err)
			break
		}
		res.Attempted++

		id, err := s.uploadOne(ctx, it)
		if err != nil {
			log.Info(ctx, "upload failed", "item", it.ID(), "name", it.Name(), "kind", it.Kind(), "err", err)
			res.Failures = append(res.Failures, Failure{ItemID: it.ID(), Name: it.Name(), Err: err})
		} else {
			log.Info(ctx, "upload done", "item", it.ID(), "name", it.Name(), "entry", id)
			res.Succeeded++
			res.Uploaded = append(res.Uploaded, id)
			done = append(done, it.ID())
		}
		if s.Progress != nil {
			s.Progress(Progress{Index: i, Total: len(items), Item: it, ID: id, Err: err})
		}
	}
	return res, done
}

// Apply reflects a Run result back into the staging store.
func (s *Sequencer) Apply(st *staging.Store, res Result, done []string) {
	if st == nil || res.Succeeded == 0 {
		return
	}
	if s.KeepFailed || res.Pending > 0 {
		st.RemoveIDs(done)
		return
	}
	st.Clear()
}

func (s *Sequencer) uploadOne(ctx context.Context, it staging.Item) (string, error) {
	if s.Uploader == nil {
		return "", errors.New("no uploader configured")
	}
	req := api.UploadRequest{
		Kind:      it.Kind(),
		Theme:     it.Theme(),
		EntryDate: it.Date(),
	}
	switch it.Kind() {
	case model.SourceImage:
		ref, ok := it.File()
		if !ok {
			return "", api.ErrMissingFile
		}
		open := s.Open
		if open == nil {
			open = os.Open
		}
		f, err := open(ref.Path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		req.FileName = ref.Name
		req.File = f
	case model.SourceLink:
		req.URL = it.URL()
	}

	out, err := s.Uploader.Upload(ctx, req)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (s *Sequencer) logger() logging.Logger {
	if s.Logger == nil {
		return logging.Discard()
	}
	return s.Logger
}
