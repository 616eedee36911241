package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Stage is the backend-owned processing position of an entry.
type Stage string

const (
	StageUploaded      Stage = "Uploaded"
	StagePreprocessing Stage = "Preprocessing"
	StageSummarizing   Stage = "Summarizing"
	StageComplete      Stage = "Complete"
	StageError         Stage = "Error"
)

// Stages lists the known stages in pipeline order, with Error last.
var Stages = []Stage{StageUploaded, StagePreprocessing, StageSummarizing, StageComplete, StageError}

// Terminal reports whether the stage is the success end state.
func (s Stage) Terminal() bool { return s == StageComplete }

// Reprocessable reports whether a reprocess request makes sense for the stage.
func (s Stage) Reprocessable() bool { return !s.Terminal() }

// Known reports whether s is one of Stages.
func (s Stage) Known() bool {
	for _, st := range Stages {
		if st == s {
			return true
		}
	}
	return false
}

type SourceKind string

const (
	SourceImage SourceKind = "image"
	SourceLink  SourceKind = "link"
)

var ErrInvalidSourceKind = errors.New("invalid source kind")

func ParseSourceKind(s string) (SourceKind, error) {
	switch SourceKind(strings.ToLower(strings.TrimSpace(s))) {
	case SourceImage:
		return SourceImage, nil
	case SourceLink:
		return SourceLink, nil
	default:
		return "", fmt.Errorf("%w: %q (want image|link)", ErrInvalidSourceKind, s)
	}
}

// ImageExtensions are the file extensions accepted as image uploads.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".heic", ".tif", ".tiff"}

var ErrNotImage = errors.New("not an image file")

// IsImagePath reports whether path has one of ImageExtensions (case-insensitive).
func IsImagePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// DefaultTheme is used when nothing else is configured.
const DefaultTheme = "General"

// DefaultThemes is the built-in theme label set.
var DefaultThemes = []string{"General", "Science", "Technology", "Art", "History", "Nature"}

// HasTheme reports whether theme is in themes (case-sensitive, like the backend).
func HasTheme(themes []string, theme string) bool {
	for _, t := range themes {
		if t == theme {
			return true
		}
	}
	return false
}

// NextTheme returns the label after cur in themes, wrapping around.
// Unknown labels start from the first theme.
func NextTheme(themes []string, cur string) string {
	if len(themes) == 0 {
		return cur
	}
	for i, t := range themes {
		if t == cur {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}
