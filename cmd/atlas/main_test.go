package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRewriteDirectUploadArgs(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "comet.png")
	if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("hi"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"atlas"},
			want: []string{"atlas"},
		},
		{
			name: "url first token",
			in:   []string{"atlas", "https://example.org/a"},
			want: []string{"atlas", "upload", "https://example.org/a"},
		},
		{
			name: "existing file then url",
			in:   []string{"atlas", img, "https://example.org/a"},
			want: []string{"atlas", "upload", img, "https://example.org/a"},
		},
		{
			name: "after value flag",
			in:   []string{"atlas", "--api", "http://localhost:9000", img},
			want: []string{"atlas", "--api", "http://localhost:9000", "upload", img},
		},
		{
			name: "after equals and bool flags",
			in:   []string{"atlas", "--api=http://localhost:9000", "--pretty", img},
			want: []string{"atlas", "--api=http://localhost:9000", "--pretty", "upload", img},
		},
		{
			name: "after double dash",
			in:   []string{"atlas", "--", "https://example.org/a"},
			want: []string{"atlas", "--", "upload", "https://example.org/a"},
		},
		{
			name: "subcommand not rewritten",
			in:   []string{"atlas", "entries", "list"},
			want: []string{"atlas", "entries", "list"},
		},
		{
			name: "missing file not rewritten",
			in:   []string{"atlas", filepath.Join(dir, "nope.png")},
			want: []string{"atlas", filepath.Join(dir, "nope.png")},
		},
		{
			name: "non-image file not rewritten",
			in:   []string{"atlas", notes},
			want: []string{"atlas", notes},
		},
		{
			name: "directory not rewritten",
			in:   []string{"atlas", dir},
			want: []string{"atlas", dir},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rewriteDirectUploadArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
