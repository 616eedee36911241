package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseYearMonth(t *testing.T) {
	ym, err := ParseYearMonth(" 2024-03 ")
	if err != nil {
		t.Fatalf("ParseYearMonth: %v", err)
	}
	if ym.Year != 2024 || ym.Month != time.March {
		t.Fatalf("unexpected value: %+v", ym)
	}
	if got := ym.String(); got != "2024-03" {
		t.Fatalf("String() = %q", got)
	}

	for _, bad := range []string{"", "2024", "2024-13", "2024-00", "24-03", "2024-3", "abcd-01", "+024-05", "2024-+5", "2024- 5"} {
		if _, err := ParseYearMonth(bad); !errors.Is(err, ErrInvalidYearMonth) {
			t.Fatalf("ParseYearMonth(%q): expected ErrInvalidYearMonth, got %v", bad, err)
		}
	}
}

func TestStage_Reprocessable(t *testing.T) {
	for _, st := range Stages {
		want := st != StageComplete
		if got := st.Reprocessable(); got != want {
			t.Fatalf("%s.Reprocessable() = %v, want %v", st, got, want)
		}
	}
	if !Stage("Queued").Reprocessable() {
		t.Fatalf("unknown stages should stay reprocessable")
	}
}

func TestNextTheme_Wraps(t *testing.T) {
	themes := []string{"A", "B", "C"}
	if got := NextTheme(themes, "C"); got != "A" {
		t.Fatalf("NextTheme wrap = %q", got)
	}
	if got := NextTheme(themes, "zzz"); got != "A" {
		t.Fatalf("NextTheme unknown = %q", got)
	}
}

func TestEntry_UnmarshalBackendRecord(t *testing.T) {
	raw := `{
		"id": "e42",
		"theme": "Science",
		"source_type": "link",
		"source_url": "https://example.org/solar",
		"entry_date": "2024-05",
		"process_stage": "Summarizing",
		"tags": "[\"solar\", \"energy\"]",
		"summary_caption": "Solar panels",
		"explain_like_im_5": null,
		"file_storage_path": null,
		"created_at": "2024-05-01 10:00:00.123456",
		"updated_at": "2024-05-02T11:30:00Z"
	}`
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != "e42" || e.Stage != StageSummarizing || e.SourceType != SourceLink {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if len(e.Tags) != 2 || e.Tags[0] != "solar" {
		t.Fatalf("tags not decoded: %#v", e.Tags)
	}
	if e.ExplainLikeImFive != "" || e.FileStoragePath != "" {
		t.Fatalf("null strings should decode empty: %+v", e)
	}
	if e.CreatedAt.IsZero() || e.UpdatedAt.Hour() != 11 {
		t.Fatalf("timestamps not decoded: %v / %v", e.CreatedAt, e.UpdatedAt)
	}
}

func TestEntry_UnmarshalTagsList(t *testing.T) {
	var e Entry
	if err := json.Unmarshal([]byte(`{"id":"x","tags":["a"],"updated_at":1714644600000}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(e.Tags) != 1 || e.Tags[0] != "a" {
		t.Fatalf("tags = %#v", e.Tags)
	}
	if e.UpdatedAt.IsZero() {
		t.Fatalf("epoch millis should decode")
	}
}
