package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Entry is a read-only snapshot of a backend entry.
type Entry struct {
	ID                string     `json:"id"`
	Theme             string     `json:"theme"`
	SourceType        SourceKind `json:"source_type"`
	SourceURL         string     `json:"source_url"`
	EntryDate         string     `json:"entry_date"`
	Stage             Stage      `json:"process_stage"`
	Tags              []string   `json:"tags,omitempty"`
	SummaryCaption    string     `json:"summary_caption"`
	ExplainLikeImFive string     `json:"explain_like_im_5,omitempty"`
	FileStoragePath   string     `json:"file_storage_path,omitempty"`
	CreatedAt         Timestamp  `json:"created_at"`
	UpdatedAt         Timestamp  `json:"updated_at"`
}

// EntryPage is one page of the entry listing plus the unpaginated total.
type EntryPage struct {
	Data  []Entry `json:"data"`
	Total int     `json:"total"`
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	type plain Entry
	var raw struct {
		plain
		Tags              json.RawMessage `json:"tags"`
		Theme             *string         `json:"theme"`
		SourceURL         *string         `json:"source_url"`
		EntryDate         *string         `json:"entry_date"`
		SummaryCaption    *string         `json:"summary_caption"`
		ExplainLikeImFive *string         `json:"explain_like_im_5"`
		FileStoragePath   *string         `json:"file_storage_path"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = Entry(raw.plain)
	e.Theme = deref(raw.Theme)
	e.SourceURL = deref(raw.SourceURL)
	e.EntryDate = deref(raw.EntryDate)
	e.SummaryCaption = deref(raw.SummaryCaption)
	e.ExplainLikeImFive = deref(raw.ExplainLikeImFive)
	e.FileStoragePath = deref(raw.FileStoragePath)
	e.Tags = decodeTags(raw.Tags)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// decodeTags accepts a JSON list, a JSON string holding a list (the backend keeps
// tags as text), or null.
func decodeTags(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err == nil {
		return tags
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &tags); err == nil {
		return tags
	}
	return []string{s}
}

// Timestamp decodes both RFC3339 and the backend's "2006-01-02 15:04:05.999999" form.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func ParseTimestamp(s string) (Timestamp, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, true
		}
	}
	return Timestamp{}, false
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Epoch milliseconds (pandas default for datetime columns).
		var ms int64
		if err2 := json.Unmarshal(b, &ms); err2 != nil {
			return err
		}
		*t = Timestamp{Time: time.UnixMilli(ms).UTC()}
		return nil
	}
	if ts, ok := ParseTimestamp(s); ok {
		*t = ts
		return nil
	}
	*t = Timestamp{}
	return nil
}

// Short renders the timestamp for table cells.
func (t Timestamp) Short() string {
	if t.IsZero() {
		return "-"
	}
	return t.Time.Format("2006-01-02 15:04")
}
