package domain

import "time"

// Snippet represents a saved piece of captured text
type Snippet struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Created  int64    `json:"created"`            // ms since epoch
	LastUsed *int64   `json:"lastUsed,omitempty"` // ms since epoch, set on copy
}

// ImportRecord is the loosely shaped item accepted from an import file.
// Fields are not validated beyond the JSON type of each one.
type ImportRecord struct {
	ID       *string  `json:"id"`
	Title    *string  `json:"title"`
	Content  *string  `json:"content"`
	Tags     []string `json:"tags"`
	Created  *int64   `json:"created"`
	LastUsed *int64   `json:"lastUsed"`
}

// Snippet converts the record, leaving absent fields at their zero value.
func (r ImportRecord) Snippet() Snippet {
	s := Snippet{Tags: r.Tags, LastUsed: r.LastUsed}
	if r.ID != nil {
		s.ID = *r.ID
	}
	if r.Title != nil {
		s.Title = *r.Title
	}
	if r.Content != nil {
		s.Content = *r.Content
	}
	if r.Created != nil {
		s.Created = *r.Created
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return s
}

// Card is the rendered projection of a Snippet in the management panel
type Card struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Preview  string   `json:"preview"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Created  int64    `json:"created"`
	LastUsed *int64   `json:"lastUsed,omitempty"`
}

// Stats is a computed view over the whole collection
type Stats struct {
	TotalSnippets  int    `json:"total_snippets"`
	TotalChars     int    `json:"total_chars"`
	TotalCharsText string `json:"total_chars_text"`
	UniqueTags     int    `json:"unique_tags"`
}

// EventKind names a broadcast signal
type EventKind string

const EventSnippetSaved EventKind = "SNIPPET_SAVED"

// Event is the payload pushed to notification listeners
type Event struct {
	Type EventKind `json:"type"`
}

// NowMillis returns the current time as ms since epoch.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
