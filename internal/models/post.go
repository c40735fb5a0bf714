// Package models contains the wire records exchanged with the blog backend
// and the error taxonomy shared by every client layer.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Post is a full blog entry as returned by GET /posts/{id}.
// ID, CreatedDate and LastModifiedDate are assigned by the backend.
type Post struct {
	ID               int       `json:"id" yaml:"id"`
	Title            string    `json:"title" yaml:"title"`
	Author           string    `json:"author" yaml:"author"`
	AuthorID         string    `json:"authorId" yaml:"authorId"`
	Content          string    `json:"content" yaml:"content"`
	CreatedDate      Timestamp `json:"createdDate" yaml:"createdDate"`
	LastModifiedDate Timestamp `json:"lastModifiedDate" yaml:"lastModifiedDate"`
}

// PostPreview is the list projection of a Post. It is derived server-side
// and never written back.
type PostPreview struct {
	ID               int       `json:"id" yaml:"id"`
	Title            string    `json:"title" yaml:"title"`
	Author           string    `json:"author" yaml:"author"`
	ContentPreview   string    `json:"contentPreview" yaml:"contentPreview"`
	CreatedDate      Timestamp `json:"createdDate" yaml:"createdDate"`
	LastModifiedDate Timestamp `json:"lastModifiedDate" yaml:"lastModifiedDate"`
}

// NewPost is the create payload. Author carries the identity id of the
// writer; the backend assigns id and timestamps.
type NewPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// WithEdits returns a copy of p with the edit form applied. The copy keeps
// the server-assigned fields so it can be sent as a full-record replace.
func (p Post) WithEdits(title, content string) Post {
	p.Title = title
	p.Content = content
	return p
}

// TimestampsOrdered reports whether LastModifiedDate >= CreatedDate.
// Unset timestamps are treated as ordered.
func (p Post) TimestampsOrdered() bool {
	if p.CreatedDate.IsZero() || p.LastModifiedDate.IsZero() {
		return true
	}
	return !p.LastModifiedDate.Before(p.CreatedDate.Time)
}

// ParsePostID validates a route parameter as a positive post id.
func ParsePostID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, NewValidationError(fmt.Sprintf("invalid post id %q", raw))
	}
	return id, nil
}

// displayLayout matches the date format used by the post list and detail views.
const displayLayout = "2006-01-02 15:04"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// Timestamp is a backend-assigned point in time. Backends differ in whether
// they include a zone offset, so decoding accepts several layouts and keeps
// the raw text for display when none matches.
type Timestamp struct {
	time.Time
	raw string
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = ParseTimestamp(s)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// MarshalYAML renders the timestamp as a string.
func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// ParseTimestamp parses s with the accepted layouts. A value without a
// zone offset is local time. Unparseable input is kept verbatim with a zero
// time.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{Time: parsed, raw: s}
		}
	}
	return Timestamp{raw: s}
}

// String returns the RFC 3339 form, or the raw text if it never parsed.
func (t Timestamp) String() string {
	if t.IsZero() {
		return t.raw
	}
	return t.Time.Format(time.RFC3339Nano)
}

// Display formats the timestamp for list and detail views.
func (t Timestamp) Display() string {
	if t.IsZero() {
		return t.raw
	}
	return t.Local().Format(displayLayout)
}
