// Package models defines the domain types for Othala.
package models

import "time"

// Entry is one worklog chain entry as mirrored into the search index. The
// markdown files under worklog/ remain the source of truth; an Entry row is
// derived and can always be rebuilt from them.
type Entry struct {
	Sequence  int       `json:"sequence"`
	Filename  string    `json:"filename"`
	ShortHash string    `json:"short_hash"`
	Summary   string    `json:"summary"`
	Date      string    `json:"date"` // raw Date field value, unparsed
	Previous  string    `json:"previous"`
	Body      string    `json:"body"`
	IndexedAt time.Time `json:"indexed_at"`
}

// EntryMetadata is a lightweight representation returned by list operations.
type EntryMetadata struct {
	Sequence int    `json:"sequence"`
	Filename string `json:"filename"`
	Summary  string `json:"summary"`
	Date     string `json:"date"`
}
