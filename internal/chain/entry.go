package chain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NoPrevious is the previous-link sentinel carried by the first entry.
const NoPrevious = "none"

// timeLayout is the canonical timestamp format: ISO-8601, UTC, second
// precision. It is part of the serialized content, so it can never change
// without invalidating every historical hash.
const timeLayout = "2006-01-02T15:04:05Z"

// separator divides the header block from the body in the canonical layout.
const separator = "\n\n---\n\n"

var (
	// Entry filenames: zero-padded decimal sequence, one underscore, the
	// 8-hex short hash of the file's own content. Width-tolerant on read;
	// Filename fixes the width on write.
	entryFileRe = regexp.MustCompile(`^(\d+)_([a-f0-9]{8})\.md$`)

	// The previous link is structurally constrained: anything that is not
	// the sentinel or a full lowercase digest is treated as absent.
	previousRe = regexp.MustCompile(`^Previous: ([a-f0-9]{64}|none)$`)
)

// EntryContent holds the fields of one chain entry. Encode produces the
// exact serialization that hashing, linking, and verification operate on.
type EntryContent struct {
	Summary  string
	Previous string // NoPrevious or the 64-hex digest of the predecessor
	Date     time.Time
	Body     string
}

// Encode renders the canonical text layout. Field order, spacing, and line
// endings are load-bearing: any deviation changes the entry's digest.
func (c EntryContent) Encode() string {
	return fmt.Sprintf("Summary: %s\nPrevious: %s\nDate: %s%s%s",
		c.Summary, c.Previous, c.Date.UTC().Format(timeLayout), separator, c.Body)
}

// Decode parses a canonical serialization back into its fields.
func Decode(content string) (*EntryContent, error) {
	summary, ok := Field(content, "Summary")
	if !ok {
		return nil, fmt.Errorf("chain: decode: missing Summary field")
	}
	previous, ok := PreviousLink(content)
	if !ok {
		return nil, fmt.Errorf("chain: decode: missing Previous field")
	}
	rawDate, ok := Field(content, "Date")
	if !ok {
		return nil, fmt.Errorf("chain: decode: missing Date field")
	}
	date, err := time.Parse(timeLayout, rawDate)
	if err != nil {
		return nil, fmt.Errorf("chain: decode date: %w", err)
	}
	i := strings.Index(content, separator)
	if i < 0 {
		return nil, fmt.Errorf("chain: decode: missing body separator")
	}
	return &EntryContent{
		Summary:  summary,
		Previous: previous,
		Date:     date,
		Body:     content[i+len(separator):],
	}, nil
}

// Field extracts a header field by line scan: the first line of the form
// "<name>: <value>" wins, regardless of position. Empty values do not match.
func Field(content, name string) (string, bool) {
	prefix := name + ": "
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if rest, ok := strings.CutPrefix(line, prefix); ok && rest != "" {
			return rest, true
		}
	}
	return "", false
}

// PreviousLink extracts the previous-link field. A Previous line whose value
// is neither the sentinel nor a full lowercase hex digest is structurally
// invalid and reported as absent.
func PreviousLink(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if m := previousRe.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Body extracts the free-form body after the header separator. Unlike
// Decode it tolerates damaged headers, so callers that mirror or display
// entries can still surface their text.
func Body(content string) (string, bool) {
	i := strings.Index(content, separator)
	if i < 0 {
		return "", false
	}
	return content[i+len(separator):], true
}

// Filename builds the canonical entry filename for a sequence number and the
// short hash of the entry's own serialized content.
func Filename(sequence int, shortHash string) string {
	return fmt.Sprintf("%06d_%s.md", sequence, shortHash)
}

// ParseFilename splits an entry filename into sequence number and claimed
// short hash. Non-entry names (the ledger, stray files) report ok=false.
func ParseFilename(name string) (sequence int, shortHash string, ok bool) {
	m := entryFileRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil || seq < 1 {
		return 0, "", false
	}
	return seq, m[2], true
}
