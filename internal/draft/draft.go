// Package draft parses the pending-work document that agents fill in between
// commits. A draft is committable once it carries a non-empty single-line
// summary inside a <summary> tag pair and a body with content beyond the
// template's placeholder comments.
package draft

import (
	"regexp"
	"strings"

	"github.com/starford/othala/internal/apperr"
)

var (
	// Summaries are single-line: the pattern deliberately does not let `.`
	// cross newlines.
	summaryRe = regexp.MustCompile(`<summary>(.*?)</summary>`)
	commentRe = regexp.MustCompile(`<!--.*?-->`)
)

const closeTag = "</summary>"

// Draft holds the committable parts of a pending-work document.
type Draft struct {
	Summary string
	Body    string
}

// Parse validates document and extracts its summary and body.
// It fails with apperr.ErrMissingSummaryTag, apperr.ErrEmptySummary, or
// apperr.ErrEmptyBody; these are fatal to the commit attempt but leave the
// document untouched for the caller to fix.
func Parse(document string) (*Draft, error) {
	m := summaryRe.FindStringSubmatch(document)
	if m == nil {
		return nil, apperr.ErrMissingSummaryTag
	}

	summary := strings.TrimSpace(m[1])
	if summary == "" {
		return nil, apperr.ErrEmptySummary
	}

	body := document
	if i := strings.Index(document, closeTag); i >= 0 {
		body = document[i+len(closeTag):]
	}
	body = strings.TrimSpace(body)

	if strings.TrimSpace(stripComments(body)) == "" {
		return nil, apperr.ErrEmptyBody
	}

	return &Draft{Summary: summary, Body: body}, nil
}

// stripComments removes HTML-style comment spans so template placeholders do
// not count as body content.
func stripComments(text string) string {
	return commentRe.ReplaceAllString(text, "")
}
