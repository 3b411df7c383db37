package api

import (
	"github.com/starford/othala/internal/chain"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/models"
)

// StatusResponse is the worklog status payload.
type StatusResponse struct {
	Entries      int                `json:"entries" example:"42" validate:"required"`
	Latest       *chain.LatestEntry `json:"latest,omitempty"`
	Draft        string             `json:"draft" example:"populated" validate:"required"`
	DraftSummary string             `json:"draft_summary,omitempty" example:"Add search endpoint"`
	ChainIntact  bool               `json:"chain_intact" validate:"required"`
	ChainError   string             `json:"chain_error,omitempty"`
}

// VerifyResponse is the verification outcome payload. When OK is false the
// Kind, Filename, Expected, and Found fields describe the first break.
type VerifyResponse struct {
	OK       bool            `json:"ok" validate:"required"`
	Entries  int             `json:"entries,omitempty" example:"42"`
	First    *chain.EntryRef `json:"first,omitempty"`
	Latest   *chain.EntryRef `json:"latest,omitempty"`
	Kind     string          `json:"kind,omitempty" example:"link_mismatch"`
	Filename string          `json:"filename,omitempty" example:"000002_deadbeef.md"`
	Expected string          `json:"expected,omitempty"`
	Found    string          `json:"found,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// EntryDetail is the full mirrored entry response type (aliased from the
// domain layer).
type EntryDetail = models.Entry

// EntryListResponse wraps paginated entry listings.
type EntryListResponse struct {
	Entries []models.EntryMetadata `json:"entries" validate:"required"`
	Total   int                    `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}
