// Package chain implements the worklog chain engine: the canonical entry
// codec, sequence allocation, the commit path that links new entries, and
// the verifier that walks persisted history checking linkage and content
// hashes.
package chain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/draft"
	"github.com/starford/othala/internal/store"
)

// Engine runs chain operations against one store. It keeps no state between
// calls: every operation re-reads the persisted chain, so repeated runs are
// idempotent and safe across process restarts.
type Engine struct {
	store *store.Store
}

// New creates an Engine over an opened store.
func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// Store exposes the underlying store for collaborators that need direct
// document access (watcher, serve wiring).
func (e *Engine) Store() *store.Store {
	return e.store
}

// CommitResult is the structured payload of a successful commit.
type CommitResult struct {
	Sequence int    `json:"sequence"`
	Filename string `json:"filename"`
	Summary  string `json:"summary"`
	Previous string `json:"previous"`
}

// Commit turns the current draft into the next chain entry:
// parse the draft, allocate the sequence, derive the previous link from the
// predecessor's exact bytes, serialize, persist under the content-addressed
// filename, append the ledger row, and reset the draft. The steps are
// ordered, not transactional: a crash can leave the ledger behind the chain
// files, never ahead, and the next commit re-derives everything from the
// entry files alone.
func (e *Engine) Commit(_ context.Context) (*CommitResult, error) {
	doc, err := e.store.ReadDraft()
	if err != nil {
		return nil, err
	}
	d, err := draft.Parse(doc)
	if err != nil {
		return nil, err
	}

	names, err := e.store.EntryNames()
	if err != nil {
		return nil, err
	}
	sequence := NextSequence(names)

	previous, err := e.previousLink(names, sequence)
	if err != nil {
		return nil, err
	}

	content := EntryContent{
		Summary:  d.Summary,
		Previous: previous,
		Date:     time.Now().UTC(),
		Body:     d.Body,
	}.Encode()

	filename := Filename(sequence, checksum.ShortSum([]byte(content)))

	if err := e.store.WriteEntry(filename, []byte(content)); err != nil {
		return nil, err
	}
	if err := e.store.AppendLedger(filename, d.Summary); err != nil {
		return nil, err
	}
	if err := e.store.ResetDraft(); err != nil {
		return nil, err
	}

	return &CommitResult{
		Sequence: sequence,
		Filename: filename,
		Summary:  d.Summary,
		Previous: previous,
	}, nil
}

// previousLink resolves the backward link for a new entry at sequence: the
// sentinel for the first entry, otherwise the digest of the predecessor's
// exact serialized bytes. A missing predecessor means the history is broken
// or incomplete and the commit must not proceed.
func (e *Engine) previousLink(names []string, sequence int) (string, error) {
	if sequence == 1 {
		return NoPrevious, nil
	}
	prev := sequence - 1
	for _, name := range names {
		seq, _, ok := ParseFilename(name)
		if !ok || seq != prev {
			continue
		}
		content, err := e.store.ReadEntry(name)
		if err != nil {
			return "", err
		}
		return checksum.Sum(content), nil
	}
	return "", fmt.Errorf("chain: previous entry %06d_*.md %w", prev, apperr.ErrNotFound)
}

// EntryRef identifies one verified entry in a report.
type EntryRef struct {
	Filename string `json:"filename"`
	Date     string `json:"date"`
}

// Report is the outcome of a successful verification walk.
type Report struct {
	Entries int       `json:"entries"`
	First   *EntryRef `json:"first,omitempty"`
	Latest  *EntryRef `json:"latest,omitempty"`
}

// Verify walks all persisted entries in ascending sequence order, checking
// each entry's previous link against the digest of its predecessor and its
// filename hash against its own content. The walk stops at the first
// divergence with a *LinkError, *HashError, or *MissingPreviousError; a nil
// error means the whole chain is intact. An empty chain verifies.
func (e *Engine) Verify(_ context.Context) (*Report, error) {
	entries, err := e.sortedEntries()
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	expected := NoPrevious
	for _, ent := range entries {
		content, err := e.store.ReadEntry(ent.name)
		if err != nil {
			return nil, err
		}

		embedded, ok := PreviousLink(string(content))
		if !ok {
			return nil, &MissingPreviousError{Filename: ent.name}
		}
		if embedded != expected {
			return nil, &LinkError{Filename: ent.name, Expected: expected, Found: embedded}
		}
		if short := checksum.ShortSum(content); short != ent.shortHash {
			return nil, &HashError{Filename: ent.name, Computed: short, Claimed: ent.shortHash}
		}

		ref := &EntryRef{Filename: ent.name, Date: entryDate(string(content))}
		if rep.First == nil {
			rep.First = ref
		}
		rep.Latest = ref
		rep.Entries++

		expected = checksum.Sum(content)
	}
	return rep, nil
}

// Draft states reported by Status.
const (
	DraftEmpty     = "empty"     // template state, nothing committable
	DraftPopulated = "populated" // parses with a summary, uncommitted work
	DraftMissing   = "missing"
)

// LatestEntry describes the newest chain entry for status display.
type LatestEntry struct {
	Filename string `json:"filename"`
	Date     string `json:"date"`
	Summary  string `json:"summary"`
}

// Status is a point-in-time snapshot of the store.
type Status struct {
	Entries      int          `json:"entries"`
	Latest       *LatestEntry `json:"latest,omitempty"`
	Draft        string       `json:"draft"`
	DraftSummary string       `json:"draft_summary,omitempty"`
	ChainErr     error        `json:"-"`
}

// Status reports entry count, the latest entry, the draft state, and the
// chain verification outcome. ChainErr carries the verification failure when
// the chain is broken; the snapshot itself is still returned.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	entries, err := e.sortedEntries()
	if err != nil {
		return nil, err
	}

	st := &Status{Entries: len(entries)}
	if n := len(entries); n > 0 {
		last := entries[n-1]
		content, err := e.store.ReadEntry(last.name)
		if err != nil {
			return nil, err
		}
		summary, ok := Field(string(content), "Summary")
		if !ok {
			summary = "No summary"
		}
		st.Latest = &LatestEntry{
			Filename: last.name,
			Date:     entryDate(string(content)),
			Summary:  summary,
		}
	}

	doc, err := e.store.ReadDraft()
	switch {
	case errors.Is(err, apperr.ErrDraftNotFound):
		st.Draft = DraftMissing
	case err != nil:
		return nil, err
	default:
		if d, perr := draft.Parse(doc); perr == nil {
			st.Draft = DraftPopulated
			st.DraftSummary = d.Summary
		} else {
			st.Draft = DraftEmpty
		}
	}

	if _, verr := e.Verify(ctx); verr != nil {
		st.ChainErr = verr
	}
	return st, nil
}

// Entry returns the exact bytes of a persisted entry by filename. Names that
// do not match the entry pattern are rejected before touching the file
// system.
func (e *Engine) Entry(_ context.Context, name string) ([]byte, error) {
	if _, _, ok := ParseFilename(name); !ok {
		return nil, fmt.Errorf("chain: entry %s: %w", name, apperr.ErrNotFound)
	}
	data, err := e.store.ReadEntry(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("chain: entry %s: %w", name, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Ledger returns the raw summary ledger content.
func (e *Engine) Ledger(_ context.Context) ([]byte, error) {
	return e.store.ReadLedger()
}

// entryFile is one discovered chain entry file.
type entryFile struct {
	seq       int
	shortHash string
	name      string
}

// sortedEntries lists the worklog directory and returns parsed entry files
// in ascending sequence order.
func (e *Engine) sortedEntries() ([]entryFile, error) {
	names, err := e.store.EntryNames()
	if err != nil {
		return nil, err
	}
	var out []entryFile
	for _, name := range names {
		seq, short, ok := ParseFilename(name)
		if !ok {
			continue
		}
		out = append(out, entryFile{seq: seq, shortHash: short, name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out, nil
}

// entryDate extracts the Date field for display, tolerating entries whose
// header is damaged.
func entryDate(content string) string {
	date, ok := Field(content, "Date")
	if !ok {
		return "unknown"
	}
	return date
}
