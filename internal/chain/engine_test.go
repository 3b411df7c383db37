package chain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/store"
	"github.com/starford/othala/internal/templates"
)

// testEngine scaffolds a store under a fresh temp dir and returns an engine
// over it.
func testEngine(t *testing.T) *Engine {
	t.Helper()
	root := filepath.Join(t.TempDir(), store.DefaultDir)
	if _, err := store.Init(root, store.InitOptions{}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	st, err := store.Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return New(st)
}

func draftDoc(summary, body string) string {
	return "<summary>" + summary + "</summary>\n\n" + body
}

func commitEntry(t *testing.T, e *Engine, summary, body string) *CommitResult {
	t.Helper()
	if err := e.Store().WriteDraft(draftDoc(summary, body)); err != nil {
		t.Fatalf("WriteDraft: %v", err)
	}
	res, err := e.Commit(context.Background())
	if err != nil {
		t.Fatalf("Commit(%q): %v", summary, err)
	}
	return res
}

func readEntry(t *testing.T, e *Engine, name string) string {
	t.Helper()
	data, err := e.Store().ReadEntry(name)
	if err != nil {
		t.Fatalf("ReadEntry(%s): %v", name, err)
	}
	return string(data)
}

// rewriteEntry replaces a persisted entry in place, bypassing the
// append-only store API.
func rewriteEntry(t *testing.T, e *Engine, name, content string) {
	t.Helper()
	path := filepath.Join(e.Store().WorklogPath(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("rewrite %s: %v", name, err)
	}
}

func entryCount(t *testing.T, e *Engine) int {
	t.Helper()
	names, err := e.Store().EntryNames()
	if err != nil {
		t.Fatalf("EntryNames: %v", err)
	}
	n := 0
	for _, name := range names {
		if _, _, ok := ParseFilename(name); ok {
			n++
		}
	}
	return n
}

func TestCommit_FirstEntry(t *testing.T) {
	e := testEngine(t)

	res := commitEntry(t, e, "Add login endpoint", "## Changes\n\n- added POST /login")

	if res.Sequence != 1 {
		t.Fatalf("Sequence = %d, want 1", res.Sequence)
	}
	if res.Previous != NoPrevious {
		t.Fatalf("Previous = %q, want %q", res.Previous, NoPrevious)
	}
	if res.Summary != "Add login endpoint" {
		t.Fatalf("Summary = %q", res.Summary)
	}

	seq, short, ok := ParseFilename(res.Filename)
	if !ok || seq != 1 {
		t.Fatalf("Filename %q did not parse as entry 1", res.Filename)
	}

	content := readEntry(t, e, res.Filename)
	if short != checksum.ShortSum([]byte(content)) {
		t.Fatalf("filename hash %q does not match content hash %q", short, checksum.ShortSum([]byte(content)))
	}
	if !strings.HasPrefix(content, "Summary: Add login endpoint\nPrevious: none\nDate: ") {
		t.Fatalf("unexpected header: %q", content)
	}
	if !strings.HasSuffix(content, "\n\n---\n\n## Changes\n\n- added POST /login") {
		t.Fatalf("unexpected body: %q", content)
	}
}

func TestCommit_AppendsLedgerRow(t *testing.T) {
	e := testEngine(t)
	res := commitEntry(t, e, "Wire up metrics", "## Changes\n\n- counters")

	ledger, err := e.Ledger(context.Background())
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	row := "| " + res.Filename + " | Wire up metrics |\n"
	if !strings.Contains(string(ledger), row) {
		t.Fatalf("ledger missing row %q:\n%s", row, ledger)
	}
	if !strings.HasPrefix(string(ledger), templates.LedgerHeader) {
		t.Fatalf("ledger header clobbered:\n%s", ledger)
	}
}

func TestCommit_ResetsDraft(t *testing.T) {
	e := testEngine(t)
	commitEntry(t, e, "First", "body text")

	doc, err := e.Store().ReadDraft()
	if err != nil {
		t.Fatalf("ReadDraft: %v", err)
	}
	if doc != templates.Draft {
		t.Fatalf("draft not reset to template:\n%s", doc)
	}
}

func TestCommit_SecondEntryLinksPredecessorBytes(t *testing.T) {
	e := testEngine(t)
	first := commitEntry(t, e, "Entry A", "body A")
	firstContent := readEntry(t, e, first.Filename)

	second := commitEntry(t, e, "Entry B", "body B")
	if second.Sequence != 2 {
		t.Fatalf("Sequence = %d, want 2", second.Sequence)
	}

	wantPrev := checksum.Sum([]byte(firstContent))
	if second.Previous != wantPrev {
		t.Fatalf("Previous = %q, want %q", second.Previous, wantPrev)
	}
	secondContent := readEntry(t, e, second.Filename)
	if got, ok := PreviousLink(secondContent); !ok || got != wantPrev {
		t.Fatalf("embedded previous = %q, %v; want %q", got, ok, wantPrev)
	}
}

func TestCommit_EmptyDraftRejected(t *testing.T) {
	e := testEngine(t)
	commitEntry(t, e, "Real entry", "real body")

	// The freshly reset template must not commit.
	if _, err := e.Commit(context.Background()); !errors.Is(err, apperr.ErrEmptySummary) {
		t.Fatalf("Commit on template draft: %v, want ErrEmptySummary", err)
	}
	if n := entryCount(t, e); n != 1 {
		t.Fatalf("entry count changed to %d after failed commit", n)
	}
}

func TestCommit_CommentOnlyBodyRejected(t *testing.T) {
	e := testEngine(t)
	if err := e.Store().WriteDraft(draftDoc("Has summary", "<!-- placeholder only -->")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Commit(context.Background()); !errors.Is(err, apperr.ErrEmptyBody) {
		t.Fatalf("Commit: %v, want ErrEmptyBody", err)
	}
	if n := entryCount(t, e); n != 0 {
		t.Fatalf("entry count = %d after failed commit, want 0", n)
	}
}

func TestCommit_MissingDraft(t *testing.T) {
	e := testEngine(t)
	if err := os.Remove(e.Store().DraftPath()); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Commit(context.Background()); !errors.Is(err, apperr.ErrDraftNotFound) {
		t.Fatalf("Commit: %v, want ErrDraftNotFound", err)
	}
}

func TestPreviousLinkResolution(t *testing.T) {
	e := testEngine(t)
	res := commitEntry(t, e, "Only entry", "body")
	content := readEntry(t, e, res.Filename)

	t.Run("first entry", func(t *testing.T) {
		got, err := e.previousLink(nil, 1)
		if err != nil || got != NoPrevious {
			t.Fatalf("previousLink(seq 1) = %q, %v", got, err)
		}
	})

	t.Run("existing predecessor", func(t *testing.T) {
		got, err := e.previousLink([]string{res.Filename}, 2)
		if err != nil {
			t.Fatal(err)
		}
		if want := checksum.Sum([]byte(content)); got != want {
			t.Fatalf("previousLink = %q, want %q", got, want)
		}
	})

	t.Run("missing predecessor", func(t *testing.T) {
		_, err := e.previousLink([]string{res.Filename}, 7)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("previousLink(seq 7) = %v, want ErrNotFound", err)
		}
	})
}

func TestVerify_EmptyChain(t *testing.T) {
	e := testEngine(t)
	rep, err := e.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if rep.Entries != 0 || rep.First != nil || rep.Latest != nil {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestVerify_IntactChain(t *testing.T) {
	e := testEngine(t)
	first := commitEntry(t, e, "One", "body one")
	commitEntry(t, e, "Two", "body two")
	third := commitEntry(t, e, "Three", "body three")

	rep, err := e.Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if rep.Entries != 3 {
		t.Fatalf("Entries = %d, want 3", rep.Entries)
	}
	if rep.First == nil || rep.First.Filename != first.Filename {
		t.Fatalf("First = %+v, want %s", rep.First, first.Filename)
	}
	if rep.Latest == nil || rep.Latest.Filename != third.Filename {
		t.Fatalf("Latest = %+v, want %s", rep.Latest, third.Filename)
	}
	if rep.First.Date == "unknown" || rep.Latest.Date == "unknown" {
		t.Fatalf("report dates missing: %+v", rep)
	}
}

func TestVerify_BodyTamper(t *testing.T) {
	e := testEngine(t)
	first := commitEntry(t, e, "One", "original body")
	commitEntry(t, e, "Two", "body two")

	tampered := strings.Replace(readEntry(t, e, first.Filename), "original body", "edited body", 1)
	rewriteEntry(t, e, first.Filename, tampered)

	_, err := e.Verify(context.Background())
	var hashErr *HashError
	if !errors.As(err, &hashErr) {
		t.Fatalf("Verify: %v, want *HashError", err)
	}
	if hashErr.Filename != first.Filename {
		t.Fatalf("HashError.Filename = %s, want %s", hashErr.Filename, first.Filename)
	}
	if hashErr.Computed != checksum.ShortSum([]byte(tampered)) {
		t.Fatalf("Computed = %s, want hash of tampered content", hashErr.Computed)
	}
	_, claimed, _ := ParseFilename(first.Filename)
	if hashErr.Claimed != claimed {
		t.Fatalf("Claimed = %s, want %s", hashErr.Claimed, claimed)
	}
}

func TestVerify_PreviousTamper(t *testing.T) {
	e := testEngine(t)
	first := commitEntry(t, e, "One", "body one")
	second := commitEntry(t, e, "Two", "body two")

	forged := strings.Repeat("ab", 32)
	firstContent := readEntry(t, e, first.Filename)
	secondContent := readEntry(t, e, second.Filename)
	rewriteEntry(t, e, second.Filename, strings.Replace(secondContent, second.Previous, forged, 1))

	// The link check runs before the content hash check, so a rewritten
	// Previous line surfaces as a broken link, not a hash mismatch.
	_, err := e.Verify(context.Background())
	var linkErr *LinkError
	if !errors.As(err, &linkErr) {
		t.Fatalf("Verify: %v, want *LinkError", err)
	}
	if linkErr.Filename != second.Filename {
		t.Fatalf("LinkError.Filename = %s, want %s", linkErr.Filename, second.Filename)
	}
	if want := checksum.Sum([]byte(firstContent)); linkErr.Expected != want {
		t.Fatalf("Expected = %s, want %s", linkErr.Expected, want)
	}
	if linkErr.Found != forged {
		t.Fatalf("Found = %s, want %s", linkErr.Found, forged)
	}
}

func TestVerify_MissingPreviousLine(t *testing.T) {
	e := testEngine(t)
	res := commitEntry(t, e, "One", "body one")

	content := readEntry(t, e, res.Filename)
	rewriteEntry(t, e, res.Filename, strings.Replace(content, "Previous: none\n", "", 1))

	_, err := e.Verify(context.Background())
	var missing *MissingPreviousError
	if !errors.As(err, &missing) {
		t.Fatalf("Verify: %v, want *MissingPreviousError", err)
	}
	if missing.Filename != res.Filename {
		t.Fatalf("Filename = %s, want %s", missing.Filename, res.Filename)
	}
}

func TestVerify_FailsAtEarliestBreak(t *testing.T) {
	e := testEngine(t)
	first := commitEntry(t, e, "One", "body one")
	commitEntry(t, e, "Two", "body two")
	third := commitEntry(t, e, "Three", "body three")

	for _, res := range []*CommitResult{first, third} {
		content := readEntry(t, e, res.Filename)
		rewriteEntry(t, e, res.Filename, content+" tampered")
	}

	_, err := e.Verify(context.Background())
	var hashErr *HashError
	if !errors.As(err, &hashErr) {
		t.Fatalf("Verify: %v, want *HashError", err)
	}
	if hashErr.Filename != first.Filename {
		t.Fatalf("reported %s, want earliest break %s", hashErr.Filename, first.Filename)
	}
}

func TestStatus_FreshStore(t *testing.T) {
	e := testEngine(t)
	st, err := e.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Entries != 0 || st.Latest != nil {
		t.Fatalf("unexpected entries: %+v", st)
	}
	if st.Draft != DraftEmpty {
		t.Fatalf("Draft = %q, want %q", st.Draft, DraftEmpty)
	}
	if st.ChainErr != nil {
		t.Fatalf("ChainErr = %v", st.ChainErr)
	}
}

func TestStatus_PopulatedDraft(t *testing.T) {
	e := testEngine(t)
	if err := e.Store().WriteDraft(draftDoc("Pending work", "notes")); err != nil {
		t.Fatal(err)
	}
	st, err := e.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Draft != DraftPopulated || st.DraftSummary != "Pending work" {
		t.Fatalf("Draft = %q, DraftSummary = %q", st.Draft, st.DraftSummary)
	}
}

func TestStatus_MissingDraft(t *testing.T) {
	e := testEngine(t)
	if err := os.Remove(e.Store().DraftPath()); err != nil {
		t.Fatal(err)
	}
	st, err := e.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Draft != DraftMissing {
		t.Fatalf("Draft = %q, want %q", st.Draft, DraftMissing)
	}
}

func TestStatus_WithEntries(t *testing.T) {
	e := testEngine(t)
	commitEntry(t, e, "One", "body one")
	latest := commitEntry(t, e, "Two", "body two")

	st, err := e.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Entries != 2 {
		t.Fatalf("Entries = %d, want 2", st.Entries)
	}
	if st.Latest == nil || st.Latest.Filename != latest.Filename || st.Latest.Summary != "Two" {
		t.Fatalf("Latest = %+v", st.Latest)
	}
	if st.Latest.Date == "unknown" {
		t.Fatal("Latest.Date missing")
	}
	if st.ChainErr != nil {
		t.Fatalf("ChainErr = %v", st.ChainErr)
	}
}

func TestStatus_BrokenChain(t *testing.T) {
	e := testEngine(t)
	res := commitEntry(t, e, "One", "body one")
	rewriteEntry(t, e, res.Filename, readEntry(t, e, res.Filename)+" tampered")

	st, err := e.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.ChainErr == nil {
		t.Fatal("ChainErr = nil, want verification failure")
	}
	if st.Entries != 1 {
		t.Fatalf("Entries = %d, want 1", st.Entries)
	}
}

func TestEntry(t *testing.T) {
	e := testEngine(t)
	res := commitEntry(t, e, "One", "body one")
	want := readEntry(t, e, res.Filename)

	got, err := e.Entry(context.Background(), res.Filename)
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if string(got) != want {
		t.Fatalf("Entry returned altered bytes")
	}

	if _, err := e.Entry(context.Background(), "../draft.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Entry(../draft.md): %v, want ErrNotFound", err)
	}
	if _, err := e.Entry(context.Background(), "000099_deadbeef.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Entry(missing): %v, want ErrNotFound", err)
	}
}
