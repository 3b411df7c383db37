package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/templates"
)

// initStore scaffolds and opens a store under a fresh repo root.
func initStore(t *testing.T) (*Store, string) {
	t.Helper()
	repoRoot := t.TempDir()
	if _, err := Init(filepath.Join(repoRoot, DefaultDir), InitOptions{}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s, err := Open(filepath.Join(repoRoot, DefaultDir))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, repoRoot
}

func TestInit_CreatesLayout(t *testing.T) {
	repoRoot := t.TempDir()
	root := filepath.Join(repoRoot, DefaultDir)

	res, err := Init(root, InitOptions{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, p := range []string{
		root,
		filepath.Join(root, WorklogDir),
		filepath.Join(root, "AGENTS.md"),
		filepath.Join(root, DraftFile),
		filepath.Join(root, WorklogDir, "SUMMARY.md"),
		filepath.Join(root, ".gitignore"),
		filepath.Join(root, ".gitattributes"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}

	if len(res.Created) != 5 {
		t.Errorf("created = %v, want 5 paths", res.Created)
	}

	draftContent, _ := os.ReadFile(filepath.Join(root, DraftFile))
	if !strings.Contains(string(draftContent), "<summary></summary>") {
		t.Errorf("draft template missing summary tag: %q", draftContent)
	}
	ledger, _ := os.ReadFile(filepath.Join(root, WorklogDir, "SUMMARY.md"))
	if !strings.Contains(string(ledger), "| Entry | Summary |") {
		t.Errorf("ledger header missing: %q", ledger)
	}
	agents, _ := os.ReadFile(filepath.Join(root, "AGENTS.md"))
	if !strings.Contains(string(agents), "Othala Protocol: Agent Instructions") {
		t.Errorf("agents protocol missing: %q", agents)
	}
}

func TestInit_AlreadyInitialized(t *testing.T) {
	repoRoot := t.TempDir()
	root := filepath.Join(repoRoot, DefaultDir)

	if _, err := Init(root, InitOptions{}); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	_, err := Init(root, InitOptions{})
	if !errors.Is(err, apperr.ErrAlreadyInitialized) {
		t.Errorf("err = %v, want ErrAlreadyInitialized", err)
	}
}

func TestInit_DetectionModeAppendsToExistingWarp(t *testing.T) {
	repoRoot := t.TempDir()
	warp := filepath.Join(repoRoot, "WARP.md")
	if err := os.WriteFile(warp, []byte("# Warp\n\nExisting content.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Init(filepath.Join(repoRoot, DefaultDir), InitOptions{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	content, _ := os.ReadFile(warp)
	if !strings.Contains(string(content), "Existing content") {
		t.Errorf("existing content lost: %q", content)
	}
	if !strings.Contains(string(content), templates.DirectiveMarker) {
		t.Errorf("directive not appended: %q", content)
	}
	if len(res.Updated) != 1 || res.Updated[0] != "WARP.md" {
		t.Errorf("updated = %v, want [WARP.md]", res.Updated)
	}

	// Detection mode must not create a root AGENTS.md.
	if _, err := os.Stat(filepath.Join(repoRoot, "AGENTS.md")); !os.IsNotExist(err) {
		t.Error("root AGENTS.md should not be created in detection mode")
	}
}

func TestInit_ExplicitFlagsCreateTargets(t *testing.T) {
	repoRoot := t.TempDir()

	_, err := Init(filepath.Join(repoRoot, DefaultDir), InitOptions{All: true})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, p := range []string{
		filepath.Join(repoRoot, "WARP.md"),
		filepath.Join(repoRoot, ".junie", "guidelines.md"),
		filepath.Join(repoRoot, "AGENTS.md"),
	} {
		content, err := os.ReadFile(p)
		if err != nil {
			t.Errorf("missing %s: %v", p, err)
			continue
		}
		if !strings.Contains(string(content), templates.DirectiveMarker) {
			t.Errorf("%s missing directive", p)
		}
	}
}

func TestInit_DirectiveIdempotent(t *testing.T) {
	repoRoot := t.TempDir()
	warp := filepath.Join(repoRoot, "WARP.md")
	existing := "# Warp\n\n## " + templates.DirectiveMarker + "\n\nAlready here.\n"
	if err := os.WriteFile(warp, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Init(filepath.Join(repoRoot, DefaultDir), InitOptions{Warp: true})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	content, _ := os.ReadFile(warp)
	if n := strings.Count(string(content), templates.DirectiveMarker); n != 1 {
		t.Errorf("marker count = %d, want 1 (no duplication)", n)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "WARP.md" {
		t.Errorf("skipped = %v, want [WARP.md]", res.Skipped)
	}
}

func TestOpen_NotInitialized(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), DefaultDir))
	if !errors.Is(err, apperr.ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestOpen_MissingWorklogDir(t *testing.T) {
	repoRoot := t.TempDir()
	root := filepath.Join(repoRoot, DefaultDir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := Open(root)
	if !errors.Is(err, apperr.ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestReadDraft_Missing(t *testing.T) {
	s, _ := initStore(t)
	if err := os.Remove(s.DraftPath()); err != nil {
		t.Fatal(err)
	}
	_, err := s.ReadDraft()
	if !errors.Is(err, apperr.ErrDraftNotFound) {
		t.Errorf("err = %v, want ErrDraftNotFound", err)
	}
}

func TestResetDraft(t *testing.T) {
	s, _ := initStore(t)
	if err := s.WriteDraft("<summary>wip</summary>\n\nsome work"); err != nil {
		t.Fatalf("WriteDraft: %v", err)
	}
	if err := s.ResetDraft(); err != nil {
		t.Fatalf("ResetDraft: %v", err)
	}
	got, err := s.ReadDraft()
	if err != nil {
		t.Fatalf("ReadDraft: %v", err)
	}
	if got != templates.Draft {
		t.Errorf("draft = %q, want template", got)
	}
}

func TestWriteEntry_Immutable(t *testing.T) {
	s, _ := initStore(t)
	if err := s.WriteEntry("000001_aaaaaaaa.md", []byte("first")); err != nil {
		t.Fatalf("WriteEntry: %v", err)
	}
	if err := s.WriteEntry("000001_aaaaaaaa.md", []byte("second")); err == nil {
		t.Error("expected error overwriting an entry")
	}
	got, _ := s.ReadEntry("000001_aaaaaaaa.md")
	if string(got) != "first" {
		t.Errorf("entry content = %q", got)
	}
}

func TestAppendLedger(t *testing.T) {
	s, _ := initStore(t)
	if err := s.AppendLedger("000001_a1b2c3d4.md", "First commit"); err != nil {
		t.Fatalf("AppendLedger: %v", err)
	}
	ledger, err := s.ReadLedger()
	if err != nil {
		t.Fatalf("ReadLedger: %v", err)
	}
	if !strings.Contains(string(ledger), "| 000001_a1b2c3d4.md | First commit |") {
		t.Errorf("ledger = %q", ledger)
	}
	if !strings.HasPrefix(string(ledger), "# Othala Worklog") {
		t.Errorf("ledger header lost: %q", ledger)
	}
}

func TestEntryNames_IncludesLedger(t *testing.T) {
	s, _ := initStore(t)
	_ = s.WriteEntry("000001_aaaaaaaa.md", []byte("x"))

	names, err := s.EntryNames()
	if err != nil {
		t.Fatalf("EntryNames: %v", err)
	}
	// The ledger lives in the same directory; filtering is the caller's job.
	var haveEntry, haveLedger bool
	for _, n := range names {
		if n == "000001_aaaaaaaa.md" {
			haveEntry = true
		}
		if n == "SUMMARY.md" {
			haveLedger = true
		}
	}
	if !haveEntry || !haveLedger {
		t.Errorf("names = %v", names)
	}
}
