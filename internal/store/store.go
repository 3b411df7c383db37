// Package store owns the on-disk worklog store layout: the chain entry
// directory, the draft document, the summary ledger, and the protocol files
// written at initialization.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/storage"
	"github.com/starford/othala/internal/templates"
)

const (
	// DefaultDir is the store directory name used when no explicit root is
	// given.
	DefaultDir = ".othala"

	// WorklogDir holds the chain entry files, relative to the store root.
	WorklogDir = "worklog"

	// DraftFile is the pending-work document, relative to the store root.
	DraftFile = "draft.md"

	// LedgerFile is the derived summary index, relative to the store root.
	LedgerFile = WorklogDir + "/SUMMARY.md"

	agentsFile        = "AGENTS.md"
	gitIgnoreFile     = ".gitignore"
	gitAttributesFile = ".gitattributes"
)

// Store provides access to an initialized worklog store. The root path is
// explicit; no operation consults the working directory.
type Store struct {
	root string // absolute path to the store directory
	fs   storage.Provider
}

// Open returns a Store for an existing root. It fails with
// apperr.ErrNotInitialized when the root or its worklog directory is missing.
func Open(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("store: resolve root: %w", err)
	}
	for _, dir := range []string{abs, filepath.Join(abs, WorklogDir)} {
		info, err := os.Stat(dir)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("store: open %s: %w", root, apperr.ErrNotInitialized)
		}
		if err != nil {
			return nil, fmt.Errorf("store: stat %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("store: %s is not a directory", dir)
		}
	}
	fsp, err := storage.NewFS(abs)
	if err != nil {
		return nil, err
	}
	return &Store{root: abs, fs: fsp}, nil
}

// Root returns the absolute store root path.
func (s *Store) Root() string {
	return s.root
}

// WorklogPath returns the absolute path of the chain entry directory.
func (s *Store) WorklogPath() string {
	return filepath.Join(s.root, WorklogDir)
}

// DraftPath returns the absolute path of the draft document.
func (s *Store) DraftPath() string {
	return filepath.Join(s.root, DraftFile)
}

// EntryNames lists the file names in the worklog directory. The ledger and
// any other non-entry files are included; callers filter by the entry
// filename pattern.
func (s *Store) EntryNames() ([]string, error) {
	return s.fs.List(WorklogDir)
}

// ReadEntry returns the exact bytes of a persisted chain entry.
func (s *Store) ReadEntry(name string) ([]byte, error) {
	return s.fs.Read(filepath.Join(WorklogDir, name))
}

// WriteEntry persists a new chain entry. Entries are immutable: writing over
// an existing name fails.
func (s *Store) WriteEntry(name string, content []byte) error {
	return s.fs.WriteNew(filepath.Join(WorklogDir, name), content)
}

// AppendLedger appends one index row mapping an entry filename to its
// summary.
func (s *Store) AppendLedger(filename, summary string) error {
	row := fmt.Sprintf("| %s | %s |\n", filename, summary)
	return s.fs.Append(LedgerFile, []byte(row))
}

// ReadLedger returns the raw ledger content.
func (s *Store) ReadLedger() ([]byte, error) {
	return s.fs.Read(LedgerFile)
}

// ReadDraft returns the draft document. A missing draft maps to
// apperr.ErrDraftNotFound so callers can distinguish it from other I/O
// failures.
func (s *Store) ReadDraft() (string, error) {
	data, err := s.fs.Read(DraftFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("store: %w", apperr.ErrDraftNotFound)
		}
		return "", err
	}
	return string(data), nil
}

// WriteDraft replaces the draft document content.
func (s *Store) WriteDraft(content string) error {
	return s.fs.Write(DraftFile, []byte(content))
}

// ResetDraft restores the draft document to the empty template.
func (s *Store) ResetDraft() error {
	return s.fs.Write(DraftFile, []byte(templates.Draft))
}
