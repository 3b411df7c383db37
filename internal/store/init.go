package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/storage"
	"github.com/starford/othala/internal/templates"
)

// InitOptions selects which root-level agent instruction files receive the
// protocol directive. With no option set, detection mode applies: the
// directive is appended to targets that already exist, and none are created.
type InitOptions struct {
	Warp   bool // WARP.md
	Junie  bool // .junie/guidelines.md
	Agents bool // AGENTS.md at the repository root
	All    bool
}

// InitResult reports what Init wrote, with paths relative to the repository
// root for display.
type InitResult struct {
	Root    string   // absolute store root
	Created []string // files written fresh
	Updated []string // existing files the directive was appended to
	Skipped []string // files already carrying the directive
}

// directiveTarget pairs a root-level file with whether init may create it.
type directiveTarget struct {
	path     string
	explicit bool
}

// Init scaffolds a new store at root and applies protocol directives to the
// repository root (the parent of the store directory). It fails with
// apperr.ErrAlreadyInitialized when root already exists.
func Init(root string, opts InitOptions) (*InitResult, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("store: resolve root: %w", err)
	}
	if _, err := os.Stat(abs); err == nil {
		return nil, fmt.Errorf("store: init %s: %w", root, apperr.ErrAlreadyInitialized)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("store: stat %s: %w", abs, err)
	}

	if err := os.MkdirAll(filepath.Join(abs, WorklogDir), 0o755); err != nil {
		return nil, fmt.Errorf("store: create layout: %w", err)
	}

	fsp, err := storage.NewFS(abs)
	if err != nil {
		return nil, err
	}

	repoRoot := filepath.Dir(abs)
	res := &InitResult{Root: abs}

	scaffold := []struct {
		path    string
		content string
	}{
		{agentsFile, templates.Agents},
		{DraftFile, templates.Draft},
		{LedgerFile, templates.LedgerHeader},
		{gitIgnoreFile, templates.GitIgnore},
		{gitAttributesFile, templates.GitAttributes},
	}
	for _, f := range scaffold {
		if err := fsp.Write(f.path, []byte(f.content)); err != nil {
			return nil, err
		}
		res.Created = append(res.Created, displayPath(repoRoot, filepath.Join(abs, f.path)))
	}

	for _, target := range directiveTargets(repoRoot, opts) {
		if err := applyDirective(repoRoot, target, res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// directiveTargets resolves the option flags to concrete root-level files.
// Detection mode (no flags) returns every known target as non-explicit, so
// only pre-existing files are touched.
func directiveTargets(repoRoot string, opts InitOptions) []directiveTarget {
	warp := filepath.Join(repoRoot, "WARP.md")
	junie := filepath.Join(repoRoot, ".junie", "guidelines.md")
	agents := filepath.Join(repoRoot, agentsFile)

	if opts.All {
		opts.Warp, opts.Junie, opts.Agents = true, true, true
	}
	if !opts.Warp && !opts.Junie && !opts.Agents {
		return []directiveTarget{
			{path: warp},
			{path: junie},
			{path: agents},
		}
	}

	var targets []directiveTarget
	if opts.Warp {
		targets = append(targets, directiveTarget{path: warp, explicit: true})
	}
	if opts.Junie {
		targets = append(targets, directiveTarget{path: junie, explicit: true})
	}
	if opts.Agents {
		targets = append(targets, directiveTarget{path: agents, explicit: true})
	}
	return targets
}

// applyDirective creates or appends the protocol directive at target.
// Appending is idempotent: a file already containing the directive marker is
// recorded as skipped and left untouched.
func applyDirective(repoRoot string, target directiveTarget, res *InitResult) error {
	display := displayPath(repoRoot, target.path)

	data, err := os.ReadFile(target.path)
	switch {
	case os.IsNotExist(err):
		if !target.explicit {
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(target.path), 0o755); err != nil {
			return fmt.Errorf("store: create directive dir: %w", err)
		}
		if err := os.WriteFile(target.path, []byte(templates.RootDirective), 0o644); err != nil {
			return fmt.Errorf("store: write directive %s: %w", display, err)
		}
		res.Created = append(res.Created, display)
		return nil
	case err != nil:
		return fmt.Errorf("store: read directive target %s: %w", display, err)
	}

	if strings.Contains(string(data), templates.DirectiveMarker) {
		res.Skipped = append(res.Skipped, display)
		return nil
	}

	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "\n" + templates.RootDirective
	if err := os.WriteFile(target.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("store: append directive %s: %w", display, err)
	}
	res.Updated = append(res.Updated, display)
	return nil
}

// displayPath renders p relative to the repository root when possible.
func displayPath(repoRoot, p string) string {
	rel, err := filepath.Rel(repoRoot, p)
	if err != nil {
		return p
	}
	return rel
}
