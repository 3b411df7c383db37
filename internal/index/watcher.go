package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/othala/internal/chain"
	"github.com/starford/othala/internal/store"
)

// Event kinds reported by the watcher.
const (
	EventCommitted    = "committed"     // new entry file appeared
	EventUpdated      = "updated"       // existing entry rewritten in place
	EventRemoved      = "removed"       // entry file deleted or renamed away
	EventDraftUpdated = "draft_updated" // draft.md changed
)

// EventCallback is called after a watcher-driven mirror change.
type EventCallback func(kind, filename string)

// draftDebounce coalesces editor write bursts on draft.md into one event.
const draftDebounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the store and processes change events
// until ctx is cancelled. New entry files are mirrored into the index,
// removed ones are deleted from it, and cb (if non-nil) is called after each
// change. Draft edits are debounced and reported without touching the index.
//
// The worklog directory is flat and filenames are content-addressed, so a
// rename is just a removal of the old name; the new name arrives as its own
// create event.
func Watch(ctx context.Context, db *DB, st *store.Store, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(st.Root()); err != nil {
		return err
	}
	if err := w.Add(st.WorklogPath()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", st.Root()))

	// draftTimer debounces draft change notifications.
	var draftTimer *time.Timer
	var draftCh <-chan time.Time

	scheduleDraft := func() {
		if draftTimer == nil {
			draftTimer = time.NewTimer(draftDebounce)
			draftCh = draftTimer.C
		} else {
			draftTimer.Reset(draftDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if draftTimer != nil {
				draftTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-draftCh:
			logger.Debug("watcher: draft changed")
			if cb != nil {
				cb(EventDraftUpdated, store.DraftFile)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)

			if name == store.DraftFile {
				if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					scheduleDraft()
				}
				continue
			}

			seq, short, parses := chain.ParseFilename(name)
			if !parses {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := st.ReadEntry(name)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("filename", name), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := indexEntry(db, seq, short, name, data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("filename", name), slog.String("error", idxErr.Error()))
					continue
				}
				kind := EventUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = EventCommitted
				}
				logger.Debug("watcher: indexed", slog.String("filename", name), slog.String("op", kind))
				if cb != nil {
					cb(kind, name)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if delErr := db.DeleteEntry(name); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("filename", name), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: removed", slog.String("filename", name))
				if cb != nil {
					cb(EventRemoved, name)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
