package index

import (
	"log/slog"
	"time"

	"github.com/starford/othala/internal/chain"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/store"
)

// Sync walks the worklog directory and brings the mirror up to date:
//   - entry files not yet mirrored are read and upserted
//   - rows whose files are gone from disk are deleted
//
// Filenames embed the entry's content hash, so the name set alone is enough
// to diff: a known filename never needs a re-read.
func Sync(db *DB, st *store.Store, logger *slog.Logger) error {
	names, err := st.EntryNames()
	if err != nil {
		return err
	}

	indexed, err := db.AllFilenames()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(names))
	for _, name := range names {
		seq, short, ok := chain.ParseFilename(name)
		if !ok {
			continue
		}
		disk[name] = struct{}{}

		if _, ok := indexed[name]; ok {
			continue
		}

		data, err := st.ReadEntry(name)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("filename", name), slog.String("error", err.Error()))
			continue
		}
		if err := indexEntry(db, seq, short, name, data); err != nil {
			logger.Warn("sync: index failed", slog.String("filename", name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("filename", name))
		}
	}

	// Remove rows whose files are gone.
	for name := range indexed {
		if _, ok := disk[name]; !ok {
			if err := db.DeleteEntry(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("filename", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("filename", name))
			}
		}
	}

	return nil
}

// indexEntry extracts header fields leniently and upserts the mirror row.
// Damaged entries are still mirrored with whatever fields survive; reporting
// corruption is the verifier's job, the mirror just keeps them searchable.
func indexEntry(db *DB, sequence int, shortHash, filename string, data []byte) error {
	content := string(data)
	summary, _ := chain.Field(content, "Summary")
	date, _ := chain.Field(content, "Date")
	previous, _ := chain.PreviousLink(content)
	body, _ := chain.Body(content)

	return db.UpsertEntry(models.Entry{
		Sequence:  sequence,
		Filename:  filename,
		ShortHash: shortHash,
		Summary:   summary,
		Date:      date,
		Previous:  previous,
		Body:      body,
		IndexedAt: time.Now().UTC(),
	})
}
