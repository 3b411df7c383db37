package index

import "github.com/starford/othala/internal/models"

// EntryIndex defines the interface for chain mirror operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type EntryIndex interface {
	UpsertEntry(e models.Entry) error
	DeleteEntry(filename string) error
	GetEntry(filename string) (*models.Entry, error)
	ListEntries(limit, offset int) ([]models.EntryMetadata, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Count() (int, error)
	AllFilenames() (map[string]struct{}, error)
	Close() error
}

// Verify *DB satisfies EntryIndex at compile time.
var _ EntryIndex = (*DB)(nil)
