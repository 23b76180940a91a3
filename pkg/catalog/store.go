package catalog

import "context"

// ContentStore is the durable mapping from record ID to Record.
// Implementations must be safe for concurrent use from multiple goroutines
// and must make Put atomic: a reader never observes a partially written record.
type ContentStore interface {
	// Put writes or overwrites rec under rec.ID.
	Put(ctx context.Context, rec *Record) error

	// Get returns the record for id, or (nil, nil) if it does not exist.
	Get(ctx context.Context, id string) (*Record, error)

	// Delete removes the record for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// GetBody returns only the body text. found is false if the record does not exist.
	GetBody(ctx context.Context, id string) (body string, found bool, err error)

	// List returns the IDs of every stored record, in no particular order.
	List(ctx context.Context) ([]string, error)

	// FindByHash returns a record whose ContentHash equals hash, or (nil, nil).
	FindByHash(ctx context.Context, hash string) (*Record, error)

	// Close releases backend resources. The store must not be used afterwards.
	Close() error
}

// TagIndex is the durable mapping from tag to the set of record IDs carrying it,
// plus the global set of known tags. Membership sets behave as sets: adding the
// same ID twice is idempotent, and concurrent adds to the same tag never lose an ID.
type TagIndex interface {
	// AddContentToTags adds id to each tag's membership set and each tag to the global set.
	AddContentToTags(ctx context.Context, id string, tags []string) error

	// RemoveContentFromTags removes id from each tag's membership set. Tags whose
	// set becomes empty are removed from the global set and returned as orphaned.
	RemoveContentFromTags(ctx context.Context, id string, tags []string) (orphaned []string, err error)

	// ListAllTags returns the global tag set, sorted.
	ListAllTags(ctx context.Context) ([]string, error)

	// ListContentIDsForTags returns the union of the membership sets of tags,
	// with duplicates collapsed, sorted.
	ListContentIDsForTags(ctx context.Context, tags []string) ([]string, error)

	// Close releases backend resources.
	Close() error
}
