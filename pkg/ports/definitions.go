package ports

import (
	"context"

	"github.com/wadjakorntonsri/contextkeeper/pkg/core/domain"
)

// KeyValueStore is the persistence primitive: one opaque value per key
type KeyValueStore interface {
	// Get returns the stored value, or ok=false when the key was never written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Update runs fn against the current value and writes its result in one transaction.
	Update(ctx context.Context, key string, fn func(old []byte, ok bool) ([]byte, error)) error
	Close() error
}

// SnippetStore owns the persisted collection
type SnippetStore interface {
	ListAll(ctx context.Context) ([]domain.Snippet, error)
	Append(ctx context.Context, snippet domain.Snippet) error
	UpdateInPlace(ctx context.Context, id string, mutate func(*domain.Snippet)) error
	RemoveByID(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, snippets []domain.Snippet) error
	MergeImport(ctx context.Context, incoming []domain.Snippet) (int, error)
}

// Notifier publishes a fire-and-forget broadcast
type Notifier interface {
	Publish(kind domain.EventKind)
}

// Clipboard writes text to a system clipboard
type Clipboard interface {
	WriteText(text string) error
	ReadText() (string, error)
}

// SnippetService defines the management panel operations
type SnippetService interface {
	List(ctx context.Context, query string) ([]domain.Card, error)
	Get(ctx context.Context, id string) (*domain.Snippet, error)
	ContextText(ctx context.Context, id string) (string, error)
	Copy(ctx context.Context, id string, cb Clipboard) error
	MarkUsed(ctx context.Context, id string) error
	Edit(ctx context.Context, id, title, content, tagsRaw string) error
	Delete(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
	Export(ctx context.Context) (filename string, data []byte, err error)
	Import(ctx context.Context, data []byte) (int, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}
