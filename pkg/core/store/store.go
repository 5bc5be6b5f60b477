// Package store owns the persisted snippet collection. Every mutation reads
// the whole collection, applies one change and writes the whole collection back.
package store

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/domain"
	"github.com/wadjakorntonsri/contextkeeper/pkg/ports"
)

// DefaultKey is the namespaced key the collection is persisted under.
const DefaultKey = "snippets"

type Store struct {
	kv  ports.KeyValueStore
	key string
	mu  sync.Mutex
}

func New(kv ports.KeyValueStore, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: kv, key: key}
}

func (s *Store) ListAll(ctx context.Context) ([]domain.Snippet, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	return decode(raw, ok)
}

// Append adds a snippet whose id is not yet present.
func (s *Store) Append(ctx context.Context, snippet domain.Snippet) error {
	return s.mutate(ctx, func(list []domain.Snippet) ([]domain.Snippet, error) {
		if indexOf(list, snippet.ID) >= 0 {
			return nil, fmt.Errorf("append %s: %w", snippet.ID, domain.ErrDuplicateID)
		}
		if snippet.Tags == nil {
			snippet.Tags = []string{}
		}
		return append(list, snippet), nil
	})
}

// UpdateInPlace applies mutate to the snippet with the given id.
// A missing id is a silent no-op: the caller may hold a stale view.
func (s *Store) UpdateInPlace(ctx context.Context, id string, mutate func(*domain.Snippet)) error {
	return s.mutate(ctx, func(list []domain.Snippet) ([]domain.Snippet, error) {
		i := indexOf(list, id)
		if i < 0 {
			return list, nil
		}
		created := list[i].Created
		mutate(&list[i])
		// id and created are immutable
		list[i].ID = id
		list[i].Created = created
		return list, nil
	})
}

func (s *Store) RemoveByID(ctx context.Context, id string) error {
	return s.mutate(ctx, func(list []domain.Snippet) ([]domain.Snippet, error) {
		kept := make([]domain.Snippet, 0, len(list))
		for _, sn := range list {
			if sn.ID != id {
				kept = append(kept, sn)
			}
		}
		return kept, nil
	})
}

// ReplaceAll overwrites the collection without reading it, so a corrupt
// stored value can still be cleared.
func (s *Store) ReplaceAll(ctx context.Context, snippets []domain.Snippet) error {
	if snippets == nil {
		snippets = []domain.Snippet{}
	}
	data, err := json.Marshal(snippets)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Update(ctx, s.key, func([]byte, bool) ([]byte, error) {
		return data, nil
	})
}

// MergeImport appends every incoming snippet whose id is not already present
// and returns how many were added. Existing entries are never overwritten.
func (s *Store) MergeImport(ctx context.Context, incoming []domain.Snippet) (int, error) {
	added := 0
	err := s.mutate(ctx, func(list []domain.Snippet) ([]domain.Snippet, error) {
		added = 0
		seen := make(map[string]struct{}, len(list)+len(incoming))
		for _, sn := range list {
			seen[sn.ID] = struct{}{}
		}
		for _, sn := range incoming {
			if sn.ID == "" {
				continue
			}
			if _, dup := seen[sn.ID]; dup {
				continue
			}
			seen[sn.ID] = struct{}{}
			list = append(list, sn)
			added++
		}
		return list, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// ParseImport decodes an import file. It fails as a whole when the text is
// not JSON or the top level is not an array.
func ParseImport(data []byte) ([]domain.Snippet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, domain.ErrInvalidImport
	}
	var records []domain.ImportRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImport, err)
	}
	out := make([]domain.Snippet, 0, len(records))
	for _, r := range records {
		out = append(out, r.Snippet())
	}
	return out, nil
}

// Encode renders a collection as the pretty-printed export format.
func Encode(snippets []domain.Snippet) ([]byte, error) {
	if snippets == nil {
		snippets = []domain.Snippet{}
	}
	return json.MarshalIndent(snippets, "", "  ")
}

func (s *Store) mutate(ctx context.Context, apply func([]domain.Snippet) ([]domain.Snippet, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kv.Update(ctx, s.key, func(old []byte, ok bool) ([]byte, error) {
		list, err := decode(old, ok)
		if err != nil {
			return nil, err
		}
		next, err := apply(list)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}

func decode(raw []byte, ok bool) ([]domain.Snippet, error) {
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return []domain.Snippet{}, nil
	}
	var list []domain.Snippet
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if list == nil {
		list = []domain.Snippet{}
	}
	return list, nil
}

func indexOf(list []domain.Snippet, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

var _ ports.SnippetStore = (*Store)(nil)
