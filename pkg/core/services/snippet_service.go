package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/capture"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/domain"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/store"
	"github.com/wadjakorntonsri/contextkeeper/pkg/ports"
)

// PreviewLength is the content cutoff used for card previews.
const PreviewLength = 150

const contextTemplate = `Continue from this previous conversation context:

---
%s
---

Please acknowledge you've received this context, then I'll ask my next question.`

type SnippetService struct {
	store ports.SnippetStore
	now   func() time.Time
}

func NewSnippetService(store ports.SnippetStore) *SnippetService {
	return &SnippetService{store: store, now: time.Now}
}

// List returns the cards matching query, newest first.
func (s *SnippetService) List(ctx context.Context, query string) ([]domain.Card, error) {
	snippets, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := Filter(snippets, query)
	SortNewestFirst(filtered)

	cards := make([]domain.Card, 0, len(filtered))
	for _, sn := range filtered {
		cards = append(cards, NewCard(sn))
	}
	return cards, nil
}

func (s *SnippetService) Get(ctx context.Context, id string) (*domain.Snippet, error) {
	snippets, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snippets {
		if snippets[i].ID == id {
			return &snippets[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// ContextText renders the full content into the reuse template.
func (s *SnippetService) ContextText(ctx context.Context, id string) (string, error) {
	sn, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return FormatContext(sn.Content), nil
}

// Copy writes the context text to cb and stamps lastUsed only when the write succeeds.
func (s *SnippetService) Copy(ctx context.Context, id string, cb ports.Clipboard) error {
	text, err := s.ContextText(ctx, id)
	if err != nil {
		return err
	}
	if err := cb.WriteText(text); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrClipboard, err)
	}
	return s.MarkUsed(ctx, id)
}

func (s *SnippetService) MarkUsed(ctx context.Context, id string) error {
	now := s.now().UnixMilli()
	return s.store.UpdateInPlace(ctx, id, func(sn *domain.Snippet) {
		sn.LastUsed = &now
	})
}

// Edit replaces title, content and tags. Both title and content are required.
func (s *SnippetService) Edit(ctx context.Context, id, title, content, tagsRaw string) error {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return domain.ErrContentRequired
	}
	tags := capture.ParseTags(tagsRaw)

	return s.store.UpdateInPlace(ctx, id, func(sn *domain.Snippet) {
		sn.Title = title
		sn.Content = content
		sn.Tags = tags
	})
}

func (s *SnippetService) Delete(ctx context.Context, id string) error {
	return s.store.RemoveByID(ctx, id)
}

func (s *SnippetService) ClearAll(ctx context.Context) error {
	return s.store.ReplaceAll(ctx, []domain.Snippet{})
}

// Export returns the pretty-printed collection and a timestamped file name.
func (s *SnippetService) Export(ctx context.Context) (string, []byte, error) {
	snippets, err := s.store.ListAll(ctx)
	if err != nil {
		return "", nil, err
	}
	if len(snippets) == 0 {
		return "", nil, domain.ErrNothingToExport
	}
	data, err := store.Encode(snippets)
	if err != nil {
		return "", nil, fmt.Errorf("encode export: %w", err)
	}
	return ExportFilename(s.now()), data, nil
}

// Import merges a previously exported file and reports how many snippets were added.
func (s *SnippetService) Import(ctx context.Context, data []byte) (int, error) {
	incoming, err := store.ParseImport(data)
	if err != nil {
		return 0, err
	}
	return s.store.MergeImport(ctx, incoming)
}

func (s *SnippetService) Stats(ctx context.Context) (*domain.Stats, error) {
	snippets, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeStats(snippets), nil
}

// Filter keeps snippets whose title, content or any tag contains query,
// ignoring case.
func Filter(snippets []domain.Snippet, query string) []domain.Snippet {
	q := strings.ToLower(query)
	out := make([]domain.Snippet, 0, len(snippets))
	for _, sn := range snippets {
		if matches(sn, q) {
			out = append(out, sn)
		}
	}
	return out
}

func matches(sn domain.Snippet, q string) bool {
	if strings.Contains(strings.ToLower(sn.Title), q) || strings.Contains(strings.ToLower(sn.Content), q) {
		return true
	}
	for _, tag := range sn.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func SortNewestFirst(snippets []domain.Snippet) {
	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Created > snippets[j].Created
	})
}

func NewCard(sn domain.Snippet) domain.Card {
	tags := sn.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.Card{
		ID:       sn.ID,
		Title:    sn.Title,
		Date:     FormatDate(sn.Created),
		Preview:  Preview(sn.Content),
		Content:  sn.Content,
		Tags:     tags,
		Created:  sn.Created,
		LastUsed: sn.LastUsed,
	}
}

// Preview truncates content to PreviewLength characters, adding "..." when cut.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:PreviewLength]) + "..."
}

func FormatDate(ms int64) string {
	return time.UnixMilli(ms).Format("Jan 2, 2006")
}

func FormatContext(content string) string {
	return fmt.Sprintf(contextTemplate, content)
}

func ExportFilename(t time.Time) string {
	return fmt.Sprintf("contextkeeper-backup-%d.json", t.UnixMilli())
}

func ComputeStats(snippets []domain.Snippet) *domain.Stats {
	stats := &domain.Stats{TotalSnippets: len(snippets)}
	tags := make(map[string]struct{})
	for _, sn := range snippets {
		stats.TotalChars += utf8.RuneCountInString(sn.Content)
		for _, t := range sn.Tags {
			tags[t] = struct{}{}
		}
	}
	stats.UniqueTags = len(tags)
	stats.TotalCharsText = humanize.Comma(int64(stats.TotalChars))
	return stats
}

// IsNotFound reports whether err means the snippet no longer exists.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

var _ ports.SnippetService = (*SnippetService)(nil)
