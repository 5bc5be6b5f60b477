package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/domain"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/store"
)

var memdbSeq atomic.Int64

type fakeClipboard struct {
	written string
	err     error
}

func (f *fakeClipboard) WriteText(text string) error {
	if f.err != nil {
		return f.err
	}
	f.written = text
	return nil
}

func (f *fakeClipboard) ReadText() (string, error) { return f.written, nil }

// SnippetServiceSuite exercises the panel operations over a real store.
type SnippetServiceSuite struct {
	suite.Suite
	kv      *sqlite.KVRepository
	store   *store.Store
	service *SnippetService
	ctx     context.Context
	clock   time.Time
}

func (s *SnippetServiceSuite) SetupTest() {
	kv, err := sqlite.NewKVRepository(fmt.Sprintf("file:servicetest%d?mode=memory&cache=shared", memdbSeq.Add(1)))
	s.Require().NoError(err)
	s.kv = kv
	s.store = store.New(kv, "")
	s.service = NewSnippetService(s.store)
	s.clock = time.UnixMilli(1_700_000_000_000)
	s.service.now = func() time.Time { return s.clock }
	s.ctx = context.Background()
}

func (s *SnippetServiceSuite) TearDownTest() {
	s.kv.Close()
}

func TestSnippetServiceSuite(t *testing.T) {
	suite.Run(t, new(SnippetServiceSuite))
}

func (s *SnippetServiceSuite) seed(snippets ...domain.Snippet) {
	for _, sn := range snippets {
		s.Require().NoError(s.store.Append(s.ctx, sn))
	}
}

func (s *SnippetServiceSuite) TestListSortsNewestFirst() {
	s.seed(
		domain.Snippet{ID: "old", Title: "Old", Content: "o", Created: 100},
		domain.Snippet{ID: "new", Title: "New", Content: "n", Created: 300},
		domain.Snippet{ID: "mid", Title: "Mid", Content: "m", Created: 200},
	)
	cards, err := s.service.List(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(cards, 3)
	s.Equal("new", cards[0].ID)
	s.Equal("mid", cards[1].ID)
	s.Equal("old", cards[2].ID)
}

func (s *SnippetServiceSuite) TestSearchMatchesTitleContentOrTag() {
	s.seed(
		domain.Snippet{ID: "t", Title: "Golang Tips", Content: "x", Created: 1},
		domain.Snippet{ID: "c", Title: "c", Content: "write more GOLANG", Created: 2},
		domain.Snippet{ID: "g", Title: "g", Content: "y", Tags: []string{"golang-dev"}, Created: 3},
		domain.Snippet{ID: "n", Title: "nothing", Content: "z", Created: 4},
	)
	cards, err := s.service.List(s.ctx, "GoLang")
	s.Require().NoError(err)
	ids := []string{}
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	s.Equal([]string{"g", "c", "t"}, ids)
}

func (s *SnippetServiceSuite) TestSearchWithoutMatchesLeavesStoreUnchanged() {
	s.seed(
		domain.Snippet{ID: "a", Title: "bar", Content: "baz", Tags: []string{"qux"}, Created: 1},
	)
	cards, err := s.service.List(s.ctx, "foo")
	s.Require().NoError(err)
	s.Empty(cards)

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *SnippetServiceSuite) TestCopyStampsLastUsedOnSuccess() {
	s.seed(domain.Snippet{ID: "a", Title: "A", Content: "the body", Created: 1})
	cb := &fakeClipboard{}

	s.Require().NoError(s.service.Copy(s.ctx, "a", cb))
	s.Equal(FormatContext("the body"), cb.written)
	s.True(strings.HasPrefix(cb.written, "Continue from this previous conversation context:\n\n---\nthe body\n---\n"))

	sn, err := s.service.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.Require().NotNil(sn.LastUsed)
	s.Equal(int64(1_700_000_000_000), *sn.LastUsed)
}

func (s *SnippetServiceSuite) TestCopyFailureDoesNotStamp() {
	s.seed(domain.Snippet{ID: "a", Title: "A", Content: "the body", Created: 1})
	cb := &fakeClipboard{err: errors.New("denied")}

	err := s.service.Copy(s.ctx, "a", cb)
	s.ErrorIs(err, domain.ErrClipboard)

	sn, err := s.service.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.Nil(sn.LastUsed)
}

func (s *SnippetServiceSuite) TestCopyMissingSnippet() {
	err := s.service.Copy(s.ctx, "ghost", &fakeClipboard{})
	s.True(IsNotFound(err))
}

func (s *SnippetServiceSuite) TestEditUpdatesFields() {
	s.seed(domain.Snippet{ID: "a", Title: "A", Content: "old", Tags: []string{"x"}, Created: 7})

	s.Require().NoError(s.service.Edit(s.ctx, "a", " New ", " new body ", "p, q"))

	sn, err := s.service.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal("New", sn.Title)
	s.Equal("new body", sn.Content)
	s.Equal([]string{"p", "q"}, sn.Tags)
	s.Equal(int64(7), sn.Created)
}

func (s *SnippetServiceSuite) TestEditRejectsEmptyContent() {
	original := domain.Snippet{ID: "a", Title: "A", Content: "keep", Tags: []string{"x"}, Created: 7}
	s.seed(original)

	err := s.service.Edit(s.ctx, "a", "A2", "   ", "")
	s.ErrorIs(err, domain.ErrContentRequired)

	err = s.service.Edit(s.ctx, "a", "", "body", "")
	s.ErrorIs(err, domain.ErrContentRequired)

	sn, err := s.service.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal(original, *sn)
}

func (s *SnippetServiceSuite) TestEditMissingIsSilent() {
	s.NoError(s.service.Edit(s.ctx, "ghost", "t", "c", ""))
}

func (s *SnippetServiceSuite) TestDeleteAndClearAll() {
	s.seed(
		domain.Snippet{ID: "a", Title: "A", Content: "a", Created: 1},
		domain.Snippet{ID: "b", Title: "B", Content: "b", Created: 2},
	)
	s.Require().NoError(s.service.Delete(s.ctx, "a"))
	cards, err := s.service.List(s.ctx, "")
	s.Require().NoError(err)
	s.Len(cards, 1)

	s.Require().NoError(s.service.ClearAll(s.ctx))
	cards, err = s.service.List(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(cards)
}

func (s *SnippetServiceSuite) TestExportEmpty() {
	_, _, err := s.service.Export(s.ctx)
	s.ErrorIs(err, domain.ErrNothingToExport)
}

func (s *SnippetServiceSuite) TestExportThenImportIntoEmptyStore() {
	s.seed(
		domain.Snippet{ID: "a", Title: "A", Content: "alpha", Tags: []string{"t"}, Created: 1},
		domain.Snippet{ID: "b", Title: "B", Content: "beta", Tags: []string{}, Created: 2},
	)
	name, data, err := s.service.Export(s.ctx)
	s.Require().NoError(err)
	s.Equal("contextkeeper-backup-1700000000000.json", name)
	s.Contains(string(data), "\n  {\n    \"id\": \"a\"")

	original, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.service.ClearAll(s.ctx))

	added, err := s.service.Import(s.ctx, data)
	s.Require().NoError(err)
	s.Equal(2, added)

	restored, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch(original, restored)

	added, err = s.service.Import(s.ctx, data)
	s.Require().NoError(err)
	s.Equal(0, added)
}

func (s *SnippetServiceSuite) TestImportRejectsNonArray() {
	s.seed(domain.Snippet{ID: "a", Title: "A", Content: "a", Created: 1})
	_, err := s.service.Import(s.ctx, []byte(`{"id":"b"}`))
	s.ErrorIs(err, domain.ErrInvalidImport)

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *SnippetServiceSuite) TestStats() {
	s.seed(
		domain.Snippet{ID: "a", Title: "A", Content: strings.Repeat("x", 1500), Tags: []string{"go", "db"}, Created: 1},
		domain.Snippet{ID: "b", Title: "B", Content: "abc", Tags: []string{"go"}, Created: 2},
	)
	stats, err := s.service.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.TotalSnippets)
	s.Equal(1503, stats.TotalChars)
	s.Equal("1,503", stats.TotalCharsText)
	s.Equal(2, stats.UniqueTags)
}

func TestPreview(t *testing.T) {
	short := strings.Repeat("a", PreviewLength)
	assert.Equal(t, short, Preview(short))

	long := strings.Repeat("b", PreviewLength+1)
	got := Preview(long)
	assert.Equal(t, strings.Repeat("b", PreviewLength)+"...", got)

	multibyte := strings.Repeat("ü", PreviewLength+5)
	assert.Equal(t, strings.Repeat("ü", PreviewLength)+"...", Preview(multibyte))
}

func TestFormatContext(t *testing.T) {
	want := "Continue from this previous conversation context:\n\n---\nhello\n---\n\n" +
		"Please acknowledge you've received this context, then I'll ask my next question."
	require.Equal(t, want, FormatContext("hello"))
}
