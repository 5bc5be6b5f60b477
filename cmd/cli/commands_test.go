package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/clipboard"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/notify"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/domain"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/services"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/store"
)

var memdbSeq atomic.Int64

type fakeClipboard struct{ text string }

func (f *fakeClipboard) WriteText(text string) error {
	f.text = text
	return nil
}

func (f *fakeClipboard) ReadText() (string, error) { return f.text, nil }

type CLISuite struct {
	suite.Suite
	kv    *sqlite.KVRepository
	store *store.Store
	clip  *fakeClipboard
	out   *bytes.Buffer
	app   *app
	ctx   context.Context
}

func (s *CLISuite) SetupTest() {
	kv, err := sqlite.NewKVRepository(fmt.Sprintf("file:clitest%d?mode=memory&cache=shared", memdbSeq.Add(1)))
	s.Require().NoError(err)
	s.kv = kv
	s.store = store.New(kv, store.DefaultKey)
	s.clip = &fakeClipboard{}
	s.out = &bytes.Buffer{}
	s.ctx = context.Background()
	s.app = &app{
		service:   services.NewSnippetService(s.store),
		store:     s.store,
		notifier:  notify.NewRelay(notify.NewBroadcaster()),
		clipboard: s.clip,
		in:        strings.NewReader(""),
		out:       s.out,
		now:       time.Now,
	}
}

func (s *CLISuite) TearDownTest() {
	s.kv.Close()
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) seed(id, title, content string, created int64, tags ...string) {
	if tags == nil {
		tags = []string{}
	}
	s.Require().NoError(s.store.Append(s.ctx, domain.Snippet{ID: id, Title: title, Content: content, Tags: tags, Created: created}))
}

func (s *CLISuite) TestListEmpty() {
	s.Require().NoError(s.app.list(s.ctx, ""))
	s.Contains(s.out.String(), "No saved contexts yet")

	s.out.Reset()
	s.Require().NoError(s.app.list(s.ctx, "foo"))
	s.Contains(s.out.String(), `No snippets match "foo"`)
}

func (s *CLISuite) TestListNewestFirstWithTags() {
	s.seed("a", "Older", "old content", 1000, "go")
	s.seed("b", "Newer", "new content", 2000)

	s.Require().NoError(s.app.list(s.ctx, ""))
	out := s.out.String()
	s.Less(strings.Index(out, "Newer"), strings.Index(out, "Older"))
	s.Contains(out, "tags: go")
}

func (s *CLISuite) TestCaptureFromText() {
	s.Require().NoError(s.app.capture(s.ctx, "Use exponential backoff", "Retry", "a, b"))
	s.Contains(s.out.String(), "Saved to ContextKeeper!")

	list, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal([]string{"a", "b"}, list[0].Tags)
}

func (s *CLISuite) TestCaptureFromClipboard() {
	s.clip.text = "text that was on the clipboard"
	s.Require().NoError(s.app.capture(s.ctx, "", "Clip", ""))

	list, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("text that was on the clipboard", list[0].Content)
}

func (s *CLISuite) TestCaptureRejectsShortText() {
	s.ErrorIs(s.app.capture(s.ctx, "too short", "T", ""), domain.ErrSelectionTooShort)
}

func (s *CLISuite) TestCaptureWithoutClipboard() {
	s.app.clipboard = clipboard.New("none")
	s.ErrorIs(s.app.capture(s.ctx, "", "T", ""), clipboard.ErrUnavailable)
}

func (s *CLISuite) TestCopy() {
	s.seed("a", "T", "body text", 1000)

	s.Require().NoError(s.app.copy(s.ctx, "a"))
	s.Contains(s.clip.text, "---\nbody text\n---")
	s.Contains(s.out.String(), "Copied to clipboard!")

	s.out.Reset()
	s.Require().NoError(s.app.copy(s.ctx, "ghost"))
	s.Contains(s.out.String(), "No snippet with id ghost")
}

func (s *CLISuite) TestEditKeepsUnsetFields() {
	s.seed("a", "Title", "Content", 1000, "x")

	s.Require().NoError(s.app.edit(s.ctx, "a", "New title", "", "", false))
	list, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Equal("New title", list[0].Title)
	s.Equal("Content", list[0].Content)
	s.Equal([]string{"x"}, list[0].Tags)

	s.Require().NoError(s.app.edit(s.ctx, "a", "", "", "", true))
	list, err = s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(list[0].Tags)
}

func (s *CLISuite) TestDeleteAsksForConfirmation() {
	s.seed("a", "T", "body", 1000)

	s.app.in = strings.NewReader("n\n")
	s.Require().NoError(s.app.delete(s.ctx, "a", false))
	s.Len(s.mustList(), 1)

	s.app.in = strings.NewReader("y\n")
	s.Require().NoError(s.app.delete(s.ctx, "a", false))
	s.Empty(s.mustList())
}

func (s *CLISuite) TestClear() {
	s.seed("a", "T", "body", 1000)
	s.seed("b", "T", "body", 1000)

	s.Require().NoError(s.app.clear(s.ctx, true))
	s.Empty(s.mustList())
	s.Contains(s.out.String(), "All snippets cleared")
}

func (s *CLISuite) TestExportImport() {
	s.Require().NoError(s.app.export(s.ctx, ""))
	s.Contains(s.out.String(), "No snippets to export")

	s.seed("a", "T", "body", 1000)
	path := filepath.Join(s.T().TempDir(), "backup.json")
	s.Require().NoError(s.app.export(s.ctx, path))

	s.Require().NoError(s.app.clear(s.ctx, true))
	s.out.Reset()
	s.Require().NoError(s.app.importFile(s.ctx, path))
	s.Contains(s.out.String(), "Imported 1 snippets")
	s.Len(s.mustList(), 1)
}

func (s *CLISuite) TestImportInvalidFile() {
	path := filepath.Join(s.T().TempDir(), "bad.json")
	s.Require().NoError(os.WriteFile(path, []byte(`{"not":"an array"}`), 0o644))

	s.ErrorIs(s.app.importFile(s.ctx, path), domain.ErrInvalidImport)
	s.Contains(s.out.String(), "Import failed - invalid file")
}

func (s *CLISuite) TestStats() {
	s.seed("a", "T", strings.Repeat("x", 1500), 1000, "go", "db")
	s.seed("b", "T", "abc", 1000, "go")

	s.Require().NoError(s.app.stats(s.ctx))
	out := s.out.String()
	s.Contains(out, "Total Snippets:   2")
	s.Contains(out, "Total Characters: 1,503")
	s.Contains(out, "Unique Tags:      2")
}

func (s *CLISuite) TestWatchRequiresLocalFile() {
	s.app.dbURL = "libsql://example.turso.io"
	s.Error(s.app.watch(s.ctx, ""))
}

func (s *CLISuite) mustList() []domain.Snippet {
	list, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	return list
}
