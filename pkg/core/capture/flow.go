// Package capture models the selection-to-snippet flow of a host page:
// a selection long enough shows a floating affordance, activating it opens
// the save dialog, and confirming the dialog stores a new snippet.
package capture

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/domain"
	"github.com/wadjakorntonsri/contextkeeper/pkg/ports"
)

// MinSelectionLength is the trimmed length a selection must exceed.
const MinSelectionLength = 10

// AffordanceOffset is the vertical gap between the selection and the affordance.
const AffordanceOffset = 8

type State int

const (
	Idle State = iota
	Selecting
	ButtonShown
	DialogOpen
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case ButtonShown:
		return "button_shown"
	case DialogOpen:
		return "dialog_open"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Rect is the bounding box of a selection range in viewport coordinates
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}

// Selection is what the host page reports on a selection-change signal
type Selection struct {
	Text string `json:"text"`
	// HasRange is false when the page reports no selection range at all.
	HasRange bool `json:"has_range"`
	Rect     Rect `json:"rect"`
}

// Affordance is the floating save control positioned near a selection
type Affordance struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Flow is one capture session. It is not safe for concurrent use; each page
// or request owns its own Flow.
type Flow struct {
	store    ports.SnippetStore
	notifier ports.Notifier
	newID    func() string
	now      func() int64

	state      State
	selected   string
	affordance *Affordance
}

type Option func(*Flow)

// WithIDGenerator overrides the snippet id generator.
func WithIDGenerator(gen func() string) Option { return func(f *Flow) { f.newID = gen } }

// WithClock overrides the ms-since-epoch clock.
func WithClock(now func() int64) Option { return func(f *Flow) { f.now = now } }

func NewFlow(store ports.SnippetStore, notifier ports.Notifier, opts ...Option) *Flow {
	f := &Flow{
		store:    store,
		notifier: notifier,
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
		now:      domain.NowMillis,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Flow) State() State { return f.state }

// Affordance returns the currently shown affordance, or nil.
func (f *Flow) Affordance() *Affordance { return f.affordance }

// SelectedText returns the text captured by the last accepted selection.
func (f *Flow) SelectedText() string { return f.selected }

// SelectionChanged handles a selection-change signal. It is ignored while
// the dialog is open.
func (f *Flow) SelectionChanged(sel Selection) {
	if f.state == DialogOpen {
		return
	}
	f.state = Selecting

	text := strings.TrimSpace(sel.Text)
	if utf8.RuneCountInString(text) <= MinSelectionLength || !sel.HasRange {
		f.hideAffordance()
		return
	}

	f.selected = text
	f.affordance = &Affordance{
		Top:  sel.Rect.Bottom + AffordanceOffset,
		Left: sel.Rect.Left,
	}
	f.state = ButtonShown
}

// Activate opens the save dialog from a shown affordance.
func (f *Flow) Activate() error {
	if f.state != ButtonShown {
		return fmt.Errorf("activate from %s: %w", f.state, domain.ErrInvalidTransition)
	}
	f.state = DialogOpen
	return nil
}

// Confirm saves the captured selection. An empty title keeps the dialog open.
func (f *Flow) Confirm(ctx context.Context, title, tagsRaw string) (*domain.Snippet, error) {
	if f.state != DialogOpen {
		return nil, fmt.Errorf("confirm from %s: %w", f.state, domain.ErrInvalidTransition)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrTitleRequired
	}

	snippet := domain.Snippet{
		ID:      f.newID(),
		Title:   title,
		Content: f.selected,
		Tags:    ParseTags(tagsRaw),
		Created: f.now(),
	}

	if err := f.store.Append(ctx, snippet); err != nil {
		return nil, fmt.Errorf("save snippet: %w", err)
	}

	if f.notifier != nil {
		f.notifier.Publish(domain.EventSnippetSaved)
	}

	log.Debug().Str("id", snippet.ID).Int("tags", len(snippet.Tags)).Msg("Snippet captured")

	f.hideAffordance()
	return &snippet, nil
}

// Cancel closes the dialog without touching the store.
func (f *Flow) Cancel() {
	if f.state != DialogOpen {
		return
	}
	f.hideAffordance()
}

// PointerDown removes a stale affordance when the pointer lands outside it
// and nothing remains selected.
func (f *Flow) PointerDown(insideAffordance bool, selectionText string) {
	if f.state == DialogOpen || f.affordance == nil || insideAffordance {
		return
	}
	if strings.TrimSpace(selectionText) == "" {
		f.hideAffordance()
	}
}

func (f *Flow) hideAffordance() {
	f.affordance = nil
	f.state = Idle
}

// Submit drives a whole capture in one call: the text is reported as the
// selection, the affordance is activated and the dialog confirmed.
func (f *Flow) Submit(ctx context.Context, text, title, tagsRaw string) (*domain.Snippet, error) {
	f.SelectionChanged(Selection{Text: text, HasRange: true})
	if f.state != ButtonShown {
		return nil, domain.ErrSelectionTooShort
	}
	if err := f.Activate(); err != nil {
		return nil, err
	}
	snippet, err := f.Confirm(ctx, title, tagsRaw)
	if err != nil {
		f.Cancel()
		return nil, err
	}
	return snippet, nil
}

// ParseTags splits a comma separated list, trimming entries and dropping empty ones.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
