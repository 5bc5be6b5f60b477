// Package clipboard adapts the host system clipboard to ports.Clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"

	"github.com/wadjakorntonsri/contextkeeper/pkg/ports"
)

// ErrUnavailable is returned when no system clipboard can be used.
var ErrUnavailable = errors.New("clipboard unavailable")

// System writes to the desktop clipboard. The underlying library must be
// initialized once per process; a failed init disables the adapter.
type System struct {
	once    sync.Once
	initErr error
}

func NewSystem() *System {
	return &System{}
}

func (s *System) init() error {
	s.once.Do(func() {
		if err := clipboard.Init(); err != nil {
			s.initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	})
	return s.initErr
}

func (s *System) WriteText(text string) error {
	if err := s.init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (s *System) ReadText() (string, error) {
	if err := s.init(); err != nil {
		return "", err
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// Disabled is used when the CLIPBOARD setting is "none".
type Disabled struct{}

func (Disabled) WriteText(string) error    { return ErrUnavailable }
func (Disabled) ReadText() (string, error) { return "", ErrUnavailable }

// New picks the adapter for a CLIPBOARD setting value.
func New(mode string) ports.Clipboard {
	if mode == "none" {
		return Disabled{}
	}
	return NewSystem()
}

var (
	_ ports.Clipboard = (*System)(nil)
	_ ports.Clipboard = Disabled{}
)
