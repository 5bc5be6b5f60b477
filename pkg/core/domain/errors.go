package domain

import "errors"

var (
	ErrTitleRequired     = errors.New("title is required")
	ErrContentRequired   = errors.New("title and content required")
	ErrSelectionTooShort = errors.New("selection is too short")
	ErrInvalidImport     = errors.New("import failed - invalid file")
	ErrNothingToExport   = errors.New("no snippets to export")
	ErrClipboard         = errors.New("failed to copy")
	ErrDuplicateID       = errors.New("snippet id already exists")
	ErrNotFound          = errors.New("snippet not found")
	ErrInvalidTransition = errors.New("invalid capture transition")
)
