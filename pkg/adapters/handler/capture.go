package handler

import (
	"bytes"
	_ "embed"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/capture"
	"github.com/wadjakorntonsri/contextkeeper/pkg/ports"
)

//go:embed capture.js
var captureJS []byte

const settingsPlaceholder = "__CAPTURE_SETTINGS__"

// WidgetSettings are the capture thresholds handed to the page widget, so it
// shows its affordance under the same rules the server enforces on submit.
type WidgetSettings struct {
	MinSelectionLength int `json:"minSelectionLength"`
	AffordanceOffset   int `json:"affordanceOffset"`
}

var widgetJS = renderWidget(WidgetSettings{
	MinSelectionLength: capture.MinSelectionLength,
	AffordanceOffset:   capture.AffordanceOffset,
})

func renderWidget(settings WidgetSettings) []byte {
	encoded, err := json.Marshal(settings)
	if err != nil {
		panic(err)
	}
	return bytes.Replace(captureJS, []byte(settingsPlaceholder), encoded, 1)
}

type CaptureHandler struct {
	store    ports.SnippetStore
	notifier ports.Notifier
	opts     []capture.Option
}

func NewCaptureHandler(store ports.SnippetStore, notifier ports.Notifier, opts ...capture.Option) *CaptureHandler {
	return &CaptureHandler{store: store, notifier: notifier, opts: opts}
}

// CaptureRequest is what the page widget posts once the dialog is confirmed.
type CaptureRequest struct {
	Selection string `json:"selection"`
	Title     string `json:"title"`
	Tags      string `json:"tags"`
}

// Capture runs one capture session for the posted selection.
func (h *CaptureHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	flow := capture.NewFlow(h.store, h.notifier, h.opts...)
	snippet, err := flow.Submit(r.Context(), req.Selection, req.Title, req.Tags)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Saved to ContextKeeper!",
		"snippet": snippet,
	})
}

// Script serves the page widget. Pages include it with a script tag whose
// data-endpoint attribute points back at this server.
func (h *CaptureHandler) Script(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(widgetJS)
}
