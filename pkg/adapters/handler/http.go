package handler

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/wadjakorntonsri/contextkeeper/pkg/ports"
)

// MaxImportSize bounds an uploaded import file.
const MaxImportSize = 32 << 20

type SnippetHandler struct {
	service   ports.SnippetService
	clipboard ports.Clipboard
}

func NewSnippetHandler(service ports.SnippetService, cb ports.Clipboard) *SnippetHandler {
	return &SnippetHandler{service: service, clipboard: cb}
}

// EditSnippetRequest payload
type EditSnippetRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tags    string `json:"tags"` // comma separated, as typed in the edit form
}

// List snippets, newest first, optionally filtered by ?q=
func (h *SnippetHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  cards,
		"total": len(cards),
	})
}

func (h *SnippetHandler) Get(w http.ResponseWriter, r *http.Request) {
	sn, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

func (h *SnippetHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req EditSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := h.service.Edit(r.Context(), chi.URLParam(r, "id"), req.Title, req.Content, req.Tags); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Snippet updated"})
}

func (h *SnippetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SnippetHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Context returns the clipboard-ready text so the browser can write it itself.
func (h *SnippetHandler) Context(w http.ResponseWriter, r *http.Request) {
	text, err := h.service.ContextText(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, text)
}

// MarkUsed is called by the browser after its own clipboard write succeeded.
func (h *SnippetHandler) MarkUsed(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkUsed(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Copy writes to the clipboard of the machine running the server.
func (h *SnippetHandler) Copy(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Copy(r.Context(), chi.URLParam(r, "id"), h.clipboard); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Copied to clipboard!"})
}

func (h *SnippetHandler) Export(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.service.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// Import accepts either a multipart "file" field or the raw JSON body.
func (h *SnippetHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportSize)

	var (
		data []byte
		err  error
	)
	if isMultipart(r) {
		file, _, ferr := r.FormFile("file")
		if ferr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Import failed - invalid file"})
			return
		}
		defer file.Close()
		data, err = io.ReadAll(file)
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Import failed - invalid file"})
		return
	}

	added, err := h.service.Import(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"added":   added,
		"message": "Imported " + strconv.Itoa(added) + " snippets",
	})
}

// isMultipart reports a form upload. Any other body, including one sent with
// curl's default urlencoded type, is read as raw JSON.
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (h *SnippetHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
