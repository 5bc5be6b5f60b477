package handler

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/wadjakorntonsri/contextkeeper/pkg/core/domain"
	"github.com/wadjakorntonsri/contextkeeper/pkg/ports"
)

//go:embed panel.html
var panelHTML string

var panelTemplate = template.Must(template.New("panel").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(panelHTML))

type PanelHandler struct {
	service ports.SnippetService
}

func NewPanelHandler(service ports.SnippetService) *PanelHandler {
	return &PanelHandler{service: service}
}

type panelView struct {
	Query string
	Cards []domain.Card
	Stats *domain.Stats
}

// Index renders the management panel, filtered by ?q=
func (h *PanelHandler) Index(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	cards, err := h.service.List(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := panelTemplate.Execute(&buf, panelView{Query: query, Cards: cards, Stats: stats}); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
