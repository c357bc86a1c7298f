package vector

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hrstack/queryintent/internal/domain"
	"github.com/hrstack/queryintent/internal/metadata"
)

// AdminHandler exposes index maintenance and raw schema search.
type AdminHandler struct {
	index    Index
	provider metadata.Provider
	topK     int
}

func NewAdminHandler(index Index, provider metadata.Provider, topK int) *AdminHandler {
	if topK <= 0 {
		topK = 3
	}
	return &AdminHandler{index: index, provider: provider, topK: topK}
}

// RebuildHandler rebuilds the whole vector index from current metadata.
func (h *AdminHandler) RebuildHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		doctypes, err := h.provider.Doctypes(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("list doctypes: %v", err), http.StatusInternalServerError)
			return
		}

		docs := make([]Document, 0, len(doctypes))
		for _, dt := range doctypes {
			schema, err := h.provider.GetSchema(r.Context(), dt)
			if err != nil {
				http.Error(w, fmt.Sprintf("load schema for %q: %v", dt, err), http.StatusInternalServerError)
				return
			}
			if schema == nil {
				continue
			}
			text := schema.EmbeddingText
			if text == "" {
				text = schema.BuildEmbeddingText()
			}
			docs = append(docs, Document{
				ID:      "schema::" + schema.Doctype,
				Doctype: schema.Doctype,
				Text:    text,
				Metadata: map[string]any{
					"doctype":     schema.Doctype,
					"submittable": schema.IsSubmittable,
				},
			})
		}

		if err := h.index.Rebuild(r.Context(), docs); err != nil {
			http.Error(w, fmt.Sprintf("rebuild index: %v", err), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"rebuilt": len(docs)})
	})
}

type searchResult struct {
	Doctype    string         `json:"doctype"`
	Similarity float64        `json:"similarity"`
	Schema     *domain.Schema `json:"schema,omitempty"`
}

// SearchHandler runs similarity retrieval directly, for inspection.
func (h *AdminHandler) SearchHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if query == "" {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}

		candidates, err := h.index.Query(r.Context(), query, h.topK)
		if err != nil {
			http.Error(w, fmt.Sprintf("search index: %v", err), http.StatusInternalServerError)
			return
		}

		results := make([]searchResult, 0, len(candidates))
		for _, c := range candidates {
			schema, err := h.provider.GetSchema(r.Context(), c.Doctype)
			if err != nil {
				http.Error(w, fmt.Sprintf("load schema for %q: %v", c.Doctype, err), http.StatusInternalServerError)
				return
			}
			results = append(results, searchResult{Doctype: c.Doctype, Similarity: c.Similarity, Schema: schema})
		}

		writeJSON(w, http.StatusOK, results)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
