package export

import (
	"fmt"
	"net/http"
)

type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a GET endpoint that streams the
// catalog workbook.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workbook, err := h.service.BuildWorkbook(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("build catalog export: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() { _ = workbook.Close() }()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.service.FileName()))
	if err := workbook.Write(w); err != nil {
		// Headers are already sent; nothing useful left to do.
		return
	}
}
