package leads

import (
	"encoding/json"
	"net/http"

	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

// Handler exposes the lead list to operators.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads []Lead `json:"leads"`
	Count int    `json:"count"`
}

// ListLeads handles GET /admin/leads
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}
	if all == nil {
		all = []Lead{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ListLeadsResponse{Leads: all, Count: len(all)})
}

// ClearLeads handles DELETE /admin/leads
func (h *Handler) ClearLeads(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear leads", "error", err)
		http.Error(w, "failed to clear leads", http.StatusInternalServerError)
		return
	}
	h.logger.Info("leads cleared")
	w.WriteHeader(http.StatusNoContent)
}
