package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/app"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/httpjson"
)

type StatusHandler struct {
	dispatcher *app.Dispatcher
}

func NewStatusHandler(d *app.Dispatcher) *StatusHandler {
	return &StatusHandler{dispatcher: d}
}

func (h *StatusHandler) Routes(r chi.Router) {
	r.Get("/status", h.get)
	r.Put("/status", h.put)
}

func (h *StatusHandler) get(w http.ResponseWriter, r *http.Request) {
	dispatch(r.Context(), w, h.dispatcher, app.GetExtensionStatus{})
}

func (h *StatusHandler) put(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsActive *bool `json:"isActive"`
	}
	if err := decodeJSON(r, &body); err != nil || body.IsActive == nil {
		httpjson.WriteError(w, http.StatusBadRequest, "isActive is required")
		return
	}
	dispatch(r.Context(), w, h.dispatcher, app.SetExtensionStatus{IsActive: *body.IsActive})
}
