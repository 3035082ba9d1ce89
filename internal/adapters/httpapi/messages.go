package httpapi

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/app"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/httpjson"
)

// MessagesHandler expose le contrat {"action": ...} du popup et du lecteur.
type MessagesHandler struct {
	dispatcher *app.Dispatcher
}

func NewMessagesHandler(d *app.Dispatcher) *MessagesHandler {
	return &MessagesHandler{dispatcher: d}
}

func (h *MessagesHandler) Routes(r chi.Router) {
	r.Post("/messages", h.post)
}

func (h *MessagesHandler) post(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req, err := app.DecodeRequest(b)
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	dispatch(r.Context(), w, h.dispatcher, req)
}
