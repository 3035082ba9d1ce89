package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/app"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/httpjson"
)

// NavigationHandler reçoit les changements d'URL d'onglet envoyés par le compagnon.
type NavigationHandler struct {
	svc *app.Service
}

func NewNavigationHandler(svc *app.Service) *NavigationHandler {
	return &NavigationHandler{svc: svc}
}

func (h *NavigationHandler) Routes(r chi.Router) {
	r.Post("/navigation", h.post)
}

type navigationRequest struct {
	TabID int    `json:"tabId"`
	URL   string `json:"url"`
}

type navigationResponse struct {
	State   app.NavigationState `json:"state"`
	MediaID string              `json:"mediaId,omitempty"`
	Kind    domain.MediaKind    `json:"kind,omitempty"`
}

func (h *NavigationHandler) post(w http.ResponseWriter, r *http.Request) {
	var body navigationRequest
	if err := decodeJSON(r, &body); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	body.URL = strings.TrimSpace(body.URL)
	if body.URL == "" {
		httpjson.WriteError(w, http.StatusBadRequest, "url is required")
		return
	}

	res, err := h.svc.Navigate(r.Context(), domain.NavigationEvent{TabID: body.TabID, URL: body.URL})
	if err != nil {
		if errors.Is(err, app.ErrServiceClosed) {
			httpjson.WriteError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := navigationResponse{State: res.State}
	if res.Matched {
		out.MediaID = res.Ref.ID
		out.Kind = res.Ref.Kind
	}
	status := http.StatusOK
	if res.State == app.NavCacheMiss {
		// La résolution continue en arrière-plan.
		status = http.StatusAccepted
	}
	httpjson.Write(w, status, out)
}
