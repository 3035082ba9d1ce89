package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/app"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/httpjson"
)

// CacheHandler offre une vue REST du cache (mêmes réponses que les messages).
type CacheHandler struct {
	dispatcher *app.Dispatcher
}

func NewCacheHandler(d *app.Dispatcher) *CacheHandler {
	return &CacheHandler{dispatcher: d}
}

func (h *CacheHandler) Routes(r chi.Router) {
	r.Get("/cache", h.list)
	r.Delete("/cache", h.clear)
	r.Delete("/cache/{id}", h.deleteItem)
}

func (h *CacheHandler) list(w http.ResponseWriter, r *http.Request) {
	dispatch(r.Context(), w, h.dispatcher, app.GetPlaybackCache{})
}

func (h *CacheHandler) clear(w http.ResponseWriter, r *http.Request) {
	dispatch(r.Context(), w, h.dispatcher, app.ClearPlaybackCache{})
}

func (h *CacheHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, err := h.dispatcher.Dispatch(r.Context(), app.DeletePlaybackCacheItem{ID: id})
	if err != nil {
		writeDispatchError(w, err)
		return
	}
	status := http.StatusOK
	if sr, ok := resp.(app.SuccessResponse); ok && !sr.Success {
		status = http.StatusNotFound
	}
	httpjson.Write(w, status, resp)
}
