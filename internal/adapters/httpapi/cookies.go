package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/app"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/httpjson"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

// CookiesHandler synchronise les cookies de session; les valeurs ne sont jamais renvoyées.
type CookiesHandler struct {
	store ports.CookieStore
}

func NewCookiesHandler(store ports.CookieStore) *CookiesHandler {
	return &CookiesHandler{store: store}
}

func (h *CookiesHandler) Routes(r chi.Router) {
	r.Get("/cookies", h.list)
	r.Put("/cookies", h.put)
}

type cookieView struct {
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type cookiesView struct {
	Domain  string       `json:"domain"`
	Cookies []cookieView `json:"cookies"`
	Missing []string     `json:"missing"`
}

func (h *CookiesHandler) list(w http.ResponseWriter, r *http.Request) {
	cookies, err := h.store.List(r.Context(), app.CookieDomain)
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := cookiesView{Domain: app.CookieDomain, Cookies: []cookieView{}, Missing: []string{}}
	present := map[string]bool{}
	for _, c := range cookies {
		out.Cookies = append(out.Cookies, cookieView{Name: c.Name, UpdatedAt: c.UpdatedAt})
		if c.Value != "" {
			present[c.Name] = true
		}
	}
	for _, name := range app.RequiredCookies {
		if !present[name] {
			out.Missing = append(out.Missing, name)
		}
	}
	httpjson.Write(w, http.StatusOK, out)
}

type putCookiesRequest struct {
	Cookies []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"cookies"`
}

func (h *CookiesHandler) put(w http.ResponseWriter, r *http.Request) {
	var body putCookiesRequest
	if err := decodeJSON(r, &body); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	cookies := make([]ports.Cookie, 0, len(body.Cookies))
	for _, c := range body.Cookies {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			httpjson.WriteError(w, http.StatusBadRequest, "cookie name is required")
			return
		}
		cookies = append(cookies, ports.Cookie{Domain: app.CookieDomain, Name: name, Value: c.Value})
	}
	if err := h.store.Put(r.Context(), cookies); err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.list(w, r)
}
