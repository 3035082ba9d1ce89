package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/app"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/httpjson"
)

// FetchesHandler expose l'état du limiteur de résolutions (plafond, en cours, en attente).
type FetchesHandler struct {
	limiter *app.FetchLimiter
}

func NewFetchesHandler(l *app.FetchLimiter) *FetchesHandler {
	return &FetchesHandler{limiter: l}
}

func (h *FetchesHandler) Routes(r chi.Router) {
	r.Get("/fetches", h.get)
}

func (h *FetchesHandler) get(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, h.limiter.Stats())
}
