package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
	"github.com/Guilhem-Bonnet/episode-owl/internal/httpjson"
)

// SettingsHandler exposes the effective tracking settings. They come from
// the config file, so the API is read-only.
type SettingsHandler struct {
	session *app.TrackingSession
}

func NewSettingsHandler(session *app.TrackingSession) *SettingsHandler {
	return &SettingsHandler{session: session}
}

func (h *SettingsHandler) Routes(r chi.Router) {
	r.Get("/settings", h.get)
	// Variante avec slash final (utile selon reverse-proxy / clients).
	r.Get("/settings/", h.get)
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, h.session.Settings())
}
