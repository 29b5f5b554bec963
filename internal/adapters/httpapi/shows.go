package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
	"github.com/Guilhem-Bonnet/episode-owl/internal/httpjson"
)

type ShowsHandler struct {
	session *app.TrackingSession
}

func NewShowsHandler(session *app.TrackingSession) *ShowsHandler {
	return &ShowsHandler{session: session}
}

func (h *ShowsHandler) Routes(r chi.Router) {
	r.Route("/shows", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.add)
		r.Post("/search", h.search)
		r.Delete("/{ref}", h.remove)
	})
	r.Post("/check", h.check)
}

func (h *ShowsHandler) list(w http.ResponseWriter, r *http.Request) {
	shows, err := h.session.ListShows(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, shows)
}

type searchRequest struct {
	Query string `json:"query"`
}

func (h *ShowsHandler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		httpjson.WriteError(w, http.StatusBadRequest, "missing query")
		return
	}
	ranked, err := h.session.Search(r.Context(), req.Query)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, ranked)
}

// add takes a candidate as returned by /shows/search.
func (h *ShowsHandler) add(w http.ResponseWriter, r *http.Request) {
	var cand domain.Candidate
	if err := json.NewDecoder(r.Body).Decode(&cand); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if cand.ID <= 0 || strings.TrimSpace(cand.Name) == "" {
		httpjson.WriteError(w, http.StatusBadRequest, "id and name are required")
		return
	}
	res, err := h.session.AddShow(r.Context(), cand)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, res)
}

// remove accepts a show id or a (fuzzy) name.
func (h *ShowsHandler) remove(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	removed, err := h.session.RemoveShow(r.Context(), ref)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, removed)
}

func (h *ShowsHandler) check(w http.ResponseWriter, r *http.Request) {
	report, err := h.session.CheckAll(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, report)
}
