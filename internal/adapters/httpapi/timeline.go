package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
	"github.com/Guilhem-Bonnet/episode-owl/internal/httpjson"
)

type TimelineHandler struct {
	session *app.TrackingSession
}

func NewTimelineHandler(session *app.TrackingSession) *TimelineHandler {
	return &TimelineHandler{session: session}
}

func (h *TimelineHandler) Routes(r chi.Router) {
	r.Get("/timeline", h.list)
	r.Post("/timeline/watched", h.markWatched)
}

type timelineEntryDTO struct {
	Index int `json:"index,omitempty"`
	domain.NotificationEntry
	Code string `json:"code"`
	Line string `json:"line"`
}

// list returns the timeline. Unwatched entries carry the 1-based index that
// /timeline/watched selectors refer to.
func (h *TimelineHandler) list(w http.ResponseWriter, r *http.Request) {
	q := app.TimelineQuery{}
	if v := r.URL.Query().Get("all"); v == "1" || v == "true" {
		q.IncludeWatched = true
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpjson.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = n
	}

	entries, err := h.session.Timeline(r.Context(), q)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	dateFormat := h.session.Settings().DateFormat
	out := make([]timelineEntryDTO, 0, len(entries))
	idx := 0
	for _, e := range entries {
		dto := timelineEntryDTO{NotificationEntry: e, Code: e.Position.Code(), Line: app.FormatTimelineLine(e, dateFormat)}
		if !e.Watched {
			idx++
			dto.Index = idx
		}
		out = append(out, dto)
	}
	httpjson.Write(w, http.StatusOK, out)
}

type markWatchedRequest struct {
	Selector string `json:"selector"`
}

// markWatched applies the valid part of the selector; ignored tokens are
// listed in the response. A selector with nothing valid is a 400.
func (h *TimelineHandler) markWatched(w http.ResponseWriter, r *http.Request) {
	var req markWatchedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.session.MarkWatched(r.Context(), req.Selector)
	var selErr *app.SelectorError
	switch {
	case err == nil:
	case errors.As(err, &selErr) && res.Updated > 0:
	default:
		writeAppError(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}
