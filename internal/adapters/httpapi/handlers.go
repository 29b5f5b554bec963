package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
	"github.com/Guilhem-Bonnet/episode-owl/internal/buildinfo"
	"github.com/Guilhem-Bonnet/episode-owl/internal/httpjson"
)

const checkRequestTimeout = 10 * time.Minute

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, buildinfo.Current())
}

// writeAppError maps the error taxonomy to HTTP statuses.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	code := app.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case "not_found":
		status = http.StatusNotFound
	case "conflict":
		status = http.StatusConflict
	case "invalid_selector":
		status = http.StatusBadRequest
	case "transport":
		status = http.StatusBadGateway
	}
	if status >= 500 {
		hlog.FromRequest(r).Error().Err(err).Str("code", code).Msg("request failed")
	}
	httpjson.WriteCodedError(w, status, code, err.Error())
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}
