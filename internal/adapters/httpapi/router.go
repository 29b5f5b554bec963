package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

type Server struct {
	logger  zerolog.Logger
	session *app.TrackingSession
	// bus est optionnel: sans bus, /events n'émet que le heartbeat.
	bus ports.EventBus
}

func NewServer(logger zerolog.Logger, session *app.TrackingSession, bus ports.EventBus) *Server {
	return &Server{logger: logger, session: session, bus: bus}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Get("/openapi.json", s.handleOpenAPI)
		// SSE: pas de timeout sur le stream.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			// Un check complet peut prendre du temps (délai entre requêtes TVMaze).
			r.Use(middleware.Timeout(checkRequestTimeout))
			if s.session != nil {
				NewSettingsHandler(s.session).Routes(r)
				NewShowsHandler(s.session).Routes(r)
				NewTimelineHandler(s.session).Routes(r)
			}
		})
	})

	return r
}
