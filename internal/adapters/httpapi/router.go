package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/app"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/metrics"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/ports"
)

type Server struct {
	logger  zerolog.Logger
	svc     *app.Service
	cookies ports.CookieStore
	bus     ports.EventBus
}

func NewServer(logger zerolog.Logger, svc *app.Service, cookies ports.CookieStore, bus ports.EventBus) *Server {
	return &Server{logger: logger, svc: svc, cookies: cookies, bus: bus}
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

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Get("/openapi.json", s.handleOpenAPI)
		// Le flux SSE ne doit pas être coupé par le timeout des requêtes.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultRequestTimeout))

			if s.svc != nil {
				NewMessagesHandler(s.svc.Dispatcher()).Routes(r)
				NewCacheHandler(s.svc.Dispatcher()).Routes(r)
				NewStatusHandler(s.svc.Dispatcher()).Routes(r)
				NewSettingsHandler(s.svc.Settings()).Routes(r)
				NewFetchesHandler(s.svc.Limiter()).Routes(r)
				NewNavigationHandler(s.svc).Routes(r)
			}
			if s.cookies != nil {
				NewCookiesHandler(s.cookies).Routes(r)
			}
		})
	})

	return r
}
