package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jaminalder/tictactoe-ai/internal/app"
	"github.com/jaminalder/tictactoe-ai/internal/identity"
	"github.com/jaminalder/tictactoe-ai/internal/leaderboard"
)

// NewServer wires routes and returns an http.Handler. It also installs the
// board fragment renderer used for SSE broadcasts. issuer may be nil, in
// which case every player is anonymous.
func NewServer(s *app.Service, scores leaderboard.Store, issuer *identity.Issuer) http.Handler {
	h := &handlers{svc: s, tpl: loadTemplates(), scores: scores, issuer: issuer}
	s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "", "") })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)
	if issuer != nil {
		r.Use(issuer.Middleware)
	}

	r.Get("/", h.index)
	r.Get("/leaderboard", h.topPlayers)
	r.Post("/login", h.login)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Get("/board", h.boardFragment)
		r.Post("/side", h.chooseSide)
		r.Post("/difficulty", h.chooseDifficulty)
		r.Post("/play", h.play)
		r.Post("/reset", h.reset)
		r.Get("/events", h.events)
	})
	return r
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("req", middleware.GetReqID(r.Context())).
			Msg("http")
	})
}
