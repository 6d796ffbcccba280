package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"stocktake/internal/config"
	"stocktake/internal/engine"
	"stocktake/internal/journal"
	"stocktake/internal/session"
	"stocktake/internal/store"
)

// Server is the request/response surface the scanning UI talks to. Each
// handler runs one synchronous pass over the engine; the only state carried
// between requests is the explicit session context.
type Server struct {
	cfg      config.Config
	store    *store.Store
	engine   *engine.Engine
	journal  *journal.Journal
	sess     *session.Context
	validate *validator.Validate
	log      *logrus.Logger
}

func New(cfg config.Config, st *store.Store, eng *engine.Engine, jr *journal.Journal, sess *session.Context, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{
		cfg:      cfg,
		store:    st,
		engine:   eng,
		journal:  jr,
		sess:     sess,
		validate: validator.New(),
		log:      log,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/inventory", s.handleUpload)
		r.Get("/inventory/export", s.handleExport)
		r.Get("/status", s.handleStatus)

		r.Post("/resolve", s.handleResolve)
		r.Post("/count", s.handleCount)
		r.Post("/confirm", s.handleConfirm)

		r.Get("/journal", s.handleJournal)
		r.Get("/session", s.handleSession)
		r.Delete("/session", s.handleClearSession)
	})

	return r
}

func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.cfg.ListenAddr).Info("scan server listening")
	return http.ListenAndServe(s.cfg.ListenAddr, s.Router())
}
