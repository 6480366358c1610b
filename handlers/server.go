// Package handlers implements the HTTP surface: the authentication endpoints
// and one generic ownership-scoped handler instantiated per resource kind.
package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studyhub/auth"
	"studyhub/config"
	"studyhub/middleware"
	"studyhub/models"
	"studyhub/store"
)

type Server struct {
	db        *sql.DB
	transport auth.CredentialTransport
	logger    *slog.Logger

	documents   *store.Store[models.Document]
	notes       *store.Store[models.Note]
	todos       *store.Store[models.Todo]
	subjects    *store.Store[models.Subject]
	assessments *store.Store[models.Assessment]
}

func NewServer(db *sql.DB, transport auth.CredentialTransport, logger *slog.Logger) *Server {
	return &Server{
		db:          db,
		transport:   transport,
		logger:      logger,
		documents:   store.New(db, documentDescriptor),
		notes:       store.New(db, noteDescriptor),
		todos:       store.New(db, todoDescriptor),
		subjects:    store.New(db, subjectDescriptor),
		assessments: store.New(db, assessmentDescriptor),
	}
}

// NewTransport builds the deployment's active credential transport. An
// unrecognized AUTH_TRANSPORT value is a startup error, not a silent default.
func NewTransport(cfg *config.Config) (auth.CredentialTransport, error) {
	switch cfg.AuthTransport {
	case config.TransportBearer:
		return &auth.BearerTransport{Codec: auth.NewTokenCodec([]byte(cfg.SecretKey), cfg.TokenTTL)}, nil
	case config.TransportCookie:
		return auth.NewCookieTransport([]byte(cfg.SecretKey)), nil
	default:
		return nil, fmt.Errorf("unknown auth transport %q", cfg.AuthTransport)
	}
}

// Router assembles the full route table. Built explicitly at startup; no
// package-level route state.
func (s *Server) Router(reg prometheus.Registerer) chi.Router {
	gate := &middleware.Gate{
		Resolver:  auth.NewResolver(s.db),
		Transport: s.transport,
		Logger:    s.logger,
	}
	metrics := middleware.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Handler)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/api/register", s.Register)

	// Soft-gated: these endpoints branch on authentication themselves.
	r.Group(func(r chi.Router) {
		r.Use(gate.WithUser)
		r.Post("/api/login", s.Login)
		r.Delete("/api/login", s.Logout)
		r.Get("/api/documents/{id}/preview", s.PreviewDocument)
	})

	r.Group(func(r chi.Router) {
		r.Use(gate.WithUser)
		r.Use(middleware.RequireAuth)

		r.Get("/api/login", s.CurrentUser)
		r.Patch("/api/login", s.UpdateCurrentUser)
		r.Delete("/api/login/account", s.DeleteAccount)

		r.Get("/api/sessions", s.ListSessions)
		r.Get("/api/sessions/{id}", s.GetSession)
		r.Delete("/api/sessions/{id}", s.DeleteSession)

		mountResource(r, "/api/documents", &resource[models.Document]{
			store:        s.documents,
			logger:       s.logger,
			decodeCreate: decodeDocumentCreate,
			decodePatch:  decodeDocumentPatch,
		})
		mountResource(r, "/api/notes", &resource[models.Note]{
			store:        s.notes,
			logger:       s.logger,
			decodeCreate: decodeNoteCreate,
			decodePatch:  decodeNotePatch,
		})
		mountResource(r, "/api/todos", &resource[models.Todo]{
			store:        s.todos,
			logger:       s.logger,
			decodeCreate: decodeTodoCreate,
			decodePatch:  decodeTodoPatch,
		})
		mountResource(r, "/api/subjects", &resource[models.Subject]{
			store:        s.subjects,
			logger:       s.logger,
			decodeCreate: decodeSubjectCreate,
			decodePatch:  decodeSubjectPatch,
		})
		mountResource(r, "/api/assessments", &resource[models.Assessment]{
			store:        s.assessments,
			logger:       s.logger,
			decodeCreate: decodeAssessmentCreate,
			decodePatch:  decodeAssessmentPatch,
		})
	})

	return r
}
