// Package handler implements the HTTP handlers for the BetterRecipe API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, catalog.go, session.go, export.go) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/betterrecipe/internal/domain"
	"github.com/pkordes/betterrecipe/internal/service"
)

// CatalogServicer defines the catalog operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject failures without touching the store.
type CatalogServicer interface {
	SearchText() string
	SortMode() domain.SortMode
	List() []domain.Row
	Get(id uuid.UUID) (domain.Recipe, error)
	SetSearchText(ctx context.Context, text string) error
	SetSortMode(mode domain.SortMode)
	ToggleFavorite(ctx context.Context, id uuid.UUID) error
	DeleteAt(ctx context.Context, index int) error
	BeginCreate() *service.Session
	Open(id uuid.UUID) (*service.Session, error)
}

// ExportServicer defines the export operation the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// compile-time checks: the services must satisfy the handler interfaces.
var (
	_ CatalogServicer = (*service.Catalog)(nil)
	_ ExportServicer  = (*service.ExportService)(nil)
)

// Server holds the single catalog view shared by every client, plus the open
// detail sessions keyed by session id. A session leaves the map when it is
// closed or reaches a terminal state.
//
// The catalog and its sessions are single-writer; mu serializes every
// handler that touches them.
type Server struct {
	mu       sync.Mutex
	catalog  CatalogServicer
	export   ExportServicer
	sessions map[uuid.UUID]*service.Session
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger falls back to slog.Default().
func NewServer(catalog CatalogServicer, export ExportServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		catalog:  catalog,
		export:   export,
		sessions: make(map[uuid.UUID]*service.Session),
		log:      log,
	}
}

// Routes returns a chi router with every API endpoint registered.
// Cross-cutting middleware (logging, CORS, body limits) is applied by main.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/export", s.GetExport)

	r.Route("/catalog", func(r chi.Router) {
		r.Put("/search", s.SetSearch)
		r.Put("/sort", s.SetSort)
	})

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", s.ListRecipes)
		r.Get("/{id}", s.GetRecipe)
		r.Post("/{id}/favorite", s.ToggleFavorite)
	})

	r.Delete("/view/{index}", s.DeleteAt)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Route("/{sid}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Patch("/", s.UpdateSession)
			r.Delete("/", s.CloseSession)
			r.Post("/edit", s.ToggleEdit)
			r.Post("/ingredients", s.AddIngredient)
			r.Delete("/ingredients/{index}", s.RemoveIngredient)
			r.Post("/favorite", s.ToggleSessionFavorite)
			r.Post("/commit", s.CommitSession)
			r.Post("/cancel", s.CancelSession)
		})
	})

	return r
}
