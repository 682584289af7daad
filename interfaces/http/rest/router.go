package rest

import (
	"net/http"

	"notevault/application/backup"
	"notevault/application/integrity"
	"notevault/application/storage"
	"notevault/infrastructure/config"
	"notevault/interfaces/http/rest/handlers"
	"notevault/interfaces/http/rest/middleware"
	pkgerrors "notevault/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg          *config.Config
	repo         *storage.Repository
	auditor      *integrity.Auditor
	repairer     *integrity.Repairer
	orchestrator *backup.Orchestrator
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	repo *storage.Repository,
	auditor *integrity.Auditor,
	repairer *integrity.Repairer,
	orchestrator *backup.Orchestrator,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:          cfg,
		repo:         repo,
		auditor:      auditor,
		repairer:     repairer,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:*", "capacitor://localhost"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.cfg.IsDevelopment())

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.cfg, rt.logger))

		// Note endpoints
		r.Route("/notes", func(r chi.Router) {
			noteHandler := handlers.NewNoteHandler(rt.repo, errorHandler)
			r.Get("/", noteHandler.ListNotes)
			r.Post("/", noteHandler.CreateNote)
			r.Put("/{noteID}", noteHandler.UpdateNote)
			r.Delete("/{noteID}", noteHandler.DeleteNote)
		})

		// Category endpoints
		r.Route("/categories", func(r chi.Router) {
			categoryHandler := handlers.NewCategoryHandler(rt.repo, errorHandler)
			r.Get("/", categoryHandler.ListCategories)
			r.Post("/", categoryHandler.CreateCategory)
			r.Put("/{categoryID}", categoryHandler.UpdateCategory)
			r.Delete("/{categoryID}", categoryHandler.DeleteCategory)
		})

		// Settings endpoints
		r.Route("/settings", func(r chi.Router) {
			settingsHandler := handlers.NewSettingsHandler(rt.repo, errorHandler)
			r.Get("/", settingsHandler.GetSettings)
			r.Put("/", settingsHandler.UpdateSettings)
		})

		// Backup endpoints
		r.Route("/backups", func(r chi.Router) {
			backupHandler := handlers.NewBackupHandler(rt.orchestrator, errorHandler)
			r.Get("/", backupHandler.ListBackups)
			r.Post("/", backupHandler.CreateBackup)
			r.Post("/{backupID}/restore", backupHandler.RestoreBackup)
			r.Delete("/{backupID}", backupHandler.DeleteBackup)
		})

		// Integrity endpoints
		r.Route("/integrity", func(r chi.Router) {
			integrityHandler := handlers.NewIntegrityHandler(rt.auditor, rt.repairer, rt.logger)
			r.Get("/", integrityHandler.Audit)
			r.Post("/repair", integrityHandler.Repair)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck verifies the local store answers before reporting ready
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if _, err := rt.repo.Shadows().Adapter().Keys(req.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
