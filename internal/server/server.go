package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/stats"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/training"
	"github.com/claude/liftlog/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the repository surface the handlers use. *storage.DB satisfies it.
type Store interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)

	ListCategories(ctx context.Context, userID int) ([]models.Category, error)
	CreateCategory(ctx context.Context, userID int, name string) (models.Category, error)
	DeleteCategory(ctx context.Context, userID int, id uuid.UUID) error

	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)
	GetExercise(ctx context.Context, userID int, id uuid.UUID) (models.Exercise, error)
	CreateExercise(ctx context.Context, userID int, name string, categoryID *uuid.UUID) (models.Exercise, error)
	UpdateExercise(ctx context.Context, userID int, id uuid.UUID, name string, categoryID *uuid.UUID) (models.Exercise, error)
	DeleteExercise(ctx context.Context, userID int, id uuid.UUID) error

	ListRoutines(ctx context.Context, userID, limit int) ([]models.Routine, error)
	GetRoutine(ctx context.Context, userID int, id uuid.UUID) (models.Routine, error)
	CreateRoutine(ctx context.Context, userID int, name, description string, exerciseIDs []uuid.UUID) (models.Routine, error)
	UpdateRoutine(ctx context.Context, userID int, id uuid.UUID, name, description string, exerciseIDs []uuid.UUID) (models.Routine, error)
	DeleteRoutine(ctx context.Context, userID int, id uuid.UUID) error

	CompletedSessions(ctx context.Context, f models.SessionFilter) ([]training.Session, error)
	GetSession(ctx context.Context, userID int, id uuid.UUID) (training.Session, error)
	DeleteSession(ctx context.Context, userID int, id uuid.UUID) error

	CreateGoal(ctx context.Context, userID int, exerciseID uuid.UUID, target float64) (models.Goal, error)
	DeleteGoal(ctx context.Context, userID int, id uuid.UUID) error

	UpsertMeasurement(ctx context.Context, m models.BodyMeasurement) (models.BodyMeasurement, error)
	DeleteMeasurement(ctx context.Context, userID int, id uuid.UUID) error

	GetProfile(ctx context.Context, userID int) (models.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (models.Profile, error)
	UpsertProfile(ctx context.Context, p models.Profile) (models.Profile, error)
	SearchProfiles(ctx context.Context, prefix string, limit int) ([]models.Profile, error)

	SendFriendRequest(ctx context.Context, userID, friendID int) (models.Friendship, error)
	AcceptFriendRequest(ctx context.Context, userID int, id uuid.UUID) error
	RemoveFriendship(ctx context.Context, userID int, id uuid.UUID) error
	ListFriendships(ctx context.Context, userID int) ([]models.Friendship, error)

	ShareRoutine(ctx context.Context, userID int, routineID uuid.UUID, title, description string, public bool) (models.SharedRoutine, error)
	ListSharedRoutines(ctx context.Context, viewerID, limit int) ([]models.SharedRoutine, error)
	ImportSharedRoutine(ctx context.Context, userID int, sharedID uuid.UUID) (models.Routine, error)
	ToggleLike(ctx context.Context, userID int, sharedID uuid.UUID) (bool, error)

	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
}

// Deps are the collaborators a Server is built from.
type Deps struct {
	Store    Store
	Workouts *workout.Service
	Stats    *stats.Service
	Alpha    *alpha.Provider
	Metrics  *metrics.Manager
	// APIKey guards imports, and every write when not running on a tailnet.
	APIKey string
	// DevUser is the login used for all requests outside a tailnet.
	DevUser string
	Log     *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     Store
	workouts  *workout.Service
	stats     *stats.Service
	alpha     *alpha.Provider
	metrics   *metrics.Manager
	log       *slog.Logger
	apiKey    string
	devUser   string
	tailscale WhoIser
	now       func() time.Time
	router    chi.Router
}

// New creates a new Server with all routes configured.
func New(d Deps) *Server {
	s := &Server{
		store:    d.Store,
		workouts: d.Workouts,
		stats:    d.Stats,
		alpha:    d.Alpha,
		metrics:  d.Metrics,
		log:      d.Log,
		apiKey:   d.APIKey,
		devUser:  d.DevUser,
		now:      time.Now,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	if s.metrics != nil {
		s.router.Use(RequestMetrics(s.metrics))
	}
	s.router.Use(PanicRecovery(s.metrics, s.log))
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		// Import (API key always required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/import/alpha", s.handleAlphaImport)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.writeAuth)

			r.Get("/me", s.handleMe)
			r.Get("/import/logs", s.handleImportLogs)

			r.Get("/categories", s.handleListCategories)
			r.Post("/categories", s.handleCreateCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Get("/exercises", s.handleListExercises)
			r.Post("/exercises", s.handleCreateExercise)
			r.Get("/exercises/{id}", s.handleGetExercise)
			r.Put("/exercises/{id}", s.handleUpdateExercise)
			r.Delete("/exercises/{id}", s.handleDeleteExercise)

			r.Get("/routines", s.handleListRoutines)
			r.Post("/routines", s.handleCreateRoutine)
			r.Get("/routines/{id}", s.handleGetRoutine)
			r.Put("/routines/{id}", s.handleUpdateRoutine)
			r.Delete("/routines/{id}", s.handleDeleteRoutine)
			r.Post("/routines/{id}/share", s.handleShareRoutine)

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", s.handleListSessions)
				r.Get("/compare", s.handleCompareSessions)
				r.Post("/start", s.handleStartSession)
				r.Get("/drafts", s.handleListDrafts)
				r.Route("/drafts/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDraft)
					r.Patch("/", s.handleUpdateSet)
					r.Delete("/", s.handleDiscardDraft)
					r.Post("/adjust", s.handleAdjust)
					r.Post("/sets", s.handleAddSet)
					r.Delete("/exercises/{exercise}/sets/{set}", s.handleRemoveSet)
					r.Put("/current", s.handleSetCurrent)
					r.Post("/finish", s.handleFinish)
				})
				r.Get("/{id}", s.handleGetSession)
				r.Delete("/{id}", s.handleDeleteSession)
			})

			r.Route("/stats", func(r chi.Router) {
				r.Get("/dashboard", s.handleDashboard)
				r.Get("/overview", s.handleOverview)
				r.Get("/records", s.handleRecords)
				r.Get("/year/{year}", s.handleYearReview)
				r.Get("/exercises/{id}", s.handleExerciseProgress)
				r.Get("/muscles", s.handleMuscleVolume)
			})

			r.Get("/goals", s.handleListGoals)
			r.Post("/goals", s.handleCreateGoal)
			r.Delete("/goals/{id}", s.handleDeleteGoal)

			r.Get("/measurements", s.handleListMeasurements)
			r.Post("/measurements", s.handleUpsertMeasurement)
			r.Delete("/measurements/{id}", s.handleDeleteMeasurement)

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Get("/profiles", s.handleSearchProfiles)
			r.Get("/profiles/{username}", s.handleGetPublicProfile)

			r.Get("/friends", s.handleListFriends)
			r.Post("/friends", s.handleSendFriendRequest)
			r.Post("/friends/{id}/accept", s.handleAcceptFriend)
			r.Delete("/friends/{id}", s.handleRemoveFriend)
			r.Get("/leaderboard", s.handleLeaderboard)
			r.Get("/feed", s.handleFeed)

			r.Get("/shared-routines", s.handleListShared)
			r.Post("/shared-routines/{id}/import", s.handleImportShared)
			r.Post("/shared-routines/{id}/like", s.handleLikeShared)

			r.Get("/calc/1rm", s.handleCalcOneRepMax)
			r.Get("/calc/table", s.handleCalcTable)
			r.Get("/meta", s.handleMeta)
		})
	})
}

// SetMetrics exposes the registry in Prometheus text format at path.
func (s *Server) SetMetrics(path string, g prometheus.Gatherer) {
	s.router.Handle(path, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
