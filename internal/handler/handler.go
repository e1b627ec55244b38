package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/opsboard/teamtask/internal/auth"
	"github.com/opsboard/teamtask/internal/handler/dto"
	"github.com/opsboard/teamtask/internal/middleware"
	"github.com/opsboard/teamtask/internal/repository"
	"github.com/opsboard/teamtask/internal/service"
	"github.com/opsboard/teamtask/internal/static"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pool            *pgxpool.Pool
	taskService     *service.TaskService
	divisionService *service.DivisionService
	userRepo        *repository.UserRepository
	tokens          *auth.TokenService
	authMiddleware  *middleware.AuthMiddleware
}

// New creates a new Handler instance with all dependencies.
func New(pool *pgxpool.Pool, tokens *auth.TokenService, images service.ImageReleaser) *Handler {
	// Create repositories
	taskRepo := repository.NewTaskRepository(pool)
	eventRepo := repository.NewTaskEventRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	divisionRepo := repository.NewDivisionRepository(pool)

	// Create services
	taskService := service.NewTaskService(pool, taskRepo, eventRepo, userRepo, divisionRepo, images)
	divisionService := service.NewDivisionService(divisionRepo)

	// Create middleware
	authMiddleware := middleware.NewAuthMiddleware(tokens, userRepo)

	return &Handler{
		pool:            pool,
		taskService:     taskService,
		divisionService: divisionService,
		userRepo:        userRepo,
		tokens:          tokens,
		authMiddleware:  authMiddleware,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// Embedded API documentation
	mux.HandleFunc("GET /api.md", h.handleAPIMd)

	// Authentication
	mux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)

	// Tasks
	mux.Handle("GET /api/v1/tasks", h.authed(h.handleListTasks))
	mux.Handle("POST /api/v1/tasks", h.authed(h.handleCreateTask))
	mux.Handle("GET /api/v1/tasks/{id}", h.authed(h.handleGetTask))
	mux.Handle("PATCH /api/v1/tasks/{id}", h.authed(h.handleManagerUpdate))
	mux.Handle("DELETE /api/v1/tasks/{id}", h.authed(h.handleDeleteTask))
	mux.Handle("POST /api/v1/tasks/{id}/take", h.authed(h.handleTakeTask))
	mux.Handle("PATCH /api/v1/tasks/{id}/progress", h.authed(h.handleUpdateProgress))

	// Divisions
	mux.Handle("GET /api/v1/divisions", h.authed(h.handleListDivisions))
	mux.Handle("POST /api/v1/divisions", h.authed(h.handleCreateDivision))
	mux.Handle("GET /api/v1/divisions/{id}", h.authed(h.handleGetDivision))
	mux.Handle("PUT /api/v1/divisions/{id}", h.authed(h.handleUpdateDivision))
	mux.Handle("DELETE /api/v1/divisions/{id}", h.authed(h.handleDeleteDivision))

	// Stats
	mux.Handle("GET /api/v1/stats", h.authed(h.handleGetStats))
}

// authed wraps a handler func with Bearer token authentication.
func (h *Handler) authed(fn http.HandlerFunc) http.Handler {
	return h.authMiddleware.Authenticate(fn)
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.pool.Ping(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleAPIMd serves the embedded API documentation.
func (h *Handler) handleAPIMd(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(static.APIMd))
}

// Ping checks if the database is reachable (used for testing).
func (h *Handler) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps a domain error onto the wire and writes it.
func respondDomainError(w http.ResponseWriter, err error) {
	status, resp := dto.MapDomainError(err)
	respondJSON(w, status, resp)
}

// extractPathID extracts and validates a UUID path parameter.
// Returns (id, true) if valid, ("", false) if invalid (error already sent to client).
func extractPathID(w http.ResponseWriter, r *http.Request, label string) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", label+" id is required")
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", label+" id must be a valid UUID")
		return "", false
	}

	return id, true
}
