// Package httpapi is the session gateway: it terminates HTTP requests,
// resolves the caller's identity and role from the bearer token, and routes
// to the account and message services.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/okatenko/medqueue/internal/common"
	"github.com/okatenko/medqueue/internal/logging"
	"github.com/okatenko/medqueue/internal/server/models"
)

// AccountService is the slice of the account service the gateway needs.
type AccountService interface {
	RegisterOrGet(ctx context.Context, name, secret string, role models.Role) (*models.Account, error)
	LoginOrRegister(ctx context.Context, name, secret string) (*models.Account, error)
	IssueToken(account *models.Account) (string, error)
	VerifyToken(ctx context.Context, token string) (*models.Account, error)
}

// MessageService is the slice of the message service the gateway needs.
type MessageService interface {
	Submit(ctx context.Context, author, text string, fromStaff bool) (*models.Message, error)
	Reply(ctx context.Context, recipient, text string) (*models.Message, error)
	Resolve(ctx context.Context, recipient, text string) (*models.Message, error)
	MarkAllAnswered(ctx context.Context, author string) error
	StaffQueue(ctx context.Context, sinceID int64) ([]models.Message, error)
	ClientInbox(ctx context.Context, author string, sinceID int64) ([]models.Message, error)
}

const healthCheckTimeout = 2 * time.Second

// Router wires HTTP endpoints to services.
type Router struct {
	mux       *mux.Router
	logger    logging.Logger
	accounts  AccountService
	messages  MessageService
	limiter   RateLimiter
	rateLimit int
	rateWin   time.Duration
	db        *sql.DB
}

// NewRouter assembles routes with dependencies. A nil limiter disables
// rate limiting.
func NewRouter(logger logging.Logger, accounts AccountService, messages MessageService, limiter RateLimiter, rateLimit int, rateWindow time.Duration, db *sql.DB) *Router {
	if limiter == nil {
		limiter = NewNoopRateLimiter()
	}
	r := &Router{
		mux:       mux.NewRouter(),
		logger:    logger.With("module", "httpapi"),
		accounts:  accounts,
		messages:  messages,
		limiter:   limiter,
		rateLimit: rateLimit,
		rateWin:   rateWindow,
		db:        db,
	}
	r.routes()
	return r
}

func (r *Router) routes() {
	r.mux.HandleFunc("/register", r.rateLimited(r.handleRegister)).Methods(http.MethodPost)
	r.mux.HandleFunc("/login", r.rateLimited(r.handleLogin)).Methods(http.MethodPost)
	r.mux.HandleFunc("/send_message", r.requireAuth(r.handleSendMessage)).Methods(http.MethodPost)
	r.mux.HandleFunc("/updates", r.requireAuth(r.handleUpdates)).Methods(http.MethodPost)
	r.mux.HandleFunc("/answered", r.requireAuth(r.handleAnswered)).Methods(http.MethodPost)
	r.mux.HandleFunc("/resolve", r.requireAuth(r.handleResolve)).Methods(http.MethodPost)
	r.mux.HandleFunc("/health", r.handleHealth).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()

	if r.db != nil {
		if err := r.db.PingContext(ctx); err != nil {
			r.logger.Error(ctx, "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// serviceError translates the service error taxonomy into HTTP statuses.
// Store failures are logged with their cause but never leak details to the
// caller.
func (r *Router) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		r.logger.Error(ctx, "request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
