package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/okatenko/medqueue/internal/server/models"
)

type authContextKey string

const contextKeyAccount authContextKey = "medqueue-account"

// requireAuth ensures the request carries a valid bearer token before
// invoking the handler. The resolved account is placed on the request
// context.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token, err := bearerToken(req.Header.Get("Authorization"))
		if err != nil {
			r.logger.Warn(req.Context(), "authorization header invalid", "error", err, "path", req.URL.Path)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		account, err := r.accounts.VerifyToken(req.Context(), token)
		if err != nil {
			r.logger.Warn(req.Context(), "token validation failed", "error", err, "path", req.URL.Path)
			writeError(w, http.StatusUnauthorized, "authentication failed")
			return
		}
		ctx := context.WithValue(req.Context(), contextKeyAccount, account)
		next(w, req.WithContext(ctx))
	}
}

// accountFromContext extracts the authenticated account from the context.
func accountFromContext(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(contextKeyAccount).(*models.Account)
	return account, ok
}

// rateLimited applies the fixed-window limiter to credential endpoints,
// keyed by client address.
func (r *Router) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		key := req.URL.Path + ":" + clientAddr(req)
		if !r.limiter.Allow(key, r.rateLimit, r.rateWin) {
			writeError(w, http.StatusTooManyRequests, "too many attempts")
			return
		}
		next(w, req)
	}
}

func clientAddr(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
