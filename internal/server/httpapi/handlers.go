package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/okatenko/medqueue/internal/server/models"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserRole    string `json:"user_role"`
}

type sendMessageRequest struct {
	MessageText string `json:"message_text"`
	// Recipient is required for staff senders and ignored for clients.
	Recipient string `json:"recipient,omitempty"`
}

type updatesRequest struct {
	LastMessageID int64 `json:"last_message_id"`
}

type updatesResponse struct {
	NewMessages []models.Message `json:"new_messages"`
}

type answeredRequest struct {
	Author string `json:"author"`
}

type resolveRequest struct {
	Recipient   string `json:"recipient"`
	MessageText string `json:"message_text"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func decodeJSON(w http.ResponseWriter, req *http.Request, dst any) bool {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var body credentialsRequest
	if !decodeJSON(w, req, &body) {
		return
	}

	if _, err := r.accounts.RegisterOrGet(req.Context(), body.Username, body.Password, models.RoleClient); err != nil {
		r.serviceError(req.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body credentialsRequest
	if !decodeJSON(w, req, &body) {
		return
	}

	account, err := r.accounts.LoginOrRegister(req.Context(), body.Username, body.Password)
	if err != nil {
		r.serviceError(req.Context(), w, err)
		return
	}

	token, err := r.accounts.IssueToken(account)
	if err != nil {
		r.serviceError(req.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserRole:    account.Role.String(),
	})
}

func (r *Router) handleSendMessage(w http.ResponseWriter, req *http.Request) {
	account, ok := accountFromContext(req.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body sendMessageRequest
	if !decodeJSON(w, req, &body) {
		return
	}

	var err error
	switch account.Role {
	case models.RoleClient:
		// clients always write into their own thread; recipient is ignored
		_, err = r.messages.Submit(req.Context(), account.Name, body.MessageText, false)
	case models.RoleStaff:
		if body.Recipient == "" {
			writeError(w, http.StatusUnauthorized, "recipient required for staff messages")
			return
		}
		_, err = r.messages.Reply(req.Context(), body.Recipient, body.MessageText)
	default:
		writeError(w, http.StatusUnauthorized, "unknown role")
		return
	}
	if err != nil {
		r.serviceError(req.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (r *Router) handleUpdates(w http.ResponseWriter, req *http.Request) {
	account, ok := accountFromContext(req.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body updatesRequest
	if !decodeJSON(w, req, &body) {
		return
	}

	var (
		result []models.Message
		err    error
	)
	switch account.Role {
	case models.RoleStaff:
		result, err = r.messages.StaffQueue(req.Context(), body.LastMessageID)
	default:
		result, err = r.messages.ClientInbox(req.Context(), account.Name, body.LastMessageID)
	}
	if err != nil {
		r.serviceError(req.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, updatesResponse{NewMessages: result})
}

func (r *Router) handleAnswered(w http.ResponseWriter, req *http.Request) {
	account, ok := accountFromContext(req.Context())
	if !ok || account.Role != models.RoleStaff {
		writeError(w, http.StatusUnauthorized, "staff role required")
		return
	}

	var body answeredRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	if body.Author == "" {
		writeError(w, http.StatusBadRequest, "author required")
		return
	}

	if err := r.messages.MarkAllAnswered(req.Context(), body.Author); err != nil {
		r.serviceError(req.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (r *Router) handleResolve(w http.ResponseWriter, req *http.Request) {
	account, ok := accountFromContext(req.Context())
	if !ok || account.Role != models.RoleStaff {
		writeError(w, http.StatusUnauthorized, "staff role required")
		return
	}

	var body resolveRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	if body.Recipient == "" {
		writeError(w, http.StatusUnauthorized, "recipient required for staff messages")
		return
	}

	if _, err := r.messages.Resolve(req.Context(), body.Recipient, body.MessageText); err != nil {
		r.serviceError(req.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
