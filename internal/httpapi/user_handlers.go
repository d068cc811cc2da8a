package httpapi

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"shelflife.org/internal/audit"
	"shelflife.org/internal/auth"
)

type updateUserRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	IsAdmin  *bool   `json:"isAdmin"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id, ok := parseResourceID(w, r, "/api/users/")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getUser(w, r, id)
	case http.MethodPatch:
		a.updateUser(w, r, id)
	case http.MethodDelete:
		a.deleteUser(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context(), principalFrom(r.Context()))
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request, id int64) {
	user, err := a.users.Get(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request, id int64) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			writeFieldError(w, http.StatusBadRequest, "email", "Invalid email")
			return
		}
	}
	if req.Username != nil && len(*req.Username) > maxUsernameLength {
		writeFieldError(w, http.StatusBadRequest, "username", "The username can only be 40 characters")
		return
	}

	token, _ := auth.TokenFromContext(r.Context())
	result, err := a.users.Update(r.Context(), principalFrom(r.Context()), token, id, auth.UpdateUserRequest{
		Email:    req.Email,
		Username: req.Username,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	fields := map[string]any{"target_id": id}
	if req.IsAdmin != nil {
		fields["is_admin"] = *req.IsAdmin
	}
	_ = audit.LogEvent(r.Context(), "user.update", fields)

	// A self email change invalidated the presented token; hand the
	// replacement back in the same shape as login.
	if result.Credential != nil {
		setSessionCookie(w, result.Credential.Token, result.Credential.MaxAge)
	}
	writeJSON(w, http.StatusOK, result.User)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, id int64) {
	if err := a.users.Delete(r.Context(), principalFrom(r.Context()), id); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.delete", map[string]any{"target_id": id})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseResourceID extracts the numeric id segment of a resource path. It
// writes the error response itself when the path is unusable.
func parseResourceID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return 0, false
	}
	return id, true
}
