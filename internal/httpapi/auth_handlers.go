package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"shelflife.org/internal/audit"
	"shelflife.org/internal/auth"
)

const (
	maxUsernameLength = 40
	minPasswordLength = 6
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	PasswordRepeat string `json:"passwordRepeat"`
}

type changePasswordRequest struct {
	OldPassword       string `json:"oldPassword"`
	NewPassword       string `json:"newPassword"`
	NewPasswordRepeat string `json:"newPasswordRepeat"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if field, msg := validateEmail(req.Email); field != "" {
		writeFieldError(w, http.StatusBadRequest, field, msg)
		return
	}
	if req.Password == "" {
		writeFieldError(w, http.StatusBadRequest, "password", "Password cannot be empty")
		return
	}

	cred, err := a.sessions.Login(r.Context(), req.Email, req.Password, extractToken(r))
	switch {
	case errors.Is(err, auth.ErrAlreadyAuthenticated):
		writeError(w, r, http.StatusBadRequest, "Already logged in")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusBadRequest, "Invalid email or password")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{"email": req.Email})

	setSessionCookie(w, cred.Token, cred.MaxAge)
	writeJSON(w, http.StatusOK, cred)
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if field, msg := validateEmail(req.Email); field != "" {
		writeFieldError(w, http.StatusBadRequest, field, msg)
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeFieldError(w, http.StatusBadRequest, "username", "Username cannot be empty")
		return
	}
	if len(req.Username) > maxUsernameLength {
		writeFieldError(w, http.StatusBadRequest, "username", "The username can only be 40 characters")
		return
	}
	if req.Password == "" {
		writeFieldError(w, http.StatusBadRequest, "password", "Password cannot be empty")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeFieldError(w, http.StatusBadRequest, "password", "The password should be at least 6 characters")
		return
	}
	if req.PasswordRepeat == "" {
		writeFieldError(w, http.StatusBadRequest, "passwordRepeat", "Repeat the password")
		return
	}

	user, err := a.users.SignUp(r.Context(), principalFrom(r.Context()), auth.SignUpRequest{
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		PasswordRepeat: req.PasswordRepeat,
	})
	switch {
	case errors.Is(err, auth.ErrAlreadyAuthenticated):
		writeError(w, r, http.StatusForbidden, "Already logged in")
		return
	case errors.Is(err, auth.ErrEmailExists):
		writeFieldError(w, http.StatusBadRequest, "email", "Email already exists")
		return
	case errors.Is(err, auth.ErrPasswordMismatch):
		writeFieldError(w, http.StatusBadRequest, "passwordRepeat", "The passwords are not the same")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "user.signup", map[string]any{"user_id": user.ID, "email": user.Email})

	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	token := extractToken(r)
	if token == "" {
		writeError(w, r, http.StatusBadRequest, "You are not logged in")
		return
	}
	if err := a.sessions.Logout(r.Context(), token); err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			writeError(w, r, http.StatusBadRequest, "You are not logged in")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.logout", nil)

	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.OldPassword == "" {
		writeFieldError(w, http.StatusBadRequest, "oldPassword", "Old password cannot be empty")
		return
	}
	if req.NewPassword == "" {
		writeFieldError(w, http.StatusBadRequest, "newPassword", "New password cannot be empty")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeFieldError(w, http.StatusBadRequest, "newPassword", "The new password should be at least 6 characters")
		return
	}
	if req.NewPasswordRepeat == "" {
		writeFieldError(w, http.StatusBadRequest, "newPasswordRepeat", "Password repeat cannot be empty")
		return
	}

	err := a.sessions.ChangePassword(r.Context(), p, req.OldPassword, req.NewPassword, req.NewPasswordRepeat)
	switch {
	case errors.Is(err, auth.ErrInvalidOldPassword):
		writeFieldError(w, http.StatusBadRequest, "oldPassword", "Invalid old password")
		return
	case errors.Is(err, auth.ErrPasswordMismatch):
		writeFieldError(w, http.StatusBadRequest, "newPasswordRepeat", "The passwords are not the same")
		return
	case errors.Is(err, auth.ErrNotAuthenticated):
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.password_change", nil)

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	}
	user, err := a.users.Get(r.Context(), &p, p.ID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// principalFrom adapts the context lookup to the nil-means-anonymous
// convention of the service layer.
func principalFrom(ctx context.Context) *auth.Principal {
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		return &p
	}
	return nil
}

// validateEmail returns a field-keyed validation failure, or ("", "")
// when the address is acceptable.
func validateEmail(email string) (field, msg string) {
	if strings.TrimSpace(email) == "" {
		return "email", "Email cannot be empty"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "email", "Invalid email"
	}
	return "", ""
}

func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrAccessDenied):
		if field := auth.DeniedField(err); field != "" {
			writeFieldError(w, http.StatusForbidden, field, "Access denied")
			return
		}
		writeError(w, r, http.StatusForbidden, "access denied")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrEmailExists):
		writeFieldError(w, http.StatusBadRequest, "email", "This email is already used")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
