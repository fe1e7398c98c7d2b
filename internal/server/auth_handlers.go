package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/crewboard/boardapi/internal/auth"
)

// LoginRequest carries credentials for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ImpersonateRequest selects a user for the demo-mode impersonation endpoint.
type ImpersonateRequest struct {
	UserID string `json:"user_id"`
}

// setSessionCookie writes the session bearer token cookie.
func setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.URL.Scheme == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   r.URL.Scheme == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleLogin authenticates email+password credentials and establishes a
// session cookie.
func HandleLogin(iamService identityService, sessionTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, fmt.Errorf("email and password are required: %w", auth.ErrInvalidInput))
			return
		}

		user, token, err := iamService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		setSessionCookie(w, r, token, time.Now().Add(sessionTTL))
		writeJSON(w, http.StatusOK, user)
	}
}

// HandleLogout revokes the caller's session and clears the cookie.
func HandleLogout(iamService identityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		if principal == nil {
			writeError(w, fmt.Errorf("no active session: %w", auth.ErrNotAuthenticated))
			return
		}

		if err := iamService.Logout(r.Context(), principal.SessionID); err != nil {
			writeError(w, err)
			return
		}

		clearSessionCookie(w, r)
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	}
}

// HandleWhoAmI returns the authenticated user.
func HandleWhoAmI(iamService identityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.PrincipalFromContext(r.Context())
		if principal == nil {
			writeError(w, fmt.Errorf("unauthenticated: %w", auth.ErrNotAuthenticated))
			return
		}

		user, err := iamService.GetUserByID(r.Context(), principal.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// HandleImpersonate mints a session for an arbitrary user without
// credentials. The router mounts this only in demo mode.
func HandleImpersonate(iamService identityService, sessionTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImpersonateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.UserID == "" {
			writeError(w, fmt.Errorf("user_id is required: %w", auth.ErrInvalidInput))
			return
		}

		user, token, err := iamService.Impersonate(r.Context(), req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		setSessionCookie(w, r, token, time.Now().Add(sessionTTL))
		writeJSON(w, http.StatusOK, user)
	}
}
