package server

import (
	"encoding/json"
	"net/http"

	"github.com/storytail/storytail-server/accounts"
	apperrors "github.com/storytail/storytail-server/internal/errors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type accountResponse struct {
	Success bool                `json:"success"`
	Account accounts.Projection `json:"account"`
}

type sessionResponse struct {
	Success       bool   `json:"success"`
	Authenticated bool   `json:"authenticated"`
	AccountID     string `json:"accountId,omitempty"`
	Verified      bool   `json:"verified,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginHandler verifies credentials and sets the session cookie.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ErrValidation)
		return
	}

	projection, signed, _, err := s.auth.Login(r.Context(), clientIP(r), req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.setSessionCookie(w, signed)
	s.writeJSON(w, http.StatusOK, accountResponse{Success: true, Account: projection})
}

// LogoutHandler revokes the current session. The cookie is cleared on every
// outcome so a broken revocation never traps the browser in a dead session,
// and replaying an already revoked cookie still succeeds.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	raw := s.rawSessionToken(r)
	// Clear before any body write; headers are frozen after the first one.
	s.clearSessionCookie(w)

	if raw == "" {
		s.writeError(w, apperrors.ErrUnauthorized)
		return
	}

	claims, err := s.auth.ParseToken(raw)
	if err != nil {
		s.writeError(w, apperrors.ErrUnauthorized)
		return
	}

	if err := s.auth.RevokeToken(r.Context(), claims); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Signed out."})
}

// RegisterHandler creates an unverified account and sends the verification
// email. No session is issued.
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ErrValidation)
		return
	}

	result, err := s.auth.Register(r.Context(), clientIP(r), req.Email, req.Password, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, struct {
		Success              bool `json:"success"`
		RequiresVerification bool `json:"requiresVerification"`
	}{Success: true, RequiresVerification: result.RequiresVerification})
}

// SessionHandler is the introspection endpoint. For authenticated callers it
// re-sets the cookie, which is what the client-side cookie sync protocol
// leans on to repair a cookie that has not propagated yet.
func (s *Server) SessionHandler(w http.ResponseWriter, r *http.Request) {
	raw := s.rawSessionToken(r)
	session := s.validator.ValidateSession(r.Context(), raw)
	if !session.Authenticated {
		s.clearSessionCookie(w)
		s.writeJSON(w, http.StatusOK, sessionResponse{Success: true, Authenticated: false})
		return
	}

	s.setSessionCookie(w, raw)
	s.writeJSON(w, http.StatusOK, sessionResponse{
		Success:       true,
		Authenticated: true,
		AccountID:     session.AccountID,
		Verified:      session.Verified,
	})
}

// VerifyEmailHandler handles the emailed verification link. Being a browser
// navigation, it redirects rather than returning JSON.
func (s *Server) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	err := s.auth.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		http.Redirect(w, r, "/verify-error", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/verify-success", http.StatusSeeOther)
}

// ResendVerificationHandler re-sends the verification email. The response is
// identical whether or not the account exists or is already verified.
func (s *Server) ResendVerificationHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ErrValidation)
		return
	}
	if err := s.auth.ResendVerification(r.Context(), req.Email); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "If your address needs verifying, a new link is on its way."})
}

// PasswordResetRequestHandler always answers the same way so it cannot be
// used to probe for accounts.
func (s *Server) PasswordResetRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ErrValidation)
		return
	}
	if err := s.auth.RequestPasswordReset(r.Context(), clientIP(r), req.Email); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "If that address is registered, you'll receive a reset link."})
}

// PasswordResetCompleteHandler finishes the reset flow with the emailed token.
func (s *Server) PasswordResetCompleteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ErrValidation)
		return
	}
	if err := s.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Password updated. You can sign in now."})
}

// MeHandler returns the signed-in account's projection.
func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	account, err := s.accounts.GetByID(r.Context(), session.AccountID)
	if err != nil {
		s.writeError(w, apperrors.ErrInternal)
		return
	}
	s.writeJSON(w, http.StatusOK, accountResponse{Success: true, Account: account.Projection()})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   s.cookieMaxAge,
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie is best-effort: it only writes a header, so it cannot
// fail in a way that should block logout.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}
