package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type profileResponse struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	Role          authcore.Role `json:"role"`
	EmailVerified bool          `json:"email_verified"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := h.decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.svc.Register(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{ID: u.ID, Email: u.Email})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var in credentialsRequest
	if err := h.decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	tokens, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeTokens(w, tokens)
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	raw := refreshCookie(r)
	if raw == "" {
		h.clearRefreshCookie(w)
		writeError(w, r, authcore.ErrInvalidToken)
		return
	}

	tokens, err := h.svc.Refresh(r.Context(), raw)
	if err != nil {
		// A dependency outage leaves the cookie in place so the client can retry.
		if !errors.Is(err, authcore.ErrDependencyUnavailable) {
			h.clearRefreshCookie(w)
		}
		writeError(w, r, err)
		return
	}

	h.writeTokens(w, tokens)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	access, _ := middleware.BearerToken(r.Header.Get("Authorization"))
	h.svc.Logout(r.Context(), access, refreshCookie(r))

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, authcore.ErrInvalidToken)
		return
	}

	u, err := h.svc.Me(r.Context(), id.SubjectID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
	})
}

func (h *handlers) sendVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, authcore.ErrInvalidToken)
		return
	}

	if err := h.svc.SendVerification(r.Context(), id.SubjectID); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "verification email sent"})
}

func (h *handlers) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var in verifyEmailRequest
	if err := h.decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.svc.VerifyEmail(r.Context(), in.Token); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "email verified"})
}

func (h *handlers) writeTokens(w http.ResponseWriter, t *authcore.Tokens) {
	h.setRefreshCookie(w, t.RefreshToken, h.svc.RefreshTTL())
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		ExpiresIn:   int64(t.ExpiresIn / time.Second),
	})
}
