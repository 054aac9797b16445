package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/game-idea-generator/internal/apperror"
	"github.com/sakif/game-idea-generator/internal/auth"
	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/service"
)

const stateCookieName = "oauth_state"

// AuthService is implemented by *service.AuthService.
type AuthService interface {
	Register(ctx context.Context, c service.Credentials) (*service.AuthResult, error)
	Login(ctx context.Context, c service.Credentials) (*service.AuthResult, error)
	LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*service.AuthResult, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// CreditBalance is implemented by *service.CreditLedger.
type CreditBalance interface {
	Balance(ctx context.Context, username string) (int, error)
}

// OAuthProvider is implemented by *auth.GitHubProvider.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler manages password login, the GitHub OAuth flow, and the
// session cookie.
//
//   - HandleRegister / HandleLogin → local accounts, token in body and cookie
//   - HandleGitHubLogin            → redirect the browser to GitHub
//   - HandleGitHubCallback         → exchange the code, upsert, set cookie
//   - HandleLogout                 → clear the cookie
//   - HandleMe                     → profile of the caller, credits included
//   - HandleCredits                → the caller's balance only
type AuthHandler struct {
	users    AuthService
	credits  CreditBalance
	github   OAuthProvider // nil when GitHub login is not configured
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewAuthHandler(users AuthService, credits CreditBalance, github OAuthProvider, tokenTTL time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		credits:  credits,
		github:   github,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var c service.Credentials
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.users.Register(r.Context(), c)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var c service.Credentials
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.users.Login(r.Context(), c)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusOK, result)
}

// HandleGitHubLogin redirects to GitHub's authorization page. The random
// state is kept in a short-lived cookie and checked on callback.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state, err := auth.NewState()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, h.logger, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, h.logger, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, h.logger, apperror.Unauthorized("GitHub authentication failed"))
		return
	}

	result, err := h.users.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.setTokenCookie(w, result.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout deletes the token cookie. The JWT itself stays valid until
// it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the caller's profile, including the credit balance.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.users.GetUserByID(r.Context(), username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleCredits serves GET /api/me/credits.
func (h *AuthHandler) HandleCredits(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	balance, err := h.credits.Balance(r.Context(), username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"credits": balance})
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
