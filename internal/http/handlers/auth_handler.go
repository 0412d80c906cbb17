package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/http/middleware"
	"github.com/forsetihq/flowd/internal/http/response"
	"github.com/forsetihq/flowd/internal/observability"
	"github.com/forsetihq/flowd/internal/repository"
	"github.com/forsetihq/flowd/internal/security"
	"github.com/forsetihq/flowd/internal/service"
	"github.com/forsetihq/flowd/internal/session"

	"github.com/go-chi/chi/v5"
)

// setupCookie keys the pending enrollment secret for an anonymous caller.
const setupCookie = "setup_session"

// AuthHandler exposes the login surface. Exactly one verification strategy
// is active per deployment; requests against an inactive one get 404.
type AuthHandler struct {
	cfg       *config.Config
	bootstrap *service.BootstrapService
	auth      *service.AuthService
	sms       *service.SMSAuthService
	oauth     *service.OAuthService
}

func NewAuthHandler(
	cfg *config.Config,
	bootstrap *service.BootstrapService,
	auth *service.AuthService,
	sms *service.SMSAuthService,
	oauth *service.OAuthService,
) *AuthHandler {
	return &AuthHandler{cfg: cfg, bootstrap: bootstrap, auth: auth, sms: sms, oauth: oauth}
}

// Mode reports the active strategy so clients can render the right login
// form without probing.
func (h *AuthHandler) Mode(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"mode": string(h.cfg.AuthMode),
		"demo": h.cfg.DemoMode,
	}
	count, err := h.bootstrap.AccountCount(r.Context())
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	payload["setup_required"] = !h.cfg.DemoMode && count == 0
	if h.cfg.AuthMode == config.ModeOAuth {
		payload["providers"] = h.oauth.Providers()
	}
	response.JSON(w, r, http.StatusOK, payload)
}

// SetupBegin starts first-run enrollment. The generated secret is tied to a
// short-lived setup cookie, never persisted, until SetupComplete proves it.
func (h *AuthHandler) SetupBegin(w http.ResponseWriter, r *http.Request) {
	key, err := h.setupKey(w, r)
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	material, err := h.bootstrap.BeginEnrollment(r.Context(), key)
	if err != nil {
		if errors.Is(err, service.ErrNotApplicable) {
			response.Error(w, r, http.StatusConflict, "ALREADY_CONFIGURED", "initial setup has already been completed", nil)
			return
		}
		response.InternalError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, material)
}

// SetupComplete proves possession of the enrollment secret and creates the
// initial administrative account.
func (h *AuthHandler) SetupComplete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &body) {
		return
	}
	key, err := h.setupKey(w, r)
	if err != nil {
		response.InternalError(w, r, err)
		return
	}
	account, err := h.bootstrap.CompleteEnrollment(r.Context(), key, body.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotApplicable), errors.Is(err, repository.ErrDuplicate):
			response.Error(w, r, http.StatusConflict, "ALREADY_CONFIGURED", "initial setup has already been completed", nil)
		case errors.Is(err, service.ErrNoSecretPending):
			response.Error(w, r, http.StatusBadRequest, "NO_SECRET_PENDING", "begin setup before confirming", nil)
		case errors.Is(err, service.ErrInvalidCode):
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CODE", "authenticator code rejected", nil)
		default:
			response.InternalError(w, r, err)
		}
		return
	}
	observability.RecordEnrollment(r.Context(), "success")
	clearCookie(w, setupCookie)
	response.JSON(w, r, http.StatusCreated, map[string]any{"username": account.Username})
}

// LoginTOTP is the local strategy: one code, one request, session on match.
func (h *AuthHandler) LoginTOTP(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AuthMode != config.ModeTOTP {
		strategyDisabled(w, r)
		return
	}
	var body struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &body) {
		return
	}
	sess, err := h.auth.LoginTOTP(r.Context(), body.Code)
	if err != nil {
		observability.RecordLogin(r.Context(), "totp", "failure")
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CODE", "authenticator code rejected", nil)
		case errors.Is(err, service.ErrEnrollmentOutstanding), errors.Is(err, service.ErrNotApplicable):
			response.Error(w, r, http.StatusConflict, "SETUP_REQUIRED", "initial setup has not been completed", nil)
		default:
			response.InternalError(w, r, err)
		}
		return
	}
	observability.RecordLogin(r.Context(), "totp", "success")
	h.establishSession(w, r, sess)
}

// SMSStart verifies the password and dispatches a code, answering with the
// challenge token the caller must redeem.
func (h *AuthHandler) SMSStart(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AuthMode != config.ModeSMS {
		strategyDisabled(w, r)
		return
	}
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}
	info, err := h.sms.Start(r.Context(), body.Identifier, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "identifier or password rejected", nil)
		case errors.Is(err, service.ErrProviderUnavailable):
			response.Error(w, r, http.StatusBadGateway, "PROVIDER_UNAVAILABLE", "code delivery is temporarily unavailable", nil)
		default:
			response.InternalError(w, r, err)
		}
		return
	}
	response.JSON(w, r, http.StatusOK, info)
}

// SMSComplete redeems a challenge. Each token is good for exactly one
// successful redemption.
func (h *AuthHandler) SMSComplete(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AuthMode != config.ModeSMS {
		strategyDisabled(w, r)
		return
	}
	var body struct {
		Token string `json:"token"`
		Code  string `json:"code"`
	}
	if !decode(w, r, &body) {
		return
	}
	sess, err := h.sms.Complete(r.Context(), body.Token, body.Code)
	if err != nil {
		observability.RecordChallengeRedemption(r.Context(), "failure")
		switch {
		case errors.Is(err, service.ErrChallengeNotFound):
			response.Error(w, r, http.StatusNotFound, "CHALLENGE_NOT_FOUND", "challenge token is unknown", nil)
		case errors.Is(err, service.ErrAlreadyRedeemed):
			response.Error(w, r, http.StatusConflict, "ALREADY_REDEEMED", "challenge has already been redeemed", nil)
		case errors.Is(err, service.ErrChallengeExpired):
			response.Error(w, r, http.StatusGone, "CHALLENGE_EXPIRED", "challenge has expired", nil)
		case errors.Is(err, service.ErrInvalidCode):
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CODE", "verification code rejected", nil)
		case errors.Is(err, service.ErrProviderUnavailable):
			response.Error(w, r, http.StatusBadGateway, "PROVIDER_UNAVAILABLE", "code verification is temporarily unavailable", nil)
		default:
			response.InternalError(w, r, err)
		}
		return
	}
	observability.RecordChallengeRedemption(r.Context(), "success")
	observability.RecordLogin(r.Context(), "sms", "success")
	h.establishSession(w, r, sess)
}

// OAuthLogin redirects to the provider's authorization endpoint.
func (h *AuthHandler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AuthMode != config.ModeOAuth {
		strategyDisabled(w, r)
		return
	}
	url, err := h.oauth.LoginURL(chi.URLParam(r, "provider"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownProvider) {
			response.Error(w, r, http.StatusNotFound, "UNKNOWN_PROVIDER", "provider is not configured", nil)
			return
		}
		response.InternalError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// OAuthCallback finishes the delegate flow and redirects into the app.
// Failures redirect to the login page with an error hint instead of a JSON
// body, since the browser arrives here directly from the provider.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.cfg.AuthMode != config.ModeOAuth {
		strategyDisabled(w, r)
		return
	}
	provider := chi.URLParam(r, "provider")
	sess, err := h.oauth.HandleCallback(r.Context(), provider, r.URL.Query().Get("state"), r.URL.Query().Get("code"))
	if err != nil {
		observability.RecordLogin(r.Context(), "oauth", "failure")
		switch {
		case errors.Is(err, service.ErrUnknownProvider):
			response.Error(w, r, http.StatusNotFound, "UNKNOWN_PROVIDER", "provider is not configured", nil)
		case errors.Is(err, service.ErrMissingEmail):
			http.Redirect(w, r, "/login?error=missing_email", http.StatusFound)
		case errors.Is(err, service.ErrProviderError):
			http.Redirect(w, r, "/login?error=provider", http.StatusFound)
		default:
			response.InternalError(w, r, err)
		}
		return
	}
	observability.RecordLogin(r.Context(), "oauth", "success")
	h.setSessionCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout discards the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		if err := h.auth.Logout(r.Context(), sess.ID); err != nil {
			response.InternalError(w, r, err)
			return
		}
	}
	clearCookie(w, middleware.SessionCookie)
	response.JSON(w, r, http.StatusNoContent, nil)
}

func (h *AuthHandler) establishSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	h.setSessionCookie(w, sess)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"needs_update": sess.NeedsUpdate,
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(h.cfg.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
}

// setupKey returns the pending-secret key for this caller, minting the setup
// cookie on first contact.
func (h *AuthHandler) setupKey(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(setupCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	key, err := security.NewRandomString(32)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     setupCookie,
		Value:    key,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	return key, nil
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

func strategyDisabled(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, http.StatusNotFound, "STRATEGY_DISABLED", "this login method is not enabled", nil)
}

// decode reads a JSON body, answering 400 itself on malformed input.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "request body is not valid JSON", nil)
		return false
	}
	return true
}
