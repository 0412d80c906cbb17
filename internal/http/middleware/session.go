package middleware

import (
	"errors"
	"net/http"

	"github.com/forsetihq/flowd/internal/http/response"
	"github.com/forsetihq/flowd/internal/repository"
	"github.com/forsetihq/flowd/internal/session"
)

// Authenticator resolves the session cookie into request context and gates
// routes on the resulting state: anonymous, authenticated with a pending
// credential update, or fully authenticated.
type Authenticator struct {
	sessions session.Store
	accounts repository.AccountRepository
}

func NewAuthenticator(sessions session.Store, accounts repository.AccountRepository) *Authenticator {
	return &Authenticator{sessions: sessions, accounts: accounts}
}

// Load resolves the cookie, if any, and attaches session and account to the
// context. It never rejects: a dangling or missing cookie just leaves the
// request anonymous, so public routes stay reachable.
func (a *Authenticator) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := a.sessions.Get(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			response.InternalError(w, r, err)
			return
		}
		account, err := a.accounts.FindByID(sess.AccountID)
		if err != nil {
			// The account vanished under the session (demo reset or purge).
			if errors.Is(err, repository.ErrAccountNotFound) {
				_ = a.sessions.Delete(r.Context(), sess.ID)
				next.ServeHTTP(w, r)
				return
			}
			response.InternalError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess, account)))
	})
}

// RequireAuth rejects anonymous requests with 401.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()) == nil {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCurrentCredentials additionally rejects sessions whose account owes
// a credential update. Only the account and logout surfaces stay open to a
// must-update session.
func (a *Authenticator) RequireCurrentCredentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		if sess.NeedsUpdate {
			response.Error(w, r, http.StatusForbidden, "UPDATE_REQUIRED", "credentials must be updated before continuing", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates operator-only routes.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := AccountFromContext(r.Context())
		if account == nil {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		if !account.IsAdmin {
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "administrator access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
