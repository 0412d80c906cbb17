package middleware

import (
	"context"

	"github.com/forsetihq/flowd/internal/domain"
	"github.com/forsetihq/flowd/internal/session"
)

type contextKey string

const (
	sessionKey contextKey = "session"
	accountKey contextKey = "account"
)

// SessionCookie is the opaque session identifier cookie.
const SessionCookie = "session_id"

func withSession(ctx context.Context, s *session.Session, a *domain.Account) context.Context {
	ctx = context.WithValue(ctx, sessionKey, s)
	return context.WithValue(ctx, accountKey, a)
}

// SessionFromContext returns the resolved session, or nil for anonymous
// requests.
func SessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

// AccountFromContext returns the authenticated account, or nil.
func AccountFromContext(ctx context.Context) *domain.Account {
	a, _ := ctx.Value(accountKey).(*domain.Account)
	return a
}
