package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forsetihq/flowd/internal/domain"
	"github.com/forsetihq/flowd/internal/repository"
	"github.com/forsetihq/flowd/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	byID map[uint]*domain.Account
}

func (f *fakeAccounts) Create(*domain.Account) error { return nil }
func (f *fakeAccounts) FindByID(id uint) (*domain.Account, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return a, nil
}
func (f *fakeAccounts) FindByIdentifier(string) (*domain.Account, error) {
	return nil, repository.ErrAccountNotFound
}
func (f *fakeAccounts) First() (*domain.Account, error) { return nil, repository.ErrAccountNotFound }
func (f *fakeAccounts) Count() (int64, error)           { return int64(len(f.byID)), nil }
func (f *fakeAccounts) Update(*domain.Account) error    { return nil }
func (f *fakeAccounts) UpdateFields(uint, map[string]any) error {
	return nil
}
func (f *fakeAccounts) DeleteAll() (int64, error) { return 0, nil }

func gateFixture(t *testing.T, needsUpdate bool) (*Authenticator, *http.Cookie, session.Store) {
	t.Helper()
	sessions := session.NewMemoryStore(time.Hour)
	accounts := &fakeAccounts{byID: map[uint]*domain.Account{
		1: {ID: 1, Username: "ada", IsAdmin: true},
	}}
	sess, err := sessions.Create(context.Background(), 1, needsUpdate)
	require.NoError(t, err)
	return NewAuthenticator(sessions, accounts), &http.Cookie{Name: SessionCookie, Value: sess.ID}, sessions
}

func serve(t *testing.T, handler http.Handler, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestGateAnonymous(t *testing.T) {
	auth, _, _ := gateFixture(t, false)
	handler := auth.Load(auth.RequireAuth(okHandler()))

	rec := serve(t, handler, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
}

func TestGateDanglingCookie(t *testing.T) {
	auth, cookie, sessions := gateFixture(t, false)
	require.NoError(t, sessions.Delete(context.Background(), cookie.Value))

	handler := auth.Load(auth.RequireAuth(okHandler()))
	rec := serve(t, handler, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateAuthenticated(t *testing.T) {
	auth, cookie, _ := gateFixture(t, false)
	handler := auth.Load(auth.RequireCurrentCredentials(okHandler()))

	rec := serve(t, handler, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGateMustUpdate(t *testing.T) {
	auth, cookie, _ := gateFixture(t, true)

	// The full gate blocks with 403.
	full := auth.Load(auth.RequireCurrentCredentials(okHandler()))
	rec := serve(t, full, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "UPDATE_REQUIRED", errorCode(t, rec))

	// The account surface stays reachable.
	partial := auth.Load(auth.RequireAuth(okHandler()))
	rec = serve(t, partial, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGateVanishedAccount(t *testing.T) {
	sessions := session.NewMemoryStore(time.Hour)
	accounts := &fakeAccounts{byID: map[uint]*domain.Account{}}
	sess, err := sessions.Create(context.Background(), 99, false)
	require.NoError(t, err)
	auth := NewAuthenticator(sessions, accounts)

	handler := auth.Load(auth.RequireAuth(okHandler()))
	rec := serve(t, handler, &http.Cookie{Name: SessionCookie, Value: sess.ID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The dangling session was dropped.
	_, err = sessions.Get(context.Background(), sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRequireAdmin(t *testing.T) {
	sessions := session.NewMemoryStore(time.Hour)
	accounts := &fakeAccounts{byID: map[uint]*domain.Account{
		1: {ID: 1, Username: "ada", IsAdmin: false},
	}}
	sess, err := sessions.Create(context.Background(), 1, false)
	require.NoError(t, err)
	auth := NewAuthenticator(sessions, accounts)

	handler := auth.Load(auth.RequireAdmin(okHandler()))
	rec := serve(t, handler, &http.Cookie{Name: SessionCookie, Value: sess.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
}
