package middleware

import (
	"net/http"

	"github.com/forsetihq/flowd/internal/database"
	"github.com/forsetihq/flowd/internal/service"
)

// StoreGuard holds a read lease on the store for the request's duration, so
// a demo reset (which takes the write side) can never swap the database out
// from under an in-flight request.
func StoreGuard(store *database.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store.AcquireRead()
			defer store.ReleaseRead()
			next.ServeHTTP(w, r)
		})
	}
}

// DemoGuard runs the lazy staleness check before the request touches the
// store. It must sit outside StoreGuard: a reset needs the write lock.
func DemoGuard(lifecycle *service.DemoLifecycle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lifecycle.MaybeReset(r.Context())
			next.ServeHTTP(w, r)
		})
	}
}
