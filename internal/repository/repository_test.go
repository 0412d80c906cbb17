package repository

import (
	"path/filepath"
	"testing"

	"github.com/forsetihq/flowd/internal/config"
	"github.com/forsetihq/flowd/internal/database"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.NewStore(&config.Config{
		DatabaseURL: "file:" + filepath.Join(t.TempDir(), "test.sqlite"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
