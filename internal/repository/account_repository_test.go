package repository

import (
	"testing"

	"github.com/forsetihq/flowd/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountCreateAndFind(t *testing.T) {
	repo := NewAccountRepository(testStore(t))

	email := "Ada@Example.COM"
	account := &domain.Account{Username: "ada", Email: &email, IsAdmin: true}
	require.NoError(t, repo.Create(account))
	require.NotZero(t, account.ID)

	found, err := repo.FindByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", found.Username)
	require.NotNil(t, found.Email)
	assert.Equal(t, "ada@example.com", *found.Email, "email stored lowercased")

	byName, err := repo.FindByIdentifier("ada")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byName.ID)

	byEmail, err := repo.FindByIdentifier("ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)

	_, err = repo.FindByIdentifier("nobody")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountDuplicate(t *testing.T) {
	repo := NewAccountRepository(testStore(t))

	require.NoError(t, repo.Create(&domain.Account{Username: "ada"}))
	err := repo.Create(&domain.Account{Username: "ada"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestAccountFirst(t *testing.T) {
	repo := NewAccountRepository(testStore(t))

	_, err := repo.First()
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, repo.Create(&domain.Account{Username: "first"}))
	require.NoError(t, repo.Create(&domain.Account{Username: "second"}))

	first, err := repo.First()
	require.NoError(t, err)
	assert.Equal(t, "first", first.Username)
}

func TestAccountUpdateFields(t *testing.T) {
	repo := NewAccountRepository(testStore(t))

	account := &domain.Account{Username: "ada", MustUpdateCredentials: true}
	require.NoError(t, repo.Create(account))
	require.NoError(t, repo.Create(&domain.Account{Username: "grace"}))

	require.NoError(t, repo.UpdateFields(account.ID, map[string]any{
		"username":                "lovelace",
		"must_update_credentials": false,
	}))

	updated, err := repo.FindByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, "lovelace", updated.Username)
	assert.False(t, updated.MustUpdateCredentials)

	// A conflicting handle aborts the whole statement.
	err = repo.UpdateFields(account.ID, map[string]any{
		"username":                "grace",
		"must_update_credentials": true,
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	unchanged, err := repo.FindByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, "lovelace", unchanged.Username)
	assert.False(t, unchanged.MustUpdateCredentials)

	assert.ErrorIs(t, repo.UpdateFields(9999, map[string]any{"username": "x"}), ErrAccountNotFound)
}

func TestAccountDeleteAll(t *testing.T) {
	repo := NewAccountRepository(testStore(t))

	require.NoError(t, repo.Create(&domain.Account{Username: "a"}))
	require.NoError(t, repo.Create(&domain.Account{Username: "b"}))

	n, err := repo.DeleteAll()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
