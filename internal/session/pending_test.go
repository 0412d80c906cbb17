package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingSecretsStableUntilDiscard(t *testing.T) {
	p := NewPendingSecrets(time.Hour)
	calls := 0
	gen := func() (string, error) {
		calls++
		return "secret-" + string(rune('0'+calls)), nil
	}

	first, err := p.GetOrCreate("k", gen)
	require.NoError(t, err)
	second, err := p.GetOrCreate("k", gen)
	require.NoError(t, err)

	assert.Equal(t, first, second, "repeated begin yields the same secret")
	assert.Equal(t, 1, calls)

	got, ok := p.Get("k")
	require.True(t, ok)
	assert.Equal(t, first, got)

	p.Discard("k")
	_, ok = p.Get("k")
	assert.False(t, ok)

	// A new secret after discard.
	third, err := p.GetOrCreate("k", gen)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestPendingSecretsExpiry(t *testing.T) {
	p := NewPendingSecrets(-time.Second)

	_, err := p.GetOrCreate("k", func() (string, error) { return "s", nil })
	require.NoError(t, err)

	_, ok := p.Get("k")
	assert.False(t, ok)
}

func TestPendingSecretsReplace(t *testing.T) {
	p := NewPendingSecrets(time.Hour)

	_, err := p.GetOrCreate("k", func() (string, error) { return "old", nil })
	require.NoError(t, err)

	p.Replace("k", "new")
	got, ok := p.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestPendingSecretsKeysIsolated(t *testing.T) {
	p := NewPendingSecrets(time.Hour)

	a, _ := p.GetOrCreate("a", func() (string, error) { return "sa", nil })
	b, _ := p.GetOrCreate("b", func() (string, error) { return "sb", nil })

	assert.NotEqual(t, a, b)
}
