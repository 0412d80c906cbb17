package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTOTPSecret(t *testing.T) {
	a, err := GenerateTOTPSecret()
	require.NoError(t, err)
	b, err := GenerateTOTPSecret()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}

func TestVerifyTOTP(t *testing.T) {
	secret, err := GenerateTOTPSecret()
	require.NoError(t, err)
	now := time.Unix(1_700_000_015, 0)

	code, err := TOTPCode(secret, now)
	require.NoError(t, err)

	t.Run("current step matches", func(t *testing.T) {
		ok, err := VerifyTOTP(secret, code, 1, now)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("adjacent step within skew", func(t *testing.T) {
		ok, err := VerifyTOTP(secret, code, 1, now.Add(30*time.Second))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = VerifyTOTP(secret, code, 1, now.Add(-30*time.Second))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("outside skew window", func(t *testing.T) {
		ok, err := VerifyTOTP(secret, code, 1, now.Add(90*time.Second))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("zero skew rejects neighbours", func(t *testing.T) {
		ok, err := VerifyTOTP(secret, code, 0, now.Add(30*time.Second))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("whitespace tolerated", func(t *testing.T) {
		ok, err := VerifyTOTP(secret, " "+code+" ", 1, now)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("malformed codes rejected without error", func(t *testing.T) {
		for _, bad := range []string{"", "12345", "1234567", "abcdef", "12 456"} {
			ok, err := VerifyTOTP(secret, bad, 1, now)
			require.NoError(t, err)
			assert.False(t, ok, "code %q", bad)
		}
	})

	t.Run("empty secret errors", func(t *testing.T) {
		_, err := VerifyTOTP("", "123456", 1, now)
		assert.Error(t, err)
	})

	t.Run("malformed secret errors", func(t *testing.T) {
		_, err := VerifyTOTP("not!base32", "123456", 1, now)
		assert.Error(t, err)
	})
}

func TestProvisioningURI(t *testing.T) {
	uri := ProvisioningURI("JBSWY3DPEHPK3PXP", "forseti", "Forseti Flow")

	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	assert.Contains(t, uri, "secret=JBSWY3DPEHPK3PXP")
	assert.Contains(t, uri, "issuer=Forseti+Flow")
	assert.Contains(t, uri, "period=30")
	assert.Contains(t, uri, "digits=6")
	assert.Contains(t, uri, "algorithm=SHA1")
}

func TestTOTPCodeKnownVector(t *testing.T) {
	// RFC 6238 appendix B, SHA1 row for T=59s with the ASCII key
	// "12345678901234567890"; the 8-digit vector is 94287082.
	secret := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	code, err := TOTPCode(secret, time.Unix(59, 0))
	require.NoError(t, err)
	assert.Equal(t, "287082", code)
}
