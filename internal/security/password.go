package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argonParams are the argon2id cost settings. The encoded hash carries them,
// so they can be raised later without invalidating stored credentials.
type argonParams struct {
	memory uint32
	passes uint32
	lanes  uint8
}

var defaultArgon = argonParams{memory: 64 * 1024, passes: 3, lanes: 2}

const (
	saltLength = 16
	keyLength  = 32
)

// HashPassword derives an argon2id hash in the standard encoded form
// ($argon2id$v=19$m=..,t=..,p=..$salt$digest, base64 without padding).
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	p := defaultArgon
	digest := argon2.IDKey([]byte(password), salt, p.passes, p.memory, p.lanes, keyLength)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		p.memory, p.passes, p.lanes,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest)), nil
}

// VerifyPassword checks a candidate against an encoded hash, deriving with
// the cost parameters the hash itself carries. The compare is constant time.
func VerifyPassword(encoded, password string) (bool, error) {
	p, salt, want, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, p.passes, p.memory, p.lanes, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func parseHash(encoded string) (argonParams, []byte, []byte, error) {
	var p argonParams
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return p, nil, nil, fmt.Errorf("malformed password hash")
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.passes, &p.lanes); err != nil {
		return p, nil, nil, fmt.Errorf("malformed hash parameters")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("malformed hash salt")
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("malformed hash digest")
	}
	if len(digest) == 0 || len(digest) > 512 {
		return p, nil, nil, fmt.Errorf("malformed hash digest length")
	}
	return p, salt, digest, nil
}
