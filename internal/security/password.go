package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrMalformedHash = errors.New("malformed password hash")

// Params are the argon2id cost settings stored alongside every hash.
type Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// Upper bounds for parameters read back from storage, so a corrupt row
// cannot make Verify allocate gigabytes.
const (
	maxMemory = 1 << 20
	maxTime   = 16
	maxKeyLen = 512
)

var DefaultParams = Params{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Hasher hashes passwords with argon2id and verifies both argon2id and
// legacy bcrypt hashes.
type Hasher struct {
	params Params
}

func NewHasher(p Params) *Hasher {
	if p.SaltLen == 0 || p.KeyLen == 0 || p.Time == 0 || p.Threads == 0 || p.Memory == 0 {
		p = DefaultParams
	}
	return &Hasher{params: p}
}

// Hash returns a PHC string: $argon2id$v=19$m=..,t=..,p=..$salt$key
func (h *Hasher) Hash(plain []byte) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey(plain, salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify never fails loudly: anything it cannot parse is a mismatch.
func (h *Hasher) Verify(stored string, candidate []byte) bool {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), candidate) == nil
	}

	p, salt, key, err := decodeHash(stored)
	if err != nil {
		return false
	}

	other := argon2.IDKey(candidate, salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return subtle.ConstantTimeCompare(key, other) == 1
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func decodeHash(encoded string) (p Params, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		err = ErrMalformedHash
		return
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		err = ErrMalformedHash
		return
	}
	if version != argon2.Version {
		err = ErrMalformedHash
		return
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		err = ErrMalformedHash
		return
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 || p.Memory > maxMemory || p.Time > maxTime {
		err = ErrMalformedHash
		return
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		err = ErrMalformedHash
		return
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxKeyLen {
		err = ErrMalformedHash
		return
	}

	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))

	return p, salt, key, nil
}
