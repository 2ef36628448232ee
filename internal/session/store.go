// Package session keeps the caller's identity claim in an encrypted and
// authenticated cookie. Nothing is stored server-side: whoever holds a
// cookie that decodes under the server secret holds the identity.
package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"
)

const (
	DefaultCookieName = "_ged"

	hashKeyLen  = 64
	blockKeyLen = 32
)

type Options struct {
	Secret     []byte
	CookieName string
	Domain     string
	Path       string
	MaxAge     time.Duration
	Secure     bool
}

type Store struct {
	codec  *securecookie.SecureCookie
	name   string
	domain string
	path   string
	maxAge time.Duration
	secure bool
}

func New(opts Options) (*Store, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("session: empty secret")
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 24 * time.Hour
	}

	hashKey, err := deriveKey(opts.Secret, "userhub session hmac", hashKeyLen)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(opts.Secret, "userhub session aes", blockKeyLen)
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(opts.MaxAge.Seconds()))

	return &Store{
		codec:  codec,
		name:   opts.CookieName,
		domain: opts.Domain,
		path:   opts.Path,
		maxAge: opts.MaxAge,
		secure: opts.Secure,
	}, nil
}

func (s *Store) CookieName() string {
	return s.name
}

// GetIdentity returns the claim only when the cookie decodes under our keys
// and is younger than MaxAge.
func (s *Store) GetIdentity(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return "", false
	}

	var identity string
	if err := s.codec.Decode(s.name, c.Value, &identity); err != nil {
		return "", false
	}
	if identity == "" {
		return "", false
	}

	return identity, true
}

func (s *Store) SetIdentity(w http.ResponseWriter, identity string) error {
	encoded, err := s.codec.Encode(s.name, identity)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    encoded,
		Path:     s.path,
		Domain:   s.domain,
		MaxAge:   int(s.maxAge.Seconds()),
		Expires:  time.Now().Add(s.maxAge).UTC(),
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

func (s *Store) ClearIdentity(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     s.path,
		Domain:   s.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func deriveKey(secret []byte, info string, n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return key, nil
}
