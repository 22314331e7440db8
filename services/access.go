package services

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/infieles/reportes/config"
	"golang.org/x/crypto/bcrypt"
)

// AdminVerifier decides whether a request carries admin credentials.
type AdminVerifier interface {
	IsAdmin(h http.Header) bool
}

// NewAdminVerifier prefers the bcrypt hash when both secrets are configured.
func NewAdminVerifier(c *config.Config) AdminVerifier {
	if c.AdminTokenHash != "" {
		return NewHashedSecretVerifier(c.AdminHeader, c.AdminTokenHash)
	}
	return NewSharedSecretVerifier(c.AdminHeader, c.AdminToken)
}

type SharedSecretVerifier struct {
	header string
	secret []byte
}

func NewSharedSecretVerifier(header, secret string) *SharedSecretVerifier {
	return &SharedSecretVerifier{header: header, secret: []byte(secret)}
}

func (v *SharedSecretVerifier) IsAdmin(h http.Header) bool {
	if len(v.secret) == 0 {
		return false
	}
	got := h.Get(v.header)
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), v.secret) == 1
}

// HashedSecretVerifier checks the header against a bcrypt hash so the plain
// secret never has to live in the service's environment.
type HashedSecretVerifier struct {
	header string
	hash   []byte
}

func NewHashedSecretVerifier(header, hash string) *HashedSecretVerifier {
	return &HashedSecretVerifier{header: header, hash: []byte(strings.TrimSpace(hash))}
}

func (v *HashedSecretVerifier) IsAdmin(h http.Header) bool {
	got := h.Get(v.header)
	if got == "" || len(v.hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.hash, []byte(got)) == nil
}

// HashAdminToken returns the bcrypt hash to store in ADMIN_TOKEN_HASH.
func HashAdminToken(token string) (string, error) {
	if err := config.ValidateAdminToken(token); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
