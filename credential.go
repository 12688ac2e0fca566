package adminauth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashCredential will generate a digest for the submitted secret
func HashCredential(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptyCredential
	}

	h, err := bcrypt.GenerateFromPassword([]byte(secret), 14)
	return string(h), err
}

// CompareCredentialAndDigest validates the given cleartext secret against the
// stored digest. bcrypt's comparison does not early-exit on the first
// differing byte, so timing does not reveal prefix length. Failure is always
// ErrCredentialMismatch, never a distinguishable cause.
func CompareCredentialAndDigest(secret, digest string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrCredentialMismatch
		}
		return ErrCredentialMismatch
	}
	return nil
}

// VerifyCredential is the boolean form of the verifier contract.
func VerifyCredential(secret, digest string) bool {
	return CompareCredentialAndDigest(secret, digest) == nil
}

// RandomCredentialDigest is a throwaway digest for records that must never
// authenticate by password.
func RandomCredentialDigest() string {
	h, err := HashCredential(uuid.NewString())
	if err != nil {
		return RandomCredentialDigest()
	}
	return h
}
