package services

import (
	"crypto/hmac"
	"errors"
	"strings"
)

var (
	// ErrMissingCredential means the caller supplied no x-api-key header.
	ErrMissingCredential = errors.New("missing api key")
	// ErrInvalidCredential means the presented key does not match the
	// stored one, or no key is stored for the account.
	ErrInvalidCredential = errors.New("invalid api key")
)

// Authenticate accepts only an exact match between the presented and stored
// credentials. An absent presented credential is "missing"; everything else
// short of an exact match against a present stored key is "invalid". The
// comparison is constant-time.
func Authenticate(presented, stored string) error {
	if strings.TrimSpace(presented) == "" {
		return ErrMissingCredential
	}
	if stored == "" {
		return ErrInvalidCredential
	}
	if !hmac.Equal([]byte(presented), []byte(stored)) {
		return ErrInvalidCredential
	}
	return nil
}
