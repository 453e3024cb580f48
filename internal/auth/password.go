// Package auth holds the credential primitives: password digests, the JWTs
// the local HTTP API hands out, the middleware that checks them, and the
// bearer-token plumbing for the remote exercise API.
//
// PASSWORD DIGESTS:
// Every new digest is bcrypt. bcrypt salts each hash randomly, embeds the
// salt and cost in its output, and is slow on purpose:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 rounds)
//	 version
//
// Accounts created by the old browser app carry a legacy digest
// instead (see legacy.go). PasswordService.Check accepts both and tells the
// caller when a stored digest should be upgraded.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
// Cost 12 hashes in roughly 250ms: unnoticeable at login, expensive to brute
// force.
const DefaultCost = 12

// ErrInvalidPassword is returned when a password does not match its digest.
var ErrInvalidPassword = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords.
//
// It's a struct (not free functions) so the cost can be injected: tests run
// at cost 4 (bcrypt.MinCost) and finish in milliseconds.
type PasswordService struct {
	cost int
}

// NewPasswordService returns a PasswordService with the given bcrypt cost.
// A cost outside [bcrypt.MinCost, bcrypt.MaxCost] falls back to DefaultCost.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest returns a PasswordService at bcrypt.MinCost.
// Do NOT use in production.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: bcrypt.MinCost}
}

// Hash returns the bcrypt digest of plaintext.
//
// bcrypt silently truncates input past 72 bytes; such passwords are rejected
// instead so two different long passwords can never share a digest.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks plaintext against a bcrypt digest. It returns nil on a match
// and ErrInvalidPassword on a mismatch. The comparison is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// Check verifies plaintext against a stored digest of either kind.
//
// needsRehash is true when the password matched a legacy digest; the caller
// should replace the stored digest with Hash(plaintext).
func (p *PasswordService) Check(stored, plaintext string) (needsRehash bool, err error) {
	if IsBcrypt(stored) {
		return false, p.Verify(stored, plaintext)
	}
	if VerifyLegacy(stored, plaintext) {
		return true, nil
	}
	return false, ErrInvalidPassword
}

// IsBcrypt reports whether digest looks like a bcrypt hash ($2a$, $2b$, $2y$).
func IsBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2") && len(digest) == 60
}
