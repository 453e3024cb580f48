package auth

import (
	"crypto/subtle"
	"encoding/base64"
)

// legacySalt is the constant suffix the old browser app appended to every
// password before encoding it.
const legacySalt = "MAX_SPORTS_SALT"

// LegacyDigest reproduces the digest the old browser app stored:
//
//	reverse(base64(password + "MAX_SPORTS_SALT"))
//
// INSECURE. This is an encoding, not a hash: anyone holding the digest can
// reverse and decode it to get the password back, and the same password
// always yields the same digest for every user. It exists only so accounts
// imported from the old store can log in once and be upgraded to bcrypt.
// Never write a new digest with it.
func LegacyDigest(password string) string {
	encoded := []byte(base64.StdEncoding.EncodeToString([]byte(password + legacySalt)))
	for i, j := 0, len(encoded)-1; i < j; i, j = i+1, j-1 {
		encoded[i], encoded[j] = encoded[j], encoded[i]
	}
	return string(encoded)
}

// VerifyLegacy reports whether digest is the legacy digest of password.
func VerifyLegacy(digest, password string) bool {
	want := LegacyDigest(password)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(want)) == 1
}
