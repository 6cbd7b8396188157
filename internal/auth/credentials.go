package auth

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Credentials is the single admin account configured for the process.
// PasswordHash, when set, is a bcrypt hash and takes precedence over Password.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// Verify checks a login attempt without leaking timing on mismatch position
// or length.
func (c Credentials) Verify(username, password string) bool {
	userOK := constantTimeEqual(username, c.Username)

	var passOK bool
	if c.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	} else {
		passOK = constantTimeEqual(password, c.Password)
	}

	return userOK && passOK
}

func constantTimeEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
