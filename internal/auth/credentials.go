// Package auth - credentials.go verifies the configured admin credential pair.
package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// VerifyAdminCredentials checks a submitted username/password pair against the
// configured admin username and bcrypt password hash. Both checks always run
// so a mismatched username does not return measurably faster.
func VerifyAdminCredentials(username, password, wantUsername, passwordHash string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(wantUsername)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil

	return usernameMatch && passwordMatch
}

// HashPassword generates a bcrypt hash suitable for the admin password config
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
