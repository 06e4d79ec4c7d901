package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest password accepted at registration.
const MinPasswordLen = 8

// ErrWeakPassword is returned by CheckPassword.
var ErrWeakPassword = errors.New("password must be at least 8 characters")

// CheckPassword enforces the registration password policy.  bcrypt ignores
// input past 72 bytes, so longer passwords are rejected too.
func CheckPassword(plain string) error {
	if len(plain) < MinPasswordLen || len(plain) > 72 {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword returns the bcrypt hash of plain at the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
