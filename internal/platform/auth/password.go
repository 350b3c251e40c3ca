package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// BcryptPasswords is the production password hasher handed to the identity
// services.
type BcryptPasswords struct{}

func (BcryptPasswords) Hash(password string) (string, error) {
	return HashPassword(password)
}

func (BcryptPasswords) Check(hash, password string) error {
	if !CheckPassword(hash, password) {
		return fmt.Errorf("password mismatch")
	}
	return nil
}
