package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a password into its stored form and checks candidates
// against it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(stored, candidate string) bool
}

// PlainPasswords stores passwords as given and compares them for equality.
type PlainPasswords struct{}

func (PlainPasswords) Hash(password string) (string, error) { return password, nil }

func (PlainPasswords) Matches(stored, candidate string) bool { return stored == candidate }

type BcryptPasswords struct {
	Cost int
}

func (b BcryptPasswords) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("internal error processing password: %w", err)
	}
	return string(hashed), nil
}

func (BcryptPasswords) Matches(stored, candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate))
	return err == nil
}

// NewPasswordHasher maps the PASSWORD_HASHING setting to a hasher.
func NewPasswordHasher(mode string) (PasswordHasher, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "plain":
		return PlainPasswords{}, nil
	case "bcrypt":
		return BcryptPasswords{}, nil
	default:
		return nil, errors.New("unknown password hashing mode: " + mode)
	}
}
