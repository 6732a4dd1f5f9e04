package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// TemporaryPasswordLength is the length of issued one-time passwords.
	TemporaryPasswordLength = 8
	// PasswordHashCost is the bcrypt work factor.
	PasswordHashCost  = 10
	minPasswordLength = 8
	// maxPasswordBytes is the longest input bcrypt accepts.
	maxPasswordBytes = 72
)

// TemporaryPasswordAlphabet is A-Z, a-z and 0-9 without the ambiguous I, l, 1, O and 0.
const TemporaryPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

var ErrHashing = errors.New("password hashing failed")

// PasswordGenerator draws temporary passwords uniformly from TemporaryPasswordAlphabet.
type PasswordGenerator struct {
	source io.Reader
}

// NewPasswordGenerator uses source as entropy; nil selects crypto/rand.
func NewPasswordGenerator(source io.Reader) *PasswordGenerator {
	if source == nil {
		source = rand.Reader
	}
	return &PasswordGenerator{source: source}
}

func (g *PasswordGenerator) Generate() (string, error) {
	max := big.NewInt(int64(len(TemporaryPasswordAlphabet)))
	out := make([]byte, TemporaryPasswordLength)
	for i := range out {
		n, err := rand.Int(g.source, max)
		if err != nil {
			return "", fmt.Errorf("generating temporary password: %w", err)
		}
		out[i] = TemporaryPasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordHashCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(hash), nil
}

// VerifyPassword fails closed: any comparison error counts as a mismatch.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidateStrength returns the message of the first rule plain violates, or "".
func ValidateStrength(plain string) string {
	if len([]rune(plain)) < minPasswordLength {
		return "La contraseña debe tener al menos 8 caracteres"
	}
	if len(plain) > maxPasswordBytes {
		return "La contraseña no puede superar los 72 bytes"
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	switch {
	case !hasUpper:
		return "La contraseña debe contener al menos una letra mayúscula"
	case !hasLower:
		return "La contraseña debe contener al menos una letra minúscula"
	case !hasDigit:
		return "La contraseña debe contener al menos un número"
	}
	return ""
}
