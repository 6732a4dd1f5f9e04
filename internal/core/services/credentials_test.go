package services_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reservaespacios/reservation-service/internal/core/services"
)

func TestPasswordGenerator_LengthAndAlphabet(t *testing.T) {
	generator := services.NewPasswordGenerator(nil)

	for i := 0; i < 200; i++ {
		pw, err := generator.Generate()
		require.NoError(t, err)
		require.Len(t, pw, services.TemporaryPasswordLength)
		for _, c := range pw {
			assert.True(t, strings.ContainsRune(services.TemporaryPasswordAlphabet, c), "unexpected character %q", c)
		}
	}
}

func TestPasswordGenerator_ExcludesAmbiguousCharacters(t *testing.T) {
	for _, c := range "Il1O0" {
		assert.False(t, strings.ContainsRune(services.TemporaryPasswordAlphabet, c), "alphabet contains %q", c)
	}
}

func TestPasswordGenerator_DeterministicWithFixedSource(t *testing.T) {
	a := services.NewPasswordGenerator(rand.New(rand.NewSource(42)))
	b := services.NewPasswordGenerator(rand.New(rand.NewSource(42)))

	for i := 0; i < 5; i++ {
		pa, err := a.Generate()
		require.NoError(t, err)
		pb, err := b.Generate()
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}
}

func TestPasswordGenerator_SourceError(t *testing.T) {
	generator := services.NewPasswordGenerator(strings.NewReader(""))

	_, err := generator.Generate()
	assert.Error(t, err)
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := services.HashPassword("Secreta123")
	require.NoError(t, err)

	assert.NotEqual(t, "Secreta123", hash)
	assert.True(t, services.VerifyPassword("Secreta123", hash))
	assert.False(t, services.VerifyPassword("secreta123", hash))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := services.HashPassword(strings.Repeat("a", 100))
	assert.ErrorIs(t, err, services.ErrHashing)
}

func TestVerifyPassword_MalformedHashFailsClosed(t *testing.T) {
	assert.False(t, services.VerifyPassword("anything", "not-a-bcrypt-hash"))
	assert.False(t, services.VerifyPassword("", ""))
}

func TestValidateStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{"too short", "Ab1", "La contraseña debe tener al menos 8 caracteres"},
		{"short wins over class rules", "abc", "La contraseña debe tener al menos 8 caracteres"},
		{"no uppercase", "abcdefg1", "La contraseña debe contener al menos una letra mayúscula"},
		{"no lowercase", "ABCDEFG1", "La contraseña debe contener al menos una letra minúscula"},
		{"no digit", "Abcdefgh", "La contraseña debe contener al menos un número"},
		{"valid", "Abcdefg1", ""},
		{"valid with symbols", "Reserva#2024", ""},
		{"multibyte counts runes", "Ñandú123", ""},
		{"longest accepted", "Ab1" + strings.Repeat("x", 69), ""},
		{"too long for bcrypt", "Ab1" + strings.Repeat("x", 70), "La contraseña no puede superar los 72 bytes"},
		{"multibyte counts bytes for the limit", "Ab1" + strings.Repeat("ñ", 35), "La contraseña no puede superar los 72 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, services.ValidateStrength(tt.password))
		})
	}
}

// Every generated password is accepted or rejected consistently with the four rules.
func TestValidateStrength_AgreesWithRules(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const chars = "abcXYZ019"

	for i := 0; i < 500; i++ {
		n := rng.Intn(12)
		var sb strings.Builder
		for j := 0; j < n; j++ {
			sb.WriteByte(chars[rng.Intn(len(chars))])
		}
		pw := sb.String()

		valid := len(pw) >= 8 &&
			strings.ContainsAny(pw, "XYZ") &&
			strings.ContainsAny(pw, "abc") &&
			strings.ContainsAny(pw, "019")

		assert.Equal(t, valid, services.ValidateStrength(pw) == "", "password %q", pw)
	}
}
