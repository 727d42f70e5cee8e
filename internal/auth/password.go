package auth

import (
	"unicode"

	"github.com/landrecords/demarcation-backend/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// ValidatePassword enforces the account password policy: at least eight
// characters with a digit, an uppercase letter and a special character.
func ValidatePassword(pw string) error {
	if len([]rune(pw)) < minPasswordLength {
		return apperr.Validation("Password must be at least 8 characters long")
	}
	var digit, upper, special bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}
	if !digit {
		return apperr.Validation("Password must contain at least one number")
	}
	if !upper {
		return apperr.Validation("Password must contain at least one uppercase letter")
	}
	if !special {
		return apperr.Validation("Password must contain at least one special character")
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
