package password

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	appErr "github.com/zornyy/photoCloud/internal/pkg/errors"
)

const (
	minLength = 8
	maxLength = 100
)

func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// Validate enforces the registration password policy. It is not applied on
// login, so accounts created under an older policy can still sign in.
func Validate(plain string) error {
	if len(plain) < minLength || len(plain) > maxLength {
		return fmt.Errorf("%w: password must be %d-%d characters", appErr.ErrInvalid, minLength, maxLength)
	}
	var hasDigit, hasUpper bool
	for _, r := range plain {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one digit", appErr.ErrInvalid)
	}
	if !hasUpper {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", appErr.ErrInvalid)
	}
	return nil
}
