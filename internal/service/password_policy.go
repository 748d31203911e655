package service

import (
	"errors"
	"strings"
	"unicode"
)

// Politica de passwords: largo minimo 12 y las cuatro clases de caracteres.
const minPasswordLength = 12

const passwordSymbols = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

var (
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrPasswordNoLower  = errors.New("password must include a lowercase letter")
	ErrPasswordNoUpper  = errors.New("password must include an uppercase letter")
	ErrPasswordNoDigit  = errors.New("password must include a number")
	ErrPasswordNoSymbol = errors.New("password must include a special character")
)

// ValidatePassword aplica la politica de complejidad. Funcion pura:
// devuelve la primera regla incumplida o nil.
func ValidatePassword(raw string) error {
	if len(raw) < minPasswordLength {
		return ErrPasswordTooShort
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range raw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	switch {
	case !hasLower:
		return ErrPasswordNoLower
	case !hasUpper:
		return ErrPasswordNoUpper
	case !hasDigit:
		return ErrPasswordNoDigit
	case !hasSymbol:
		return ErrPasswordNoSymbol
	}
	return nil
}
