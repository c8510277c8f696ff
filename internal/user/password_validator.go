package user

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	PasswordMinimumLength = 8
	// bcrypt ignores everything past 72 bytes.
	PasswordMaximumBytes = 72

	StrongPasswordTag = "strongpassword"
	specialCharacters = "!@#$%^&*()-_=+[]{}|;:'\",.<>?/`~\\"
)

var (
	ErrPasswordNotAlphanumeric             = errors.New("password must contain a letter and a digit")
	ErrPasswordDoesNotHaveSpecialCharacter = errors.New("password does not contain special characters")
	ErrPasswordTooShort                    = fmt.Errorf("password should be at least %d characters", PasswordMinimumLength)
	ErrPasswordTooLong                     = fmt.Errorf("password should be at most %d bytes", PasswordMaximumBytes)
)

func CheckPassword(password string) error {
	switch {
	case len([]rune(password)) < PasswordMinimumLength:
		return ErrPasswordTooShort
	case len(password) > PasswordMaximumBytes:
		return ErrPasswordTooLong
	case !hasLetterAndDigit(password):
		return ErrPasswordNotAlphanumeric
	case !strings.ContainsAny(password, specialCharacters):
		return ErrPasswordDoesNotHaveSpecialCharacter
	}
	return nil
}

// RegisterValidations installs the password policy as a binding tag on gin's validator.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation(StrongPasswordTag, func(fl validator.FieldLevel) bool {
		return CheckPassword(fl.Field().String()) == nil
	})
}

func hasLetterAndDigit(password string) bool {
	var letter, digit bool
	for _, c := range password {
		switch {
		case unicode.IsLetter(c):
			letter = true
		case unicode.IsDigit(c):
			digit = true
		}
	}
	return letter && digit
}
