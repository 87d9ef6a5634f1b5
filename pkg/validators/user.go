// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")

	ErrPasswordEmpty    = errors.New("no password provided")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
	// bcrypt ignores everything past 72 bytes
	ErrPasswordTooLong = errors.New("password can't be longer than 72 characters")

	ErrUsernameEmpty    = errors.New("no username provided")
	ErrUsernameTooShort = errors.New("username must be at least 3 characters long")
	ErrUsernameTooLong  = errors.New("username can't be longer than 64 characters")
)

func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	if err := validate.Var(e, "email,max=254"); err != nil {
		return ErrEmailInvalid
	}

	return nil
}

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if validate.Var(p, "min=6") != nil {
		return ErrPasswordTooShort
	}

	if len(p) > 72 {
		return ErrPasswordTooLong
	}

	return nil
}

func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if validate.Var(u, "min=3") != nil {
		return ErrUsernameTooShort
	}

	if validate.Var(u, "max=64") != nil {
		return ErrUsernameTooLong
	}

	return nil
}
