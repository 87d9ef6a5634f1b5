// Package user contains the account endpoints
package user

import (
	"errors"
	"strings"

	"storagify/file-api/internal/apperr"

	"github.com/go-playground/validator/v10"
)

// bindError turns a binding failure into a validation error clients can read
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := strings.ToLower(verrs[0].Field()[:1]) + verrs[0].Field()[1:]
		return apperr.Wrap(apperr.ValidationError, field+" field is required", err)
	}

	return apperr.Wrap(apperr.ValidationError, "Invalid request body", err)
}
