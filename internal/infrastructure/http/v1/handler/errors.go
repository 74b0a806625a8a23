package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	ErrFailedToDecodeRequestBody = errors.New("failed to decode request body")
	ErrValidationFailed          = errors.New("request validation failed")
	ErrMapBackend                = errors.New("map backend error")
	ErrUnexpectedMapResponse     = errors.New("unexpected map backend response")
	InternalServerError          = errors.New("server encountered a problem and could not process your request")
)

// validationErrors maps each failing field to the tag it failed on.
func validationErrors(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["request"] = err.Error()
		return out
	}

	for _, fe := range verrs {
		out[fe.Namespace()] = fe.Tag()
	}
	return out
}
