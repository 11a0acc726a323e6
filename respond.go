package sightings

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// ErrorBody is the JSON shape every error response uses.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RespondError maps a domain error to its HTTP status and writes the JSON
// body. Internal failures never leak their message.
func RespondError(ctx router.Context, err error) error {
	status, body := errorToResponse(err)
	return ctx.JSON(status, body)
}

func errorToResponse(err error) (int, ErrorBody) {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return router.StatusInternalServerError, ErrorBody{
			Message: "an unexpected error occurred",
		}
	}

	status := statusForCategory(richErr)

	body := ErrorBody{
		Message: richErr.Message,
		Code:    richErr.TextCode,
	}

	if status == router.StatusInternalServerError {
		body.Message = "an unexpected error occurred"
		body.Code = ""
	}

	return status, body
}

func statusForCategory(err *goerrors.Error) int {
	switch err.Category {
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return router.StatusForbidden
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return router.StatusBadRequest
	case goerrors.CategoryNotFound:
		return router.StatusNotFound
	case goerrors.CategoryConflict:
		return router.StatusConflict
	}

	if err.Code >= 400 && err.Code < 600 {
		return err.Code
	}

	return router.StatusInternalServerError
}
