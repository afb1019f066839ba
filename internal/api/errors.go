package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"
)

var ErrInvalidRequest = errors.New("invalid_request")

// RequestError is a client error tied to one request field. It matches
// ErrInvalidRequest.
type RequestError struct {
	Param string
	Msg   string
}

func (e *RequestError) Error() string {
	if e.Param == "" {
		return e.Msg
	}
	return e.Param + ": " + e.Msg
}

func (e *RequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newRequestError(param, msg string) error {
	return &RequestError{Param: param, Msg: msg}
}

// writeRequestError renders err as a 400 when it is a client error and as a
// 500 otherwise.
func writeRequestError(c *echo.Context, err error) error {
	var re *RequestError
	if errors.As(err, &re) {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", re.Error(), re.Param)
	}
	if errors.Is(err, ErrInvalidRequest) {
		return writeBadRequest(c, err.Error())
	}
	return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "")
}
