package api

import (
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "")
}

func writeError(c *echo.Context, status int, errType, msg, param string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{
			Message: msg,
			Type:    errType,
			Param:   param,
		},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// parsePrefix decodes a hex prefix, ignoring spaces so that the spaced form
// printed in scan reports can be pasted back.
func parsePrefix(s string) ([]byte, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return nil, newRequestError("prefix_hex", "is required")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, newRequestError("prefix_hex", err.Error())
	}
	return b, nil
}

func newProbeID() string {
	return "probe_" + uuid.NewString()
}
