package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// maxJSONBody caps JSON request bodies
const maxJSONBody = 1 << 20

// ErrBodyTooLarge is returned when a request body exceeds its limit
var ErrBodyTooLarge = errors.New("request body too large")

// ParseJSON decodes the request body into dest. Bodies over 1MB are rejected
// with ErrBodyTooLarge; unknown fields are rejected too.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// RespondParseError maps a ParseJSON error to 413 or 400
func RespondParseError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBodyTooLarge) {
		RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	RespondError(w, http.StatusBadRequest, err.Error())
}
