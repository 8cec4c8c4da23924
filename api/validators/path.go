package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ParseUUIDParam reads a chi URL parameter as a UUID.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, fieldError(key, "is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key).
			WithDetails(map[string]string{key: "must be a valid uuid"})
	}
	return id, nil
}

// ParseQueryInt reads an optional integer query parameter bounded by
// [lo, hi]. An absent or blank value yields def.
func ParseQueryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fieldError(key, "must be an integer")
	}
	if value < lo || value > hi {
		return 0, fieldError(key, fmt.Sprintf("must be between %d and %d", lo, hi))
	}
	return value, nil
}

func fieldError(key, problem string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, key+" "+problem).
		WithDetails(map[string]string{key: problem})
}
