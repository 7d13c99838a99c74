package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
)

// ParsePathUUID reads a chi URL parameter and parses it as a UUID.
func ParsePathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "path parameter must be a uuid").
			WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

// ParseQueryUUIDs parses a repeatable query parameter as UUIDs. Empty values
// are skipped; at least one valid id is required when required is true.
func ParseQueryUUIDs(r *http.Request, key string, required bool) ([]uuid.UUID, error) {
	values := r.URL.Query()[key]
	ids := make([]uuid.UUID, 0, len(values))
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "query parameter must be a uuid").
				WithDetails(map[string]any{"field": key})
		}
		ids = append(ids, id)
	}
	if required && len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter required").
			WithDetails(map[string]any{"field": key})
	}
	return ids, nil
}
