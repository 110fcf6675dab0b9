package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
)

// MaxSearchLength bounds the catalog search text.
const MaxSearchLength = 100

// ParseSearchQuery returns the sanitized search text from the "q" parameter.
func ParseSearchQuery(r *http.Request) string {
	return SanitizeString(r.URL.Query().Get("q"), MaxSearchLength)
}

// ParseCodeParam reads a vehicle code from the named route parameter.
func ParseCodeParam(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "vehicle code is required").WithDetails(map[string]any{"field": key})
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "vehicle code must be numeric").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
