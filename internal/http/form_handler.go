package httpx

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/target/coffeehouse/internal/errors"
	"github.com/target/coffeehouse/internal/validation"
)

// FormParser maps submitted form values onto a typed form.
type FormParser[T any] func(form url.Values) T

// parseValidForm parses the request body with parse and validates the
// result against its struct tags. Errors are validation AppErrors.
func parseValidForm[T any](r *http.Request, parse FormParser[T]) (T, error) {
	var zero T
	if err := r.ParseForm(); err != nil {
		return zero, apperrors.Wrap(err, apperrors.ErrCodeValidation, "malformed form")
	}
	form := parse(r.PostForm)
	if err := validation.Struct(form); err != nil {
		return form, err
	}
	return form, nil
}

// formString returns the trimmed form value.
func formString(form url.Values, key string) string {
	return strings.TrimSpace(form.Get(key))
}

// formInt returns the form value as an int, def when absent, and -1 when
// present but not a number so range validation rejects it.
func formInt(form url.Values, key string, def int) int {
	raw := formString(form, key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

// formBool accepts the usual checkbox and select spellings.
func formBool(form url.Values, key string) bool {
	switch strings.ToLower(formString(form, key)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}
