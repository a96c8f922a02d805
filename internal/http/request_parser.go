package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finboard/internal/aggregate"
	"finboard/internal/core"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if isDomainError(err) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// isDomainError reports whether a decode failure came from a domain type
// rejecting its value, such as an invalid amount.
func isDomainError(err error) bool {
	return statusFor(err) == http.StatusUnprocessableEntity
}

// ParseFilter reads the category, type, start and end query parameters.
func ParseFilter(query url.Values) (aggregate.Filter, error) {
	tf, err := aggregate.ParseTypeFilter(strings.TrimSpace(query.Get("type")))
	if err != nil {
		return aggregate.Filter{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	f := aggregate.Filter{
		Category: sanitizeInput(query.Get("category")),
		Type:     tf,
	}
	for key, dst := range map[string]*core.Date{"start": &f.Start, "end": &f.End} {
		v := strings.TrimSpace(query.Get(key))
		if v == "" {
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			return aggregate.Filter{}, fmt.Errorf("%w: %s: %v", errBadRequest, key, err)
		}
		*dst = d
	}
	return f, nil
}

// ParsePage reads the 1-based page and size query parameters. A missing
// page is the first one; a missing size is 0, meaning the service default.
func ParsePage(query url.Values) (page, size int, err error) {
	page, size = 1, 0
	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 1 {
			return 0, 0, fmt.Errorf("%w: page must be a positive integer", errBadRequest)
		}
	}
	if v := strings.TrimSpace(query.Get("size")); v != "" {
		if size, err = strconv.Atoi(v); err != nil || size < 1 || size > 500 {
			return 0, 0, fmt.Errorf("%w: size must be between 1 and 500", errBadRequest)
		}
	}
	return page, size, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
