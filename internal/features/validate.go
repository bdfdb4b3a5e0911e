package features

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	hexColorPattern   = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	namedColorPattern = regexp.MustCompile(`^[a-zA-Z]+$`)
)

// ValidationError reports one invalid descriptor field.
type ValidationError struct {
	Index int
	ID    string
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("feature[%d] %q: %s %s", e.Index, e.ID, e.Field, e.Msg)
}

// IsColor reports whether c is a hex or named CSS color.
func IsColor(c string) bool {
	return hexColorPattern.MatchString(c) || namedColorPattern.MatchString(c)
}

// Validate checks the registry for configuration mistakes: empty or duplicate ids,
// empty titles or urls, and colors that are neither hex nor named CSS colors.
// All problems are returned joined; a nil result means the registry is well formed.
// Missing icon or color is allowed.
func (r Registry) Validate() error {
	var errs []error
	seen := make(map[string]int, len(r.items))
	for i, d := range r.items {
		if strings.TrimSpace(d.ID) == "" {
			errs = append(errs, &ValidationError{Index: i, ID: d.ID, Field: "id", Msg: "must not be empty"})
		} else if first, dup := seen[d.ID]; dup {
			errs = append(errs, &ValidationError{Index: i, ID: d.ID, Field: "id", Msg: fmt.Sprintf("duplicates feature[%d]", first)})
		} else {
			seen[d.ID] = i
		}
		if strings.TrimSpace(d.Title) == "" {
			errs = append(errs, &ValidationError{Index: i, ID: d.ID, Field: "title", Msg: "must not be empty"})
		}
		if strings.TrimSpace(d.URL) == "" {
			errs = append(errs, &ValidationError{Index: i, ID: d.ID, Field: "url", Msg: "must not be empty"})
		}
		if d.Color != "" && !IsColor(d.Color) {
			errs = append(errs, &ValidationError{Index: i, ID: d.ID, Field: "color", Msg: fmt.Sprintf("%q is not a hex or named color", d.Color)})
		}
	}
	return errors.Join(errs...)
}
