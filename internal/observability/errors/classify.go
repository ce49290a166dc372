package errors

import (
	goerrors "errors"
	"reflect"
	"strings"
)

// Classify returns a normalized name for an error's innermost concrete type,
// suitable as a low-cardinality metric or alert tag.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
