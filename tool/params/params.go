/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package params

import "fmt"

// Extract returns the named required argument converted to T.
// JSON decoding yields float64 for every number, so integer targets are
// converted from float64 when the value is integral.
func Extract[T any](args map[string]any, name string) (T, error) {
	var zero T

	value, ok := args[name]
	if !ok {
		return zero, fmt.Errorf("%s parameter is required", name)
	}

	if v, ok := value.(T); ok {
		return v, nil
	}

	if v, ok := convertNumeric[T](value); ok {
		return v, nil
	}

	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// ExtractOptional returns the named argument converted to T, or
// defaultValue when the argument is absent. A present argument of the
// wrong type is an error, not a fallback to the default.
func ExtractOptional[T any](args map[string]any, name string, defaultValue T) (T, error) {
	value, ok := args[name]
	if !ok {
		return defaultValue, nil
	}

	if v, ok := value.(T); ok {
		return v, nil
	}

	if v, ok := convertNumeric[T](value); ok {
		return v, nil
	}

	var zero T
	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// ExtractStrings returns the named argument as a []string. Models emit
// JSON arrays as []any, so each element is asserted individually.
func ExtractStrings(args map[string]any, name string) ([]string, error) {
	value, ok := args[name]
	if !ok {
		return nil, fmt.Errorf("%s parameter is required", name)
	}

	if v, ok := value.([]string); ok {
		return v, nil
	}

	raw, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%s parameter must be an array of strings, got %T", name, value)
	}

	out := make([]string, 0, len(raw))
	for i, elem := range raw {
		s, ok := elem.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string, got %T", name, i, elem)
		}
		out = append(out, s)
	}
	return out, nil
}

func convertNumeric[T any](value any) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case int:
		if f, ok := value.(float64); ok {
			return any(int(f)).(T), true
		}
	case int32:
		if f, ok := value.(float64); ok {
			return any(int32(f)).(T), true
		}
	case int64:
		if f, ok := value.(float64); ok {
			return any(int64(f)).(T), true
		}
	case float64:
		if i, ok := value.(int); ok {
			return any(float64(i)).(T), true
		}
	}
	return zero, false
}
