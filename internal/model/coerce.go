package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Form posts and JSON bodies both reach the API, so numeric and boolean
// fields may arrive as strings. These helpers convert or fail; they never
// guess.

func asString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	return "", fmt.Errorf("must be a string")
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, fmt.Errorf("must be a finite number")
		}
		return t, nil
	case int:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("must be a number")
		}
		return f, nil
	}
	return 0, fmt.Errorf("must be a number")
}

func asInt(v any) (int, error) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("must be a whole number")
		}
		return int(t), nil
	case int:
		return t, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("must be a whole number")
		}
		return n, nil
	}
	return 0, fmt.Errorf("must be a whole number")
}

func asBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off", "":
			return false, nil
		}
	}
	return false, fmt.Errorf("must be true or false")
}

// asStringList accepts a JSON array of strings or a comma separated string.
func asStringList(v any) ([]string, error) {
	out := []string{}
	switch t := v.(type) {
	case nil:
		return out, nil
	case string:
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []any:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("must be a list of strings")
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	case []string:
		return append(out, t...), nil
	}
	return nil, fmt.Errorf("must be a list of strings")
}

// asImages accepts URLs or {url, is_primary, order} objects. When no entry
// is flagged primary the first one becomes primary.
func asImages(v any) ([]Image, error) {
	out := []Image{}
	items, ok := v.([]any)
	if !ok {
		if v == nil {
			return out, nil
		}
		urls, err := asStringList(v)
		if err != nil {
			return nil, fmt.Errorf("must be a list of images")
		}
		for _, u := range urls {
			items = append(items, u)
		}
	}

	hasPrimary := false
	for i, item := range items {
		img := Image{Order: i}
		switch t := item.(type) {
		case string:
			img.URL = strings.TrimSpace(t)
		case map[string]any:
			url, err := asString(t["url"])
			if err != nil {
				return nil, fmt.Errorf("image url must be a string")
			}
			img.URL = url
			if raw, ok := t["is_primary"]; ok {
				if img.IsPrimary, err = asBool(raw); err != nil {
					return nil, fmt.Errorf("image is_primary %v", err)
				}
			}
			if raw, ok := t["order"]; ok {
				if img.Order, err = asInt(raw); err != nil {
					return nil, fmt.Errorf("image order %v", err)
				}
			}
		default:
			return nil, fmt.Errorf("must be a list of images")
		}
		if img.URL == "" {
			return nil, fmt.Errorf("image url is required")
		}
		if img.IsPrimary {
			if hasPrimary {
				img.IsPrimary = false
			}
			hasPrimary = true
		}
		out = append(out, img)
	}
	if !hasPrimary && len(out) > 0 {
		out[0].IsPrimary = true
	}
	return out, nil
}

func asMap(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return t, nil
	}
	return nil, fmt.Errorf("must be an object")
}

var (
	errRequired   = errors.New("is required")
	errNegative   = errors.New("must not be negative")
	errOutOfRange = errors.New("is out of range")
	errYear       = errors.New("must be a four digit year")
)

func errInvalidChoice[T ~string](got string, allowed []T) error {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return fmt.Errorf("%q is not one of: %s", got, strings.Join(names, ", "))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
