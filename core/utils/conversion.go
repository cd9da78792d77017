package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ToInt converts a configuration value to int.
// Floats come from JSON documents; strings from environment overrides.
func ToInt(val any) (int, error) {
	switch v := val.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case float32:
		return ToInt(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("unsupported integer value of type %T", val)
	}
}

// ToString converts a configuration value to string. Nil becomes "".
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts a configuration value to bool.
// Numbers are true when 1, strings when "1", "true" or "yes".
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true
		}
		return false
	case []byte:
		return ToBool(string(v))
	case nil:
		return false
	default:
		i, err := ToInt(v)
		return err == nil && i == 1
	}
}

// ToStrings converts a list value (or a comma separated string) to a string slice.
// Blank entries are dropped.
func ToStrings(val any) []string {
	var raw []string
	switch v := val.(type) {
	case nil:
		return nil
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			raw = append(raw, ToString(item))
		}
	default:
		raw = strings.Split(ToString(v), ",")
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
