// Package validate holds the input checks applied at the tool boundary
// before arguments are forwarded to external APIs.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	idRE     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	scriptRE = regexp.MustCompile(`(?is)<script.*?</script>`)
	tagRE    = regexp.MustCompile(`<[^>]+>`)
	charRE   = regexp.MustCompile(`[<>"']`)
)

// Sanitize strips HTML tags, script blocks and quoting characters from a
// string. Values forwarded to the gateway are opaque, so this is the only
// cleanup applied to them.
func Sanitize(value string) string {
	value = scriptRE.ReplaceAllString(value, "")
	value = tagRE.ReplaceAllString(value, "")
	return charRE.ReplaceAllString(value, "")
}

// String sanitizes a string and enforces length bounds. maxLength <= 0 means
// unbounded.
func String(value string, minLength, maxLength int) (string, error) {
	value = Sanitize(value)

	if len(value) < minLength {
		return "", fmt.Errorf("string must be at least %d characters", minLength)
	}
	if maxLength > 0 && len(value) > maxLength {
		return "", fmt.Errorf("string must be at most %d characters", maxLength)
	}
	return value, nil
}

// ID validates an external identifier: 1-100 characters, letters, digits,
// hyphens and underscores only.
func ID(value string) (string, error) {
	id, err := String(value, 1, 100)
	if err != nil {
		return "", err
	}
	if !idRE.MatchString(id) {
		return "", fmt.Errorf("id contains invalid characters")
	}
	return id, nil
}

// Map checks required keys are present and sanitizes string values in place.
func Map(value map[string]any, required ...string) (map[string]any, error) {
	var missing []string
	for _, key := range required {
		if _, ok := value[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required keys: %s", strings.Join(missing, ", "))
	}

	out := make(map[string]any, len(value))
	for k, v := range value {
		if s, ok := v.(string); ok {
			out[k] = Sanitize(s)
		} else {
			out[k] = v
		}
	}
	return out, nil
}

// HTTPMethod checks the method against the set the gateway accepts and
// returns it uppercased.
func HTTPMethod(method string) (string, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	switch m {
	case "GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS":
		return m, nil
	}
	return "", fmt.Errorf("invalid HTTP method %q", method)
}
