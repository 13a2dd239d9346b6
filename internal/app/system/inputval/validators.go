// internal/app/system/inputval/validators.go
package inputval

import (
	"net/url"
	"strings"
)

// allowedAuthMethods are the supported sign-in methods.
var allowedAuthMethods = []string{"internal", "google"}

// IsValidAuthMethod reports whether the auth method is one we support.
// Comparison is case-insensitive and whitespace-tolerant.
func IsValidAuthMethod(method string) bool {
	m := strings.ToLower(strings.TrimSpace(method))
	for _, allowed := range allowedAuthMethods {
		if m == allowed {
			return true
		}
	}
	return false
}

// AllowedAuthMethodsList returns the supported auth methods in canonical order.
func AllowedAuthMethodsList() []string {
	out := make([]string, len(allowedAuthMethods))
	copy(out, allowedAuthMethods)
	return out
}

// IsValidHTTPURL reports whether the string is an absolute http(s) URL.
func IsValidHTTPURL(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// IsValidObjectID reports whether the string is a 24-character hex
// MongoDB ObjectID. Whitespace is trimmed first.
func IsValidObjectID(id string) bool {
	s := strings.TrimSpace(id)
	if len(s) != 24 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
