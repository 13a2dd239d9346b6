// internal/app/system/inputval/inputval.go

// Package inputval provides validation helpers for user-supplied input.
// Validators answer yes/no; normalization lives in the normalize package.
package inputval

import "strings"

// IsValidEmail reports whether the string is a plausible email address.
//
// This is intentionally stricter than a permissive regex: it rejects
// display-name forms ("Name <a@b>"), whitespace, and dotted-edge or
// consecutive-dot local parts and domains, while still accepting
// single-label domains (useful for dev/test environments).
func IsValidEmail(email string) bool {
	s := strings.TrimSpace(email)
	if s == "" {
		return false
	}
	if strings.ContainsAny(s, " \t<>") {
		return false
	}

	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}

	local, domain := s[:at], s[at+1:]
	if !validDotted(local) || !validDotted(domain) {
		return false
	}
	return true
}

// validDotted checks that a dot-separated segment has no empty labels,
// which covers leading dots, trailing dots, and consecutive dots.
func validDotted(s string) bool {
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
	}
	return true
}
