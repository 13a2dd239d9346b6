// internal/app/system/normalize/normalize.go

// Package normalize provides canonicalization helpers for user-supplied
// strings before they are stored or compared. Handlers should normalize
// input once at the boundary so stores and policies can assume clean values.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name but preserves its case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// AuthMethod lowercases and trims an auth method ("internal", "google").
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a status value ("open", "almost_full", "full").
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role lowercases and trims a role value ("student", "leader", "admin").
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a free-form query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// RollNumber uppercases and trims a student roll number so lookups are
// insensitive to how the student typed it.
func RollNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Skill trims a skill name, preserving the catalog's canonical case.
func Skill(s string) string {
	return strings.TrimSpace(s)
}
