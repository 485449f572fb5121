// Package normalize provides helper functions for consistent string normalization
// across the application. Use these helpers instead of scattered strings.ToLower
// and strings.TrimSpace calls to ensure consistent behavior.
package normalize

import "strings"

// Name normalizes a folder or file name by trimming whitespace.
// Use text.Fold() for case-insensitive comparison keys.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role normalizes a role tag by trimming whitespace and converting to lowercase.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Roles normalizes a comma-separated list of role tags, dropping empties.
func Roles(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if r := Role(p); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Shop normalizes a shop domain by trimming whitespace and converting to lowercase.
func Shop(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MimeType normalizes a MIME type by trimming whitespace, lowercasing, and
// dropping any parameters (e.g. "text/plain; charset=utf-8" -> "text/plain").
func MimeType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

// MimeTypes normalizes a comma-separated MIME type list, dropping empties.
func MimeTypes(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if m := MimeType(p); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// Tags normalizes a set of free-text tags: trims each, drops empties and
// case-insensitive duplicates, preserving first-seen order and casing.
func Tags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// QueryParam normalizes a query parameter by trimming whitespace.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
