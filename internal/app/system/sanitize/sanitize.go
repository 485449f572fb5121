// Package sanitize strips HTML from user-supplied text fields before they
// are stored or echoed back to clients.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes all HTML markup from s and trims surrounding whitespace.
// Folder names, file descriptions, and tags pass through here before storage.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// TextSlice sanitizes every element of ss in place and returns it.
func TextSlice(ss []string) []string {
	for i, s := range ss {
		ss[i] = Text(s)
	}
	return ss
}
