package account

import (
	"net/url"
	"strings"
)

// NormalizeUsername turns a username taken from a URL segment, query string
// or body into its stored form. Usernames are case-sensitive.
func NormalizeUsername(raw string) string {
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return strings.TrimSpace(raw)
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
