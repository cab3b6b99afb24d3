package util

import (
	"net/url"
	"regexp"
	"strings"
)

// RedactBearer masks a bearer token down to its first and last four characters.
func RedactBearer(token string) string {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if len(token) <= 10 {
		return "Bearer ***"
	}
	return "Bearer " + token[:4] + "..." + token[len(token)-4:]
}

var phoneMiddle = regexp.MustCompile(`(\d{3})\d{4}(\d{4})`)

// MaskPhone hides the middle four digits of an 11-digit run.
func MaskPhone(phone string) string {
	return phoneMiddle.ReplaceAllString(phone, "$1****$2")
}

// DefaultAvatarURL returns a generated identicon for seed.
func DefaultAvatarURL(seed string) string {
	return "https://api.dicebear.com/9.x/identicon/svg?seed=" + strings.ReplaceAll(url.QueryEscape(seed), "+", "%20")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
