package instagram

import (
	"fmt"
	"net/url"
	"strings"

	errs "igfetch/pkg/errors"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// PostJSONQuery asks the post page for its JSON representation
	PostJSONQuery = "__a=1&__d=dis"

	maxShortcodeLength = 64
)

// postKinds are the path segments that precede a shortcode
var postKinds = map[string]bool{
	"p":     true,
	"reel":  true,
	"reels": true,
	"tv":    true,
}

var postHosts = map[string]bool{
	"instagram.com":     true,
	"www.instagram.com": true,
	"m.instagram.com":   true,
	"instagr.am":        true,
	"www.instagr.am":    true,
}

// ParsePostURL validates a post URL and returns its shortcode.
//
// Accepted forms are /p/, /reel/, /reels/ and /tv/ paths, optionally
// preceded by a username segment. A missing scheme is tolerated.
func ParsePostURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errs.NewValidationError("empty post URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errs.NewValidationError(fmt.Sprintf("invalid post URL %q", raw))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errs.NewValidationError(fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	if !postHosts[strings.ToLower(u.Hostname())] {
		return "", errs.NewValidationError(fmt.Sprintf("%s is not an Instagram host", u.Hostname()))
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	// /<user>/p/<code>/ carries one extra leading segment
	if len(segments) >= 3 && !postKinds[segments[0]] && IsValidUsername(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) < 2 || !postKinds[segments[0]] {
		return "", errs.NewValidationError(fmt.Sprintf("%s is not a post URL", u.Path))
	}

	shortcode := segments[1]
	if !IsValidShortcode(shortcode) {
		return "", errs.NewValidationError(fmt.Sprintf("invalid shortcode %q", shortcode))
	}
	return shortcode, nil
}

// IsValidShortcode checks the URL-safe base64 alphabet Instagram uses
func IsValidShortcode(code string) bool {
	if code == "" || len(code) > maxShortcodeLength {
		return false
	}
	for _, c := range code {
		if !((c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '_') {
			return false
		}
	}
	return true
}

// GetPostURL constructs the canonical URL for a post
func GetPostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}

// GetPostJSONURL constructs the JSON endpoint for a post under base
func GetPostJSONURL(base, shortcode string) string {
	return fmt.Sprintf("%s/p/%s/?%s", strings.TrimRight(base, "/"), url.PathEscape(shortcode), PostJSONQuery)
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	// Instagram usernames can only contain letters, numbers, periods, and underscores
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername removes a leading @ and trailing slashes or spaces
func SanitizeUsername(username string) string {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	return strings.TrimRight(username, "/ ")
}
