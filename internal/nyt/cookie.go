package nyt

import (
	"net/http"
	"regexp"
	"strings"
)

var regiIDPattern = regexp.MustCompile(`regi_id=(\d+)`)

// UserIDFromCookie extracts the archive owner's NYT account id (regi_id)
// from a raw browser session cookie string.
func UserIDFromCookie(rawCookie string) (string, error) {
	match := regiIDPattern.FindStringSubmatch(rawCookie)
	if match == nil {
		return "", ErrNoUserID
	}
	return match[1], nil
}

// ParseSessionCookie splits a raw "Cookie:" header value into individual
// cookies suitable for http.Request.AddCookie. Malformed fragments without
// an "=" are dropped.
func ParseSessionCookie(rawCookie string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, part := range strings.Split(rawCookie, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}
