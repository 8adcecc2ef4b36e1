package provision

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Organization domains dropped from monitor names.
var nameSuffixes = []string{".qoin.id", ".qoinhub.id"}

// MonitorName derives a display name from the URL's network location, e.g.
// https://payment-gateway.qoin.id becomes "Payment Gateway Health Check".
// A port, when present, stays part of the name.
func MonitorName(rawURL string) string {
	host := netloc(rawURL)
	for _, suffix := range nameSuffixes {
		host = strings.ReplaceAll(host, suffix, "")
	}

	parts := strings.Split(host, "-")
	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, " ") + " Health Check"
}

// netloc returns the text between "//" and the next '/', '?' or '#' after
// an optional scheme. It accepts hosts that url.Parse rejects, such as
// spaces or a non-numeric port, so every listed entry still gets a name.
func netloc(rawURL string) string {
	rest := rawURL
	if i := strings.IndexByte(rest, ':'); i > 0 && isScheme(rest[:i]) {
		rest = rest[i+1:]
	}

	rest, ok := strings.CutPrefix(rest, "//")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func isScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return strings.ToLower(s)
	}
	return string(unicode.ToTitle(r)) + strings.ToLower(s[size:])
}
