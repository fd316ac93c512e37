package sources

import (
	"net/url"
	"strings"
)

// ParseReference parses an href or src taken from page markup. Stray '%'
// characters that do not start a valid escape are kept literally as %25,
// the way browsers resolve them.
func ParseReference(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	ref, err := url.Parse(raw)
	if err == nil {
		return ref, nil
	}
	return url.Parse(escapeStrayPercent(raw))
}

func escapeStrayPercent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && !(i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
