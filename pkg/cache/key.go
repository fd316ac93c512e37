package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
)

// maxKeyLen keeps keys well below the 255 byte filename limit
const maxKeyLen = 200

// Key encodes rawURL into a filename. Every byte outside [A-Za-z0-9.-~] is
// percent-encoded, '_' included, and '%' is then replaced by '_', so the
// mapping stays injective. Overlong keys are cut and suffixed with a digest
// of the full URL, keeping the extension.
func Key(rawURL string) string {
	var b strings.Builder
	b.Grow(len(rawURL) * 3)

	const hexDigits = "0123456789ABCDEF"
	for i := 0; i < len(rawURL); i++ {
		c := rawURL[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('_')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0F])
	}

	key := b.String()
	if len(key) <= maxKeyLen {
		return key
	}

	sum := sha256.Sum256([]byte(rawURL))
	digest := hex.EncodeToString(sum[:])
	ext := path.Ext(key)
	if len(ext) > 10 {
		ext = ""
	}
	return key[:maxKeyLen-len(digest)-len(ext)-1] + "-" + digest + ext
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '~':
		return true
	}
	return false
}
