package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyEncodesReservedBytes(t *testing.T) {
	assert.Equal(t, "https_3A_2F_2Fresearch.swtch.com_2F", Key("https://research.swtch.com/"))
	assert.Equal(t, "http_3A_2F_2Fa.b_2Fx_3Fq_3D1_261", Key("http://a.b/x?q=1&1"))
}

func TestKeyEscapesUnderscore(t *testing.T) {
	// A literal "_2F" must not collide with an encoded "/"
	a := Key("https://site/a_2Fb")
	b := Key("https://site/a/b")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "_5F")
}

func TestKeyIsFilesystemSafe(t *testing.T) {
	urls := []string{
		"https://research.swtch.com/",
		"https://research.swtch.com/interfaces",
		"https://research.swtch.com/img/a b.png",
		"https://research.swtch.com/x?y=z#frag",
		"https://research.swtch.com/%7Euser/_private",
		"https://research.swtch.com/" + strings.Repeat("deep/", 80) + "image.png",
	}

	seen := make(map[string]string)
	for _, u := range urls {
		key := Key(u)
		assert.NotEmpty(t, key)
		assert.LessOrEqual(t, len(key), maxKeyLen, "key for %s too long", u)
		assert.NotContains(t, key, "/")
		assert.NotContains(t, key, "%")
		assert.NotContains(t, key, "\\")
		assert.NotEqual(t, ".", key)
		assert.NotEqual(t, "..", key)

		if prev, ok := seen[key]; ok {
			t.Errorf("key collision between %s and %s", prev, u)
		}
		seen[key] = u
	}
}

func TestKeyTruncatedKeepsExtension(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("segment/", 40) + "figure.png"
	key := Key(long)
	assert.Len(t, key, maxKeyLen)
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, Key(long+"?v=2"))
}

func TestKeyDeterministic(t *testing.T) {
	u := "https://research.swtch.com/gopackage"
	assert.Equal(t, Key(u), Key(u))
}
