package hfit

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// HashText returns the hex BLAKE3 digest of the trimmed text. Texts that
// differ only in surrounding whitespace share a hash and a cache entry.
func HashText(text string) string {
	sum := blake3.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}

// CacheKey generates a cache key from a text hash and target language.
func CacheKey(hash, targetLang string) string {
	return hash + ":" + NormalizeLocale(targetLang)
}
