package badger

import (
	"encoding/binary"

	"github.com/poiesic/phrasematch/core"
)

// Key prefixes for different data types
const (
	embeddingPrefix = "embvec:"
)

// makeEmbeddingKey generates the key for a cached embedding.
// Format: prefix + BLAKE2b-64(model NUL text), big endian.
func makeEmbeddingKey(model, text string) []byte {
	prefixBytes := []byte(embeddingPrefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(model+"\x00"+text)))
	return buf
}
