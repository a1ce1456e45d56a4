package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key generates a cache key by hashing input under a namespace.
// The key format is: namespace:sha256(input)
func Key(namespace, input string) string {
	return namespace + ":" + Hash([]byte(input))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
