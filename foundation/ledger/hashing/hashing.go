// Package hashing provides the single digest primitive shared by every
// entity of the ledger: transactions, block headers and merkle nodes.
package hashing

import (
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/common"
)

// Size is the length of every digest rendered by this package.
const Size = 2 * sha256.Size

// Serializable represents the behavior of a value that can produce its
// canonical byte representation as a string.
type Serializable interface {
	Serialize() string
}

// Hex returns the SHA-256 digest of the data as 64 lowercase hex characters.
func Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return common.Bytes2Hex(sum[:])
}

// Of hashes the canonical serialization of the value.
func Of(value Serializable) string {
	return Hex(value.Serialize())
}

// IsDigest reports whether s looks like a digest produced by Hex.
func IsDigest(s string) bool {
	if len(s) != Size {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}
