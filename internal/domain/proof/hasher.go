package proof

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"
)

// Supported hash algorithms
const (
	AlgorithmSHA256  = "sha256"
	AlgorithmSHA3256 = "sha3-256"
)

// Hasher is the 256-bit digest used for leaves, tree nodes and manifests.
// Digests are lowercase hex.
type Hasher interface {
	Algorithm() string
	Sum(data []byte) string
}

type digestHasher struct {
	algorithm string
	newHash   func() hash.Hash
}

func (h digestHasher) Algorithm() string {
	return h.algorithm
}

func (h digestHasher) Sum(data []byte) string {
	d := h.newHash()
	d.Write(data)
	return hex.EncodeToString(d.Sum(nil))
}

// SHA256 returns the default hasher
func SHA256() Hasher {
	return digestHasher{algorithm: AlgorithmSHA256, newHash: sha256.New}
}

// SHA3256 returns a Keccak based SHA3-256 hasher
func SHA3256() Hasher {
	return digestHasher{algorithm: AlgorithmSHA3256, newHash: sha3.New256}
}

// HasherFor resolves an algorithm name. Empty selects SHA-256.
func HasherFor(algorithm string) (Hasher, error) {
	switch algorithm {
	case "", AlgorithmSHA256:
		return SHA256(), nil
	case AlgorithmSHA3256:
		return SHA3256(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}
