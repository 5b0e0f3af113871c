// Package code generates numeric one-time codes and hashes them for storage.
package code

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

// Generator issues fixed-length numeric codes.
type Generator struct {
	length int
}

func NewGenerator(length int) *Generator {
	return &Generator{length: length}
}

// Generate returns a uniformly random code of the configured length. Leading
// zeros are kept.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, g.length)
	ten := big.NewInt(10)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code digit: %w", err)
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

// Hasher produces keyed BLAKE2b-256 digests so stored codes cannot be
// brute-forced offline without the key.
type Hasher struct {
	key []byte
}

// NewHasher accepts keys of 1 to 64 bytes.
func NewHasher(key []byte) (*Hasher, error) {
	if len(key) == 0 || len(key) > blake2b.Size {
		return nil, fmt.Errorf("code hash key must be 1-%d bytes, got %d", blake2b.Size, len(key))
	}
	return &Hasher{key: append([]byte(nil), key...)}, nil
}

// Hash returns the hex digest of code. The record ID is mixed in so the same
// code issued to two records hashes differently.
func (h *Hasher) Hash(recordID, code string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		panic(err) // key length checked in NewHasher
	}
	mac.Write([]byte(recordID))
	mac.Write([]byte{0})
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}
