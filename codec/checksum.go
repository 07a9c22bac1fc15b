package codec

import (
	"crypto/sha256"
	"encoding/binary"
	"hash/crc32"
	"strings"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/zeebo/blake3"
)

// Digest identifies a checksum algorithm.
type Digest string

const (
	// CRC32 is the IEEE CRC-32, emitted big-endian in 4 bytes.
	CRC32 Digest = "crc32"
	// SHA256 is a 32-byte SHA-256 digest.
	SHA256 Digest = "sha256"
	// BLAKE3 is a 32-byte unkeyed BLAKE3 digest.
	BLAKE3 Digest = "blake3"
)

// ParseDigest parses a checksum algorithm from its string representation.
func ParseDigest(name string) (Digest, error) {
	switch d := Digest(strings.ToLower(name)); d {
	case CRC32, SHA256, BLAKE3:
		return d, nil
	}
	return "", goconstruct.Errorf(goconstruct.CodeSchema, "unknown checksum algorithm %q", name)
}

// Size returns the digest length in bytes.
func (d Digest) Size() int {
	if d == CRC32 {
		return 4
	}
	return 32
}

// Sum computes the digest of data.
func (d Digest) Sum(data []byte) []byte {
	switch d {
	case CRC32:
		return binary.BigEndian.AppendUint32(nil, crc32.ChecksumIEEE(data))
	case SHA256:
		s := sha256.Sum256(data)
		return s[:]
	default:
		s := blake3.Sum256(data)
		return s[:]
	}
}
