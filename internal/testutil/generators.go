// Package testutil provides test data generators.
package testutil

import (
	"crypto/md5" //nolint:gosec // protocol-mandated checksum, not authentication
	"encoding/base64"
	"math/rand"
)

// GenerateData returns size bytes of deterministic pseudo-random data.
// The same seed always yields the same payload.
func GenerateData(seed int64, size int) []byte {
	r := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data
	data := make([]byte, size)
	r.Read(data)
	return data
}

// SparseData returns a payload of the given size where the byte span
// [zeroStart, zeroEnd) is all zeros and the rest is deterministic
// pseudo-random data. Useful for exercising zero-chunk skipping.
func SparseData(seed int64, size, zeroStart, zeroEnd int) []byte {
	data := GenerateData(seed, size)
	for i := zeroStart; i < zeroEnd && i < size; i++ {
		data[i] = 0
	}
	return data
}

// RangeMD5 returns the base64-encoded MD5 of data, the encoding used for
// both per-range and whole-object checksums.
func RangeMD5(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // protocol-mandated checksum
	return base64.StdEncoding.EncodeToString(sum[:])
}
