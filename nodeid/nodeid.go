// Package nodeid derives a BEP 42 compliant DHT node ID: 20 random bytes
// with the leading ~21 bits overwritten by a CRC32C computed from the
// node's externally-observed IPv4 address, so other nodes can detect and
// reject node IDs that weren't derived from the IP address making the
// request.
package nodeid

import (
	"crypto/rand"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// bep42Mask isolates the bits of the IP address BEP 42 feeds into the CRC:
// the low 2 bits of the first octet and the low 4, 6, 8 bits of the rest.
var bep42Mask = [4]byte{0x03, 0x0f, 0x3f, 0xff}

// RandomSeed returns 20 cryptographically random bytes suitable for use as
// the seed argument to Derive.
func RandomSeed() ([20]byte, error) {
	var seed [20]byte
	_, err := rand.Read(seed[:])
	return seed, err
}

// Derive computes a node ID for ip from seed, per BEP 42. seed should come
// from RandomSeed; Derive reuses seed's low 3 bits of byte 19 as the
// 3-bit "r" value folded into the hash input, and leaves everything but
// the first 2.625 bytes of seed untouched.
func Derive(ip [4]byte, seed [20]byte) [20]byte {
	out := seed
	r := out[19] & 0x7

	var hashInput [4]byte
	for i := range bep42Mask {
		hashInput[i] = bep42Mask[i] & ip[i]
	}
	hashInput[0] |= r << 5

	crc := crc32.Checksum(hashInput[:], castagnoli)

	out[0] = byte((crc >> 24) & 0xff)
	out[1] = byte((crc >> 16) & 0xff)
	out[2] = byte((crc>>8)&0xf8) | (out[2] & 0x07)

	return out
}
