// Package digest computes content hashes for tables and files.
//
// Table digests are taken over a canonical encoding of the table (axis
// names, labels and cells, each length-prefixed) so that two tables hash
// equal exactly when Table.Equal reports them equal, whatever delimiter or
// encoding they were stored with.
package digest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/schemeta/core/table"
)

// HashResult contains both SHA-256 and BLAKE3 hashes of the same content.
type HashResult struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// Blake3Hash computes the BLAKE3 hash of the given data.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Bytes returns both hashes of raw bytes.
func Bytes(data []byte) HashResult {
	s := sha256.Sum256(data)
	return HashResult{
		SHA256: hex.EncodeToString(s[:]),
		BLAKE3: Blake3Hash(data),
	}
}

// Table returns the BLAKE3 hash of the canonical form of t.
func Table(t table.Table) string {
	h := blake3.New()
	writeTable(h, t)
	return hex.EncodeToString(h.Sum(nil))
}

// TableHashes returns both hashes of the canonical form of t.
func TableHashes(t table.Table) HashResult {
	s := sha256.New()
	writeTable(s, t)
	return HashResult{
		SHA256: hex.EncodeToString(s.Sum(nil)),
		BLAKE3: Table(t),
	}
}

func writeTable(h hash.Hash, t table.Table) {
	writeString(h, t.IndexName)
	writeString(h, t.ColumnsName)
	writeStrings(h, t.Index)
	writeStrings(h, t.Columns)
	writeLen(h, len(t.Cells))
	for _, row := range t.Cells {
		writeStrings(h, row)
	}
}

func writeStrings(h hash.Hash, s []string) {
	writeLen(h, len(s))
	for _, v := range s {
		writeString(h, v)
	}
}

func writeString(h hash.Hash, s string) {
	writeLen(h, len(s))
	h.Write([]byte(s))
}

func writeLen(h hash.Hash, n int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	h.Write(buf[:])
}
