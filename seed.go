package regress

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// deriveSeed combines the global run seed with a stable hash of the test's
// fullname, so the same test sees the same random stream across runs and
// across different surrounding test sets, while distinct tests get
// distinct streams.
func deriveSeed(global uint64, fullname string) uint64 {
	sum := blake3.Sum256([]byte(fullname))
	return global + binary.BigEndian.Uint64(sum[:8])
}
