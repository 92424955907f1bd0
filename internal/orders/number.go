package orders

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"
)

const orderNumberSuffixMax = 100000

// NewOrderNumber builds a human-readable order reference from the current UTC
// date and a random five-digit suffix, e.g. "ORD-20260830-04217". The suffix
// space is small enough that collisions are possible; callers retry on a
// unique violation.
func NewOrderNumber(now time.Time) string {
	var raw [8]byte
	if _, err := rand.Read(raw[:]); err != nil {
		// crypto/rand failing means the process is in a very bad place,
		// but a timestamp-derived suffix still keeps checkout alive.
		binary.BigEndian.PutUint64(raw[:], uint64(now.UnixNano()))
	}
	suffix := binary.BigEndian.Uint64(raw[:]) % orderNumberSuffixMax
	return fmt.Sprintf("ORD-%s-%05d", now.UTC().Format("20060102"), suffix)
}

// NumericSuffix extracts the trailing digit run of an order number for
// numeric-aware ordering in listings. The second return reports whether a
// suffix was found.
func NumericSuffix(number string) (int64, bool) {
	i := len(number)
	for i > 0 && number[i-1] >= '0' && number[i-1] <= '9' {
		i--
	}
	if i == len(number) {
		return 0, false
	}
	n, err := strconv.ParseInt(number[i:], 10, 64)
	if err != nil {
		// Digit runs longer than an int64 fall back to lexicographic order.
		return 0, false
	}
	return n, true
}
