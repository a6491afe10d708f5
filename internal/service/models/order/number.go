package order

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// NewOrderNumber returns "ORB" + unix milliseconds + a random number in [0, 999].
// The random part is not padded, so numbers are not collision-proof; the store keeps
// a unique index on them.
func NewOrderNumber(now time.Time) string {
	return "ORB" + strconv.FormatInt(now.UnixMilli(), 10) + strconv.Itoa(rand.IntN(1000))
}
