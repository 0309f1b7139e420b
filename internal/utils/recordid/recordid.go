package recordid

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.LockedMonotonicReader
)

// newEntropy returns the shared entropy source. It must be safe for
// concurrent New calls.
func newEntropy() *ulid.LockedMonotonicReader {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rand.New(source), 0),
		}
	})
	return entropy
}

// New returns a gb_* ULID string.
func New() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return "gb_" + strings.ToLower(id.String())
}

// IsValid reports whether the string is a gb_* ULID.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, "gb_") {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse strips the gb_ prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "gb_")
	value = strings.TrimPrefix(value, "GB_")
	return ulid.Parse(value)
}
