// Package idx mints the ULID references that tie log lines together: one per
// HTTP request and one per portal session.
//
// A reference is never a secret. Session records are addressed by a
// fingerprint of the cookie; the ULID only names the session in logs and
// sorts sessions by creation time.
package idx

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Ref is a ULID in its canonical 26 character form.
type Ref string

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a reference stamped with the current time.
func New() Ref {
	return NewAt(time.Now())
}

// NewAt returns a reference stamped with t. References minted within one
// millisecond still sort in the order they were made.
func NewAt(t time.Time) Ref {
	mu.Lock()
	defer mu.Unlock()
	return Ref(ulid.MustNew(ulid.Timestamp(t.UTC()), entropy).String())
}

func (r Ref) String() string { return string(r) }

// Time is the creation time embedded in r, or the zero time when r is not a
// ULID (for example a caller supplied X-Request-ID).
func (r Ref) Time() time.Time {
	u, err := ulid.ParseStrict(string(r))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
