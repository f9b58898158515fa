package ts

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock wraps clockwork.Clock so that settlement timestamps come out in a
// consistent form.
type Clock struct {
	realClock clockwork.Clock
}

func NewRealClock() *Clock {
	return &Clock{
		realClock: clockwork.NewRealClock(),
	}
}

// NewClock wraps any clockwork clock, which lets tests use a fake one.
func NewClock(c clockwork.Clock) *Clock {
	return &Clock{realClock: c}
}

// Now provides a UTC timestamp truncated to the second.  Statements are
// compared for equality across replays, so sub-second noise is unwelcome.
func (c *Clock) Now() time.Time {
	return c.realClock.Now().UTC().Truncate(time.Second)
}

func (c *Clock) RealClock() clockwork.Clock {
	return c.realClock
}
