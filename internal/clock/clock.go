package clock

import "time"

// Clock supplies the current instant in a configured location.
// Entity transitions and the maintenance jobs take their timestamps
// from here, never from time.Now directly.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// System returns a Clock backed by the wall clock in the given location.
func System(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &systemClock{loc: loc}
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *systemClock) Location() *time.Location {
	return c.loc
}

// Fixed is a Clock frozen at a settable instant, for tests.
type Fixed struct {
	Instant time.Time
}

// NewFixed returns a Fixed clock set to t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{Instant: t}
}

func (c *Fixed) Now() time.Time {
	return c.Instant
}

func (c *Fixed) Location() *time.Location {
	return c.Instant.Location()
}

// Advance moves the fixed instant forward by d.
func (c *Fixed) Advance(d time.Duration) {
	c.Instant = c.Instant.Add(d)
}
