package pubsub

import (
	"fmt"
	"sync"
	"time"
)

// Timestamp is a Hybrid Logical Clock reading: a physical-time component and
// a logical counter that breaks ties / advances when the physical clock
// hasn't moved, stamped by the PeerId that issued it.
type Timestamp struct {
	Physical int64
	Logical  uint32
	Issuer   PeerId
}

// After reports whether t happened after o (physical time first, logical
// counter as tie-break, issuer as final tie-break so Timestamps total-order).
func (t Timestamp) After(o Timestamp) bool {
	if t.Physical != o.Physical {
		return t.Physical > o.Physical
	}
	if t.Logical != o.Logical {
		return t.Logical > o.Logical
	}
	return t.Issuer > o.Issuer
}

// Clock is the narrow interface the core consumes the Hybrid Logical Clock
// through (spec.md §1: "we consume it only through a narrow interface").
// Implementations are expected to reject timestamps whose physical component
// is further ahead of the local clock than some configured skew window.
type Clock interface {
	// NewTimestamp mints a fresh Timestamp for a locally originated sample.
	NewTimestamp() Timestamp
	// UpdateWithTimestamp folds a remotely observed Timestamp into the
	// clock's state, returning an error if it falls outside the acceptable
	// skew window (the only point sample ingress is refused on clock-skew
	// grounds).
	UpdateWithTimestamp(Timestamp) error
}

// defaultClock is a monotonic HLC: physical time from the wall clock (never
// allowed to go backwards), a logical counter that advances when two events
// share a physical tick, and a bounded skew window beyond which a remote
// timestamp is rejected. No HLC library appears anywhere in the retrieval
// pack, so this is a deliberate, documented exception to "never reach for
// the standard library" — see DESIGN.md.
type defaultClock struct {
	mu      sync.Mutex
	id      PeerId
	skew    time.Duration
	last    Timestamp
	nowFunc func() time.Time
}

// NewDefaultClock builds a Clock stamped with id, rejecting remote
// timestamps whose physical component is more than maxSkew ahead of the
// local wall clock.
func NewDefaultClock(id PeerId, maxSkew time.Duration) Clock {
	return &defaultClock{id: id, skew: maxSkew, nowFunc: time.Now}
}

func (c *defaultClock) nowMillis() int64 {
	return c.nowFunc().UnixMilli()
}

func (c *defaultClock) NewTimestamp() Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowMillis()
	if now > c.last.Physical {
		c.last = Timestamp{Physical: now, Logical: 0, Issuer: c.id}
	} else {
		c.last.Logical++
		c.last.Issuer = c.id
	}
	return c.last
}

func (c *defaultClock) UpdateWithTimestamp(ts Timestamp) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowMillis()
	if ts.Physical > now+c.skew.Milliseconds() {
		return fmt.Errorf("timestamp %d from %s is %s ahead of local clock, beyond skew window %s",
			ts.Physical, ts.Issuer, time.Duration(ts.Physical-now)*time.Millisecond, c.skew)
	}

	if ts.After(c.last) {
		c.last = ts
	} else {
		c.last.Logical++
	}
	return nil
}

// treatTimestamp implements the HLC timestamp gate of spec.md §4.6: stamp an
// absent timestamp, validate a present one, and synthesize a DataInfo when
// none was supplied at all.
func treatTimestamp(clock Clock, info *DataInfo) (*DataInfo, error) {
	if info != nil {
		if info.Timestamp != nil {
			if err := clock.UpdateWithTimestamp(*info.Timestamp); err != nil {
				return nil, err
			}
			return info, nil
		}
		ts := clock.NewTimestamp()
		out := *info
		out.Timestamp = &ts
		return &out, nil
	}

	ts := clock.NewTimestamp()
	return &DataInfo{Timestamp: &ts}, nil
}
