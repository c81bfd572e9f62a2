package auction

import "time"

// DeadlineKind names what happens when a deadline expires.
type DeadlineKind string

const (
	DeadlineBidding DeadlineKind = "bidding"
	DeadlineRTM     DeadlineKind = "rtm"
	DeadlineAdvance DeadlineKind = "advance"
)

// Deadline is one armed expiry. Token identifies it; a fired timer carries the token
// back so a deadline that has since been replaced or consumed is ignored.
type Deadline struct {
	Token uint64
	Kind  DeadlineKind
	At    time.Time
}

// Deadlines holds the single armed deadline of a room. The zero value has nothing
// armed. It is a plain value so a transition can work on a copy.
type Deadlines struct {
	last    uint64
	current Deadline
	armed   bool
}

// Arm replaces whatever was armed with a new deadline.
func (d *Deadlines) Arm(kind DeadlineKind, at time.Time) Deadline {
	d.last++
	d.current = Deadline{Token: d.last, Kind: kind, At: at}
	d.armed = true
	return d.current
}

// Clear drops the armed deadline, if any.
func (d *Deadlines) Clear() {
	d.current = Deadline{}
	d.armed = false
}

// Current returns the armed deadline.
func (d *Deadlines) Current() (Deadline, bool) {
	return d.current, d.armed
}

// Consume clears and returns the armed deadline if token still names it and it has
// passed at now. A second call with the same token finds nothing.
func (d *Deadlines) Consume(token uint64, now time.Time) (Deadline, bool) {
	if !d.armed || d.current.Token != token || now.Before(d.current.At) {
		return Deadline{}, false
	}
	dl := d.current
	d.Clear()
	return dl, true
}
