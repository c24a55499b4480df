package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClockTime is a local wall-clock time-of-day with second precision,
// serialized on the wire as "HH:MM:SS".
type ClockTime struct {
	Hour, Minute, Second int
}

const clockTimeLayout = "15:04:05"

// NewClockTime builds a ClockTime from hour, minute and second as given;
// out-of-range values are stored unchanged, not wrapped to a 24h day.
func NewClockTime(hour, minute, second int) ClockTime {
	return ClockTime{Hour: hour, Minute: minute, Second: second}
}

// OnDate returns the instant this time-of-day denotes on the given date, in
// loc.
func (c ClockTime) OnDate(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, c.Second, 0, loc)
}

// Before reports whether c is strictly earlier in the day than other.
func (c ClockTime) Before(other ClockTime) bool {
	return c.seconds() < other.seconds()
}

// LessOrEqual reports whether c is earlier than or equal to other.
func (c ClockTime) LessOrEqual(other ClockTime) bool {
	return c.seconds() <= other.seconds()
}

func (c ClockTime) seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// MarshalJSON renders the time as the "HH:MM:SS" string the coordinator
// expects.
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON parses the "HH:MM:SS" wire format.
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(clockTimeLayout, s)
	if err != nil {
		return fmt.Errorf("model: invalid clock time %q: %w", s, err)
	}
	c.Hour, c.Minute, c.Second = t.Hour(), t.Minute(), t.Second()
	return nil
}
