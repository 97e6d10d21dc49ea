package notes

import (
	"fmt"
	"time"

	"github.com/yoav-lavi/pile/internal/apperr"
)

// TimeLayout renders a timestamp with its UTC offset, including offset seconds.
const TimeLayout = "2006-01-02 15:04:05.999999999 -07:00:00"

// Clock supplies the local time used to stamp new notes.
type Clock interface {
	Now() (time.Time, error)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() (time.Time, error)

// Now implements Clock.
func (f ClockFunc) Now() (time.Time, error) { return f() }

// LocalClock returns a Clock reading the current time in the named zone.
// An empty zone means the process-local zone. Zone resolution happens on
// every call, so a broken zone surfaces as ErrTimeUnavailable at note
// creation rather than at startup.
func LocalClock(zone string) Clock {
	return ClockFunc(func() (time.Time, error) {
		if zone == "" {
			return time.Now(), nil
		}
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: load zone %q: %w", apperr.ErrTimeUnavailable, zone, err)
		}
		return time.Now().In(loc), nil
	})
}

// FixedClock always returns t. Intended for tests and replays.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() (time.Time, error) { return t, nil })
}
