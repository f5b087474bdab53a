package helpers

import (
	"time"

	"golang.org/x/time/rate"
)

// NewOnceAMinute returns a limiter that runs its action at most once per minute.
func NewOnceAMinute() *rate.Sometimes {
	return &rate.Sometimes{
		Interval: time.Minute,
	}
}
