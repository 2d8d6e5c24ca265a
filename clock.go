package cronlock

import "time"

// Clock abstracts wall time so lease and schedule arithmetic can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock returns a Clock reading the UTC wall clock.
func SystemClock() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
