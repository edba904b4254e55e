package respcache

import "time"

// Clock is injected so tests can control TTL/eviction timing deterministically.
type Clock interface {
	Now() int64 // unix millis
}

type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().UnixMilli() }

// SystemClock is the production Clock backed by wall-clock time.
func SystemClock() Clock { return systemClock{} }
