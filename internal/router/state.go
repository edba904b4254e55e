// Package router implements C6: the dispatch layer that owns the merged
// route table between the local fast backend and the remote subprocess
// backend, and the connection state machine that decides which of them a
// given call is even allowed to reach.
package router

import (
	"sync/atomic"
)

// State is one node of the Init -> Connecting -> (Ready | DegradedReadOnly
// | Dead) state machine (§4.6).
type State int

const (
	StateInit State = iota
	StateConnecting
	StateReady
	StateDegradedReadOnly
	StateDead
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDegradedReadOnly:
		return "degraded_read_only"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// stateHolder is an atomic State box; State itself isn't an atomic-friendly
// type so it's boxed behind atomic.Value-style int32 storage.
type stateHolder struct {
	v atomic.Int32
}

func (h *stateHolder) Load() State   { return State(h.v.Load()) }
func (h *stateHolder) Store(s State) { h.v.Store(int32(s)) }
