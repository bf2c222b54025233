package common

import "errors"

var (
	ErrModulePaused  = errors.New("module paused")
	ErrReentrantCall = errors.New("reentrant call")
)

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// EntryGuard is a single-acquisition execution lock held for the full duration
// of a mutating operation. External asset-transfer calls are the only
// suspension points inside an operation; the guard ensures a malicious token
// implementation cannot re-invoke an entry point and observe partially updated
// state.
type EntryGuard struct {
	held bool
}

// Enter acquires the guard and returns the release function. Every exit path
// of the operation must run the release, so callers defer it immediately.
func (g *EntryGuard) Enter() (func(), error) {
	if g == nil {
		return func() {}, nil
	}
	if g.held {
		return nil, ErrReentrantCall
	}
	g.held = true
	return func() { g.held = false }, nil
}

// Check rejects while the guard is held without acquiring it. Read-only
// queries consult it so a token callback inside a mutation cannot observe
// half-applied state.
func (g *EntryGuard) Check() error {
	if g == nil || !g.held {
		return nil
	}
	return ErrReentrantCall
}
