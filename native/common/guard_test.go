package common

import (
	"errors"
	"testing"
)

type pauseMap map[string]bool

func (p pauseMap) IsPaused(module string) bool { return p[module] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, "presale"); err != nil {
		t.Fatalf("nil view should pass: %v", err)
	}
	if err := Guard(pauseMap{}, ""); err != nil {
		t.Fatalf("empty module should pass: %v", err)
	}
	if err := Guard(pauseMap{"presale": true}, "presale"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if err := Guard(pauseMap{"presale": true}, "farm"); err != nil {
		t.Fatalf("unrelated module should pass: %v", err)
	}
}

func TestEntryGuard(t *testing.T) {
	var g EntryGuard

	release, err := g.Enter()
	if err != nil {
		t.Fatalf("first enter: %v", err)
	}
	if _, err := g.Enter(); !errors.Is(err, ErrReentrantCall) {
		t.Fatalf("expected ErrReentrantCall, got %v", err)
	}
	release()
	release, err = g.Enter()
	if err != nil {
		t.Fatalf("enter after release: %v", err)
	}
	release()
}

func TestEntryGuardCheck(t *testing.T) {
	var g EntryGuard

	if err := g.Check(); err != nil {
		t.Fatalf("unheld check: %v", err)
	}
	release, err := g.Enter()
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := g.Check(); !errors.Is(err, ErrReentrantCall) {
		t.Fatalf("expected ErrReentrantCall while held, got %v", err)
	}
	release()
	if err := g.Check(); err != nil {
		t.Fatalf("check after release: %v", err)
	}
}

func TestEntryGuardNilReceiver(t *testing.T) {
	var g *EntryGuard
	release, err := g.Enter()
	if err != nil {
		t.Fatalf("nil guard: %v", err)
	}
	release()
	if err := g.Check(); err != nil {
		t.Fatalf("nil guard check: %v", err)
	}
}
