package common

import (
	"errors"
	"testing"

	"launchpad/crypto"
)

type capMap map[string]map[string]bool

func (c capMap) HasCapability(caller crypto.Address, capability string) bool {
	return c[caller.String()][capability]
}

func testAddr(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.LPDPrefix, raw)
}

func TestAuthorize(t *testing.T) {
	admin := testAddr(0x01)
	stranger := testAddr(0x02)
	view := capMap{admin.String(): {"presale.admin": true}}

	if err := Authorize(view, admin, "presale.admin"); err != nil {
		t.Fatalf("granted capability: %v", err)
	}
	if err := Authorize(view, stranger, "presale.admin"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := Authorize(view, admin, "farm.admin"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unheld capability, got %v", err)
	}

	// An empty capability tag marks a self-service entry point.
	if err := Authorize(view, stranger, ""); err != nil {
		t.Fatalf("empty capability: %v", err)
	}

	// A missing view fails closed, not open.
	if err := Authorize(nil, admin, "presale.admin"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized with nil view, got %v", err)
	}
}
