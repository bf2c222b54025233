package common

import (
	"errors"

	"launchpad/crypto"
)

var ErrUnauthorized = errors.New("caller lacks required capability")

// CapabilityView answers whether a caller holds a named capability. The
// underlying role management lives outside the ledger modules; engines only
// ever consult it as a pure query.
type CapabilityView interface {
	HasCapability(caller crypto.Address, capability string) bool
}

// Authorize checks the caller against the required capability tag. A nil view
// denies every capability-gated call rather than failing open.
func Authorize(view CapabilityView, caller crypto.Address, capability string) error {
	if capability == "" {
		return nil
	}
	if view == nil || !view.HasCapability(caller, capability) {
		return ErrUnauthorized
	}
	return nil
}
