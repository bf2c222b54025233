package presale

import (
	"math/big"

	"launchpad/crypto"
	nativecommon "launchpad/native/common"
)

// AddWhitelist marks the participant as eligible, creating its record on first
// insertion. Adding an already-whitelisted participant is an error.
func (e *Engine) AddWhitelist(caller, addr crypto.Address) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	added, err := e.addWhitelisted(addr)
	if err != nil {
		return err
	}
	if !added {
		return ErrAlreadyWhitelisted
	}
	return nil
}

// BatchAddWhitelist whitelists every supplied address, silently skipping
// entries that are already eligible. The number of newly added entries is
// returned.
func (e *Engine) BatchAddWhitelist(caller crypto.Address, addrs []crypto.Address) (int, error) {
	if e == nil || e.state == nil {
		return 0, ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return 0, err
	}
	added := 0
	for _, addr := range addrs {
		ok, err := e.addWhitelisted(addr)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

func (e *Engine) addWhitelisted(addr crypto.Address) (bool, error) {
	if addr.IsZero() {
		return false, ErrInvalidParams
	}
	record, err := e.ensureParticipant(addr)
	if err != nil {
		return false, err
	}
	if record.Whitelisted {
		return false, nil
	}
	index, err := e.state.WhitelistIndex()
	if err != nil {
		return false, err
	}
	record.Whitelisted = true
	record.ListIndex = uint64(len(index))
	index = append(index, addr)
	if err := e.state.PutWhitelistIndex(index); err != nil {
		return false, err
	}
	if err := e.state.PutParticipant(addr, record); err != nil {
		return false, err
	}
	e.state.AppendEvent(newWhitelistEvent(EventTypeWhitelistAdded, addr))
	return true, nil
}

// RemoveWhitelist clears the participant's eligibility flag. The record itself
// is retained so the purchase history survives. Removal swaps the final index
// entry into the vacated slot, so enumeration order is not preserved across
// removals; callers must not rely on insertion order.
func (e *Engine) RemoveWhitelist(caller, addr crypto.Address) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	removed, err := e.removeWhitelisted(addr)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotWhitelisted
	}
	return nil
}

// BatchRemoveWhitelist removes every supplied address, skipping entries that
// are not currently eligible. The number of removed entries is returned.
func (e *Engine) BatchRemoveWhitelist(caller crypto.Address, addrs []crypto.Address) (int, error) {
	if e == nil || e.state == nil {
		return 0, ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return 0, err
	}
	removed := 0
	for _, addr := range addrs {
		ok, err := e.removeWhitelisted(addr)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

func (e *Engine) removeWhitelisted(addr crypto.Address) (bool, error) {
	record, err := e.ensureParticipant(addr)
	if err != nil {
		return false, err
	}
	if !record.Whitelisted {
		return false, nil
	}
	index, err := e.state.WhitelistIndex()
	if err != nil {
		return false, err
	}
	slot := record.ListIndex
	if slot >= uint64(len(index)) || !index[slot].Equal(addr) {
		return false, ErrInvariantViolation
	}
	last := uint64(len(index)) - 1
	if slot != last {
		moved := index[last]
		index[slot] = moved
		movedRecord, err := e.ensureParticipant(moved)
		if err != nil {
			return false, err
		}
		movedRecord.ListIndex = slot
		if err := e.state.PutParticipant(moved, movedRecord); err != nil {
			return false, err
		}
	}
	index = index[:last]
	if err := e.state.PutWhitelistIndex(index); err != nil {
		return false, err
	}
	record.Whitelisted = false
	record.ListIndex = 0
	if err := e.state.PutParticipant(addr, record); err != nil {
		return false, err
	}
	e.state.AppendEvent(newWhitelistEvent(EventTypeWhitelistRemoved, addr))
	return true, nil
}

// SetCap assigns a per-participant purchase cap. Zero lifts the cap; a
// non-zero cap below the participant's already-committed amount is rejected.
func (e *Engine) SetCap(caller, addr crypto.Address, cap *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	return e.setCap(addr, cap)
}

// BatchUpdateCap applies one cap per address; the two slices must line up.
func (e *Engine) BatchUpdateCap(caller crypto.Address, addrs []crypto.Address, caps []*big.Int) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	if len(addrs) != len(caps) {
		return ErrInvalidParams
	}
	for i, addr := range addrs {
		if err := e.setCap(addr, caps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) setCap(addr crypto.Address, cap *big.Int) error {
	if addr.IsZero() {
		return ErrInvalidParams
	}
	if cap == nil || cap.Sign() < 0 {
		return ErrInvalidParams
	}
	record, err := e.ensureParticipant(addr)
	if err != nil {
		return err
	}
	if cap.Sign() > 0 && cap.Cmp(record.Cumulative) < 0 {
		return ErrCapBelowCumulative
	}
	record.Cap = new(big.Int).Set(cap)
	if err := e.state.PutParticipant(addr, record); err != nil {
		return err
	}
	e.state.AppendEvent(newCapEvent(addr, cap))
	return nil
}

// ListWhitelist returns one page of the whitelist enumeration along with the
// total entry count. An offset at or beyond the total yields an empty page,
// not an error.
func (e *Engine) ListWhitelist(offset, limit uint64) ([]WhitelistEntry, uint64, error) {
	if e == nil || e.state == nil {
		return nil, 0, ErrNotConfigured
	}
	if err := e.guard.Check(); err != nil {
		return nil, 0, err
	}
	index, err := e.state.WhitelistIndex()
	if err != nil {
		return nil, 0, err
	}
	total := uint64(len(index))
	if offset >= total {
		return []WhitelistEntry{}, total, nil
	}
	// limit is compared against the remaining span rather than added to
	// offset, so a huge limit cannot wrap around uint64.
	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}
	entries := make([]WhitelistEntry, 0, end-offset)
	for _, addr := range index[offset:end] {
		record, err := e.ensureParticipant(addr)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, WhitelistEntry{
			Address:    addr,
			Cumulative: new(big.Int).Set(record.Cumulative),
			Cap:        new(big.Int).Set(record.Cap),
		})
	}
	return entries, total, nil
}
