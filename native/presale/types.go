package presale

import (
	"math/big"

	"launchpad/crypto"
)

// CapMode selects the unit in which the minimum purchase, per-participant caps
// and cumulative purchase tracking are denominated. The two modes are policy
// variants of the same eligibility shape, so they share one implementation.
type CapMode uint8

const (
	// CapSaleUnits denominates caps and cumulative tracking in sale-asset
	// smallest units.
	CapSaleUnits CapMode = iota
	// CapPaymentUnits denominates caps and cumulative tracking in
	// payment-asset smallest units.
	CapPaymentUnits
)

// SaleConfig captures the administrator-controlled parameters of the sale.
type SaleConfig struct {
	// PriceWei is the payment-asset cost of one whole sale token, expressed
	// in payment-asset smallest units.
	PriceWei *big.Int
	// StartTime and EndTime bound the active purchase window (unix seconds,
	// inclusive on both ends).
	StartTime uint64
	EndTime   uint64
	// MaxSaleAmount caps the total sale-asset amount distributed.
	MaxSaleAmount *big.Int
	// MinPurchaseAmount is the smallest accepted purchase, denominated per
	// CapMode.
	MinPurchaseAmount *big.Int
	// WhitelistEnabled gates purchases on participant eligibility flags.
	WhitelistEnabled bool
	// CapMode selects the denomination of caps and cumulative tracking.
	CapMode CapMode
}

// Clone returns a deep copy so callers cannot mutate shared big.Int pointers.
func (c *SaleConfig) Clone() *SaleConfig {
	if c == nil {
		return nil
	}
	clone := *c
	if c.PriceWei != nil {
		clone.PriceWei = new(big.Int).Set(c.PriceWei)
	}
	if c.MaxSaleAmount != nil {
		clone.MaxSaleAmount = new(big.Int).Set(c.MaxSaleAmount)
	}
	if c.MinPurchaseAmount != nil {
		clone.MinPurchaseAmount = new(big.Int).Set(c.MinPurchaseAmount)
	}
	return &clone
}

// SaleState holds the mutable global accounting for the sale.
type SaleState struct {
	// TotalSold is the cumulative sale-asset amount distributed. It never
	// decreases while the sale is active.
	TotalSold *big.Int
	// Paused blocks purchases without affecting administrative operations.
	Paused bool
	// RevenueReceiver collects the payment asset from purchases.
	RevenueReceiver crypto.Address
}

// ParticipantRecord tracks an individual participant. Records are created on
// first whitelist insertion and never physically deleted; removal only clears
// the eligibility flag so the purchase history survives for auditing.
type ParticipantRecord struct {
	Address crypto.Address
	// Cumulative is the total purchased so far, denominated per CapMode.
	Cumulative *big.Int
	// Cap is the optional per-participant limit, denominated per CapMode.
	// Zero means unlimited.
	Cap *big.Int
	// Whitelisted marks current eligibility.
	Whitelisted bool
	// ListIndex is the record's position in the whitelist enumeration index.
	// It is only meaningful while Whitelisted is true.
	ListIndex uint64
}

// Clone returns a deep copy of the record.
func (r *ParticipantRecord) Clone() *ParticipantRecord {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Cumulative != nil {
		clone.Cumulative = new(big.Int).Set(r.Cumulative)
	}
	if r.Cap != nil {
		clone.Cap = new(big.Int).Set(r.Cap)
	}
	return &clone
}

// Status summarises the sale for read-only queries.
type Status struct {
	IsActive          bool
	IsPaused          bool
	RemainingCapacity *big.Int
	SecondsUntilStart uint64
	SecondsUntilEnd   uint64
}

// WhitelistEntry is a single row of the paginated whitelist listing.
type WhitelistEntry struct {
	Address    crypto.Address
	Cumulative *big.Int
	Cap        *big.Int
}

// Receipt reports a completed purchase back to the caller.
type Receipt struct {
	Participant crypto.Address
	SaleAmount  *big.Int
	Cost        *big.Int
}
