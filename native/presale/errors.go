package presale

import "errors"

var (
	ErrNotConfigured         = errors.New("presale: engine not configured")
	ErrInvalidParams         = errors.New("presale: invalid parameters")
	ErrInvalidAmount         = errors.New("presale: amount must be positive")
	ErrSaleNotStarted        = errors.New("presale: sale not started")
	ErrSaleEnded             = errors.New("presale: sale ended")
	ErrSalePaused            = errors.New("presale: sale paused")
	ErrSaleNotPaused         = errors.New("presale: sale not paused")
	ErrSaleActive            = errors.New("presale: sale still active")
	ErrNotWhitelisted        = errors.New("presale: participant not whitelisted")
	ErrAlreadyWhitelisted    = errors.New("presale: participant already whitelisted")
	ErrBelowMinimum          = errors.New("presale: amount below minimum purchase")
	ErrParticipantCap        = errors.New("presale: participant cap exceeded")
	ErrSoldOut               = errors.New("presale: sale capacity exceeded")
	ErrInsufficientBalance   = errors.New("presale: insufficient payment balance")
	ErrInsufficientInventory = errors.New("presale: insufficient sale inventory")
	ErrCapBelowCumulative    = errors.New("presale: cap below committed amount")
	ErrMaxBelowSold          = errors.New("presale: max sale amount below total sold")
	ErrInvariantViolation    = errors.New("presale: accounting invariant violated")
)
