package farm

import "errors"

var (
	ErrNotConfigured       = errors.New("farm: engine not configured")
	ErrInvalidParams       = errors.New("farm: invalid parameters")
	ErrInvalidAmount       = errors.New("farm: amount must not be negative")
	ErrNotInitialized      = errors.New("farm: pool not initialized")
	ErrAlreadyInitialized  = errors.New("farm: pool already initialized")
	ErrPrecisionTooLarge   = errors.New("farm: reward decimals exceed precision bound")
	ErrInsufficientFunding = errors.New("farm: reward budget not escrowed")
	ErrInsufficientBalance = errors.New("farm: staked asset balance too low")
	ErrInsufficientStake   = errors.New("farm: withdraw amount exceeds staked balance")
	ErrUserCapExceeded     = errors.New("farm: user deposit cap exceeded")
	ErrNoUserCap           = errors.New("farm: pool has no user cap to adjust")
	ErrCapNotRelaxed       = errors.New("farm: user cap may only be relaxed")
	ErrPoolStarted         = errors.New("farm: pool already started")
	ErrStartNotFuture      = errors.New("farm: new start block must be in the future")
	ErrNothingStaked       = errors.New("farm: nothing staked")
	ErrProtectedAsset      = errors.New("farm: cannot recover staked or reward asset")
	ErrInvariantViolation  = errors.New("farm: negative pending reward")
)
