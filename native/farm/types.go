package farm

import (
	"math/big"

	"launchpad/crypto"
)

// Pool carries the configuration and running accumulator for a single staking
// pool. One engine instance owns exactly one pool.
type Pool struct {
	// StakedAsset and RewardAsset identify the two token contracts. They are
	// recorded so foreign-asset recovery can refuse to touch either.
	StakedAsset crypto.Address
	RewardAsset crypto.Address
	// RewardPerBlock is the reward emission per block in reward-asset
	// smallest units.
	RewardPerBlock *big.Int
	// StartBlock is the first block eligible for accrual.
	StartBlock uint64
	// BonusEndBlock is the block at which accrual stops, exactly and never
	// beyond.
	BonusEndBlock uint64
	// UserCap optionally bounds each participant's staked amount. Zero means
	// no cap.
	UserCap *big.Int
	// PrecisionFactor scales the accumulator: 10^(30 - rewardDecimals).
	PrecisionFactor *big.Int
	// AccRewardPerShare is the running per-share reward total scaled by
	// PrecisionFactor. It never decreases.
	AccRewardPerShare *big.Int
	// LastRewardBlock is the block the accumulator was last settled at.
	LastRewardBlock uint64
	// TotalStaked equals the sum of every position's staked amount.
	TotalStaked *big.Int
	// Initialized flips once after the pre-funding check passes; a second
	// initialization attempt fails permanently.
	Initialized bool
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	if p.RewardPerBlock != nil {
		clone.RewardPerBlock = new(big.Int).Set(p.RewardPerBlock)
	}
	if p.UserCap != nil {
		clone.UserCap = new(big.Int).Set(p.UserCap)
	}
	if p.PrecisionFactor != nil {
		clone.PrecisionFactor = new(big.Int).Set(p.PrecisionFactor)
	}
	if p.AccRewardPerShare != nil {
		clone.AccRewardPerShare = new(big.Int).Set(p.AccRewardPerShare)
	}
	if p.TotalStaked != nil {
		clone.TotalStaked = new(big.Int).Set(p.TotalStaked)
	}
	return &clone
}

// UserPosition maintains one participant's stake and settled reward debt.
// Positions are created lazily on first deposit and zeroed, never deleted, on
// emergency exit.
type UserPosition struct {
	Address crypto.Address
	// StakedAmount is the participant's current stake.
	StakedAmount *big.Int
	// RewardDebt is the accumulator-scaled value already accounted for the
	// position; pending reward is staked*acc/precision minus this.
	RewardDebt *big.Int
}

// Clone returns a deep copy of the position.
func (u *UserPosition) Clone() *UserPosition {
	if u == nil {
		return nil
	}
	clone := *u
	if u.StakedAmount != nil {
		clone.StakedAmount = new(big.Int).Set(u.StakedAmount)
	}
	if u.RewardDebt != nil {
		clone.RewardDebt = new(big.Int).Set(u.RewardDebt)
	}
	return &clone
}

// InitParams configures a pool at initialization time.
type InitParams struct {
	RewardPerBlock *big.Int
	StartBlock     uint64
	BonusEndBlock  uint64
	// UserCap of zero disables the per-user deposit limit.
	UserCap *big.Int
}

// maxPrecisionExponent bounds the precision factor so accumulator products
// stay clear of overflow-prone magnitudes.
const maxPrecisionExponent = 30
