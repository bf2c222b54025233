package farm

import (
	"log/slog"
	"math/big"

	"launchpad/core/types"
	"launchpad/crypto"
	nativecommon "launchpad/native/common"
	"launchpad/native/token"
	"launchpad/observability/metrics"
)

const moduleName = "farm"

// CapabilityAdmin gates the administrative entry points of the farm engine.
// Deposits, withdrawals and emergency exits are self-service.
const CapabilityAdmin = "farm.admin"

type engineState interface {
	Pool() (*Pool, error)
	PutPool(pool *Pool) error
	Position(addr crypto.Address) (*UserPosition, error)
	PutPosition(addr crypto.Address, position *UserPosition) error
	AppendEvent(evt *types.Event)
}

// Engine drives a single staking pool: accumulator settlement, deposits,
// withdrawals and reward payouts. Instances execute serially; the entry guard
// covers the external token calls so reentrant callbacks cannot observe a
// half-applied position.
type Engine struct {
	state         engineState
	guard         nativecommon.EntryGuard
	pauses        nativecommon.PauseView
	caps          nativecommon.CapabilityView
	stakedToken   token.Token
	rewardToken   token.Token
	moduleAddress crypto.Address
	blockHeight   uint64
	logger        *slog.Logger
}

// NewEngine constructs a farm engine holding pool funds at the supplied module
// address.
func NewEngine(moduleAddr crypto.Address) *Engine {
	return &Engine{moduleAddress: moduleAddr}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokens configures the staked and reward asset collaborators.
func (e *Engine) SetTokens(staked, reward token.Token) {
	if e == nil {
		return
	}
	e.stakedToken = staked
	e.rewardToken = reward
}

// SetPauses wires the module-level pause view.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetCapabilities wires the authorization collaborator consulted on
// administrative entry points.
func (e *Engine) SetCapabilities(view nativecommon.CapabilityView) {
	if e == nil {
		return
	}
	e.caps = view
}

// SetBlockHeight records the block height used for accrual deltas.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil {
		return
	}
	e.blockHeight = height
}

// SetLogger attaches a structured logger used for administrative audit lines.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil {
		return
	}
	e.logger = logger
}

// Initialize activates the pool. It is one-shot: a pool that has already been
// initialized rejects every further attempt. The caller must have escrowed the
// total reward budget for the configured block range into the pool address
// beforehand; the shortfall check is an invariant of the accrual math, not a
// convenience.
func (e *Engine) Initialize(caller crypto.Address, stakedAsset, rewardAsset crypto.Address, params InitParams) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	pool, err := e.state.Pool()
	if err != nil {
		return err
	}
	if pool != nil && pool.Initialized {
		return ErrAlreadyInitialized
	}
	if params.RewardPerBlock == nil || params.RewardPerBlock.Sign() <= 0 {
		return ErrInvalidParams
	}
	if params.StartBlock >= params.BonusEndBlock {
		return ErrInvalidParams
	}
	if params.StartBlock <= e.blockHeight {
		return ErrStartNotFuture
	}
	if params.UserCap != nil && params.UserCap.Sign() < 0 {
		return ErrInvalidParams
	}
	if e.rewardToken == nil || e.stakedToken == nil {
		return ErrNotConfigured
	}

	rewardDecimals, err := e.rewardToken.Decimals()
	if err != nil {
		return err
	}
	if uint(rewardDecimals) >= maxPrecisionExponent {
		return ErrPrecisionTooLarge
	}
	precision := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(maxPrecisionExponent-uint(rewardDecimals))), nil)

	blocks := new(big.Int).SetUint64(params.BonusEndBlock - params.StartBlock)
	budget := new(big.Int).Mul(blocks, params.RewardPerBlock)
	escrowed, err := e.rewardToken.BalanceOf(e.moduleAddress)
	if err != nil {
		return err
	}
	if escrowed == nil || escrowed.Cmp(budget) < 0 {
		return ErrInsufficientFunding
	}

	userCap := big.NewInt(0)
	if params.UserCap != nil {
		userCap = new(big.Int).Set(params.UserCap)
	}
	pool = &Pool{
		StakedAsset:       stakedAsset,
		RewardAsset:       rewardAsset,
		RewardPerBlock:    new(big.Int).Set(params.RewardPerBlock),
		StartBlock:        params.StartBlock,
		BonusEndBlock:     params.BonusEndBlock,
		UserCap:           userCap,
		PrecisionFactor:   precision,
		AccRewardPerShare: big.NewInt(0),
		LastRewardBlock:   params.StartBlock,
		TotalStaked:       big.NewInt(0),
		Initialized:       true,
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.state.AppendEvent(newInitializedEvent(pool))
	e.audit("farm pool initialized",
		"rewardPerBlock", pool.RewardPerBlock.String(),
		"startBlock", pool.StartBlock,
		"bonusEndBlock", pool.BonusEndBlock)
	return nil
}

// settle folds the blocks elapsed since the last settlement into the
// accumulator. Idle pools advance the settlement cursor without accruing:
// spans with no stakers mint no backlog.
func (e *Engine) settle(pool *Pool) {
	if e.blockHeight <= pool.LastRewardBlock {
		return
	}
	if pool.TotalStaked.Sign() == 0 {
		pool.LastRewardBlock = e.blockHeight
		return
	}
	multiplier := multiplierFor(pool.LastRewardBlock, e.blockHeight, pool.BonusEndBlock)
	if multiplier > 0 {
		reward := new(big.Int).Mul(new(big.Int).SetUint64(multiplier), pool.RewardPerBlock)
		delta := new(big.Int).Mul(reward, pool.PrecisionFactor)
		delta.Quo(delta, pool.TotalStaked)
		pool.AccRewardPerShare = new(big.Int).Add(pool.AccRewardPerShare, delta)
	}
	pool.LastRewardBlock = e.blockHeight
}

// multiplierFor returns the reward-bearing block span between from and to,
// clipped so accrual stops exactly at bonusEnd.
func multiplierFor(from, to, bonusEnd uint64) uint64 {
	if to <= bonusEnd {
		return to - from
	}
	if from >= bonusEnd {
		return 0
	}
	return bonusEnd - from
}

// pendingFor derives the reward owed to a position against the current
// accumulator. A negative result indicates a settlement-ordering bug and
// halts the operation instead of clamping.
func pendingFor(pool *Pool, position *UserPosition) (*big.Int, error) {
	accrued := new(big.Int).Mul(position.StakedAmount, pool.AccRewardPerShare)
	accrued.Quo(accrued, pool.PrecisionFactor)
	pending := accrued.Sub(accrued, position.RewardDebt)
	if pending.Sign() < 0 {
		return nil, ErrInvariantViolation
	}
	return pending, nil
}

func settleDebt(pool *Pool, position *UserPosition) {
	debt := new(big.Int).Mul(position.StakedAmount, pool.AccRewardPerShare)
	debt.Quo(debt, pool.PrecisionFactor)
	position.RewardDebt = debt
}

// Deposit stakes amount for the user, paying out any pending reward first. A
// zero amount is a pure harvest. The reward debt is recomputed from the
// post-increase stake so future pending computations start from the new
// baseline.
func (e *Engine) Deposit(user crypto.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNotConfigured
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	position, err := e.ensurePosition(user)
	if err != nil {
		return nil, err
	}

	if amount.Sign() > 0 {
		if pool.UserCap.Sign() > 0 {
			projected := new(big.Int).Add(position.StakedAmount, amount)
			if projected.Cmp(pool.UserCap) > 0 {
				return nil, ErrUserCapExceeded
			}
		}
		// The stake pull runs after the reward payout and cannot be unwound,
		// so the balance is verified before either transfer happens.
		balance, err := e.stakedToken.BalanceOf(user)
		if err != nil {
			return nil, err
		}
		if balance == nil || balance.Cmp(amount) < 0 {
			return nil, ErrInsufficientBalance
		}
	}

	e.settle(pool)

	pending, err := pendingFor(pool, position)
	if err != nil {
		return nil, err
	}
	if pending.Sign() > 0 {
		if err := token.Pay(e.rewardToken, user, pending); err != nil {
			return nil, err
		}
		metrics.Farm().RecordHarvest()
	}

	if amount.Sign() > 0 {
		if err := token.Collect(e.stakedToken, user, e.moduleAddress, amount); err != nil {
			return nil, err
		}
		position.StakedAmount = new(big.Int).Add(position.StakedAmount, amount)
		pool.TotalStaked = new(big.Int).Add(pool.TotalStaked, amount)
	}

	settleDebt(pool, position)

	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(user, position); err != nil {
		return nil, err
	}
	e.state.AppendEvent(newMutationEvent(EventTypeDeposited, user, amount, pending))
	metrics.Farm().RecordDeposit(pool.TotalStaked)
	return pending, nil
}

// Withdraw unstakes amount for the user, paying out any pending reward first.
func (e *Engine) Withdraw(user crypto.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNotConfigured
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	position, err := e.ensurePosition(user)
	if err != nil {
		return nil, err
	}
	if position.StakedAmount.Cmp(amount) < 0 {
		return nil, ErrInsufficientStake
	}

	e.settle(pool)

	pending, err := pendingFor(pool, position)
	if err != nil {
		return nil, err
	}
	if pending.Sign() > 0 {
		if err := token.Pay(e.rewardToken, user, pending); err != nil {
			return nil, err
		}
		metrics.Farm().RecordHarvest()
	}

	if amount.Sign() > 0 {
		position.StakedAmount = new(big.Int).Sub(position.StakedAmount, amount)
		pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, amount)
		if err := token.Pay(e.stakedToken, user, amount); err != nil {
			return nil, err
		}
	}

	settleDebt(pool, position)

	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(user, position); err != nil {
		return nil, err
	}
	e.state.AppendEvent(newMutationEvent(EventTypeWithdrawn, user, amount, pending))
	metrics.Farm().RecordWithdraw(pool.TotalStaked)
	return pending, nil
}

// EmergencyWithdraw returns the user's full stake without touching the reward
// math. Any pending reward is forfeited; the position is zeroed
// unconditionally. Capital return takes priority over accounting here.
func (e *Engine) EmergencyWithdraw(user crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNotConfigured
	}
	release, err := e.guard.Enter()
	if err != nil {
		return nil, err
	}
	defer release()

	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	position, err := e.ensurePosition(user)
	if err != nil {
		return nil, err
	}
	if position.StakedAmount.Sign() == 0 {
		return nil, ErrNothingStaked
	}

	amount := new(big.Int).Set(position.StakedAmount)
	// The refund transfer runs before any state write; a failed transfer must
	// leave the position intact, and the held guard keeps the callback window
	// free of reentrant mutations.
	if err := token.Pay(e.stakedToken, user, amount); err != nil {
		return nil, err
	}
	position.StakedAmount = big.NewInt(0)
	position.RewardDebt = big.NewInt(0)
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, amount)

	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(user, position); err != nil {
		return nil, err
	}
	e.state.AppendEvent(newMutationEvent(EventTypeEmergencyWithdraw, user, amount, nil))
	metrics.Farm().RecordEmergencyWithdraw(pool.TotalStaked)
	return amount, nil
}

// PendingReward replicates the settlement math against a hypothetical
// settle-now without mutating state. It returns exactly the number the next
// mutating call would realize.
func (e *Engine) PendingReward(addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNotConfigured
	}
	if err := e.guard.Check(); err != nil {
		return nil, err
	}
	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	position, err := e.ensurePosition(addr)
	if err != nil {
		return nil, err
	}
	acc := new(big.Int).Set(pool.AccRewardPerShare)
	if e.blockHeight > pool.LastRewardBlock && pool.TotalStaked.Sign() > 0 {
		multiplier := multiplierFor(pool.LastRewardBlock, e.blockHeight, pool.BonusEndBlock)
		if multiplier > 0 {
			reward := new(big.Int).Mul(new(big.Int).SetUint64(multiplier), pool.RewardPerBlock)
			delta := new(big.Int).Mul(reward, pool.PrecisionFactor)
			delta.Quo(delta, pool.TotalStaked)
			acc.Add(acc, delta)
		}
	}
	accrued := new(big.Int).Mul(position.StakedAmount, acc)
	accrued.Quo(accrued, pool.PrecisionFactor)
	pending := accrued.Sub(accrued, position.RewardDebt)
	if pending.Sign() < 0 {
		return nil, ErrInvariantViolation
	}
	return pending, nil
}

// Position returns a copy of the user's position, or an empty position if the
// address has never deposited.
func (e *Engine) Position(addr crypto.Address) (*UserPosition, error) {
	if e == nil || e.state == nil {
		return nil, ErrNotConfigured
	}
	if err := e.guard.Check(); err != nil {
		return nil, err
	}
	position, err := e.ensurePosition(addr)
	if err != nil {
		return nil, err
	}
	return position.Clone(), nil
}

// PoolInfo returns a copy of the pool configuration and accumulator.
func (e *Engine) PoolInfo() (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNotConfigured
	}
	if err := e.guard.Check(); err != nil {
		return nil, err
	}
	pool, err := e.ensurePool()
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// --- Administrative operations ---

// StopRewards freezes future accrual by pinning the bonus end to the current
// block. Already-settled rewards stay claimable.
func (e *Engine) StopRewards(caller crypto.Address) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	e.settle(pool)
	pool.BonusEndBlock = e.blockHeight
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.state.AppendEvent(newRewardsStoppedEvent(pool.BonusEndBlock))
	e.audit("farm rewards stopped", "bonusEndBlock", pool.BonusEndBlock)
	return nil
}

// UpdateRewardRate changes the per-block emission. Only allowed before the
// pool has started accruing.
func (e *Engine) UpdateRewardRate(caller crypto.Address, rewardPerBlock *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	if rewardPerBlock == nil || rewardPerBlock.Sign() <= 0 {
		return ErrInvalidParams
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if e.blockHeight >= pool.StartBlock {
		return ErrPoolStarted
	}
	pool.RewardPerBlock = new(big.Int).Set(rewardPerBlock)
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.state.AppendEvent(newConfigEvent("rewardPerBlock", rewardPerBlock.String()))
	e.audit("farm reward rate updated", "rewardPerBlock", rewardPerBlock.String())
	return nil
}

// UpdateBlockWindow moves the accrual window. Only allowed before the pool has
// started, and the new start must itself be in the future.
func (e *Engine) UpdateBlockWindow(caller crypto.Address, startBlock, bonusEndBlock uint64) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	if startBlock >= bonusEndBlock {
		return ErrInvalidParams
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if e.blockHeight >= pool.StartBlock {
		return ErrPoolStarted
	}
	if startBlock <= e.blockHeight {
		return ErrStartNotFuture
	}
	pool.StartBlock = startBlock
	pool.BonusEndBlock = bonusEndBlock
	pool.LastRewardBlock = startBlock
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.state.AppendEvent(newConfigEvent("blockWindow", ""))
	e.audit("farm block window updated", "startBlock", startBlock, "bonusEndBlock", bonusEndBlock)
	return nil
}

// UpdateUserCap relaxes or lifts the per-user deposit cap. Caps only ever move
// upward: tightening below existing exposure is rejected, and a lifted cap
// cannot be re-imposed.
func (e *Engine) UpdateUserCap(caller crypto.Address, cap *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	if cap == nil || cap.Sign() < 0 {
		return ErrInvalidParams
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if pool.UserCap.Sign() == 0 {
		return ErrNoUserCap
	}
	if cap.Sign() > 0 && cap.Cmp(pool.UserCap) < 0 {
		return ErrCapNotRelaxed
	}
	pool.UserCap = new(big.Int).Set(cap)
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.state.AppendEvent(newUserCapEvent(cap))
	e.audit("farm user cap updated", "userCap", cap.String())
	return nil
}

// RecoverForeignAsset returns tokens mistakenly sent to the pool. The staked
// and reward assets are explicitly protected so this can never drain user
// funds or the reward budget.
func (e *Engine) RecoverForeignAsset(caller crypto.Address, asset crypto.Address, assetToken token.Token, to crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	release, err := e.guard.Enter()
	if err != nil {
		return err
	}
	defer release()
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	if to.IsZero() || amount == nil || amount.Sign() <= 0 {
		return ErrInvalidParams
	}
	pool, err := e.ensurePool()
	if err != nil {
		return err
	}
	if asset.Equal(pool.StakedAsset) || asset.Equal(pool.RewardAsset) {
		return ErrProtectedAsset
	}
	if err := token.Pay(assetToken, to, amount); err != nil {
		return err
	}
	e.state.AppendEvent(newAssetRecoveredEvent(asset, to, amount))
	e.audit("farm foreign asset recovered", "asset", asset.String(), "amount", amount.String())
	return nil
}

// --- State normalizers ---

func (e *Engine) ensurePool() (*Pool, error) {
	pool, err := e.state.Pool()
	if err != nil {
		return nil, err
	}
	if pool == nil || !pool.Initialized {
		return nil, ErrNotInitialized
	}
	if pool.RewardPerBlock == nil {
		pool.RewardPerBlock = big.NewInt(0)
	}
	if pool.UserCap == nil {
		pool.UserCap = big.NewInt(0)
	}
	if pool.PrecisionFactor == nil || pool.PrecisionFactor.Sign() == 0 {
		pool.PrecisionFactor = big.NewInt(1)
	}
	if pool.AccRewardPerShare == nil {
		pool.AccRewardPerShare = big.NewInt(0)
	}
	if pool.TotalStaked == nil {
		pool.TotalStaked = big.NewInt(0)
	}
	return pool, nil
}

func (e *Engine) ensurePosition(addr crypto.Address) (*UserPosition, error) {
	position, err := e.state.Position(addr)
	if err != nil {
		return nil, err
	}
	if position == nil {
		position = &UserPosition{Address: addr}
	}
	if position.StakedAmount == nil {
		position.StakedAmount = big.NewInt(0)
	}
	if position.RewardDebt == nil {
		position.RewardDebt = big.NewInt(0)
	}
	return position, nil
}

func (e *Engine) audit(msg string, args ...any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Info(msg, args...)
}
