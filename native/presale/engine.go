package presale

import (
	"log/slog"
	"math/big"
	"time"

	"launchpad/core/types"
	"launchpad/crypto"
	nativecommon "launchpad/native/common"
	"launchpad/native/token"
	"launchpad/observability/metrics"
)

const moduleName = "presale"

// CapabilityAdmin gates every administrative entry point of the presale
// ledger. Self-service purchases require no capability.
const CapabilityAdmin = "presale.admin"

type engineState interface {
	SaleConfig() (*SaleConfig, error)
	PutSaleConfig(cfg *SaleConfig) error
	SaleState() (*SaleState, error)
	PutSaleState(state *SaleState) error
	Participant(addr crypto.Address) (*ParticipantRecord, error)
	PutParticipant(addr crypto.Address, record *ParticipantRecord) error
	WhitelistIndex() ([]crypto.Address, error)
	PutWhitelistIndex(index []crypto.Address) error
	AppendEvent(evt *types.Event)
}

// Engine orchestrates the presale ledger state transitions. A single engine
// instance executes serially; the entry guard protects the window between the
// eligibility check and the state commit from reentrant token callbacks.
type Engine struct {
	state         engineState
	guard         nativecommon.EntryGuard
	pauses        nativecommon.PauseView
	caps          nativecommon.CapabilityView
	saleToken     token.Token
	paymentToken  token.Token
	moduleAddress crypto.Address
	clock         func() time.Time
	logger        *slog.Logger
}

// NewEngine constructs a presale engine holding its sale-asset inventory at
// the supplied module address.
func NewEngine(moduleAddr crypto.Address) *Engine {
	return &Engine{
		moduleAddress: moduleAddr,
		clock:         time.Now,
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokens configures the sale and payment asset collaborators.
func (e *Engine) SetTokens(sale, payment token.Token) {
	if e == nil {
		return
	}
	e.saleToken = sale
	e.paymentToken = payment
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

// SetClock overrides the time source (primarily for deterministic testing).
func (e *Engine) SetClock(clock func() time.Time) {
	if e == nil || clock == nil {
		return
	}
	e.clock = clock
}

// SetLogger attaches a structured logger used for administrative audit lines.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil {
		return
	}
	e.logger = logger
}

func (e *Engine) now() uint64 {
	ts := e.clock().UTC().Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// Buy commits paymentAmount of the payment asset in exchange for sale tokens
// at the configured price. The full eligibility check runs before any external
// transfer; totals are committed before the guard releases so a reentrant call
// cannot observe stale cumulative amounts.
func (e *Engine) Buy(buyer crypto.Address, paymentAmount *big.Int) (*Receipt, error) {
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
	if paymentAmount == nil || paymentAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	cfg, err := e.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := e.ensureState()
	if err != nil {
		return nil, err
	}
	record, err := e.ensureParticipant(buyer)
	if err != nil {
		return nil, err
	}

	saleAmount, err := e.saleAmountFor(cfg, paymentAmount)
	if err != nil {
		return nil, err
	}

	requested := capModeAmount(cfg.CapMode, saleAmount, paymentAmount)
	if err := evaluateEligibility(cfg, st, record, requested, saleAmount, e.now()); err != nil {
		metrics.Presale().RecordRejection(err.Error())
		return nil, err
	}

	buyerBalance, err := e.paymentToken.BalanceOf(buyer)
	if err != nil {
		return nil, err
	}
	if buyerBalance == nil || buyerBalance.Cmp(paymentAmount) < 0 {
		return nil, ErrInsufficientBalance
	}
	inventory, err := e.saleToken.BalanceOf(e.moduleAddress)
	if err != nil {
		return nil, err
	}
	if inventory == nil || inventory.Cmp(saleAmount) < 0 {
		return nil, ErrInsufficientInventory
	}

	if err := token.Collect(e.paymentToken, buyer, st.RevenueReceiver, paymentAmount); err != nil {
		return nil, err
	}
	if err := token.Pay(e.saleToken, buyer, saleAmount); err != nil {
		return nil, err
	}

	st.TotalSold = new(big.Int).Add(st.TotalSold, saleAmount)
	if st.TotalSold.Cmp(cfg.MaxSaleAmount) > 0 {
		return nil, ErrInvariantViolation
	}
	record.Cumulative = new(big.Int).Add(record.Cumulative, requested)

	if err := e.state.PutSaleState(st); err != nil {
		return nil, err
	}
	if err := e.state.PutParticipant(buyer, record); err != nil {
		return nil, err
	}

	receipt := &Receipt{
		Participant: buyer,
		SaleAmount:  saleAmount,
		Cost:        new(big.Int).Set(paymentAmount),
	}
	e.state.AppendEvent(NewPurchasedEvent(receipt))
	metrics.Presale().RecordPurchase(saleAmount)
	return receipt, nil
}

// IsEligible evaluates the purchase predicate for the supplied payment amount
// without mutating state. The returned error names the violated rule; a nil
// error means the purchase would be admitted.
func (e *Engine) IsEligible(addr crypto.Address, paymentAmount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := e.guard.Check(); err != nil {
		return err
	}
	if paymentAmount == nil || paymentAmount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	cfg, err := e.ensureConfig()
	if err != nil {
		return err
	}
	st, err := e.ensureState()
	if err != nil {
		return err
	}
	record, err := e.ensureParticipant(addr)
	if err != nil {
		return err
	}
	saleAmount, err := e.saleAmountFor(cfg, paymentAmount)
	if err != nil {
		return err
	}
	requested := capModeAmount(cfg.CapMode, saleAmount, paymentAmount)
	return evaluateEligibility(cfg, st, record, requested, saleAmount, e.now())
}

// evaluateEligibility applies the purchase rules in their canonical order:
// window, pause, whitelist, minimum, participant cap, global cap.
func evaluateEligibility(cfg *SaleConfig, st *SaleState, record *ParticipantRecord, requested, saleAmount *big.Int, now uint64) error {
	if now < cfg.StartTime {
		return ErrSaleNotStarted
	}
	if now > cfg.EndTime {
		return ErrSaleEnded
	}
	if st.Paused {
		return ErrSalePaused
	}
	if cfg.WhitelistEnabled && !record.Whitelisted {
		return ErrNotWhitelisted
	}
	if cfg.MinPurchaseAmount != nil && requested.Cmp(cfg.MinPurchaseAmount) < 0 {
		return ErrBelowMinimum
	}
	if record.Cap != nil && record.Cap.Sign() > 0 {
		projected := new(big.Int).Add(record.Cumulative, requested)
		if projected.Cmp(record.Cap) > 0 {
			return ErrParticipantCap
		}
	}
	projectedSold := new(big.Int).Add(st.TotalSold, saleAmount)
	if projectedSold.Cmp(cfg.MaxSaleAmount) > 0 {
		return ErrSoldOut
	}
	return nil
}

// Status reports the sale lifecycle for display. Pure: two calls without an
// intervening mutation yield identical results.
func (e *Engine) Status() (*Status, error) {
	if e == nil || e.state == nil {
		return nil, ErrNotConfigured
	}
	if err := e.guard.Check(); err != nil {
		return nil, err
	}
	cfg, err := e.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := e.ensureState()
	if err != nil {
		return nil, err
	}
	now := e.now()
	status := &Status{
		IsActive:          now >= cfg.StartTime && now <= cfg.EndTime,
		IsPaused:          st.Paused,
		RemainingCapacity: new(big.Int).Sub(cfg.MaxSaleAmount, st.TotalSold),
	}
	if now < cfg.StartTime {
		status.SecondsUntilStart = cfg.StartTime - now
	}
	if now < cfg.EndTime {
		status.SecondsUntilEnd = cfg.EndTime - now
	}
	return status, nil
}

// AvailableAmount returns the unsold capacity remaining under the global cap.
func (e *Engine) AvailableAmount() (*big.Int, error) {
	status, err := e.Status()
	if err != nil {
		return nil, err
	}
	return status.RemainingCapacity, nil
}

// Participant returns a copy of the participant record, or an empty record if
// the address has never been whitelisted.
func (e *Engine) Participant(addr crypto.Address) (*ParticipantRecord, error) {
	if e == nil || e.state == nil {
		return nil, ErrNotConfigured
	}
	if err := e.guard.Check(); err != nil {
		return nil, err
	}
	record, err := e.ensureParticipant(addr)
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// --- Administrative operations ---

// UpdateSaleWindow replaces the active purchase window.
func (e *Engine) UpdateSaleWindow(caller crypto.Address, start, end uint64) error {
	return e.updateConfig(caller, "window", func(cfg *SaleConfig) error {
		if start >= end {
			return ErrInvalidParams
		}
		cfg.StartTime = start
		cfg.EndTime = end
		return nil
	})
}

// UpdatePrice replaces the sale price.
func (e *Engine) UpdatePrice(caller crypto.Address, price *big.Int) error {
	return e.updateConfig(caller, "price", func(cfg *SaleConfig) error {
		if price == nil || price.Sign() <= 0 {
			return ErrInvalidParams
		}
		cfg.PriceWei = new(big.Int).Set(price)
		return nil
	})
}

// UpdateMaxSaleAmount adjusts the global cap. Reductions below the amount
// already sold are rejected rather than clamped.
func (e *Engine) UpdateMaxSaleAmount(caller crypto.Address, max *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	if max == nil || max.Sign() <= 0 {
		return ErrInvalidParams
	}
	st, err := e.ensureState()
	if err != nil {
		return err
	}
	if max.Cmp(st.TotalSold) < 0 {
		return ErrMaxBelowSold
	}
	return e.updateConfig(caller, "maxSaleAmount", func(cfg *SaleConfig) error {
		cfg.MaxSaleAmount = new(big.Int).Set(max)
		return nil
	})
}

// UpdateMinPurchase adjusts the minimum accepted purchase amount.
func (e *Engine) UpdateMinPurchase(caller crypto.Address, min *big.Int) error {
	return e.updateConfig(caller, "minPurchaseAmount", func(cfg *SaleConfig) error {
		if min == nil || min.Sign() < 0 {
			return ErrInvalidParams
		}
		cfg.MinPurchaseAmount = new(big.Int).Set(min)
		return nil
	})
}

// SetRevenueReceiver redirects future purchase proceeds.
func (e *Engine) SetRevenueReceiver(caller, receiver crypto.Address) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	if receiver.IsZero() {
		return ErrInvalidParams
	}
	st, err := e.ensureState()
	if err != nil {
		return err
	}
	st.RevenueReceiver = receiver
	if err := e.state.PutSaleState(st); err != nil {
		return err
	}
	e.state.AppendEvent(newConfigEvent("revenueReceiver", receiver.String()))
	e.audit("presale revenue receiver updated", "receiver", receiver.String())
	return nil
}

// Pause blocks purchases. Administrative operations stay available.
func (e *Engine) Pause(caller crypto.Address) error {
	return e.setPaused(caller, true)
}

// Unpause re-enables purchases.
func (e *Engine) Unpause(caller crypto.Address) error {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller crypto.Address, paused bool) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	st, err := e.ensureState()
	if err != nil {
		return err
	}
	if st.Paused == paused {
		if paused {
			return ErrSalePaused
		}
		return ErrSaleNotPaused
	}
	st.Paused = paused
	if err := e.state.PutSaleState(st); err != nil {
		return err
	}
	e.state.AppendEvent(newPauseEvent(paused))
	e.audit("presale pause toggled", "paused", paused)
	return nil
}

// WithdrawUnsold moves unsold sale-asset inventory to the recipient once the
// sale window has closed.
func (e *Engine) WithdrawUnsold(caller, to crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	cfg, err := e.ensureConfig()
	if err != nil {
		return err
	}
	if e.now() <= cfg.EndTime {
		return ErrSaleActive
	}
	return e.withdrawInventory(caller, to, amount, false)
}

// PrematureWithdraw moves unsold inventory while the sale is paused. This is a
// deliberate emergency-liquidity escape hatch: it bypasses the end-of-sale
// gate but only ever touches unsold balance, so sold inventory is never
// double-counted.
func (e *Engine) PrematureWithdraw(caller, to crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	st, err := e.ensureState()
	if err != nil {
		return err
	}
	if !st.Paused {
		return ErrSaleNotPaused
	}
	return e.withdrawInventory(caller, to, amount, true)
}

func (e *Engine) withdrawInventory(caller, to crypto.Address, amount *big.Int, premature bool) error {
	release, err := e.guard.Enter()
	if err != nil {
		return err
	}
	defer release()
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidParams
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	inventory, err := e.saleToken.BalanceOf(e.moduleAddress)
	if err != nil {
		return err
	}
	if inventory == nil || inventory.Cmp(amount) < 0 {
		return ErrInsufficientInventory
	}
	if err := token.Pay(e.saleToken, to, amount); err != nil {
		return err
	}
	e.state.AppendEvent(newInventoryEvent(to, amount, premature))
	e.audit("presale inventory withdrawn", "to", to.String(), "amount", amount.String(), "premature", premature)
	return nil
}

func (e *Engine) updateConfig(caller crypto.Address, field string, mutate func(cfg *SaleConfig) error) error {
	if e == nil || e.state == nil {
		return ErrNotConfigured
	}
	if err := nativecommon.Authorize(e.caps, caller, CapabilityAdmin); err != nil {
		return err
	}
	cfg, err := e.ensureConfig()
	if err != nil {
		return err
	}
	if err := mutate(cfg); err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if err := e.state.PutSaleConfig(cfg); err != nil {
		return err
	}
	e.state.AppendEvent(newConfigEvent(field, ""))
	e.audit("presale config updated", "field", field)
	return nil
}

func validateConfig(cfg *SaleConfig) error {
	if cfg == nil {
		return ErrInvalidParams
	}
	if cfg.PriceWei == nil || cfg.PriceWei.Sign() <= 0 {
		return ErrInvalidParams
	}
	if cfg.StartTime >= cfg.EndTime {
		return ErrInvalidParams
	}
	if cfg.MaxSaleAmount == nil || cfg.MaxSaleAmount.Sign() <= 0 {
		return ErrInvalidParams
	}
	if cfg.MinPurchaseAmount != nil && cfg.MinPurchaseAmount.Sign() < 0 {
		return ErrInvalidParams
	}
	return nil
}

// --- State normalizers ---

func (e *Engine) ensureConfig() (*SaleConfig, error) {
	cfg, err := e.state.SaleConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrNotConfigured
	}
	if cfg.PriceWei == nil {
		cfg.PriceWei = big.NewInt(0)
	}
	if cfg.MaxSaleAmount == nil {
		cfg.MaxSaleAmount = big.NewInt(0)
	}
	if cfg.MinPurchaseAmount == nil {
		cfg.MinPurchaseAmount = big.NewInt(0)
	}
	return cfg, nil
}

func (e *Engine) ensureState() (*SaleState, error) {
	st, err := e.state.SaleState()
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = &SaleState{}
	}
	if st.TotalSold == nil {
		st.TotalSold = big.NewInt(0)
	}
	return st, nil
}

func (e *Engine) ensureParticipant(addr crypto.Address) (*ParticipantRecord, error) {
	record, err := e.state.Participant(addr)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &ParticipantRecord{Address: addr}
	}
	if record.Cumulative == nil {
		record.Cumulative = big.NewInt(0)
	}
	if record.Cap == nil {
		record.Cap = big.NewInt(0)
	}
	return record, nil
}

func (e *Engine) audit(msg string, args ...any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Info(msg, args...)
}
