package farm

import (
	"errors"
	"log/slog"

	"launchpad/crypto"
	nativecommon "launchpad/native/common"
	"launchpad/native/token"
	"launchpad/observability/metrics"
)

var (
	ErrFactoryNotConfigured = errors.New("farm: factory not configured")
	ErrPoolExists           = errors.New("farm: pool address already in use")
)

// CapabilityDeploy gates pool creation through the factory.
const CapabilityDeploy = "farm.deploy"

// StateProvider hands the factory a fresh persistence binding for each pool
// address it deploys.
type StateProvider interface {
	PoolState(poolAddr crypto.Address) (EngineState, error)
}

// EngineState re-exports the engine's persistence contract so state providers
// outside the package can implement it.
type EngineState = engineState

// Factory deploys fresh pool instances. Deployment and initialization are
// separate steps: the deployer funds the new pool address with the full reward
// budget between the two, and Initialize verifies the escrow before
// activating.
type Factory struct {
	provider StateProvider
	caps     nativecommon.CapabilityView
	logger   *slog.Logger
	deployed map[string]bool
}

// NewFactory constructs a factory backed by the supplied state provider.
func NewFactory(provider StateProvider) *Factory {
	return &Factory{
		provider: provider,
		deployed: make(map[string]bool),
	}
}

// SetCapabilities wires the authorization collaborator.
func (f *Factory) SetCapabilities(view nativecommon.CapabilityView) {
	if f == nil {
		return
	}
	f.caps = view
}

// SetLogger attaches a structured logger for deployment audit lines.
func (f *Factory) SetLogger(logger *slog.Logger) {
	if f == nil {
		return
	}
	f.logger = logger
}

// CreatePool deploys a fresh, uninitialized pool engine at poolAddr wired to
// the supplied token collaborators. The returned engine rejects every mutation
// until Initialize has verified the escrowed reward budget.
func (f *Factory) CreatePool(caller, poolAddr crypto.Address, staked, reward token.Token) (*Engine, error) {
	if f == nil || f.provider == nil {
		return nil, ErrFactoryNotConfigured
	}
	if err := nativecommon.Authorize(f.caps, caller, CapabilityDeploy); err != nil {
		return nil, err
	}
	if poolAddr.IsZero() || staked == nil || reward == nil {
		return nil, ErrInvalidParams
	}
	key := string(poolAddr.Bytes())
	if f.deployed[key] {
		return nil, ErrPoolExists
	}
	state, err := f.provider.PoolState(poolAddr)
	if err != nil {
		return nil, err
	}
	engine := NewEngine(poolAddr)
	engine.SetState(state)
	engine.SetTokens(staked, reward)
	engine.SetCapabilities(f.caps)
	engine.SetLogger(f.logger)
	f.deployed[key] = true
	metrics.Farm().RecordPoolCreated()
	if f.logger != nil {
		f.logger.Info("farm pool created", "pool", poolAddr.String())
	}
	return engine, nil
}
