package farm

import (
	"errors"
	"testing"

	"launchpad/crypto"
	nativecommon "launchpad/native/common"
)

type mockProvider struct {
	states map[string]*mockEngineState
}

func newMockProvider() *mockProvider {
	return &mockProvider{states: make(map[string]*mockEngineState)}
}

func (p *mockProvider) PoolState(poolAddr crypto.Address) (EngineState, error) {
	key := string(poolAddr.Bytes())
	if _, ok := p.states[key]; !ok {
		p.states[key] = newMockEngineState()
	}
	return p.states[key], nil
}

func TestFactoryCreatePool(t *testing.T) {
	admin := makeAddress(0x01)
	provider := newMockProvider()
	factory := NewFactory(provider)
	factory.SetCapabilities(&mockCaps{admin: admin})

	poolAddr := makeAddress(0x20)
	staked := newMockToken(18, poolAddr)
	reward := newMockToken(18, poolAddr)

	if _, err := factory.CreatePool(makeAddress(0x99), poolAddr, staked, reward); !errors.Is(err, nativecommon.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := factory.CreatePool(admin, crypto.Address{}, staked, reward); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for zero address, got %v", err)
	}

	engine, err := factory.CreatePool(admin, poolAddr, staked, reward)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if _, err := factory.CreatePool(admin, poolAddr, staked, reward); !errors.Is(err, ErrPoolExists) {
		t.Fatalf("expected ErrPoolExists, got %v", err)
	}

	// The deployed engine is inert until initialized.
	if _, err := engine.Deposit(makeAddress(0x21), units(1, 18)); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}

	// Fund the pool address and activate.
	reward.mint(poolAddr, units(1000, 18))
	params := InitParams{RewardPerBlock: units(10, 18), StartBlock: 10, BonusEndBlock: 110}
	if err := engine.Initialize(admin, makeAddress(0x22), makeAddress(0x23), params); err != nil {
		t.Fatalf("initialize deployed pool: %v", err)
	}

	// Pools at distinct addresses are isolated.
	otherAddr := makeAddress(0x30)
	other, err := factory.CreatePool(admin, otherAddr, newMockToken(18, otherAddr), newMockToken(18, otherAddr))
	if err != nil {
		t.Fatalf("create second pool: %v", err)
	}
	if _, err := other.PoolInfo(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("second pool should be uninitialized, got %v", err)
	}
	info, err := engine.PoolInfo()
	if err != nil {
		t.Fatalf("first pool info: %v", err)
	}
	if !info.Initialized || info.StartBlock != 10 {
		t.Fatalf("first pool state: %+v", info)
	}
}

func TestFactoryNotConfigured(t *testing.T) {
	var factory *Factory
	if _, err := factory.CreatePool(makeAddress(0x01), makeAddress(0x02), nil, nil); !errors.Is(err, ErrFactoryNotConfigured) {
		t.Fatalf("expected ErrFactoryNotConfigured, got %v", err)
	}
}
