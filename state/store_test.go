package state

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"launchpad/crypto"
	"launchpad/native/farm"
	"launchpad/native/presale"
	"launchpad/storage"
)

func testAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.LPDPrefix, raw)
}

func TestStoreSaleRoundTrip(t *testing.T) {
	store := NewStore(storage.NewMemDB(), "launchpad")

	cfg, err := store.SaleConfig()
	require.NoError(t, err)
	require.Nil(t, cfg, "missing config reads as nil, not an error")

	written := &presale.SaleConfig{
		PriceWei:          big.NewInt(1_000_000),
		StartTime:         100,
		EndTime:           200,
		MaxSaleAmount:     big.NewInt(5_000_000),
		MinPurchaseAmount: big.NewInt(10),
		WhitelistEnabled:  true,
		CapMode:           presale.CapPaymentUnits,
	}
	require.NoError(t, store.PutSaleConfig(written))

	cfg, err = store.SaleConfig()
	require.NoError(t, err)
	require.Equal(t, written.PriceWei, cfg.PriceWei)
	require.Equal(t, written.StartTime, cfg.StartTime)
	require.Equal(t, written.EndTime, cfg.EndTime)
	require.True(t, cfg.WhitelistEnabled)
	require.Equal(t, presale.CapPaymentUnits, cfg.CapMode)

	receiver := testAddress(0x07)
	require.NoError(t, store.PutSaleState(&presale.SaleState{
		TotalSold:       big.NewInt(42),
		Paused:          true,
		RevenueReceiver: receiver,
	}))
	st, err := store.SaleState()
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), st.TotalSold)
	require.True(t, st.Paused)
	require.True(t, st.RevenueReceiver.Equal(receiver))
}

func TestStoreParticipantAndWhitelist(t *testing.T) {
	store := NewStore(storage.NewMemDB(), "launchpad")
	addr := testAddress(0x09)

	record, err := store.Participant(addr)
	require.NoError(t, err)
	require.Nil(t, record)

	require.NoError(t, store.PutParticipant(addr, &presale.ParticipantRecord{
		Address:     addr,
		Cumulative:  big.NewInt(77),
		Cap:         big.NewInt(0),
		Whitelisted: true,
		ListIndex:   3,
	}))
	record, err = store.Participant(addr)
	require.NoError(t, err)
	require.True(t, record.Address.Equal(addr))
	require.Equal(t, big.NewInt(77), record.Cumulative)
	require.True(t, record.Whitelisted)
	require.EqualValues(t, 3, record.ListIndex)

	index := []crypto.Address{testAddress(0x0a), testAddress(0x0b)}
	require.NoError(t, store.PutWhitelistIndex(index))
	got, err := store.WhitelistIndex()
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, got[0].Equal(index[0]))
	require.True(t, got[1].Equal(index[1]))
}

func TestStorePoolRoundTrip(t *testing.T) {
	store := NewStore(storage.NewMemDB(), "launchpad")

	pool, err := store.Pool()
	require.NoError(t, err)
	require.Nil(t, pool)

	written := &farm.Pool{
		StakedAsset:       testAddress(0x01),
		RewardAsset:       testAddress(0x02),
		RewardPerBlock:    big.NewInt(1000),
		StartBlock:        50,
		BonusEndBlock:     150,
		UserCap:           big.NewInt(0),
		PrecisionFactor:   new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil),
		AccRewardPerShare: big.NewInt(123456),
		LastRewardBlock:   77,
		TotalStaked:       big.NewInt(9999),
		Initialized:       true,
	}
	require.NoError(t, store.PutPool(written))

	pool, err = store.Pool()
	require.NoError(t, err)
	require.True(t, pool.StakedAsset.Equal(written.StakedAsset))
	require.True(t, pool.RewardAsset.Equal(written.RewardAsset))
	require.Equal(t, written.AccRewardPerShare, pool.AccRewardPerShare)
	require.Equal(t, written.PrecisionFactor, pool.PrecisionFactor)
	require.EqualValues(t, 77, pool.LastRewardBlock)
	require.True(t, pool.Initialized)

	user := testAddress(0x03)
	require.NoError(t, store.PutPosition(user, &farm.UserPosition{
		Address:      user,
		StakedAmount: big.NewInt(500),
		RewardDebt:   big.NewInt(61),
	}))
	position, err := store.Position(user)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(500), position.StakedAmount)
	require.Equal(t, big.NewInt(61), position.RewardDebt)
}

func TestProviderNamespacesPools(t *testing.T) {
	db := storage.NewMemDB()
	provider := NewProvider(db)

	first, err := provider.PoolState(testAddress(0x01))
	require.NoError(t, err)
	second, err := provider.PoolState(testAddress(0x02))
	require.NoError(t, err)

	require.NoError(t, first.PutPool(&farm.Pool{Initialized: true, StartBlock: 5}))

	pool, err := second.Pool()
	require.NoError(t, err)
	require.Nil(t, pool, "pools at distinct addresses must not share state")

	pool, err = first.Pool()
	require.NoError(t, err)
	require.NotNil(t, pool)
	require.EqualValues(t, 5, pool.StartBlock)
}

// fixedToken is a minimal in-memory token used to drive an engine over the
// real store.
type fixedToken struct {
	decimals uint8
	module   crypto.Address
	balances map[string]*big.Int
}

func newFixedToken(decimals uint8, module crypto.Address) *fixedToken {
	return &fixedToken{decimals: decimals, module: module, balances: make(map[string]*big.Int)}
}

func (t *fixedToken) mint(addr crypto.Address, amount *big.Int) {
	t.balances[string(addr.Bytes())] = new(big.Int).Set(amount)
}

func (t *fixedToken) balance(addr crypto.Address) *big.Int {
	if bal, ok := t.balances[string(addr.Bytes())]; ok {
		return bal
	}
	return big.NewInt(0)
}

func (t *fixedToken) move(from, to crypto.Address, amount *big.Int) bool {
	bal := t.balance(from)
	if bal.Cmp(amount) < 0 {
		return false
	}
	t.balances[string(from.Bytes())] = new(big.Int).Sub(bal, amount)
	t.balances[string(to.Bytes())] = new(big.Int).Add(t.balance(to), amount)
	return true
}

func (t *fixedToken) Transfer(to crypto.Address, amount *big.Int) (bool, error) {
	return t.move(t.module, to, amount), nil
}

func (t *fixedToken) TransferFrom(from, to crypto.Address, amount *big.Int) (bool, error) {
	return t.move(from, to, amount), nil
}

func (t *fixedToken) BalanceOf(addr crypto.Address) (*big.Int, error) {
	return new(big.Int).Set(t.balance(addr)), nil
}

func (t *fixedToken) Decimals() (uint8, error) { return t.decimals, nil }

type allowAll struct{}

func (allowAll) HasCapability(crypto.Address, string) bool { return true }

// TestPresaleEngineOverStore drives a purchase through the RLP store rather
// than package-local mocks, covering the full persistence path.
func TestPresaleEngineOverStore(t *testing.T) {
	db := storage.NewMemDB()
	store := NewStore(db, "launchpad")

	module := testAddress(0x20)
	revenue := testAddress(0x21)
	buyer := testAddress(0x22)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	require.NoError(t, store.PutSaleConfig(&presale.SaleConfig{
		PriceWei:      new(big.Int).Set(scale),
		StartTime:     100,
		EndTime:       200,
		MaxSaleAmount: new(big.Int).Mul(big.NewInt(1000), scale),
	}))
	require.NoError(t, store.PutSaleState(&presale.SaleState{
		TotalSold:       big.NewInt(0),
		RevenueReceiver: revenue,
	}))

	saleTok := newFixedToken(18, module)
	payTok := newFixedToken(18, module)
	saleTok.mint(module, new(big.Int).Mul(big.NewInt(1000), scale))
	payTok.mint(buyer, new(big.Int).Mul(big.NewInt(500), scale))

	engine := presale.NewEngine(module)
	engine.SetState(store)
	engine.SetTokens(saleTok, payTok)
	engine.SetCapabilities(allowAll{})
	engine.SetClock(func() time.Time { return time.Unix(150, 0) })

	payment := new(big.Int).Mul(big.NewInt(250), scale)
	receipt, err := engine.Buy(buyer, payment)
	require.NoError(t, err)
	require.Equal(t, payment, receipt.SaleAmount)

	// A second engine over the same database observes the committed totals.
	reread := presale.NewEngine(module)
	reread.SetState(NewStore(db, "launchpad"))
	reread.SetTokens(saleTok, payTok)
	reread.SetClock(func() time.Time { return time.Unix(150, 0) })

	available, err := reread.AvailableAmount()
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Mul(big.NewInt(750), scale), available)

	record, err := reread.Participant(buyer)
	require.NoError(t, err)
	require.Equal(t, payment, record.Cumulative)

	events := store.Events()
	require.Len(t, events, 1)
	require.Equal(t, presale.EventTypePurchased, events[0].Type)
}
