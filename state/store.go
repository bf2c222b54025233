package state

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"launchpad/core/types"
	"launchpad/crypto"
	"launchpad/native/farm"
	"launchpad/native/presale"
	"launchpad/storage"
)

var errNilStore = errors.New("state: store not initialised")

// Store persists the presale and farm module state in a key-value database
// using RLP-encoded stored records. It satisfies both engines' persistence
// interfaces. Stores are goroutine-safe so independent module instances may
// share one database.
type Store struct {
	mu     sync.RWMutex
	db     storage.Database
	prefix string
	events []*types.Event
}

// NewStore binds a store to the database under the supplied namespace.
func NewStore(db storage.Database, namespace string) *Store {
	return &Store{db: db, prefix: namespace}
}

func (s *Store) key(parts ...string) []byte {
	key := s.prefix
	for _, part := range parts {
		key += "/" + part
	}
	return []byte(key)
}

func (s *Store) get(key []byte, out interface{}) (bool, error) {
	raw, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) put(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return s.db.Put(key, encoded)
}

// AppendEvent records an emitted event in arrival order.
func (s *Store) AppendEvent(evt *types.Event) {
	if s == nil || evt == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

// Events returns a copy of the events emitted so far.
func (s *Store) Events() []*types.Event {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*types.Event(nil), s.events...)
}

// --- stored record encodings ---

type storedAddress struct {
	Prefix string
	Raw    []byte
}

func toStoredAddress(addr crypto.Address) storedAddress {
	return storedAddress{
		Prefix: string(addr.Prefix()),
		Raw:    append([]byte(nil), addr.Bytes()...),
	}
}

func fromStoredAddress(stored storedAddress) crypto.Address {
	if len(stored.Raw) != 20 {
		return crypto.Address{}
	}
	return crypto.NewAddress(crypto.AddressPrefix(stored.Prefix), stored.Raw)
}

func storedAmount(amount *big.Int) *big.Int {
	if amount == nil {
		return big.NewInt(0)
	}
	return amount
}

type storedSaleConfig struct {
	PriceWei          *big.Int
	StartTime         uint64
	EndTime           uint64
	MaxSaleAmount     *big.Int
	MinPurchaseAmount *big.Int
	WhitelistEnabled  bool
	CapMode           uint8
}

type storedSaleState struct {
	TotalSold       *big.Int
	Paused          bool
	RevenueReceiver storedAddress
}

type storedParticipant struct {
	Address     storedAddress
	Cumulative  *big.Int
	Cap         *big.Int
	Whitelisted bool
	ListIndex   uint64
}

type storedPool struct {
	StakedAsset       storedAddress
	RewardAsset       storedAddress
	RewardPerBlock    *big.Int
	StartBlock        uint64
	BonusEndBlock     uint64
	UserCap           *big.Int
	PrecisionFactor   *big.Int
	AccRewardPerShare *big.Int
	LastRewardBlock   uint64
	TotalStaked       *big.Int
	Initialized       bool
}

type storedPosition struct {
	Address      storedAddress
	StakedAmount *big.Int
	RewardDebt   *big.Int
}

// --- presale engine state ---

func (s *Store) SaleConfig() (*presale.SaleConfig, error) {
	if s == nil || s.db == nil {
		return nil, errNilStore
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stored storedSaleConfig
	ok, err := s.get(s.key("presale", "config"), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &presale.SaleConfig{
		PriceWei:          stored.PriceWei,
		StartTime:         stored.StartTime,
		EndTime:           stored.EndTime,
		MaxSaleAmount:     stored.MaxSaleAmount,
		MinPurchaseAmount: stored.MinPurchaseAmount,
		WhitelistEnabled:  stored.WhitelistEnabled,
		CapMode:           presale.CapMode(stored.CapMode),
	}, nil
}

func (s *Store) PutSaleConfig(cfg *presale.SaleConfig) error {
	if s == nil || s.db == nil {
		return errNilStore
	}
	if cfg == nil {
		return fmt.Errorf("state: nil sale config")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(s.key("presale", "config"), storedSaleConfig{
		PriceWei:          storedAmount(cfg.PriceWei),
		StartTime:         cfg.StartTime,
		EndTime:           cfg.EndTime,
		MaxSaleAmount:     storedAmount(cfg.MaxSaleAmount),
		MinPurchaseAmount: storedAmount(cfg.MinPurchaseAmount),
		WhitelistEnabled:  cfg.WhitelistEnabled,
		CapMode:           uint8(cfg.CapMode),
	})
}

func (s *Store) SaleState() (*presale.SaleState, error) {
	if s == nil || s.db == nil {
		return nil, errNilStore
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stored storedSaleState
	ok, err := s.get(s.key("presale", "state"), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &presale.SaleState{
		TotalSold:       stored.TotalSold,
		Paused:          stored.Paused,
		RevenueReceiver: fromStoredAddress(stored.RevenueReceiver),
	}, nil
}

func (s *Store) PutSaleState(st *presale.SaleState) error {
	if s == nil || s.db == nil {
		return errNilStore
	}
	if st == nil {
		return fmt.Errorf("state: nil sale state")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(s.key("presale", "state"), storedSaleState{
		TotalSold:       storedAmount(st.TotalSold),
		Paused:          st.Paused,
		RevenueReceiver: toStoredAddress(st.RevenueReceiver),
	})
}

func (s *Store) Participant(addr crypto.Address) (*presale.ParticipantRecord, error) {
	if s == nil || s.db == nil {
		return nil, errNilStore
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stored storedParticipant
	ok, err := s.get(s.key("presale", "participant", hex.EncodeToString(addr.Bytes())), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &presale.ParticipantRecord{
		Address:     fromStoredAddress(stored.Address),
		Cumulative:  stored.Cumulative,
		Cap:         stored.Cap,
		Whitelisted: stored.Whitelisted,
		ListIndex:   stored.ListIndex,
	}, nil
}

func (s *Store) PutParticipant(addr crypto.Address, record *presale.ParticipantRecord) error {
	if s == nil || s.db == nil {
		return errNilStore
	}
	if record == nil {
		return fmt.Errorf("state: nil participant record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(s.key("presale", "participant", hex.EncodeToString(addr.Bytes())), storedParticipant{
		Address:     toStoredAddress(record.Address),
		Cumulative:  storedAmount(record.Cumulative),
		Cap:         storedAmount(record.Cap),
		Whitelisted: record.Whitelisted,
		ListIndex:   record.ListIndex,
	})
}

func (s *Store) WhitelistIndex() ([]crypto.Address, error) {
	if s == nil || s.db == nil {
		return nil, errNilStore
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stored []storedAddress
	ok, err := s.get(s.key("presale", "whitelist"), &stored)
	if err != nil || !ok {
		return nil, err
	}
	index := make([]crypto.Address, 0, len(stored))
	for _, entry := range stored {
		index = append(index, fromStoredAddress(entry))
	}
	return index, nil
}

func (s *Store) PutWhitelistIndex(index []crypto.Address) error {
	if s == nil || s.db == nil {
		return errNilStore
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]storedAddress, 0, len(index))
	for _, addr := range index {
		stored = append(stored, toStoredAddress(addr))
	}
	return s.put(s.key("presale", "whitelist"), stored)
}

// --- farm engine state ---

func (s *Store) Pool() (*farm.Pool, error) {
	if s == nil || s.db == nil {
		return nil, errNilStore
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stored storedPool
	ok, err := s.get(s.key("farm", "pool"), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &farm.Pool{
		StakedAsset:       fromStoredAddress(stored.StakedAsset),
		RewardAsset:       fromStoredAddress(stored.RewardAsset),
		RewardPerBlock:    stored.RewardPerBlock,
		StartBlock:        stored.StartBlock,
		BonusEndBlock:     stored.BonusEndBlock,
		UserCap:           stored.UserCap,
		PrecisionFactor:   stored.PrecisionFactor,
		AccRewardPerShare: stored.AccRewardPerShare,
		LastRewardBlock:   stored.LastRewardBlock,
		TotalStaked:       stored.TotalStaked,
		Initialized:       stored.Initialized,
	}, nil
}

func (s *Store) PutPool(pool *farm.Pool) error {
	if s == nil || s.db == nil {
		return errNilStore
	}
	if pool == nil {
		return fmt.Errorf("state: nil pool")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(s.key("farm", "pool"), storedPool{
		StakedAsset:       toStoredAddress(pool.StakedAsset),
		RewardAsset:       toStoredAddress(pool.RewardAsset),
		RewardPerBlock:    storedAmount(pool.RewardPerBlock),
		StartBlock:        pool.StartBlock,
		BonusEndBlock:     pool.BonusEndBlock,
		UserCap:           storedAmount(pool.UserCap),
		PrecisionFactor:   storedAmount(pool.PrecisionFactor),
		AccRewardPerShare: storedAmount(pool.AccRewardPerShare),
		LastRewardBlock:   pool.LastRewardBlock,
		TotalStaked:       storedAmount(pool.TotalStaked),
		Initialized:       pool.Initialized,
	})
}

func (s *Store) Position(addr crypto.Address) (*farm.UserPosition, error) {
	if s == nil || s.db == nil {
		return nil, errNilStore
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stored storedPosition
	ok, err := s.get(s.key("farm", "position", hex.EncodeToString(addr.Bytes())), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &farm.UserPosition{
		Address:      fromStoredAddress(stored.Address),
		StakedAmount: stored.StakedAmount,
		RewardDebt:   stored.RewardDebt,
	}, nil
}

func (s *Store) PutPosition(addr crypto.Address, position *farm.UserPosition) error {
	if s == nil || s.db == nil {
		return errNilStore
	}
	if position == nil {
		return fmt.Errorf("state: nil position")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(s.key("farm", "position", hex.EncodeToString(addr.Bytes())), storedPosition{
		Address:      toStoredAddress(position.Address),
		StakedAmount: storedAmount(position.StakedAmount),
		RewardDebt:   storedAmount(position.RewardDebt),
	})
}

// Provider hands out per-pool stores for the farm factory, namespacing each
// pool by its address.
type Provider struct {
	db storage.Database
}

// NewProvider constructs a provider over the shared database.
func NewProvider(db storage.Database) *Provider {
	return &Provider{db: db}
}

// PoolState returns a fresh store namespaced to the pool address.
func (p *Provider) PoolState(poolAddr crypto.Address) (farm.EngineState, error) {
	if p == nil || p.db == nil {
		return nil, errNilStore
	}
	return NewStore(p.db, "pool/"+hex.EncodeToString(poolAddr.Bytes())), nil
}
