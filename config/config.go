package config

import (
	"fmt"
	"math/big"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level launchpad module configuration.
type Config struct {
	Presale PresaleConfig `toml:"presale"`
	Farm    FarmConfig    `toml:"farm"`
}

// PresaleConfig declares the genesis parameters of the presale ledger.
// Amounts are decimal strings in smallest units so TOML integers never
// truncate wei-scale values.
type PresaleConfig struct {
	PriceWei          string `toml:"PriceWei"`
	StartTime         uint64 `toml:"StartTime"`
	EndTime           uint64 `toml:"EndTime"`
	MaxSaleAmount     string `toml:"MaxSaleAmount"`
	MinPurchaseAmount string `toml:"MinPurchaseAmount"`
	WhitelistEnabled  bool   `toml:"WhitelistEnabled"`
	CapMode           string `toml:"CapMode"`
	RevenueReceiver   string `toml:"RevenueReceiver"`
}

// FarmConfig declares the genesis parameters of a staking pool.
type FarmConfig struct {
	RewardPerBlock string `toml:"RewardPerBlock"`
	StartBlock     uint64 `toml:"StartBlock"`
	BonusEndBlock  uint64 `toml:"BonusEndBlock"`
	UserCap        string `toml:"UserCap"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate applies the same parameter rules the engines enforce so a bad file
// fails before any state is touched.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	if err := c.Presale.validate(); err != nil {
		return err
	}
	return c.Farm.validate()
}

func (p *PresaleConfig) validate() error {
	price, err := parseAmount("presale.PriceWei", p.PriceWei)
	if err != nil {
		return err
	}
	if price.Sign() <= 0 {
		return fmt.Errorf("config: presale.PriceWei must be positive")
	}
	if p.StartTime >= p.EndTime {
		return fmt.Errorf("config: presale window start %d not before end %d", p.StartTime, p.EndTime)
	}
	max, err := parseAmount("presale.MaxSaleAmount", p.MaxSaleAmount)
	if err != nil {
		return err
	}
	if max.Sign() <= 0 {
		return fmt.Errorf("config: presale.MaxSaleAmount must be positive")
	}
	if _, err := parseAmount("presale.MinPurchaseAmount", p.MinPurchaseAmount); err != nil {
		return err
	}
	switch p.CapMode {
	case "", "sale", "payment":
	default:
		return fmt.Errorf("config: presale.CapMode %q not one of sale, payment", p.CapMode)
	}
	return nil
}

func (f *FarmConfig) validate() error {
	reward, err := parseAmount("farm.RewardPerBlock", f.RewardPerBlock)
	if err != nil {
		return err
	}
	if reward.Sign() <= 0 {
		return fmt.Errorf("config: farm.RewardPerBlock must be positive")
	}
	if f.StartBlock >= f.BonusEndBlock {
		return fmt.Errorf("config: farm block window start %d not before end %d", f.StartBlock, f.BonusEndBlock)
	}
	if _, err := parseAmount("farm.UserCap", f.UserCap); err != nil {
		return err
	}
	return nil
}

// PriceAmount returns the parsed sale price.
func (p *PresaleConfig) PriceAmount() *big.Int { return mustAmount(p.PriceWei) }

// MaxSale returns the parsed global sale cap.
func (p *PresaleConfig) MaxSale() *big.Int { return mustAmount(p.MaxSaleAmount) }

// MinPurchase returns the parsed minimum purchase amount.
func (p *PresaleConfig) MinPurchase() *big.Int { return mustAmount(p.MinPurchaseAmount) }

// RewardAmount returns the parsed per-block reward emission.
func (f *FarmConfig) RewardAmount() *big.Int { return mustAmount(f.RewardPerBlock) }

// UserCapAmount returns the parsed per-user deposit cap.
func (f *FarmConfig) UserCapAmount() *big.Int { return mustAmount(f.UserCap) }

func parseAmount(field, value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("config: %s %q is not a non-negative decimal", field, value)
	}
	return amount, nil
}

func mustAmount(value string) *big.Int {
	amount, err := parseAmount("", value)
	if err != nil {
		return big.NewInt(0)
	}
	return amount
}
