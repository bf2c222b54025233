package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "launchpad.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

const validConfig = `
[presale]
PriceWei = "1000000000000000000"
StartTime = 1700000000
EndTime = 1700600000
MaxSaleAmount = "1000000000000000000000000"
MinPurchaseAmount = "100000000000000000000"
WhitelistEnabled = true
CapMode = "payment"
RevenueReceiver = "lpd1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqpxx3xt"

[farm]
RewardPerBlock = "10000000000000000000"
StartBlock = 100
BonusEndBlock = 200
UserCap = "0"
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	want, ok := new(big.Int).SetString("1000000000000000000", 10)
	require.True(t, ok)
	require.Equal(t, want, cfg.Presale.PriceAmount())
	require.True(t, cfg.Presale.WhitelistEnabled)
	require.Equal(t, "payment", cfg.Presale.CapMode)
	require.EqualValues(t, 1700000000, cfg.Presale.StartTime)

	reward, ok := new(big.Int).SetString("10000000000000000000", 10)
	require.True(t, ok)
	require.Equal(t, reward, cfg.Farm.RewardAmount())
	require.Equal(t, big.NewInt(0), cfg.Farm.UserCapAmount())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	base := func() *Config {
		return &Config{
			Presale: PresaleConfig{
				PriceWei:      "1",
				StartTime:     10,
				EndTime:       20,
				MaxSaleAmount: "1000",
			},
			Farm: FarmConfig{
				RewardPerBlock: "1",
				StartBlock:     10,
				BonusEndBlock:  20,
			},
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Presale.PriceWei = "0"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Presale.PriceWei = "not-a-number"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Presale.StartTime, cfg.Presale.EndTime = 20, 10
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Presale.MaxSaleAmount = "0"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Presale.CapMode = "tokens"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Farm.RewardPerBlock = "0"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Farm.StartBlock, cfg.Farm.BonusEndBlock = 20, 10
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Farm.UserCap = "-5"
	require.Error(t, cfg.Validate())
}

func TestEmptyAmountsDefaultToZero(t *testing.T) {
	farm := FarmConfig{RewardPerBlock: "1", StartBlock: 1, BonusEndBlock: 2}
	require.NoError(t, farm.validate())
	require.Equal(t, big.NewInt(0), farm.UserCapAmount())
}
