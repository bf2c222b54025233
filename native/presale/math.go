package presale

import "math/big"

// saleAmountFor converts a committed payment amount into sale-asset smallest
// units: saleAmount = paymentAmount * 10^saleDecimals / priceWei. The multiply
// runs before the divide so decimal-mismatched assets lose nothing beyond the
// smaller asset's resolution.
func (e *Engine) saleAmountFor(cfg *SaleConfig, paymentAmount *big.Int) (*big.Int, error) {
	if e.saleToken == nil || e.paymentToken == nil {
		return nil, ErrNotConfigured
	}
	if cfg.PriceWei == nil || cfg.PriceWei.Sign() <= 0 {
		return nil, ErrInvalidParams
	}
	decimals, err := e.saleToken.Decimals()
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Mul(paymentAmount, pow10(uint(decimals)))
	amount.Quo(amount, cfg.PriceWei)
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	return amount, nil
}

// Quote returns the payment cost of a desired sale amount, rounded up so the
// quoted cost always covers the full amount.
func (e *Engine) Quote(saleAmount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNotConfigured
	}
	if err := e.guard.Check(); err != nil {
		return nil, err
	}
	if saleAmount == nil || saleAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	cfg, err := e.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.PriceWei.Sign() <= 0 {
		return nil, ErrInvalidParams
	}
	if e.saleToken == nil {
		return nil, ErrNotConfigured
	}
	decimals, err := e.saleToken.Decimals()
	if err != nil {
		return nil, err
	}
	scale := pow10(uint(decimals))
	cost := new(big.Int).Mul(saleAmount, cfg.PriceWei)
	rem := new(big.Int)
	cost.QuoRem(cost, scale, rem)
	if rem.Sign() > 0 {
		cost.Add(cost, big.NewInt(1))
	}
	return cost, nil
}

// capModeAmount selects the unit a purchase is tracked in for caps and
// minimums.
func capModeAmount(mode CapMode, saleAmount, paymentAmount *big.Int) *big.Int {
	if mode == CapPaymentUnits {
		return new(big.Int).Set(paymentAmount)
	}
	return new(big.Int).Set(saleAmount)
}

func pow10(n uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
