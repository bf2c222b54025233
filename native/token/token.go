package token

import (
	"errors"
	"math/big"

	"launchpad/crypto"
)

var (
	ErrTransferFailed = errors.New("token: transfer failed")
	ErrNilToken       = errors.New("token: token not configured")
	ErrInvalidAmount  = errors.New("token: amount must be positive")
)

// Token is the external asset-transfer collaborator. Implementations move
// value between parties; the ledger modules treat every call as fallible and
// abort the surrounding operation on failure.
type Token interface {
	Transfer(to crypto.Address, amount *big.Int) (bool, error)
	TransferFrom(from, to crypto.Address, amount *big.Int) (bool, error)
	BalanceOf(addr crypto.Address) (*big.Int, error)
	Decimals() (uint8, error)
}

// Pay transfers amount from the module's own holdings to the recipient,
// folding the boolean outcome into an error.
func Pay(t Token, to crypto.Address, amount *big.Int) error {
	if t == nil {
		return ErrNilToken
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	ok, err := t.Transfer(to, amount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTransferFailed
	}
	return nil
}

// Collect pulls amount from the payer to the recipient on the module's
// behalf, folding the boolean outcome into an error.
func Collect(t Token, from, to crypto.Address, amount *big.Int) error {
	if t == nil {
		return ErrNilToken
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	ok, err := t.TransferFrom(from, to, amount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTransferFailed
	}
	return nil
}
