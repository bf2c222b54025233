package token

import (
	"errors"
	"math/big"
	"testing"

	"launchpad/crypto"
)

type scriptedToken struct {
	ok  bool
	err error
}

func (t *scriptedToken) Transfer(crypto.Address, *big.Int) (bool, error) {
	return t.ok, t.err
}

func (t *scriptedToken) TransferFrom(crypto.Address, crypto.Address, *big.Int) (bool, error) {
	return t.ok, t.err
}

func (t *scriptedToken) BalanceOf(crypto.Address) (*big.Int, error) { return big.NewInt(0), nil }
func (t *scriptedToken) Decimals() (uint8, error)                   { return 18, nil }

func testAddr(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.LPDPrefix, raw)
}

func TestPay(t *testing.T) {
	to := testAddr(0x01)
	amount := big.NewInt(5)

	if err := Pay(nil, to, amount); !errors.Is(err, ErrNilToken) {
		t.Fatalf("expected ErrNilToken, got %v", err)
	}
	if err := Pay(&scriptedToken{ok: true}, to, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for nil amount, got %v", err)
	}
	if err := Pay(&scriptedToken{ok: true}, to, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero amount, got %v", err)
	}
	if err := Pay(&scriptedToken{ok: false}, to, amount); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	boom := errors.New("boom")
	if err := Pay(&scriptedToken{ok: true, err: boom}, to, amount); !errors.Is(err, boom) {
		t.Fatalf("expected underlying error, got %v", err)
	}
	if err := Pay(&scriptedToken{ok: true}, to, amount); err != nil {
		t.Fatalf("successful pay: %v", err)
	}
}

func TestCollect(t *testing.T) {
	from, to := testAddr(0x01), testAddr(0x02)
	amount := big.NewInt(5)

	if err := Collect(nil, from, to, amount); !errors.Is(err, ErrNilToken) {
		t.Fatalf("expected ErrNilToken, got %v", err)
	}
	if err := Collect(&scriptedToken{ok: true}, from, to, big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := Collect(&scriptedToken{ok: false}, from, to, amount); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if err := Collect(&scriptedToken{ok: true}, from, to, amount); err != nil {
		t.Fatalf("successful collect: %v", err)
	}
}
