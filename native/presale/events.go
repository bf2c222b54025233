package presale

import (
	"math/big"
	"strconv"

	"launchpad/core/types"
	"launchpad/crypto"
)

const (
	EventTypePurchased         = "presale.purchased"
	EventTypePaused            = "presale.paused"
	EventTypeUnpaused          = "presale.unpaused"
	EventTypeConfigUpdated     = "presale.config.updated"
	EventTypeWhitelistAdded    = "presale.whitelist.added"
	EventTypeWhitelistRemoved  = "presale.whitelist.removed"
	EventTypeCapUpdated        = "presale.cap.updated"
	EventTypeInventoryWithdraw = "presale.inventory.withdrawn"
)

func amountAttr(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

// NewPurchasedEvent returns the canonical purchase-completed payload carrying
// the participant, the sale amount credited and the payment cost.
func NewPurchasedEvent(receipt *Receipt) *types.Event {
	if receipt == nil {
		return &types.Event{Type: EventTypePurchased, Attributes: map[string]string{}}
	}
	return &types.Event{
		Type: EventTypePurchased,
		Attributes: map[string]string{
			"participant": receipt.Participant.String(),
			"saleAmount":  amountAttr(receipt.SaleAmount),
			"cost":        amountAttr(receipt.Cost),
		},
	}
}

func newPauseEvent(paused bool) *types.Event {
	evtType := EventTypeUnpaused
	if paused {
		evtType = EventTypePaused
	}
	return &types.Event{Type: evtType, Attributes: map[string]string{}}
}

func newConfigEvent(field, value string) *types.Event {
	return &types.Event{
		Type: EventTypeConfigUpdated,
		Attributes: map[string]string{
			"field": field,
			"value": value,
		},
	}
}

func newWhitelistEvent(evtType string, addr crypto.Address) *types.Event {
	return &types.Event{
		Type: evtType,
		Attributes: map[string]string{
			"participant": addr.String(),
		},
	}
}

func newCapEvent(addr crypto.Address, cap *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeCapUpdated,
		Attributes: map[string]string{
			"participant": addr.String(),
			"cap":         amountAttr(cap),
		},
	}
}

func newInventoryEvent(to crypto.Address, amount *big.Int, premature bool) *types.Event {
	return &types.Event{
		Type: EventTypeInventoryWithdraw,
		Attributes: map[string]string{
			"to":        to.String(),
			"amount":    amountAttr(amount),
			"premature": strconv.FormatBool(premature),
		},
	}
}
