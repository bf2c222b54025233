package farm

import (
	"math/big"
	"strconv"

	"launchpad/core/types"
	"launchpad/crypto"
)

const (
	EventTypeInitialized       = "farm.pool.initialized"
	EventTypeDeposited         = "farm.deposited"
	EventTypeWithdrawn         = "farm.withdrawn"
	EventTypeEmergencyWithdraw = "farm.emergency_withdrawn"
	EventTypeRewardsStopped    = "farm.rewards.stopped"
	EventTypeConfigUpdated     = "farm.config.updated"
	EventTypeUserCapUpdated    = "farm.user_cap.updated"
	EventTypeAssetRecovered    = "farm.asset.recovered"
)

func amountAttr(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

func newMutationEvent(evtType string, user crypto.Address, amount, reward *big.Int) *types.Event {
	return &types.Event{
		Type: evtType,
		Attributes: map[string]string{
			"user":   user.String(),
			"amount": amountAttr(amount),
			"reward": amountAttr(reward),
		},
	}
}

func newInitializedEvent(pool *Pool) *types.Event {
	return &types.Event{
		Type: EventTypeInitialized,
		Attributes: map[string]string{
			"rewardPerBlock": amountAttr(pool.RewardPerBlock),
			"startBlock":     strconv.FormatUint(pool.StartBlock, 10),
			"bonusEndBlock":  strconv.FormatUint(pool.BonusEndBlock, 10),
			"userCap":        amountAttr(pool.UserCap),
		},
	}
}

func newRewardsStoppedEvent(endBlock uint64) *types.Event {
	return &types.Event{
		Type: EventTypeRewardsStopped,
		Attributes: map[string]string{
			"bonusEndBlock": strconv.FormatUint(endBlock, 10),
		},
	}
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

func newUserCapEvent(cap *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeUserCapUpdated,
		Attributes: map[string]string{
			"userCap": amountAttr(cap),
		},
	}
}

func newAssetRecoveredEvent(asset, to crypto.Address, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeAssetRecovered,
		Attributes: map[string]string{
			"asset":  asset.String(),
			"to":     to.String(),
			"amount": amountAttr(amount),
		},
	}
}
