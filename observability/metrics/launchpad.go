package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PresaleMetrics exposes the counters updated by the presale engine on
// successful mutations.
type PresaleMetrics struct {
	purchases  prometheus.Counter
	soldTotal  prometheus.Counter
	rejections *prometheus.CounterVec
}

// FarmMetrics exposes the counters updated by the farm engine.
type FarmMetrics struct {
	deposits   prometheus.Counter
	withdraws  prometheus.Counter
	harvested  prometheus.Counter
	emergency  prometheus.Counter
	poolsMade  prometheus.Counter
	stakeTotal prometheus.Gauge
}

var (
	presaleOnce     sync.Once
	presaleRegistry *PresaleMetrics
	farmOnce        sync.Once
	farmRegistry    *FarmMetrics
)

func Presale() *PresaleMetrics {
	presaleOnce.Do(func() {
		presaleRegistry = &PresaleMetrics{
			purchases: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "presale_purchases_total",
				Help: "Count of completed presale purchases.",
			}),
			soldTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "presale_sold_units_total",
				Help: "Cumulative sale-asset units distributed.",
			}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "presale_rejections_total",
				Help: "Count of rejected purchase attempts by reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			presaleRegistry.purchases,
			presaleRegistry.soldTotal,
			presaleRegistry.rejections,
		)
	})
	return presaleRegistry
}

func Farm() *FarmMetrics {
	farmOnce.Do(func() {
		farmRegistry = &FarmMetrics{
			deposits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "farm_deposits_total",
				Help: "Count of completed deposits.",
			}),
			withdraws: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "farm_withdrawals_total",
				Help: "Count of completed withdrawals.",
			}),
			harvested: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "farm_rewards_paid_total",
				Help: "Count of reward payouts realised by settlements.",
			}),
			emergency: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "farm_emergency_withdrawals_total",
				Help: "Count of emergency withdrawals.",
			}),
			poolsMade: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "farm_pools_created_total",
				Help: "Count of pools created by the factory.",
			}),
			stakeTotal: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "farm_total_staked",
				Help: "Total staked amount across the most recently mutated pool.",
			}),
		}
		prometheus.MustRegister(
			farmRegistry.deposits,
			farmRegistry.withdraws,
			farmRegistry.harvested,
			farmRegistry.emergency,
			farmRegistry.poolsMade,
			farmRegistry.stakeTotal,
		)
	})
	return farmRegistry
}

func amountValue(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	return value
}

// RecordPurchase tracks one completed purchase and the units it distributed.
func (m *PresaleMetrics) RecordPurchase(saleAmount *big.Int) {
	if m == nil {
		return
	}
	m.purchases.Inc()
	m.soldTotal.Add(amountValue(saleAmount))
}

// RecordRejection tracks a denied purchase attempt by reason.
func (m *PresaleMetrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// RecordDeposit tracks one completed deposit and updates the staked gauge.
func (m *FarmMetrics) RecordDeposit(totalStaked *big.Int) {
	if m == nil {
		return
	}
	m.deposits.Inc()
	m.stakeTotal.Set(amountValue(totalStaked))
}

// RecordWithdraw tracks one completed withdrawal and updates the staked gauge.
func (m *FarmMetrics) RecordWithdraw(totalStaked *big.Int) {
	if m == nil {
		return
	}
	m.withdraws.Inc()
	m.stakeTotal.Set(amountValue(totalStaked))
}

// RecordHarvest tracks one realised reward payout.
func (m *FarmMetrics) RecordHarvest() {
	if m == nil {
		return
	}
	m.harvested.Inc()
}

// RecordEmergencyWithdraw tracks one emergency exit and updates the gauge.
func (m *FarmMetrics) RecordEmergencyWithdraw(totalStaked *big.Int) {
	if m == nil {
		return
	}
	m.emergency.Inc()
	m.stakeTotal.Set(amountValue(totalStaked))
}

// RecordPoolCreated tracks one factory-created pool.
func (m *FarmMetrics) RecordPoolCreated() {
	if m == nil {
		return
	}
	m.poolsMade.Inc()
}
