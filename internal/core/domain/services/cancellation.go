package services

import (
	"math/rand/v2"

	"grocery/internal/core/domain/model/order"
)

// Stage weights for cancellation sampling. Earlier stages cancel more often:
// a customer abandons a freshly placed order far more readily than one
// already on a truck.
const (
	cancelWeightPending        = 40
	cancelWeightConfirmed      = 30
	cancelWeightPicking        = 20
	cancelWeightOutForDelivery = 10
)

// DefaultCancellationProbability is the share of sampler ticks that cancel
// an order at all.
const DefaultCancellationProbability = 0.3

// CancellationSampler is a domain service that picks which active order a
// simulated customer cancels next. Candidates are weighted by lifecycle
// stage; terminal orders are never candidates.
type CancellationSampler struct {
	rnd         *rand.Rand
	probability float64
}

// NewCancellationSampler creates a sampler draw source. Pass a seeded
// rand.Rand and probability 1 in tests for deterministic draws. A probability
// outside (0, 1] falls back to DefaultCancellationProbability.
func NewCancellationSampler(rnd *rand.Rand, probability float64) CancellationSampler {
	if probability <= 0 || probability > 1 {
		probability = DefaultCancellationProbability
	}
	return CancellationSampler{rnd: rnd, probability: probability}
}

// stageWeight returns the sampling weight for a status, or 0 when the order
// cannot be canceled from that stage.
func stageWeight(s order.Status) int {
	switch s {
	case order.Pending:
		return cancelWeightPending
	case order.Confirmed:
		return cancelWeightConfirmed
	case order.Picking:
		return cancelWeightPicking
	case order.OutForDelivery:
		return cancelWeightOutForDelivery
	default:
		return 0
	}
}

// cancellableStages orders the stages a customer can still cancel from.
var cancellableStages = []order.Status{
	order.Pending,
	order.Confirmed,
	order.Picking,
	order.OutForDelivery,
}

// Sample rolls the per-tick probability and, on a hit, draws one order in two
// steps: first a lifecycle stage weighted 40/30/20/10 over the non-empty
// stages, then a uniform order within it. The stage split holds regardless of
// how many orders sit in each stage. Returns nil on a miss or when no
// candidate is cancellable.
func (c CancellationSampler) Sample(orders []*order.Order) *order.Order {
	if c.rnd.Float64() >= c.probability {
		return nil
	}

	buckets := make(map[order.Status][]*order.Order, len(cancellableStages))
	for _, o := range orders {
		if stageWeight(o.Status()) == 0 {
			continue
		}
		buckets[o.Status()] = append(buckets[o.Status()], o)
	}

	total := 0
	for _, s := range cancellableStages {
		if len(buckets[s]) > 0 {
			total += stageWeight(s)
		}
	}
	if total == 0 {
		return nil
	}

	draw := c.rnd.IntN(total)
	for _, s := range cancellableStages {
		bucket := buckets[s]
		if len(bucket) == 0 {
			continue
		}
		w := stageWeight(s)
		if draw < w {
			return bucket[c.rnd.IntN(len(bucket))]
		}
		draw -= w
	}
	return nil
}
