package dedup

import (
	"log/slog"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// defaultCapacity and defaultFalsePositiveRate are spec.md §4.2's Tier A
// defaults: N = 100,000, p = 0.1%.
const (
	defaultCapacity         = 100_000
	defaultFalsePositiveRate = 0.001
)

// tierA is the approximate membership filter. maybeContains returning false
// is definitive; true requires confirmation from Tier B.
type tierA struct {
	mu       sync.RWMutex
	filter   *bloom.BloomFilter
	capacity uint
	count    uint
	logger   *slog.Logger
}

func newTierA(capacity uint, falsePositiveRate float64, logger *slog.Logger) *tierA {
	if capacity == 0 {
		capacity = defaultCapacity
	}
	if falsePositiveRate <= 0 {
		falsePositiveRate = defaultFalsePositiveRate
	}
	return &tierA{
		filter:   bloom.NewWithEstimates(capacity, falsePositiveRate),
		capacity: capacity,
		logger:   logger,
	}
}

func (a *tierA) add(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.filter.Add([]byte(id))
	a.count++
	if a.count == a.capacity+1 {
		a.logger.Warn("dedup: Tier A filter exceeded configured capacity, accepting degraded false-positive rate",
			"capacity", a.capacity)
	}
}

func (a *tierA) maybeContains(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.filter.Test([]byte(id))
}

// reset replaces the filter with an empty one of the given sizing and
// clears the insert count.
func (a *tierA) reset(capacity uint, falsePositiveRate float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if capacity == 0 {
		capacity = defaultCapacity
	}
	if falsePositiveRate <= 0 {
		falsePositiveRate = defaultFalsePositiveRate
	}
	a.filter = bloom.NewWithEstimates(capacity, falsePositiveRate)
	a.capacity = capacity
	a.count = 0
}
