package pricing

import (
	"math/big"
	"sync"
	"time"
)

// ManualFeed is a PriceFeed whose answer is pushed by an operator rather than
// pulled from an external network. The daemon binds one per configured asset
// and exposes an admin endpoint to update it; tests drive it directly.
type ManualFeed struct {
	mu       sync.RWMutex
	decimals uint8
	round    uint64
	answer   *big.Int
	updated  time.Time
	clockNow func() time.Time
}

// NewManualFeed constructs a feed reporting the given fractional precision
// with no answer yet. LatestRoundData fails until the first Set.
func NewManualFeed(decimals uint8) *ManualFeed {
	return &ManualFeed{decimals: decimals, clockNow: time.Now}
}

// Set records a new answer and advances the round counter.
func (f *ManualFeed) Set(answer *big.Int) {
	if f == nil || answer == nil {
		return
	}
	f.mu.Lock()
	f.round++
	f.answer = new(big.Int).Set(answer)
	f.updated = f.clockNow()
	f.mu.Unlock()
}

// Decimals reports the fractional precision of the feed's answers.
func (f *ManualFeed) Decimals() uint8 {
	return f.decimals
}

// LatestRoundData returns the most recently pushed answer. An unset feed
// yields ErrInvalidPrice so callers abort instead of valuing against zero.
func (f *ManualFeed) LatestRoundData() (PriceQuote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.answer == nil || f.answer.Sign() <= 0 {
		return PriceQuote{}, ErrInvalidPrice
	}
	round := new(big.Int).SetUint64(f.round)
	return PriceQuote{
		RoundID:         round,
		Answer:          new(big.Int).Set(f.answer),
		Decimals:        f.decimals,
		StartedAt:       f.updated,
		UpdatedAt:       f.updated,
		AnsweredInRound: new(big.Int).Set(round),
	}, nil
}
