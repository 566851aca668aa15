package pricing

import (
	"errors"
	"math/big"
	"time"
)

// AccountingDecimals is the fixed fractional precision used for all debt and
// value accounting inside the vault engine, regardless of the native precision
// of the collateral asset or the upstream feed.
const AccountingDecimals = 18

var (
	// ErrInvalidPrice marks a feed answer that is zero or negative. Such a
	// quote aborts the calling operation; it is never treated as a zero value.
	ErrInvalidPrice = errors.New("pricing: feed answer must be positive")
	// ErrPrecisionUnsupported marks a feed reporting more fractional digits
	// than the accounting precision can represent.
	ErrPrecisionUnsupported = errors.New("pricing: feed precision exceeds accounting precision")
)

// PriceQuote captures a single round reported by an upstream price feed. The
// field set mirrors the external feed contract so adapters can hand the tuple
// through without reshaping it.
type PriceQuote struct {
	RoundID         *big.Int
	Answer          *big.Int
	Decimals        uint8
	StartedAt       time.Time
	UpdatedAt       time.Time
	AnsweredInRound *big.Int
}

// Clone returns a deep copy of the quote so callers can retain it without
// aliasing the feed's internal state.
func (q PriceQuote) Clone() PriceQuote {
	clone := PriceQuote{Decimals: q.Decimals, StartedAt: q.StartedAt, UpdatedAt: q.UpdatedAt}
	if q.RoundID != nil {
		clone.RoundID = new(big.Int).Set(q.RoundID)
	}
	if q.Answer != nil {
		clone.Answer = new(big.Int).Set(q.Answer)
	}
	if q.AnsweredInRound != nil {
		clone.AnsweredInRound = new(big.Int).Set(q.AnsweredInRound)
	}
	return clone
}

// PriceFeed resolves the latest round for a single asset/USD pair.
type PriceFeed interface {
	LatestRoundData() (PriceQuote, error)
	Decimals() uint8
}

// Normalize rescales a quote to accounting precision. The result equals
// answer * 10^(AccountingDecimals - quote.Decimals). Quotes with a
// non-positive answer are rejected, as are feeds reporting more fractional
// digits than the accounting precision supports.
func Normalize(q PriceQuote) (*big.Int, error) {
	if q.Answer == nil || q.Answer.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if q.Decimals > AccountingDecimals {
		return nil, ErrPrecisionUnsupported
	}
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(AccountingDecimals-q.Decimals)), nil)
	return new(big.Int).Mul(q.Answer, exp), nil
}
