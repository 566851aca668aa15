package vault

import (
	"math"
	"math/big"

	"stablevault/native/pricing"
)

var (
	hundred  = big.NewInt(100)
	maxWord  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// assetValue converts an asset-native amount into an accounting-precision USD
// value using a price already normalized to accounting precision:
// value = amount * price / 10^decimals. Integer division truncates toward
// zero; this single floor rule biases against the caller on every path so
// rounding can never manufacture value.
func assetValue(amount *big.Int, decimals uint8, price *big.Int) *big.Int {
	if amount == nil || amount.Sign() <= 0 || price == nil || price.Sign() <= 0 {
		return big.NewInt(0)
	}
	value := new(big.Int).Mul(amount, price)
	return value.Quo(value, pow10(decimals))
}

// amountFromValue is the inverse conversion, accounting-precision value back
// to asset-native units: amount = value * 10^decimals / price, floored.
func amountFromValue(value *big.Int, decimals uint8, price *big.Int) *big.Int {
	if value == nil || value.Sign() <= 0 || price == nil || price.Sign() <= 0 {
		return big.NewInt(0)
	}
	amount := new(big.Int).Mul(value, pow10(decimals))
	return amount.Quo(amount, price)
}

// percentOf returns amount * pct / 100, floored.
func percentOf(amount *big.Int, pct uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || pct == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(pct))
	return out.Quo(out, hundred)
}

// wholeUnits truncates an accounting-precision amount to whole units for
// quota bookkeeping, saturating at the counter range.
func wholeUnits(amount *big.Int) uint64 {
	if amount == nil || amount.Sign() <= 0 {
		return 0
	}
	units := new(big.Int).Quo(amount, pow10(pricing.AccountingDecimals))
	if !units.IsUint64() {
		return math.MaxUint64
	}
	return units.Uint64()
}

func clampZero(x *big.Int) *big.Int {
	if x.Sign() < 0 {
		return big.NewInt(0)
	}
	return x
}
