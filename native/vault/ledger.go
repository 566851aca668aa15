package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GetPosition returns a copy of the (user, asset) position. Unknown pairs
// resolve to a zero-valued position rather than an error.
func (e *Engine) GetPosition(user common.Address, asset string) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return nil, ErrAssetNotSupported
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, err := e.ensurePosition(user, info.Symbol)
	if err != nil {
		return nil, err
	}
	return pos.Clone(), nil
}

// MaxMintable returns the position's debt ceiling at the current price: zero
// when no collateral is locked or no ratio chosen, otherwise
// collateralValue * 100 / marginRatio, floored.
func (e *Engine) MaxMintable(user common.Address, asset string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return nil, ErrAssetNotSupported
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, err := e.ensurePosition(user, info.Symbol)
	if err != nil {
		return nil, err
	}
	if pos.Collateral.Sign() == 0 || pos.MarginRatio == 0 {
		return big.NewInt(0), nil
	}
	price, err := e.assetPrice(info)
	if err != nil {
		return nil, err
	}
	return mintCeiling(assetValue(pos.Collateral, info.Decimals, price), pos.MarginRatio), nil
}

// HealthRatio returns the position's health as an integer percentage,
// collateralValue * 100 / debt floored. A debt-free position reports the
// maximum representable value.
func (e *Engine) HealthRatio(user common.Address, asset string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return nil, ErrAssetNotSupported
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, err := e.ensurePosition(user, info.Symbol)
	if err != nil {
		return nil, err
	}
	if pos.Debt.Sign() == 0 {
		return new(big.Int).Set(maxWord), nil
	}
	price, err := e.assetPrice(info)
	if err != nil {
		return nil, err
	}
	value := assetValue(pos.Collateral, info.Decimals, price)
	health := new(big.Int).Mul(value, hundred)
	return health.Quo(health, pos.Debt), nil
}

// EstimatedLiquidationPrice returns the accounting-precision price at which
// the position's health ratio would touch the liquidation threshold. It is
// zero for positions without both debt and collateral.
func (e *Engine) EstimatedLiquidationPrice(user common.Address, asset string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return nil, ErrAssetNotSupported
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, err := e.ensurePosition(user, info.Symbol)
	if err != nil {
		return nil, err
	}
	if pos.Debt.Sign() == 0 || pos.Collateral.Sign() == 0 {
		return big.NewInt(0), nil
	}
	// Price making collateral value equal required coverage at the threshold:
	// debt * threshold / 100 * 10^decimals / collateral.
	required := new(big.Int).Mul(pos.Debt, new(big.Int).SetUint64(e.params.LiquidationThreshold))
	required = required.Quo(required, hundred)
	price := new(big.Int).Mul(required, pow10(info.Decimals))
	return price.Quo(price, pos.Collateral), nil
}

// TotalDebt sums the user's outstanding debt across every supported asset in
// registry iteration order.
func (e *Engine) TotalDebt(user common.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalDebtLocked(user)
}

func (e *Engine) totalDebtLocked(user common.Address) (*big.Int, error) {
	total := big.NewInt(0)
	for _, symbol := range e.registry.Symbols() {
		pos, err := e.ensurePosition(user, symbol)
		if err != nil {
			return nil, err
		}
		total = total.Add(total, pos.Debt)
	}
	return total, nil
}
