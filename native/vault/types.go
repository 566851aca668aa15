package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Position is the per-(user, asset) ledger record. Collateral is held in
// asset-native units; debt is held at accounting precision (18 fractional
// digits) regardless of the asset. A position is created implicitly on first
// deposit and persists at zero state rather than being destroyed.
type Position struct {
	// User is the position owner.
	User common.Address
	// Asset is the collateral ticker registered with the engine.
	Asset string
	// Collateral is the locked amount in asset-native units.
	Collateral *big.Int
	// Debt is the outstanding minted amount at accounting precision.
	Debt *big.Int
	// MarginRatio is the user-chosen safety target in integer percent. It is
	// zero until first set and must reach the configured floor before any
	// mint is allowed.
	MarginRatio uint64
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := &Position{User: p.User, Asset: p.Asset, MarginRatio: p.MarginRatio}
	if p.Collateral != nil {
		clone.Collateral = new(big.Int).Set(p.Collateral)
	}
	if p.Debt != nil {
		clone.Debt = new(big.Int).Set(p.Debt)
	}
	return clone
}

// LiquidationOutcome summarises the committed effect of a liquidation call.
type LiquidationOutcome struct {
	// ID is a unique identifier for the emitted liquidation record.
	ID string
	// Repaid is the accounting-unit amount actually pulled and retired, which
	// may be below the requested amount when collateral caps the unwind.
	Repaid *big.Int
	// CollateralSeized is the gross collateral removed from the position.
	CollateralSeized *big.Int
	// Fee is the slice of seized collateral credited to the treasury.
	Fee *big.Int
	// PaidToLiquidator is the collateral transferred to the liquidator after
	// the fee deduction.
	PaidToLiquidator *big.Int
}
