package vault

// Protocol defaults, expressed as integer percentages to match the engine's
// cross-multiplied ratio checks.
const (
	// DefaultMinMarginRatio is the floor for any user-chosen safety margin.
	DefaultMinMarginRatio uint64 = 110
	// DefaultLiquidationThreshold is the health ratio below which a position
	// becomes liquidatable by anyone.
	DefaultLiquidationThreshold uint64 = 100
	// DefaultLiquidationBonus is the collateral bonus granted to liquidators,
	// as a percentage of the collateral covering the repaid debt.
	DefaultLiquidationBonus uint64 = 10
	// DefaultLiquidationFee is the slice of gross seized collateral retained
	// by the protocol treasury, as a percentage.
	DefaultLiquidationFee uint64 = 10
)

// RiskParameters groups the operator-controlled safety limits governing vault
// activity. Zero fields fall back to the protocol defaults.
type RiskParameters struct {
	// MinMarginRatio is the lowest margin ratio a user may select, percent.
	MinMarginRatio uint64
	// LiquidationThreshold is the health percentage at which positions become
	// eligible for liquidation.
	LiquidationThreshold uint64
	// LiquidationBonus is the liquidator's collateral bonus, percent.
	LiquidationBonus uint64
	// LiquidationFee is the treasury's share of seized collateral, percent.
	LiquidationFee uint64
}

// Normalized returns a copy with zero fields replaced by protocol defaults.
func (p RiskParameters) Normalized() RiskParameters {
	out := p
	if out.MinMarginRatio == 0 {
		out.MinMarginRatio = DefaultMinMarginRatio
	}
	if out.LiquidationThreshold == 0 {
		out.LiquidationThreshold = DefaultLiquidationThreshold
	}
	if out.LiquidationBonus == 0 {
		out.LiquidationBonus = DefaultLiquidationBonus
	}
	if out.LiquidationFee == 0 {
		out.LiquidationFee = DefaultLiquidationFee
	}
	return out
}
