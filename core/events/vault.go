package events

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Event type tags for the vault module.
const (
	TypeVaultDeposit    = "vault.deposit"
	TypeVaultWithdraw   = "vault.withdraw"
	TypeVaultRatioSet   = "vault.ratio_set"
	TypeVaultMinted     = "vault.minted"
	TypeVaultRepaid     = "vault.repaid"
	TypeVaultLiquidated = "vault.liquidated"
)

// VaultDeposit records collateral entering custody.
type VaultDeposit struct {
	User   common.Address
	Asset  string
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (VaultDeposit) EventType() string { return TypeVaultDeposit }

// Record converts the structured payload into a broadcastable record.
func (e VaultDeposit) Record() *Record {
	attrs := map[string]string{
		"user":  e.User.Hex(),
		"asset": normalizeAsset(e.Asset),
	}
	putAmount(attrs, "amount", e.Amount)
	return &Record{Type: TypeVaultDeposit, Attributes: attrs}
}

// VaultWithdraw records collateral released back to its owner.
type VaultWithdraw struct {
	User   common.Address
	Asset  string
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (VaultWithdraw) EventType() string { return TypeVaultWithdraw }

// Record converts the structured payload into a broadcastable record.
func (e VaultWithdraw) Record() *Record {
	attrs := map[string]string{
		"user":  e.User.Hex(),
		"asset": normalizeAsset(e.Asset),
	}
	putAmount(attrs, "amount", e.Amount)
	return &Record{Type: TypeVaultWithdraw, Attributes: attrs}
}

// VaultRatioSet records a user adjusting their chosen margin ratio.
type VaultRatioSet struct {
	User  common.Address
	Asset string
	Ratio uint64
}

// EventType satisfies the events.Event interface.
func (VaultRatioSet) EventType() string { return TypeVaultRatioSet }

// Record converts the structured payload into a broadcastable record.
func (e VaultRatioSet) Record() *Record {
	return &Record{Type: TypeVaultRatioSet, Attributes: map[string]string{
		"user":  e.User.Hex(),
		"asset": normalizeAsset(e.Asset),
		"ratio": strconv.FormatUint(e.Ratio, 10),
	}}
}

// VaultMinted records accounting units issued against a position.
type VaultMinted struct {
	User   common.Address
	Asset  string
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (VaultMinted) EventType() string { return TypeVaultMinted }

// Record converts the structured payload into a broadcastable record.
func (e VaultMinted) Record() *Record {
	attrs := map[string]string{
		"user":  e.User.Hex(),
		"asset": normalizeAsset(e.Asset),
	}
	putAmount(attrs, "amount", e.Amount)
	return &Record{Type: TypeVaultMinted, Attributes: attrs}
}

// VaultRepaid records accounting units retired across a user's positions.
type VaultRepaid struct {
	User   common.Address
	Amount *big.Int
}

// EventType satisfies the events.Event interface.
func (VaultRepaid) EventType() string { return TypeVaultRepaid }

// Record converts the structured payload into a broadcastable record.
func (e VaultRepaid) Record() *Record {
	attrs := map[string]string{"user": e.User.Hex()}
	putAmount(attrs, "amount", e.Amount)
	return &Record{Type: TypeVaultRepaid, Attributes: attrs}
}

// VaultLiquidated records a partial unwind of an under-margined position.
type VaultLiquidated struct {
	ID              string
	User            common.Address
	Asset           string
	Liquidator      common.Address
	Repaid          *big.Int
	CollateralTaken *big.Int
	Fee             *big.Int
}

// EventType satisfies the events.Event interface.
func (VaultLiquidated) EventType() string { return TypeVaultLiquidated }

// Record converts the structured payload into a broadcastable record.
func (e VaultLiquidated) Record() *Record {
	attrs := map[string]string{
		"user":       e.User.Hex(),
		"asset":      normalizeAsset(e.Asset),
		"liquidator": e.Liquidator.Hex(),
	}
	if id := strings.TrimSpace(e.ID); id != "" {
		attrs["id"] = id
	}
	putAmount(attrs, "repaid", e.Repaid)
	putAmount(attrs, "collateralTaken", e.CollateralTaken)
	putAmount(attrs, "fee", e.Fee)
	return &Record{Type: TypeVaultLiquidated, Attributes: attrs}
}

func putAmount(attrs map[string]string, key string, amount *big.Int) {
	if amount == nil {
		attrs[key] = "0"
		return
	}
	attrs[key] = amount.String()
}

func normalizeAsset(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}
