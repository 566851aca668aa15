package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"

	nativecommon "stablevault/native/common"
	"stablevault/native/pricing"
	"stablevault/native/token"
	"stablevault/native/vault"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps engine failures onto HTTP statuses: malformed input is 400,
// unknown resources 404, authorization failures 403, state conflicts 409,
// pauses 503.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, vault.ErrInvalidAmount),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, vault.ErrRatioBelowMinimum):
		status = http.StatusBadRequest
	case errors.Is(err, vault.ErrAssetNotSupported),
		errors.Is(err, vault.ErrAssetUnknown):
		status = http.StatusNotFound
	case errors.Is(err, vault.ErrNotOwner),
		errors.Is(err, nativecommon.ErrBlacklisted):
		status = http.StatusForbidden
	case errors.Is(err, nativecommon.ErrModulePaused):
		status = http.StatusServiceUnavailable
	case errors.Is(err, vault.ErrAssetExists),
		errors.Is(err, vault.ErrInsufficientCollateral),
		errors.Is(err, vault.ErrUnsafeWithdrawal),
		errors.Is(err, vault.ErrUnsafeRatio),
		errors.Is(err, vault.ErrRatioNotSet),
		errors.Is(err, vault.ErrMintExceedsCeiling),
		errors.Is(err, vault.ErrOverRepay),
		errors.Is(err, vault.ErrNoDebt),
		errors.Is(err, vault.ErrRepayExceedsDebt),
		errors.Is(err, vault.ErrNotLiquidatable),
		errors.Is(err, vault.ErrInsufficientTreasury),
		errors.Is(err, vault.ErrInsufficientSurplus),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance):
		status = http.StatusConflict
	case errors.Is(err, pricing.ErrInvalidPrice),
		errors.Is(err, pricing.ErrPrecisionUnsupported):
		status = http.StatusUnprocessableEntity
	}
	writeErrorMessage(w, status, err.Error())
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func parseAddress(raw string) (ethcommon.Address, error) {
	if !ethcommon.IsHexAddress(raw) {
		return ethcommon.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return ethcommon.HexToAddress(raw), nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("missing amount")
	}
	v, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return v, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

type positionResponse struct {
	User        string `json:"user"`
	Asset       string `json:"asset"`
	Collateral  string `json:"collateral"`
	Debt        string `json:"debt"`
	MarginRatio uint64 `json:"marginRatio"`
}

func encodePosition(pos *vault.Position) positionResponse {
	return positionResponse{
		User:        pos.User.Hex(),
		Asset:       pos.Asset,
		Collateral:  formatAmount(pos.Collateral),
		Debt:        formatAmount(pos.Debt),
		MarginRatio: pos.MarginRatio,
	}
}

type liquidationResponse struct {
	ID               string `json:"id"`
	Repaid           string `json:"repaid"`
	CollateralSeized string `json:"collateralSeized"`
	Fee              string `json:"fee"`
	PaidToLiquidator string `json:"paidToLiquidator"`
}

func encodeLiquidation(out *vault.LiquidationOutcome) liquidationResponse {
	return liquidationResponse{
		ID:               out.ID,
		Repaid:           formatAmount(out.Repaid),
		CollateralSeized: formatAmount(out.CollateralSeized),
		Fee:              formatAmount(out.Fee),
		PaidToLiquidator: formatAmount(out.PaidToLiquidator),
	}
}

type amountResponse struct {
	Amount string `json:"amount"`
}
