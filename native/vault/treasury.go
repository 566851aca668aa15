package vault

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TreasuryBalance reports the protocol-accrued fee balance for an asset, in
// asset-native units.
func (e *Engine) TreasuryBalance(asset string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return nil, ErrAssetNotSupported
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	bal, err := e.treasuryBalance(info.Symbol)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(bal), nil
}

// WithdrawTreasury transfers accrued liquidation fees to the recipient. Only
// the owner may call it and the amount is bounded by the accrued balance.
func (e *Engine) WithdrawTreasury(caller common.Address, asset string, to common.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard(caller); err != nil {
		return err
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return ErrAssetNotSupported
	}
	bal, err := e.treasuryBalance(info.Symbol)
	if err != nil {
		return err
	}
	if amount.Cmp(bal) > 0 {
		return ErrInsufficientTreasury
	}

	if err := info.Token.Transfer(e.module, to, amount); err != nil {
		return err
	}
	return e.state.PutTreasury(info.Symbol, new(big.Int).Sub(bal, amount))
}

// SweepUnreserved recovers asset balance held in custody above what the
// treasury accrual accounts for, without touching the accrual itself. This
// separates protocol-owed fees from stray surplus sent to the module.
func (e *Engine) SweepUnreserved(caller common.Address, asset string, to common.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard(caller); err != nil {
		return err
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return ErrAssetNotSupported
	}
	bal, err := e.treasuryBalance(info.Symbol)
	if err != nil {
		return err
	}
	held := info.Token.BalanceOf(e.module)
	available := clampZero(new(big.Int).Sub(held, bal))
	if amount.Cmp(available) > 0 {
		return ErrInsufficientSurplus
	}

	return info.Token.Transfer(e.module, to, amount)
}
