package token

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidAmount marks a transfer, mint or burn of a non-positive amount.
	ErrInvalidAmount = errors.New("token: amount must be positive")
	// ErrInsufficientBalance marks a debit exceeding the holder's balance.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	// ErrInsufficientAllowance marks a TransferFrom exceeding the spender's
	// remaining approval.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
)

// Token models movable value with owner-authorised transfer-on-behalf. Both
// collateral assets and the minted accounting unit satisfy this interface; the
// vault engine never assumes anything beyond it.
type Token interface {
	Symbol() string
	Decimals() uint8
	BalanceOf(addr common.Address) *big.Int
	Transfer(from, to common.Address, amount *big.Int) error
	Approve(owner, spender common.Address, amount *big.Int)
	Allowance(owner, spender common.Address) *big.Int
	TransferFrom(spender, owner, to common.Address, amount *big.Int) error
}

// MintableToken extends Token with supply management for the accounting unit.
type MintableToken interface {
	Token
	Mint(to common.Address, amount *big.Int) error
	Burn(from common.Address, amount *big.Int) error
	TotalSupply() *big.Int
}
