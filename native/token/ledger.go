package token

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger is an in-process token implementation backing the daemon and tests.
// Balances and allowances live behind a single mutex; every mutation is
// all-or-nothing so callers observe no partial debits.
type Ledger struct {
	mu         sync.RWMutex
	symbol     string
	decimals   uint8
	supply     *big.Int
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// NewLedger constructs an empty ledger for the given symbol and precision.
func NewLedger(symbol string, decimals uint8) *Ledger {
	return &Ledger{
		symbol:     symbol,
		decimals:   decimals,
		supply:     big.NewInt(0),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Symbol reports the ticker the ledger was constructed with.
func (l *Ledger) Symbol() string { return l.symbol }

// Decimals reports the native fractional precision of the token.
func (l *Ledger) Decimals() uint8 { return l.decimals }

// TotalSupply returns the amount currently minted.
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.supply)
}

// BalanceOf returns the holder's balance, zero for unknown addresses.
func (l *Ledger) BalanceOf(addr common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if bal, ok := l.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// Transfer moves amount from one holder to another.
func (l *Ledger) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// Approve sets the spender's allowance over the owner's balance. A nil or
// negative amount clears the approval.
func (l *Ledger) Approve(owner, spender common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	grants, ok := l.allowances[owner]
	if !ok {
		grants = make(map[common.Address]*big.Int)
		l.allowances[owner] = grants
	}
	if amount == nil || amount.Sign() <= 0 {
		delete(grants, spender)
		return
	}
	grants[spender] = new(big.Int).Set(amount)
}

// Allowance reports the spender's remaining approval over the owner's balance.
func (l *Ledger) Allowance(owner, spender common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if grants, ok := l.allowances[owner]; ok {
		if amt, ok := grants[spender]; ok {
			return new(big.Int).Set(amt)
		}
	}
	return big.NewInt(0)
}

// TransferFrom moves amount out of the owner's balance on the strength of a
// prior approval granted to the spender. The allowance is decremented by the
// amount moved.
func (l *Ledger) TransferFrom(spender, owner, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	grants := l.allowances[owner]
	remaining, ok := grants[spender]
	if !ok || remaining.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.move(owner, to, amount); err != nil {
		return err
	}
	remaining = new(big.Int).Sub(remaining, amount)
	if remaining.Sign() == 0 {
		delete(grants, spender)
	} else {
		grants[spender] = remaining
	}
	return nil
}

// Mint credits newly issued units to the recipient.
func (l *Ledger) Mint(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(to, amount)
	l.supply = new(big.Int).Add(l.supply, amount)
	return nil
}

// Burn retires units from the holder's balance and shrinks total supply.
func (l *Ledger) Burn(from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal, ok := l.balances[from]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[from] = new(big.Int).Sub(bal, amount)
	l.supply = new(big.Int).Sub(l.supply, amount)
	return nil
}

func (l *Ledger) move(from, to common.Address, amount *big.Int) error {
	bal, ok := l.balances[from]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[from] = new(big.Int).Sub(bal, amount)
	l.credit(to, amount)
	return nil
}

func (l *Ledger) credit(to common.Address, amount *big.Int) {
	if bal, ok := l.balances[to]; ok {
		l.balances[to] = new(big.Int).Add(bal, amount)
		return
	}
	l.balances[to] = new(big.Int).Set(amount)
}
