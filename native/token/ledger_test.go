package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func addr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func TestLedgerTransfer(t *testing.T) {
	ledger := NewLedger("WETH", 18)
	alice := addr(0x01)
	bob := addr(0x02)

	if err := ledger.Mint(alice, big.NewInt(1_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(alice, bob, big.NewInt(400)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := ledger.BalanceOf(alice); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("unexpected sender balance: %s", got)
	}
	if got := ledger.BalanceOf(bob); got.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("unexpected recipient balance: %s", got)
	}

	if err := ledger.Transfer(alice, bob, big.NewInt(601)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := ledger.Transfer(alice, bob, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestLedgerTransferFromConsumesAllowance(t *testing.T) {
	ledger := NewLedger("WBTC", 8)
	owner := addr(0x11)
	spender := addr(0x12)
	sink := addr(0x13)

	if err := ledger.Mint(owner, big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := ledger.TransferFrom(spender, owner, sink, big.NewInt(100)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance before approval, got %v", err)
	}

	ledger.Approve(owner, spender, big.NewInt(300))
	if err := ledger.TransferFrom(spender, owner, sink, big.NewInt(200)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	if got := ledger.Allowance(owner, spender); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected remaining allowance: %s", got)
	}
	if err := ledger.TransferFrom(spender, owner, sink, big.NewInt(101)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
	if got := ledger.BalanceOf(sink); got.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("unexpected sink balance: %s", got)
	}
}

func TestLedgerBurnShrinksSupply(t *testing.T) {
	ledger := NewLedger("SUSD", 18)
	holder := addr(0x21)

	if err := ledger.Mint(holder, big.NewInt(900)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Burn(holder, big.NewInt(400)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got := ledger.TotalSupply(); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected supply: %s", got)
	}
	if err := ledger.Burn(holder, big.NewInt(501)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}
