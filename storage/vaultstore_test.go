package storage

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"stablevault/native/vault"
)

func TestVaultStorePositionRoundTrip(t *testing.T) {
	store := NewVaultStore(NewMemDB())
	var user common.Address
	user[19] = 0x10

	pos, err := store.GetPosition(user, "WETH")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pos != nil {
		t.Fatalf("expected no record, got %+v", pos)
	}

	want := &vault.Position{
		User:        user,
		Asset:       "WETH",
		Collateral:  big.NewInt(1234),
		Debt:        big.NewInt(99),
		MarginRatio: 150,
	}
	if err := store.PutPosition(want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.GetPosition(user, "WETH")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatalf("expected stored record")
	}
	if got.User != want.User || got.Asset != want.Asset || got.MarginRatio != want.MarginRatio {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Collateral.Cmp(want.Collateral) != 0 || got.Debt.Cmp(want.Debt) != 0 {
		t.Fatalf("unexpected amounts: collateral=%s debt=%s", got.Collateral, got.Debt)
	}

	// Same user, other asset resolves independently.
	other, err := store.GetPosition(user, "WBTC")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if other != nil {
		t.Fatalf("asset keys collided: %+v", other)
	}
}

func TestVaultStoreTreasury(t *testing.T) {
	store := NewVaultStore(NewMemDB())

	bal, err := store.GetTreasury("WETH")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if bal != nil {
		t.Fatalf("expected no accrual, got %s", bal)
	}

	if err := store.PutTreasury("WETH", big.NewInt(777)); err != nil {
		t.Fatalf("put: %v", err)
	}
	bal, err = store.GetTreasury("WETH")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if bal == nil || bal.Cmp(big.NewInt(777)) != 0 {
		t.Fatalf("unexpected accrual: %v", bal)
	}
}

func TestMemDBDeleteAndHas(t *testing.T) {
	db := NewMemDB()
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := db.Has([]byte("k"))
	if err != nil || !ok {
		t.Fatalf("expected key present, ok=%v err=%v", ok, err)
	}
	if err := db.Delete([]byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get([]byte("k")); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}
