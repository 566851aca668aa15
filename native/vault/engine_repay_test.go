package vault

import (
	"errors"
	"math/big"
	"testing"

	"stablevault/native/pricing"
	"stablevault/native/token"
)

// openTwoAssetDebt puts the user in debt on both registered assets:
// 1 WETH backing 1000 units and 1 WBTC backing 500 units.
func openTwoAssetDebt(t *testing.T, env *testEnv) {
	t.Helper()
	if err := env.engine.Deposit(env.user, "WETH", mustBig(t, "1000000000000000000")); err != nil {
		t.Fatalf("deposit WETH: %v", err)
	}
	if err := env.engine.SetMarginRatio(env.user, "WETH", 150); err != nil {
		t.Fatalf("ratio WETH: %v", err)
	}
	if err := env.engine.Mint(env.user, "WETH", mustBig(t, "1000000000000000000000")); err != nil {
		t.Fatalf("mint WETH: %v", err)
	}

	if err := env.engine.Deposit(env.user, "WBTC", big.NewInt(1_0000_0000)); err != nil {
		t.Fatalf("deposit WBTC: %v", err)
	}
	if err := env.engine.SetMarginRatio(env.user, "WBTC", 150); err != nil {
		t.Fatalf("ratio WBTC: %v", err)
	}
	if err := env.engine.Mint(env.user, "WBTC", mustBig(t, "500000000000000000000")); err != nil {
		t.Fatalf("mint WBTC: %v", err)
	}
}

func TestRepayProportionalSplit(t *testing.T) {
	env := newTestEnv(t)
	openTwoAssetDebt(t, env)

	total, err := env.engine.TotalDebt(env.user)
	if err != nil {
		t.Fatalf("total debt: %v", err)
	}
	if total.Cmp(mustBig(t, "1500000000000000000000")) != 0 {
		t.Fatalf("unexpected total debt: %s", total)
	}

	repay := mustBig(t, "1000000000000000000000")
	if err := env.engine.Repay(env.user, repay); err != nil {
		t.Fatalf("repay: %v", err)
	}

	// WETH reduction floors at 1000 * 1000/1500; WBTC, iterated last, absorbs
	// the truncation dust so the reductions sum exactly to the amount.
	weth := env.position(t, env.user, "WETH")
	if want := mustBig(t, "333333333333333333334"); weth.Debt.Cmp(want) != 0 {
		t.Fatalf("unexpected WETH debt: %s", weth.Debt)
	}
	wbtc := env.position(t, env.user, "WBTC")
	if want := mustBig(t, "166666666666666666666"); wbtc.Debt.Cmp(want) != 0 {
		t.Fatalf("unexpected WBTC debt: %s", wbtc.Debt)
	}

	remaining, err := env.engine.TotalDebt(env.user)
	if err != nil {
		t.Fatalf("total debt: %v", err)
	}
	if remaining.Cmp(mustBig(t, "500000000000000000000")) != 0 {
		t.Fatalf("repay conservation broken, remaining %s", remaining)
	}

	// The retired units left the user's balance and total supply.
	if got := env.susd.BalanceOf(env.user); got.Cmp(mustBig(t, "500000000000000000000")) != 0 {
		t.Fatalf("unexpected stable balance: %s", got)
	}
	if got := env.susd.TotalSupply(); got.Cmp(mustBig(t, "500000000000000000000")) != 0 {
		t.Fatalf("unexpected stable supply: %s", got)
	}
}

func TestRepayRemainderSpillsAcrossPositions(t *testing.T) {
	env := newTestEnv(t)

	link := token.NewLedger("LINK", 18)
	linkFeed := pricing.NewManualFeed(8)
	linkFeed.Set(big.NewInt(10_0000_0000)) // $10
	if err := env.engine.Registry().Add(AssetInfo{Symbol: "LINK", Decimals: 18, Token: link, Feed: linkFeed}); err != nil {
		t.Fatalf("register LINK: %v", err)
	}
	if err := link.Mint(env.user, mustBig(t, "1000000000000000000")); err != nil {
		t.Fatalf("fund LINK: %v", err)
	}
	link.Approve(env.user, env.module, mustBig(t, "1000000000000000000"))

	// Dust debts of 10, 10 and 1 in registry order.
	debts := []struct {
		asset   string
		deposit *big.Int
		debt    *big.Int
	}{
		{"WETH", mustBig(t, "1000000000000000000"), big.NewInt(10)},
		{"WBTC", big.NewInt(1_0000_0000), big.NewInt(10)},
		{"LINK", mustBig(t, "1000000000000000000"), big.NewInt(1)},
	}
	for _, d := range debts {
		if err := env.engine.Deposit(env.user, d.asset, d.deposit); err != nil {
			t.Fatalf("deposit %s: %v", d.asset, err)
		}
		if err := env.engine.SetMarginRatio(env.user, d.asset, 150); err != nil {
			t.Fatalf("ratio %s: %v", d.asset, err)
		}
		if err := env.engine.Mint(env.user, d.asset, d.debt); err != nil {
			t.Fatalf("mint %s: %v", d.asset, err)
		}
	}

	// Repaying 20 of 21 floors the first two shares to 9 each and leaves a
	// remainder of 2 for LINK, whose debt can only absorb 1. The excess must
	// land on an earlier position so the burn matches the debt retired.
	if err := env.engine.Repay(env.user, big.NewInt(20)); err != nil {
		t.Fatalf("repay: %v", err)
	}

	want := map[string]int64{"WETH": 0, "WBTC": 1, "LINK": 0}
	for asset, debt := range want {
		if pos := env.position(t, env.user, asset); pos.Debt.Cmp(big.NewInt(debt)) != 0 {
			t.Fatalf("unexpected %s debt: %s", asset, pos.Debt)
		}
	}
	total, err := env.engine.TotalDebt(env.user)
	if err != nil {
		t.Fatalf("total debt: %v", err)
	}
	if total.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("repay conservation broken, remaining %s", total)
	}
	if got := env.susd.TotalSupply(); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("burn out of step with debt retired, supply %s", got)
	}
}

func TestRepayFullClearsAllPositions(t *testing.T) {
	env := newTestEnv(t)
	openTwoAssetDebt(t, env)

	if err := env.engine.Repay(env.user, mustBig(t, "1500000000000000000000")); err != nil {
		t.Fatalf("repay: %v", err)
	}
	for _, asset := range []string{"WETH", "WBTC"} {
		if pos := env.position(t, env.user, asset); pos.Debt.Sign() != 0 {
			t.Fatalf("expected %s debt cleared, got %s", asset, pos.Debt)
		}
	}
	if got := env.susd.TotalSupply(); got.Sign() != 0 {
		t.Fatalf("expected supply fully retired, got %s", got)
	}
}

func TestRepayRejectsOverRepay(t *testing.T) {
	env := newTestEnv(t)
	openTwoAssetDebt(t, env)

	over := mustBig(t, "1500000000000000000001")
	if err := env.engine.Repay(env.user, over); !errors.Is(err, ErrOverRepay) {
		t.Fatalf("expected ErrOverRepay, got %v", err)
	}
	if err := env.engine.Repay(env.user, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	// Rejections leave debt untouched.
	total, err := env.engine.TotalDebt(env.user)
	if err != nil {
		t.Fatalf("total debt: %v", err)
	}
	if total.Cmp(mustBig(t, "1500000000000000000000")) != 0 {
		t.Fatalf("debt mutated by rejected repay: %s", total)
	}
}
