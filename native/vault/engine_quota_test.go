package vault

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "stablevault/native/common"
)

func TestMintQuotaUnits(t *testing.T) {
	env := newTestEnv(t)
	env.engine.SetMintQuota(nativecommon.Quota{MaxUnitsPerEpoch: 60, EpochSeconds: 3600})

	if err := env.engine.Deposit(env.user, "WETH", mustBig(t, "100000000000000000000")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := env.engine.SetMarginRatio(env.user, "WETH", 150); err != nil {
		t.Fatalf("ratio: %v", err)
	}

	if err := env.engine.Mint(env.user, "WETH", mustBig(t, "50000000000000000000")); err != nil {
		t.Fatalf("mint within quota: %v", err)
	}
	if err := env.engine.Mint(env.user, "WETH", mustBig(t, "20000000000000000000")); !errors.Is(err, nativecommon.ErrQuotaUnitsExceeded) {
		t.Fatalf("expected ErrQuotaUnitsExceeded, got %v", err)
	}

	// Denied mints leave the position untouched.
	if pos := env.position(t, env.user, "WETH"); pos.Debt.Cmp(mustBig(t, "50000000000000000000")) != 0 {
		t.Fatalf("denied mint mutated debt: %s", pos.Debt)
	}
}

func TestMintQuotaRequests(t *testing.T) {
	env := newTestEnv(t)
	env.engine.SetMintQuota(nativecommon.Quota{MaxRequestsPerEpoch: 1, EpochSeconds: 3600})

	if err := env.engine.Deposit(env.user, "WETH", mustBig(t, "100000000000000000000")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := env.engine.SetMarginRatio(env.user, "WETH", 150); err != nil {
		t.Fatalf("ratio: %v", err)
	}

	if err := env.engine.Mint(env.user, "WETH", big.NewInt(1)); err != nil {
		t.Fatalf("first mint: %v", err)
	}
	if err := env.engine.Mint(env.user, "WETH", big.NewInt(1)); !errors.Is(err, nativecommon.ErrQuotaRequestsExceeded) {
		t.Fatalf("expected ErrQuotaRequestsExceeded, got %v", err)
	}

	// A fresh epoch resets the counters.
	epoch := uint64(1)
	env.engine.quotaEpoch = func() uint64 { return epoch }
	epoch = 2
	if err := env.engine.Mint(env.user, "WETH", big.NewInt(1)); err != nil {
		t.Fatalf("mint after rollover: %v", err)
	}
}

func TestMintQuotaEvictsStaleEntries(t *testing.T) {
	env := newTestEnv(t)
	env.engine.SetMintQuota(nativecommon.Quota{MaxUnitsPerEpoch: 1000, EpochSeconds: 3600})
	epoch := uint64(1)
	env.engine.quotaEpoch = func() uint64 { return epoch }

	other := env.liquidator
	if err := env.weth.Mint(other, mustBig(t, "10000000000000000000")); err != nil {
		t.Fatalf("fund: %v", err)
	}
	env.weth.Approve(other, env.module, mustBig(t, "10000000000000000000"))

	for _, addr := range []common.Address{env.user, other} {
		if err := env.engine.Deposit(addr, "WETH", mustBig(t, "1000000000000000000")); err != nil {
			t.Fatalf("deposit: %v", err)
		}
		if err := env.engine.SetMarginRatio(addr, "WETH", 150); err != nil {
			t.Fatalf("ratio: %v", err)
		}
		if err := env.engine.Mint(addr, "WETH", big.NewInt(1)); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}
	if got := len(env.engine.quotaUsage); got != 2 {
		t.Fatalf("expected 2 tracked minters, got %d", got)
	}

	// Only the minters active in the new epoch stay tracked.
	epoch = 2
	if err := env.engine.Mint(env.user, "WETH", big.NewInt(1)); err != nil {
		t.Fatalf("mint after rollover: %v", err)
	}
	if got := len(env.engine.quotaUsage); got != 1 {
		t.Fatalf("stale usage entries survived the rollover: %d", got)
	}
	if _, ok := env.engine.quotaUsage[other]; ok {
		t.Fatalf("inactive minter still tracked after rollover")
	}
}
