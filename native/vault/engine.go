package vault

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"stablevault/core/events"
	nativecommon "stablevault/native/common"
	"stablevault/native/pricing"
	"stablevault/native/token"
)

var (
	errNilState = errors.New("vault engine: state not configured")
	errNilToken = errors.New("vault engine: accounting token not configured")

	// ErrInvalidAmount marks a zero or negative amount argument.
	ErrInvalidAmount = errors.New("vault engine: amount must be positive")
	// ErrAssetNotSupported marks an operation against an unregistered asset.
	ErrAssetNotSupported = errors.New("vault engine: asset not supported")
	// ErrInsufficientCollateral marks a withdrawal above the locked amount.
	ErrInsufficientCollateral = errors.New("vault engine: withdrawal exceeds collateral")
	// ErrUnsafeWithdrawal marks a withdrawal that would leave the position
	// below its chosen margin ratio.
	ErrUnsafeWithdrawal = errors.New("vault engine: withdrawal would breach margin ratio")
	// ErrRatioBelowMinimum marks a margin ratio under the protocol floor.
	ErrRatioBelowMinimum = errors.New("vault engine: margin ratio below minimum")
	// ErrUnsafeRatio marks a ratio change the current debt cannot support.
	ErrUnsafeRatio = errors.New("vault engine: ratio unsafe under current debt")
	// ErrRatioNotSet marks a mint attempted before a margin ratio was chosen.
	ErrRatioNotSet = errors.New("vault engine: margin ratio not set")
	// ErrMintExceedsCeiling marks a mint above the position's debt ceiling.
	ErrMintExceedsCeiling = errors.New("vault engine: mint exceeds ceiling")
	// ErrOverRepay marks a repayment above the user's total outstanding debt.
	ErrOverRepay = errors.New("vault engine: repayment exceeds total debt")
	// ErrNoDebt marks a liquidation against a position with nothing owed.
	ErrNoDebt = errors.New("vault engine: position has no debt")
	// ErrRepayExceedsDebt marks a liquidation repay above the position debt.
	ErrRepayExceedsDebt = errors.New("vault engine: repay exceeds position debt")
	// ErrNotLiquidatable marks a liquidation against a healthy position.
	ErrNotLiquidatable = errors.New("vault engine: position not eligible for liquidation")
	// ErrNotOwner marks an owner-gated call from another address.
	ErrNotOwner = errors.New("vault engine: caller is not the owner")
	// ErrInsufficientTreasury marks a treasury withdrawal above the accrued
	// fee balance.
	ErrInsufficientTreasury = errors.New("vault engine: amount exceeds treasury balance")
	// ErrInsufficientSurplus marks a sweep above the unreserved balance.
	ErrInsufficientSurplus = errors.New("vault engine: amount exceeds unreserved balance")
)

const moduleName = "vault"

// engineState is the persistence boundary for the position ledger and the
// per-asset treasury accrual.
type engineState interface {
	GetPosition(user common.Address, asset string) (*Position, error)
	PutPosition(pos *Position) error
	GetTreasury(asset string) (*big.Int, error)
	PutTreasury(asset string, amount *big.Int) error
}

// Engine orchestrates every state transition over the position ledger. Each
// public operation runs to completion under a single exclusive guard: state is
// read and validated, new values are computed, external token transfers run,
// and only then is ledger state committed, so no concurrent call can observe
// a partially applied transition.
type Engine struct {
	mu sync.Mutex

	state     engineState
	registry  *Registry
	stable    token.MintableToken
	params    RiskParameters
	module    common.Address
	owner     common.Address
	pauses    nativecommon.PauseView
	blacklist nativecommon.BlacklistView
	events    events.Emitter

	mintQuota       nativecommon.Quota
	quotaUsage      map[common.Address]nativecommon.QuotaNow
	quotaEpoch      func() uint64
	quotaSweepEpoch uint64
}

// NewEngine constructs a vault engine with the custody (module) address, the
// owner authorised for treasury and registry administration, and the risk
// parameters. Zero-valued parameters fall back to protocol defaults.
func NewEngine(module, owner common.Address, params RiskParameters) *Engine {
	return &Engine{
		module:   module,
		owner:    owner,
		params:   params.Normalized(),
		registry: NewRegistry(),
		events:   events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetMintQuota bounds per-user issuance. Counters reset each quota epoch;
// a zero-valued quota disables the throttle.
func (e *Engine) SetMintQuota(q nativecommon.Quota) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mintQuota = q
	e.quotaUsage = make(map[common.Address]nativecommon.QuotaNow)
}

func (e *Engine) currentQuotaEpoch() uint64 {
	if e.quotaEpoch != nil {
		return e.quotaEpoch()
	}
	secs := e.mintQuota.EpochSeconds
	if secs == 0 {
		secs = 3600
	}
	return uint64(time.Now().Unix()) / uint64(secs)
}

// checkMintQuota charges one request plus the whole-unit value of the mint
// against the caller's counters for the current epoch. On the first charge of
// a new epoch every stale entry is dropped so the usage map stays bounded by
// the set of minters active this epoch.
func (e *Engine) checkMintQuota(user common.Address, amount *big.Int) error {
	if !e.mintQuota.Enabled() {
		return nil
	}
	epoch := e.currentQuotaEpoch()
	if epoch != e.quotaSweepEpoch {
		for addr, usage := range e.quotaUsage {
			if usage.EpochID != epoch {
				delete(e.quotaUsage, addr)
			}
		}
		e.quotaSweepEpoch = epoch
	}
	usage, err := nativecommon.CheckQuota(e.mintQuota, epoch, e.quotaUsage[user], 1, wholeUnits(amount))
	if err != nil {
		return err
	}
	e.quotaUsage[user] = usage
	return nil
}

// SetRegistry replaces the supported-asset registry.
func (e *Engine) SetRegistry(r *Registry) {
	if e == nil || r == nil {
		return
	}
	e.registry = r
}

// SetStableToken wires the accounting unit issued against collateral.
func (e *Engine) SetStableToken(t token.MintableToken) {
	if e == nil {
		return
	}
	e.stable = t
}

// SetPauses wires the module pause switch checked on every mutating call.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetBlacklist wires the per-caller bar checked on every mutating call.
func (e *Engine) SetBlacklist(b nativecommon.BlacklistView) {
	if e == nil {
		return
	}
	e.blacklist = b
}

// SetEmitter wires the event sink. A nil emitter restores the discard sink.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.events = events.NoopEmitter{}
		return
	}
	e.events = emitter
}

// Registry exposes the supported-asset set for read-side consumers.
func (e *Engine) Registry() *Registry {
	if e == nil {
		return nil
	}
	return e.registry
}

// Owner reports the address authorised for administrative calls.
func (e *Engine) Owner() common.Address {
	if e == nil {
		return common.Address{}
	}
	return e.owner
}

// Params reports the active risk parameters.
func (e *Engine) Params() RiskParameters {
	if e == nil {
		return RiskParameters{}
	}
	return e.params
}

// Deposit pulls collateral from the user into custody and grows their
// position. The position is created implicitly on first deposit.
func (e *Engine) Deposit(user common.Address, asset string, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard(user); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return ErrAssetNotSupported
	}
	pos, err := e.ensurePosition(user, info.Symbol)
	if err != nil {
		return err
	}

	// Transfer failures from the token contract propagate as-is.
	if err := info.Token.TransferFrom(e.module, user, e.module, amount); err != nil {
		return err
	}

	pos.Collateral = new(big.Int).Add(pos.Collateral, amount)
	if err := e.state.PutPosition(pos); err != nil {
		return err
	}

	e.events.Emit(events.VaultDeposit{User: user, Asset: info.Symbol, Amount: new(big.Int).Set(amount)})
	return nil
}

// Withdraw releases collateral back to the user. When the position carries
// debt the remaining collateral must still satisfy the user's chosen margin
// ratio at the current price.
func (e *Engine) Withdraw(user common.Address, asset string, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard(user); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return ErrAssetNotSupported
	}
	pos, err := e.ensurePosition(user, info.Symbol)
	if err != nil {
		return err
	}
	if pos.Collateral.Cmp(amount) < 0 {
		return ErrInsufficientCollateral
	}

	remaining := new(big.Int).Sub(pos.Collateral, amount)
	if pos.Debt.Sign() > 0 {
		price, err := e.assetPrice(info)
		if err != nil {
			return err
		}
		value := assetValue(remaining, info.Decimals, price)
		if !coversRatio(value, pos.Debt, pos.MarginRatio) {
			return ErrUnsafeWithdrawal
		}
	}

	if err := info.Token.Transfer(e.module, user, amount); err != nil {
		return err
	}

	pos.Collateral = remaining
	if err := e.state.PutPosition(pos); err != nil {
		return err
	}

	e.events.Emit(events.VaultWithdraw{User: user, Asset: info.Symbol, Amount: new(big.Int).Set(amount)})
	return nil
}

// SetMarginRatio records the user's chosen safety target for a position. The
// ratio must meet the protocol floor, and when debt is outstanding the
// position must already satisfy the new target at the current price.
func (e *Engine) SetMarginRatio(user common.Address, asset string, ratio uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard(user); err != nil {
		return err
	}
	if ratio < e.params.MinMarginRatio {
		return ErrRatioBelowMinimum
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return ErrAssetNotSupported
	}
	pos, err := e.ensurePosition(user, info.Symbol)
	if err != nil {
		return err
	}
	if pos.Debt.Sign() > 0 {
		price, err := e.assetPrice(info)
		if err != nil {
			return err
		}
		value := assetValue(pos.Collateral, info.Decimals, price)
		if !coversRatio(value, pos.Debt, ratio) {
			return ErrUnsafeRatio
		}
	}

	pos.MarginRatio = ratio
	if err := e.state.PutPosition(pos); err != nil {
		return err
	}

	e.events.Emit(events.VaultRatioSet{User: user, Asset: info.Symbol, Ratio: ratio})
	return nil
}

// Mint issues accounting units against the position up to its debt ceiling.
func (e *Engine) Mint(user common.Address, asset string, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.stable == nil {
		return errNilToken
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard(user); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return ErrAssetNotSupported
	}
	pos, err := e.ensurePosition(user, info.Symbol)
	if err != nil {
		return err
	}
	if pos.MarginRatio < e.params.MinMarginRatio {
		return ErrRatioNotSet
	}

	price, err := e.assetPrice(info)
	if err != nil {
		return err
	}
	ceiling := mintCeiling(assetValue(pos.Collateral, info.Decimals, price), pos.MarginRatio)
	projected := new(big.Int).Add(pos.Debt, amount)
	if projected.Cmp(ceiling) > 0 {
		return ErrMintExceedsCeiling
	}
	if err := e.checkMintQuota(user, amount); err != nil {
		return err
	}

	if err := e.stable.Mint(user, amount); err != nil {
		return err
	}

	pos.Debt = projected
	if err := e.state.PutPosition(pos); err != nil {
		return err
	}

	e.events.Emit(events.VaultMinted{User: user, Asset: info.Symbol, Amount: new(big.Int).Set(amount)})
	return nil
}

// Repay pulls and retires accounting units, reducing each of the user's
// positions proportionally to its share of total debt. Truncation dust from
// the proportional split lands on the last indebted asset in registry
// iteration order; when that asset's debt cannot absorb all of it, the excess
// spills onto the earlier positions (floor-under-reduced, so they always have
// headroom) so the reductions sum exactly to the amount retired.
func (e *Engine) Repay(user common.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.stable == nil {
		return errNilToken
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard(user); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	indebted := make([]*Position, 0, 4)
	total := big.NewInt(0)
	for _, symbol := range e.registry.Symbols() {
		pos, err := e.ensurePosition(user, symbol)
		if err != nil {
			return err
		}
		if pos.Debt.Sign() > 0 {
			indebted = append(indebted, pos)
			total = total.Add(total, pos.Debt)
		}
	}
	if amount.Cmp(total) > 0 {
		return ErrOverRepay
	}

	// Pull the full amount, then retire it.
	if err := e.stable.TransferFrom(e.module, user, e.module, amount); err != nil {
		return err
	}
	if err := e.stable.Burn(e.module, amount); err != nil {
		return err
	}

	reductions := make([]*big.Int, len(indebted))
	allocated := big.NewInt(0)
	for i, pos := range indebted {
		var reduce *big.Int
		if i == len(indebted)-1 {
			reduce = new(big.Int).Sub(amount, allocated)
			if reduce.Cmp(pos.Debt) > 0 {
				reduce = new(big.Int).Set(pos.Debt)
			}
		} else {
			reduce = new(big.Int).Mul(amount, pos.Debt)
			reduce = reduce.Quo(reduce, total)
		}
		reductions[i] = reduce
		allocated = allocated.Add(allocated, reduce)
	}
	// amount <= total, so any remainder the last asset could not absorb fits
	// in the earlier positions' headroom.
	excess := new(big.Int).Sub(amount, allocated)
	for i := 0; excess.Sign() > 0 && i < len(indebted); i++ {
		headroom := new(big.Int).Sub(indebted[i].Debt, reductions[i])
		if headroom.Sign() <= 0 {
			continue
		}
		add := new(big.Int).Set(excess)
		if headroom.Cmp(add) < 0 {
			add.Set(headroom)
		}
		reductions[i].Add(reductions[i], add)
		excess.Sub(excess, add)
	}

	for i, pos := range indebted {
		pos.Debt = clampZero(new(big.Int).Sub(pos.Debt, reductions[i]))
		if err := e.state.PutPosition(pos); err != nil {
			return err
		}
	}

	e.events.Emit(events.VaultRepaid{User: user, Amount: new(big.Int).Set(amount)})
	return nil
}

// Liquidate lets any caller repay part of an under-margined position's debt
// in exchange for a bonus slice of its collateral. The unwind is per-asset
// and partial; when the position's collateral cannot cover the requested
// repayment plus bonus, both the seizure and the retired debt are capped so
// no more accounting units burn than the collateral value justifies.
func (e *Engine) Liquidate(liquidator, user common.Address, asset string, repayAmount *big.Int) (*LiquidationOutcome, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.stable == nil {
		return nil, errNilToken
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.guard(liquidator); err != nil {
		return nil, err
	}
	if repayAmount == nil || repayAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	info, ok := e.registry.Get(asset)
	if !ok {
		return nil, ErrAssetNotSupported
	}
	pos, err := e.ensurePosition(user, info.Symbol)
	if err != nil {
		return nil, err
	}
	if pos.Debt.Sign() == 0 {
		return nil, ErrNoDebt
	}
	if repayAmount.Cmp(pos.Debt) > 0 {
		return nil, ErrRepayExceedsDebt
	}

	price, err := e.assetPrice(info)
	if err != nil {
		return nil, err
	}
	collateralValue := assetValue(pos.Collateral, info.Decimals, price)
	// Eligible only below the threshold: collateralValue * 100 < debt * threshold.
	if !belowThreshold(collateralValue, pos.Debt, e.params.LiquidationThreshold) {
		return nil, ErrNotLiquidatable
	}

	collateralNeeded := amountFromValue(repayAmount, info.Decimals, price)
	seize := new(big.Int).Add(collateralNeeded, percentOf(collateralNeeded, e.params.LiquidationBonus))

	adjustedRepay := new(big.Int).Set(repayAmount)
	if seize.Cmp(pos.Collateral) > 0 {
		// Collateral is the binding constraint: seize it all and retire only
		// as much debt as its value covers.
		seize = new(big.Int).Set(pos.Collateral)
		if collateralValue.Cmp(adjustedRepay) < 0 {
			adjustedRepay = new(big.Int).Set(collateralValue)
		}
	}

	fee := percentOf(seize, e.params.LiquidationFee)
	if fee.Cmp(seize) > 0 {
		fee = new(big.Int).Set(seize)
	}
	net := new(big.Int).Sub(seize, fee)

	treasury, err := e.treasuryBalance(info.Symbol)
	if err != nil {
		return nil, err
	}

	// External movements: pull and retire the adjusted repayment, then pay
	// out the liquidator's net collateral.
	if err := e.stable.TransferFrom(e.module, liquidator, e.module, adjustedRepay); err != nil {
		return nil, err
	}
	if err := e.stable.Burn(e.module, adjustedRepay); err != nil {
		return nil, err
	}
	if net.Sign() > 0 {
		if err := info.Token.Transfer(e.module, liquidator, net); err != nil {
			return nil, err
		}
	}

	pos.Collateral = clampZero(new(big.Int).Sub(pos.Collateral, seize))
	pos.Debt = clampZero(new(big.Int).Sub(pos.Debt, adjustedRepay))
	if err := e.state.PutPosition(pos); err != nil {
		return nil, err
	}
	if fee.Sign() > 0 {
		if err := e.state.PutTreasury(info.Symbol, new(big.Int).Add(treasury, fee)); err != nil {
			return nil, err
		}
	}

	outcome := &LiquidationOutcome{
		ID:               uuid.NewString(),
		Repaid:           adjustedRepay,
		CollateralSeized: seize,
		Fee:              fee,
		PaidToLiquidator: net,
	}
	e.events.Emit(events.VaultLiquidated{
		ID:              outcome.ID,
		User:            user,
		Asset:           info.Symbol,
		Liquidator:      liquidator,
		Repaid:          new(big.Int).Set(adjustedRepay),
		CollateralTaken: new(big.Int).Set(seize),
		Fee:             new(big.Int).Set(fee),
	})
	return outcome, nil
}

func (e *Engine) guard(caller common.Address) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	return nativecommon.GuardAddress(e.blacklist, caller)
}

func (e *Engine) ensurePosition(user common.Address, symbol string) (*Position, error) {
	pos, err := e.state.GetPosition(user, symbol)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		pos = &Position{User: user, Asset: symbol}
	}
	if pos.Collateral == nil {
		pos.Collateral = big.NewInt(0)
	}
	if pos.Debt == nil {
		pos.Debt = big.NewInt(0)
	}
	return pos, nil
}

func (e *Engine) treasuryBalance(symbol string) (*big.Int, error) {
	bal, err := e.state.GetTreasury(symbol)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return big.NewInt(0), nil
	}
	return bal, nil
}

func (e *Engine) assetPrice(info AssetInfo) (*big.Int, error) {
	quote, err := info.Feed.LatestRoundData()
	if err != nil {
		return nil, err
	}
	return pricing.Normalize(quote)
}

// coversRatio reports value * 100 >= debt * ratio without division.
func coversRatio(value, debt *big.Int, ratio uint64) bool {
	lhs := new(big.Int).Mul(value, hundred)
	rhs := new(big.Int).Mul(debt, new(big.Int).SetUint64(ratio))
	return lhs.Cmp(rhs) >= 0
}

// belowThreshold reports value * 100 < debt * threshold.
func belowThreshold(value, debt *big.Int, threshold uint64) bool {
	lhs := new(big.Int).Mul(value, hundred)
	rhs := new(big.Int).Mul(debt, new(big.Int).SetUint64(threshold))
	return lhs.Cmp(rhs) < 0
}

// mintCeiling returns value * 100 / ratio, floored; zero when the ratio is
// unset.
func mintCeiling(value *big.Int, ratio uint64) *big.Int {
	if ratio == 0 || value == nil || value.Sign() <= 0 {
		return big.NewInt(0)
	}
	ceiling := new(big.Int).Mul(value, hundred)
	return ceiling.Quo(ceiling, new(big.Int).SetUint64(ratio))
}
