package vault

import (
	"errors"
	"strings"
	"sync"

	"stablevault/native/pricing"
	"stablevault/native/token"
)

var (
	// ErrAssetExists marks an attempt to register an already-supported asset.
	ErrAssetExists = errors.New("vault registry: asset already registered")
	// ErrAssetUnknown marks an operation against an asset outside the
	// supported set.
	ErrAssetUnknown = errors.New("vault registry: asset not registered")
)

// AssetInfo binds a supported collateral asset to its token contract and its
// price source.
type AssetInfo struct {
	Symbol   string
	Decimals uint8
	Token    token.Token
	Feed     pricing.PriceFeed
}

// Registry holds the supported-asset set. Iteration follows insertion order
// so cross-asset flows (proportional repayment in particular) are
// deterministic and testable; removal swaps the tail entry into the vacated
// slot and truncates.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	assets map[string]AssetInfo
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{assets: make(map[string]AssetInfo)}
}

// Add registers a new supported asset.
func (r *Registry) Add(info AssetInfo) error {
	symbol := normalizeSymbol(info.Symbol)
	if symbol == "" {
		return ErrAssetUnknown
	}
	info.Symbol = symbol
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[symbol]; ok {
		return ErrAssetExists
	}
	r.assets[symbol] = info
	r.order = append(r.order, symbol)
	return nil
}

// Remove drops an asset from the supported set. The iteration slot is filled
// by swapping in the final entry, so relative order of later assets changes.
func (r *Registry) Remove(symbol string) error {
	symbol = normalizeSymbol(symbol)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[symbol]; !ok {
		return ErrAssetUnknown
	}
	delete(r.assets, symbol)
	for i, s := range r.order {
		if s == symbol {
			last := len(r.order) - 1
			r.order[i] = r.order[last]
			r.order = r.order[:last]
			break
		}
	}
	return nil
}

// Get resolves a supported asset by symbol.
func (r *Registry) Get(symbol string) (AssetInfo, bool) {
	symbol = normalizeSymbol(symbol)
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.assets[symbol]
	return info, ok
}

// Has reports whether the symbol is currently supported.
func (r *Registry) Has(symbol string) bool {
	_, ok := r.Get(symbol)
	return ok
}

// Symbols returns the supported symbols in iteration order.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
