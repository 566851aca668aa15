package vault

import "github.com/ethereum/go-ethereum/common"

// AddAsset registers a new collateral asset. Owner-gated; rejects symbols
// already in the supported set.
func (e *Engine) AddAsset(caller common.Address, info AssetInfo) error {
	if e == nil {
		return errNilState
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	return e.registry.Add(info)
}

// RemoveAsset drops an asset from the supported set. Owner-gated; positions
// recorded for the asset remain in state but become invisible to every
// operation until the asset is registered again.
func (e *Engine) RemoveAsset(caller common.Address, symbol string) error {
	if e == nil {
		return errNilState
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	return e.registry.Remove(symbol)
}
