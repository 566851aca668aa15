package common

import (
	"errors"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var (
	// ErrModulePaused marks a mutating call arriving while the module switch
	// is off.
	ErrModulePaused = errors.New("module paused")
	// ErrBlacklisted marks a mutating call from a barred address.
	ErrBlacklisted = errors.New("caller blacklisted")
)

// PauseView reports whether a named module is currently halted.
type PauseView interface {
	IsPaused(module string) bool
}

// BlacklistView reports whether an address is barred from mutating calls.
type BlacklistView interface {
	IsBlacklisted(addr ethcommon.Address) bool
}

// Guard rejects the call when the module is paused. A nil view or empty
// module name disables the check.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// GuardAddress rejects the call when the address is blacklisted. A nil view
// disables the check.
func GuardAddress(b BlacklistView, addr ethcommon.Address) error {
	if b == nil {
		return nil
	}
	if b.IsBlacklisted(addr) {
		return ErrBlacklisted
	}
	return nil
}
