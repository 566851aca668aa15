package common

import (
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Switchboard is the daemon's concrete pause and blacklist state. It
// satisfies both guard views and is safe for concurrent use.
type Switchboard struct {
	mu        sync.RWMutex
	paused    map[string]bool
	blacklist map[ethcommon.Address]bool
}

// NewSwitchboard returns a switchboard with every module live and no
// addresses barred.
func NewSwitchboard() *Switchboard {
	return &Switchboard{
		paused:    make(map[string]bool),
		blacklist: make(map[ethcommon.Address]bool),
	}
}

// SetPaused toggles the named module.
func (s *Switchboard) SetPaused(module string, paused bool) {
	s.mu.Lock()
	if paused {
		s.paused[module] = true
	} else {
		delete(s.paused, module)
	}
	s.mu.Unlock()
}

// IsPaused implements PauseView.
func (s *Switchboard) IsPaused(module string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused[module]
}

// SetBlacklisted toggles the address bar.
func (s *Switchboard) SetBlacklisted(addr ethcommon.Address, barred bool) {
	s.mu.Lock()
	if barred {
		s.blacklist[addr] = true
	} else {
		delete(s.blacklist, addr)
	}
	s.mu.Unlock()
}

// IsBlacklisted implements BlacklistView.
func (s *Switchboard) IsBlacklisted(addr ethcommon.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blacklist[addr]
}
