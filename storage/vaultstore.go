package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stablevault/native/vault"
)

const (
	positionPrefix = "vault/pos/"
	treasuryPrefix = "vault/treasury/"
)

// VaultStore persists vault positions and treasury accruals in a key-value
// database. It satisfies the state interface the vault engine reads and
// writes through.
type VaultStore struct {
	db Database
}

// NewVaultStore wraps a database in a vault state store.
func NewVaultStore(db Database) *VaultStore {
	return &VaultStore{db: db}
}

type positionRecord struct {
	User        string `json:"user"`
	Asset       string `json:"asset"`
	Collateral  string `json:"collateral"`
	Debt        string `json:"debt"`
	MarginRatio uint64 `json:"marginRatio"`
}

func positionKey(user common.Address, asset string) []byte {
	return []byte(positionPrefix + asset + "/" + user.Hex())
}

func treasuryKey(asset string) []byte {
	return []byte(treasuryPrefix + asset)
}

// GetPosition loads a stored position. A missing record yields (nil, nil):
// the engine treats absence as an empty position.
func (s *VaultStore) GetPosition(user common.Address, asset string) (*vault.Position, error) {
	raw, err := s.db.Get(positionKey(user, asset))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec positionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode position: %w", err)
	}
	collateral, err := parseAmount(rec.Collateral)
	if err != nil {
		return nil, fmt.Errorf("decode collateral: %w", err)
	}
	debt, err := parseAmount(rec.Debt)
	if err != nil {
		return nil, fmt.Errorf("decode debt: %w", err)
	}
	return &vault.Position{
		User:        common.HexToAddress(rec.User),
		Asset:       rec.Asset,
		Collateral:  collateral,
		Debt:        debt,
		MarginRatio: rec.MarginRatio,
	}, nil
}

// PutPosition stores a position, replacing any prior record.
func (s *VaultStore) PutPosition(pos *vault.Position) error {
	if pos == nil {
		return fmt.Errorf("nil position")
	}
	rec := positionRecord{
		User:        pos.User.Hex(),
		Asset:       pos.Asset,
		Collateral:  formatAmount(pos.Collateral),
		Debt:        formatAmount(pos.Debt),
		MarginRatio: pos.MarginRatio,
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode position: %w", err)
	}
	return s.db.Put(positionKey(pos.User, pos.Asset), raw)
}

// GetTreasury loads the accrued fee balance for an asset. Missing records
// yield (nil, nil).
func (s *VaultStore) GetTreasury(asset string) (*big.Int, error) {
	raw, err := s.db.Get(treasuryKey(asset))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parseAmount(string(raw))
}

// PutTreasury stores the accrued fee balance for an asset.
func (s *VaultStore) PutTreasury(asset string, amount *big.Int) error {
	return s.db.Put(treasuryKey(asset), []byte(formatAmount(amount)))
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return v, nil
}
