package config

import (
	"fmt"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Validate rejects configurations the engine cannot run with.
func (cfg *Config) Validate() error {
	if !ethcommon.IsHexAddress(cfg.OwnerAddress) {
		return fmt.Errorf("invalid OwnerAddress %q", cfg.OwnerAddress)
	}
	if !ethcommon.IsHexAddress(cfg.ModuleAddress) {
		return fmt.Errorf("invalid ModuleAddress %q", cfg.ModuleAddress)
	}
	if cfg.Risk.MinMarginRatio <= cfg.Risk.LiquidationThreshold {
		return fmt.Errorf("risk: MinMarginRatio %d must exceed LiquidationThreshold %d", cfg.Risk.MinMarginRatio, cfg.Risk.LiquidationThreshold)
	}
	if cfg.Risk.LiquidationBonus > 100 || cfg.Risk.LiquidationFee > 100 {
		return fmt.Errorf("risk: bonus and fee are percentages and cannot exceed 100")
	}

	seen := make(map[string]struct{}, len(cfg.Assets))
	for _, asset := range cfg.Assets {
		symbol := strings.ToUpper(strings.TrimSpace(asset.Symbol))
		if symbol == "" {
			return fmt.Errorf("assets: empty symbol")
		}
		if _, dup := seen[symbol]; dup {
			return fmt.Errorf("assets: duplicate symbol %s", symbol)
		}
		seen[symbol] = struct{}{}
		if asset.Decimals > 18 {
			return fmt.Errorf("assets: %s token decimals %d exceed accounting precision", symbol, asset.Decimals)
		}
		if asset.FeedDecimals > 18 {
			return fmt.Errorf("assets: %s feed decimals %d exceed accounting precision", symbol, asset.FeedDecimals)
		}
	}
	return nil
}
