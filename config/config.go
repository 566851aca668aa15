package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration loaded from a TOML file.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	ServiceName   string `toml:"ServiceName"`
	Environment   string `toml:"Environment"`
	LogLevel      string `toml:"LogLevel"`

	OwnerAddress  string `toml:"OwnerAddress"`
	ModuleAddress string `toml:"ModuleAddress"`
	StableSymbol  string `toml:"StableSymbol"`

	Risk      Risk          `toml:"risk"`
	RateLimit RateLimit     `toml:"rate_limit"`
	MintQuota MintQuota     `toml:"mint_quota"`
	Telemetry Telemetry     `toml:"telemetry"`
	Assets    []AssetConfig `toml:"assets"`
}

// MintQuota throttles per-user issuance. Zero values leave the throttle
// disabled.
type MintQuota struct {
	MaxRequestsPerEpoch uint32 `toml:"MaxRequestsPerEpoch"`
	MaxUnitsPerEpoch    uint64 `toml:"MaxUnitsPerEpoch"`
	EpochSeconds        uint32 `toml:"EpochSeconds"`
}

// Risk holds the collateralization parameters, all expressed in percent.
type Risk struct {
	MinMarginRatio       uint64 `toml:"MinMarginRatio"`
	LiquidationThreshold uint64 `toml:"LiquidationThreshold"`
	LiquidationBonus     uint64 `toml:"LiquidationBonus"`
	LiquidationFee       uint64 `toml:"LiquidationFee"`
}

// RateLimit bounds inbound API traffic per client.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	Metrics  bool   `toml:"Metrics"`
	Traces   bool   `toml:"Traces"`
}

// AssetConfig declares a supported collateral asset. InitialPrice seeds the
// manual price feed in feed-native units and may be zero to start the feed
// unset.
type AssetConfig struct {
	Symbol       string `toml:"Symbol"`
	Decimals     uint8  `toml:"Decimals"`
	FeedDecimals uint8  `toml:"FeedDecimals"`
	InitialPrice int64  `toml:"InitialPrice"`
}

// Load reads the configuration from the given path, writing a commented
// default file first when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8080"
	}
	if strings.TrimSpace(cfg.ServiceName) == "" {
		cfg.ServiceName = "stablevaultd"
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.StableSymbol) == "" {
		cfg.StableSymbol = "SUSD"
	}
	if cfg.Risk.MinMarginRatio == 0 {
		cfg.Risk.MinMarginRatio = 110
	}
	if cfg.Risk.LiquidationThreshold == 0 {
		cfg.Risk.LiquidationThreshold = 100
	}
	if cfg.Risk.LiquidationBonus == 0 {
		cfg.Risk.LiquidationBonus = 10
	}
	if cfg.Risk.LiquidationFee == 0 {
		cfg.Risk.LiquidationFee = 10
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		cfg.RateLimit.RequestsPerSecond = 25
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 50
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress: ":8080",
		DataDir:       "./stablevault-data",
		ServiceName:   "stablevaultd",
		Environment:   "local",
		LogLevel:      "info",
		OwnerAddress:  "0x0000000000000000000000000000000000000002",
		ModuleAddress: "0x0000000000000000000000000000000000000001",
		StableSymbol:  "SUSD",
		Risk: Risk{
			MinMarginRatio:       110,
			LiquidationThreshold: 100,
			LiquidationBonus:     10,
			LiquidationFee:       10,
		},
		RateLimit: RateLimit{RequestsPerSecond: 25, Burst: 50},
		Assets: []AssetConfig{
			{Symbol: "WETH", Decimals: 18, FeedDecimals: 8},
			{Symbol: "WBTC", Decimals: 8, FeedDecimals: 8},
		},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
