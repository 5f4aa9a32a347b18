package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Settings holds process-level configuration loaded from the environment,
// the same way the teacher's internal/config.Load builds its Config.
type Settings struct {
	ConfigFile string `envconfig:"TXUNAMI_CONFIG_FILE" default:"txunami.json"`
	LogLevel   string `envconfig:"TXUNAMI_LOG_LEVEL" default:"info"`
	LogDir     string `envconfig:"TXUNAMI_LOG_DIR" default:"./logs"`
}

// LoadSettings reads a .env file (if present) then real environment
// variables, with real env vars always winning over .env values.
func LoadSettings() (*Settings, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			slog.Warn("failed to load .env file", "error", err)
		} else {
			slog.Info("loaded .env file")
		}
	}

	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	return &s, nil
}

// FeeSpec is the "fee" field of the domain config: either a single constant
// amount, or {"min":..,"max":..} for a uniform random range, matching
// original_source/main.cpp's FeeProducer::set.
type FeeSpec struct {
	Constant *int64
	Min      *int64
	Max      *int64
}

func (f *FeeSpec) UnmarshalJSON(data []byte) error {
	var constant int64
	if err := json.Unmarshal(data, &constant); err == nil {
		f.Constant = &constant
		return nil
	}

	var rng struct {
		Min int64 `json:"min"`
		Max int64 `json:"max"`
	}
	if err := json.Unmarshal(data, &rng); err != nil {
		return wrap(ErrInvalidConfig, "fee must be a number or {min,max} object")
	}
	f.Min, f.Max = &rng.Min, &rng.Max
	return nil
}

// DriverConfig is the "config" object of the domain config file.
type DriverConfig struct {
	Fee         FeeSpec `json:"fee"`
	SplitPerTx  uint32  `json:"splitPerTx"`
	DefaultPort uint16  `json:"defaultPort"`
	MinUtxos    uint64  `json:"minUtxos"`
	MaxThreads  int     `json:"maxThreads"`
	Bitcoind    string  `json:"bitcoind"`
	Net         string  `json:"net"`
	NetMagicHex string  `json:"netMagic"`
}

// applyDefaults fills in fields GlobalConfig::Load would leave at their
// struct-literal defaults when the JSON document omits them.
func (c *DriverConfig) applyDefaults() {
	if c.SplitPerTx == 0 {
		c.SplitPerTx = DefaultSplitPerTx
	}
	if c.DefaultPort == 0 {
		c.DefaultPort = DefaultPort
	}
	if c.MinUtxos == 0 {
		c.MinUtxos = DefaultMinUtxos
	}
	if c.MaxThreads == 0 {
		c.MaxThreads = DefaultMaxThreads
	}
	if c.Bitcoind == "" {
		c.Bitcoind = DefaultBitcoind
	}
	if c.Net == "" {
		c.Net = DefaultNet
	}
}

// Magic resolves the 4-byte message-start sequence for this config: an
// explicit "netMagic" hex string wins, otherwise it is looked up by net name.
func (c *DriverConfig) Magic() ([4]byte, error) {
	if c.NetMagicHex != "" {
		raw, err := hex.DecodeString(c.NetMagicHex)
		if err != nil || len(raw) != 4 {
			return [4]byte{}, wrap(ErrInvalidConfig, "netMagic must be 4 hex bytes, got %q", c.NetMagicHex)
		}
		return [4]byte{raw[0], raw[1], raw[2], raw[3]}, nil
	}
	magic, ok := NetMagic(c.Net)
	if !ok {
		return [4]byte{}, wrap(ErrUnknownNetwork, "net %q", c.Net)
	}
	return magic, nil
}

// RootConfig is the top-level shape of the domain config file: config,
// coins and schedule, matching spec.md §6. Coins and Schedule are left raw
// so internal/coin and internal/schedule own their own decoding.
type RootConfig struct {
	Config   DriverConfig    `json:"config"`
	Coins    json.RawMessage `json:"coins"`
	Schedule json.RawMessage `json:"schedule"`
}

// LoadDriverConfig reads and decodes the domain config file at path.
func LoadDriverConfig(path string) (*RootConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrap(ErrMissingConfigFile, "%s", path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var root RootConfig
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, wrap(ErrInvalidConfig, "parsing %s: %v", path, err)
	}
	root.Config.applyDefaults()

	return &root, nil
}
