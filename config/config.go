package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"contentledger/crypto"
	"contentledger/native/content"
)

// Config carries the daemon configuration loaded from TOML.
type Config struct {
	RPCAddress         string            `toml:"RPCAddress"`
	DataDir            string            `toml:"DataDir"`
	NetworkName        string            `toml:"NetworkName"`
	Environment        string            `toml:"Environment"`
	Administrator      string            `toml:"Administrator"`
	CommissionPermille uint32            `toml:"CommissionPermille"`
	GenesisAlloc       map[string]string `toml:"GenesisAlloc"`
}

const defaultTemplate = `# contentledger daemon configuration.
RPCAddress = "%s"
DataDir = "%s"
NetworkName = "%s"
Environment = "local"

# Bech32 address seeded as administrator on first start.
Administrator = ""

# Platform cut per purchase, in thousandths (0-1000).
CommissionPermille = %d

# Balances funded on first start, address -> amount in smallest units.
[GenesisAlloc]
`

const (
	defaultRPCAddress = "127.0.0.1:8545"
	defaultNetwork    = "cml-local"
	defaultCommission = 100
)

// Load reads the configuration from the given path, writing a commented
// default file when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(path, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dataDir := filepath.Join(filepath.Dir(path), "data")
	rendered := fmt.Sprintf(defaultTemplate, defaultRPCAddress, dataDir, defaultNetwork, defaultCommission)
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return nil, err
	}
	cfg := &Config{}
	applyDefaults(path, cfg)
	return cfg, nil
}

func applyDefaults(path string, cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = defaultRPCAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = filepath.Join(filepath.Dir(path), "data")
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = defaultNetwork
	}
	if cfg.GenesisAlloc == nil {
		cfg.GenesisAlloc = map[string]string{}
	}
}

// Validate rejects configurations the node cannot start with.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if c.CommissionPermille > content.MaxPermille {
		return fmt.Errorf("config: CommissionPermille %d exceeds %d", c.CommissionPermille, content.MaxPermille)
	}
	if admin := strings.TrimSpace(c.Administrator); admin != "" {
		if _, err := crypto.DecodeAddress(admin); err != nil {
			return fmt.Errorf("config: invalid Administrator address: %w", err)
		}
	}
	for addr, amount := range c.GenesisAlloc {
		if _, err := crypto.DecodeAddress(strings.TrimSpace(addr)); err != nil {
			return fmt.Errorf("config: invalid GenesisAlloc address %q: %w", addr, err)
		}
		parsed, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
		if !ok || parsed.Sign() < 0 {
			return fmt.Errorf("config: invalid GenesisAlloc amount %q for %q", amount, addr)
		}
	}
	return nil
}

// AdministratorAddress decodes the configured administrator. The zero
// address is returned when none is configured.
func (c *Config) AdministratorAddress() ([20]byte, error) {
	admin := strings.TrimSpace(c.Administrator)
	if admin == "" {
		return [20]byte{}, nil
	}
	decoded, err := crypto.DecodeAddress(admin)
	if err != nil {
		return [20]byte{}, err
	}
	return decoded.Bytes(), nil
}

// Allocations decodes the genesis allocation table into raw addresses and
// amounts.
func (c *Config) Allocations() (map[[20]byte]*big.Int, error) {
	out := make(map[[20]byte]*big.Int, len(c.GenesisAlloc))
	for addr, amount := range c.GenesisAlloc {
		decoded, err := crypto.DecodeAddress(strings.TrimSpace(addr))
		if err != nil {
			return nil, fmt.Errorf("config: invalid GenesisAlloc address %q: %w", addr, err)
		}
		parsed, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
		if !ok || parsed.Sign() < 0 {
			return nil, fmt.Errorf("config: invalid GenesisAlloc amount %q for %q", amount, addr)
		}
		out[decoded.Bytes()] = parsed
	}
	return out, nil
}
