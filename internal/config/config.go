// Package config manages EtherVault's plaintext configuration: the
// wallet record in config.json (active address plus the token contract
// registry) and operator settings in settings.yaml.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethervault/ethervault/internal/fileutil"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

const configFile = "config.json"

// Config is the persisted wallet configuration. Every mutation is
// flushed to disk immediately, so there is no in-memory-only window.
type Config struct {
	// Address is the active wallet address, empty while uninitialized.
	Address string `json:"address"`

	// Contracts maps upper-case token symbols to contract addresses.
	Contracts map[string]string `json:"contracts"`

	path string
}

// Path returns the config file path under home.
func Path(home string) string {
	return filepath.Join(home, configFile)
}

// Load reads config.json from home, returning an empty configuration
// when the file does not exist yet. Unknown fields are rejected so a
// typo in a hand-edited file fails loudly instead of being dropped.
func Load(home string) (*Config, error) {
	path := Path(home)

	cfg := &Config{
		Contracts: make(map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, walleterr.Wrap(err, "reading %s", path)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, walleterr.WithDetails(walleterr.ErrConfigInvalid, map[string]string{
			"file":   path,
			"reason": err.Error(),
		})
	}
	if cfg.Contracts == nil {
		cfg.Contracts = make(map[string]string)
	}
	return cfg, nil
}

// Save writes the configuration atomically.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return walleterr.Wrap(err, "creating config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return walleterr.Wrap(err, "encoding configuration")
	}
	data = append(data, '\n')

	if err := fileutil.WriteAtomic(c.path, data, 0o600); err != nil {
		return walleterr.Wrap(err, "writing configuration")
	}
	return nil
}

// SetAddress records the active wallet address and flushes.
func (c *Config) SetAddress(address string) error {
	c.Address = address
	return c.Save()
}

// ClearAddress removes the active wallet address and flushes.
func (c *Config) ClearAddress() error {
	c.Address = ""
	return c.Save()
}

// AddContract registers a token contract under symbol and flushes.
// Symbols are stored upper-case; the address must be well-formed.
func (c *Config) AddContract(symbol, address string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{
			"reason": "token symbol must not be empty",
		})
	}
	if !common.IsHexAddress(address) {
		return walleterr.WithDetails(walleterr.ErrInvalidAddress, map[string]string{
			"address": address,
		})
	}

	c.Contracts[symbol] = common.HexToAddress(address).Hex()
	return c.Save()
}

// RemoveContract deletes a token registration and flushes.
func (c *Config) RemoveContract(symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if _, ok := c.Contracts[symbol]; !ok {
		return walleterr.WithDetails(walleterr.ErrUnknownToken, map[string]string{
			"symbol": symbol,
		})
	}
	delete(c.Contracts, symbol)
	return c.Save()
}

// Contract looks up a token contract address by symbol,
// case-insensitively.
func (c *Config) Contract(symbol string) (string, bool) {
	addr, ok := c.Contracts[strings.ToUpper(strings.TrimSpace(symbol))]
	return addr, ok
}

// DefaultHome returns the default data directory, honoring the
// ETHERVAULT_HOME override.
func DefaultHome() string {
	if env := os.Getenv("ETHERVAULT_HOME"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ethervault"
	}
	return filepath.Join(home, ".ethervault")
}
