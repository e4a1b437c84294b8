package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

const settingsFile = "settings.yaml"

// Settings holds operator-tunable parameters. Unlike Config these are
// never mutated by wallet operations; they are read once per command.
type Settings struct {
	// RPCURL is the JSON-RPC endpoint of the ledger node.
	RPCURL string `yaml:"rpc_url"`

	// ChainName is a display label for the connected network.
	ChainName string `yaml:"chain_name"`

	// NativeSymbol is the ticker of the chain's native asset.
	NativeSymbol string `yaml:"native_symbol"`

	// ExplorerURL is the base URL for transaction links, empty to
	// disable link printing.
	ExplorerURL string `yaml:"explorer_url"`

	// FiatCurrency is the quote currency for the balance table.
	FiatCurrency string `yaml:"fiat_currency"`

	// PriceAPIKey authenticates against the price quote service.
	PriceAPIKey string `yaml:"price_api_key,omitempty"`

	// TransferGasLimit is the gas limit for flat native transfers.
	TransferGasLimit uint64 `yaml:"transfer_gas_limit"`

	// ConfirmationTimeoutSeconds bounds the receipt wait after
	// broadcast. Zero means wait forever.
	ConfirmationTimeoutSeconds int `yaml:"confirmation_timeout_seconds"`

	// Logging controls the file logger.
	Logging LoggingSettings `yaml:"logging"`
}

// LoggingSettings defines the file logger configuration.
type LoggingSettings struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() *Settings {
	return &Settings{
		RPCURL:                     "http://127.0.0.1:8545",
		ChainName:                  "mainnet",
		NativeSymbol:               "ETH",
		ExplorerURL:                "https://etherscan.io/tx/",
		FiatCurrency:               "USD",
		TransferGasLimit:           21000,
		ConfirmationTimeoutSeconds: 120,
		Logging: LoggingSettings{
			Level: "off",
		},
	}
}

// ConfirmationTimeout returns the receipt wait bound as a duration.
func (s *Settings) ConfirmationTimeout() time.Duration {
	return time.Duration(s.ConfirmationTimeoutSeconds) * time.Second
}

// SettingsPath returns the settings file path under home.
func SettingsPath(home string) string {
	return filepath.Join(home, settingsFile)
}

// LoadSettings reads settings.yaml from home, falling back to defaults
// when the file is absent, then applies environment overrides.
func LoadSettings(home string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(SettingsPath(home))
	if err != nil && !os.IsNotExist(err) {
		return nil, walleterr.Wrap(err, "reading settings")
	}
	if err == nil {
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, walleterr.WithDetails(walleterr.ErrConfigInvalid, map[string]string{
				"file":   SettingsPath(home),
				"reason": err.Error(),
			})
		}
	}

	s.applyEnvironment()
	return s, nil
}

// applyEnvironment layers process environment overrides on top of the
// file values.
func (s *Settings) applyEnvironment() {
	if rpc := os.Getenv("ETHERVAULT_RPC"); rpc != "" {
		s.RPCURL = rpc
	}
	if key := os.Getenv("ETHERVAULT_PRICE_API_KEY"); key != "" {
		s.PriceAPIKey = key
	}
}
