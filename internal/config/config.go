package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jask/ethdapp/internal/contract"
)

// DefaultContractAddress is the voting contract the dapp talks to unless overridden.
const DefaultContractAddress = contract.VotingAddress

// Config holds application configuration.
type Config struct {
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Contract ContractConfig `mapstructure:"contract"`
	Timeouts TimeoutConfig  `mapstructure:"timeouts"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
}

// WalletConfig describes how to reach the wallet provider.
type WalletConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	ReceiptPoll  time.Duration `mapstructure:"receipt_poll"`
}

// ContractConfig holds the voting contract location.
type ContractConfig struct {
	Address string `mapstructure:"address"`
}

// TimeoutConfig bounds every user action.
type TimeoutConfig struct {
	Request      time.Duration `mapstructure:"request"`
	Confirmation time.Duration `mapstructure:"confirmation"`
}

// JournalConfig holds sqlite settings for the activity journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds diagnostics settings.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	CurrencySymbol string `mapstructure:"currency_symbol"`
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "ethdapp")
}

// Load reads configuration from .env, file and env. Env var overrides use prefix ETHDAPP_.
// A file named by ETHDAPP_CONFIG must exist.
func Load() (Config, error) { return load(true) }

// LoadOptional is Load without requiring the ETHDAPP_CONFIG file to exist.
func LoadOptional() (Config, error) { return load(false) }

func load(requireExplicit bool) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("wallet.endpoint", "http://127.0.0.1:1248")
	v.SetDefault("wallet.poll_interval", "4s")
	v.SetDefault("wallet.receipt_poll", "2s")
	v.SetDefault("contract.address", DefaultContractAddress)
	v.SetDefault("timeouts.request", "30s")
	v.SetDefault("timeouts.confirmation", "5m")
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", filepath.Join(dataDir(), "journal.db"))
	v.SetDefault("log.path", filepath.Join(dataDir(), "ethdapp.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("ui.currency_symbol", "ETH")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("ETHDAPP_CONFIG")
	readFile := true
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) && !requireExplicit {
			readFile = false
		}
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "ethdapp"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ETHDAPP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if readFile {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			// an explicit ETHDAPP_CONFIG must exist
			if !errors.As(err, &notFound) || cfgPath != "" {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Validate rejects settings the dapp cannot run with.
func (c Config) Validate() error {
	var errs []error
	if !common.IsHexAddress(c.Contract.Address) {
		errs = append(errs, fmt.Errorf("contract.address %q is not a hex address", c.Contract.Address))
	}
	if strings.TrimSpace(c.Wallet.Endpoint) == "" {
		errs = append(errs, errors.New("wallet.endpoint is empty"))
	} else if !isIPCPath(c.Wallet.Endpoint) {
		u, err := url.Parse(c.Wallet.Endpoint)
		if err != nil {
			errs = append(errs, fmt.Errorf("wallet.endpoint: %w", err))
		} else {
			switch u.Scheme {
			case "http", "https", "ws", "wss":
			default:
				errs = append(errs, fmt.Errorf("wallet.endpoint: unsupported scheme %q", u.Scheme))
			}
		}
	}
	if c.Wallet.PollInterval < 0 {
		errs = append(errs, errors.New("wallet.poll_interval must not be negative"))
	}
	if c.Wallet.ReceiptPoll <= 0 {
		errs = append(errs, errors.New("wallet.receipt_poll must be positive"))
	}
	if c.Timeouts.Request <= 0 {
		errs = append(errs, errors.New("timeouts.request must be positive"))
	}
	if c.Timeouts.Confirmation <= 0 {
		errs = append(errs, errors.New("timeouts.confirmation must be positive"))
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		errs = append(errs, errors.New("journal.path is empty"))
	}
	return errors.Join(errs...)
}

// isIPCPath reports whether endpoint names a unix socket rather than a URL.
func isIPCPath(endpoint string) bool {
	return strings.HasPrefix(endpoint, "/") || strings.HasSuffix(endpoint, ".ipc")
}

// Path returns the config file location: $ETHDAPP_CONFIG or the default.
func Path() string {
	if p := os.Getenv("ETHDAPP_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "ethdapp", "config.toml")
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("wallet.endpoint", cfg.Wallet.Endpoint)
	v.Set("wallet.poll_interval", cfg.Wallet.PollInterval.String())
	v.Set("wallet.receipt_poll", cfg.Wallet.ReceiptPoll.String())
	v.Set("contract.address", cfg.Contract.Address)
	v.Set("timeouts.request", cfg.Timeouts.Request.String())
	v.Set("timeouts.confirmation", cfg.Timeouts.Confirmation.String())
	v.Set("journal.enabled", cfg.Journal.Enabled)
	v.Set("journal.path", cfg.Journal.Path)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
