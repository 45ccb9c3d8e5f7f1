package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sol-swap/pkg/apperror"
)

// Config holds the application configuration
type Config struct {
	AggregatorURL  string
	TokenSearchURL string
	BackendURL     string
	BackendToken   string
	RPCURL         string
	RPCFallbacks   []string
	Network        string

	FeeAccount         string
	PlatformFeeBps     int
	DefaultSlippageBps int

	QuoteTimeout           time.Duration
	DebounceDelay          time.Duration
	QuoteRequestsPerMinute int

	WaitConfirmation bool
	ConfirmTimeout   time.Duration

	JournalPath string
	LogLevel    string
	Env         string

	Wallet WalletConfig
	Server ServerConfig
}

// WalletConfig describes the local signer.
type WalletConfig struct {
	KeypairPath   string
	PrivateKey    string
	Kind          string // phantom, solflare or generic
	SkipPreflight bool
	Commitment    string
}

// Configured reports whether any key source is set.
func (w WalletConfig) Configured() bool {
	return w.KeypairPath != "" || w.PrivateKey != ""
}

// ServerConfig configures the backend REST server.
type ServerConfig struct {
	Addr        string
	DatabaseURL string
	SessionTTL  time.Duration
}

var globalConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("aggregator_url", "https://quote-api.jup.ag/v6")
	v.SetDefault("token_search_url", "https://lite-api.jup.ag/ultra/v1/search")
	v.SetDefault("backend_url", "http://localhost:3001/api")
	v.SetDefault("rpc_url", "https://api.devnet.solana.com")
	v.SetDefault("network", "devnet")
	v.SetDefault("platform_fee_bps", 0)
	v.SetDefault("default_slippage_bps", 50)
	v.SetDefault("quote_timeout", 10*time.Second)
	v.SetDefault("debounce_delay", 500*time.Millisecond)
	v.SetDefault("quote_requests_per_minute", 60)
	v.SetDefault("wait_confirmation", false)
	v.SetDefault("confirm_timeout", 60*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("env", "development")
	v.SetDefault("wallet.kind", "generic")
	v.SetDefault("wallet.commitment", "confirmed")
	v.SetDefault("server.addr", ":3001")
	v.SetDefault("server.session_ttl", 24*time.Hour)
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.GetViper()
	v.SetConfigName(".sol-swap")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	setDefaults(v)

	// SOL_SWAP_WALLET_PRIVATE_KEY maps to wallet.private_key
	v.SetEnvPrefix("SOL_SWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional
	_ = v.ReadInConfig()

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		AggregatorURL:          strings.TrimRight(v.GetString("aggregator_url"), "/"),
		TokenSearchURL:         v.GetString("token_search_url"),
		BackendURL:             strings.TrimRight(v.GetString("backend_url"), "/"),
		BackendToken:           v.GetString("backend_token"),
		RPCURL:                 v.GetString("rpc_url"),
		RPCFallbacks:           v.GetStringSlice("rpc_fallback_urls"),
		Network:                strings.ToLower(v.GetString("network")),
		FeeAccount:             v.GetString("fee_account"),
		PlatformFeeBps:         v.GetInt("platform_fee_bps"),
		DefaultSlippageBps:     v.GetInt("default_slippage_bps"),
		QuoteTimeout:           v.GetDuration("quote_timeout"),
		DebounceDelay:          v.GetDuration("debounce_delay"),
		QuoteRequestsPerMinute: v.GetInt("quote_requests_per_minute"),
		WaitConfirmation:       v.GetBool("wait_confirmation"),
		ConfirmTimeout:         v.GetDuration("confirm_timeout"),
		JournalPath:            v.GetString("journal_path"),
		LogLevel:               v.GetString("log_level"),
		Env:                    v.GetString("env"),
		Wallet: WalletConfig{
			KeypairPath:   expandHome(v.GetString("wallet.keypair_path")),
			PrivateKey:    v.GetString("wallet.private_key"),
			Kind:          strings.ToLower(v.GetString("wallet.kind")),
			SkipPreflight: v.GetBool("wallet.skip_preflight"),
			Commitment:    v.GetString("wallet.commitment"),
		},
		Server: ServerConfig{
			Addr:        v.GetString("server.addr"),
			DatabaseURL: v.GetString("server.database_url"),
			SessionTTL:  v.GetDuration("server.session_ttl"),
		},
	}
	if cfg.JournalPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.JournalPath = filepath.Join(home, ".sol-swap-journal.json")
		}
	}
	return cfg
}

// Validate checks value ranges and required settings.
func (c *Config) Validate() error {
	if c.AggregatorURL == "" {
		return configError("aggregator_url is required")
	}
	if c.RPCURL == "" {
		return configError("rpc_url is required")
	}
	if c.Network != "devnet" && c.Network != "mainnet" {
		return configError(fmt.Sprintf("unknown network %q, expected devnet or mainnet", c.Network))
	}
	if c.DefaultSlippageBps < 0 || c.DefaultSlippageBps > 10000 {
		return configError("default_slippage_bps must be between 0 and 10000")
	}
	if c.PlatformFeeBps < 0 || c.PlatformFeeBps > 10000 {
		return configError("platform_fee_bps must be between 0 and 10000")
	}
	if c.PlatformFeeBps > 0 && c.FeeAccount == "" {
		return configError("fee_account is required when platform_fee_bps is set")
	}
	if c.QuoteTimeout <= 0 {
		return configError("quote_timeout must be positive")
	}
	switch c.Wallet.Kind {
	case "phantom", "solflare", "generic":
	default:
		return configError(fmt.Sprintf("unknown wallet.kind %q", c.Wallet.Kind))
	}
	return nil
}

func configError(msg string) error {
	return apperror.New(apperror.CodeConfigurationError, apperror.WithMessage(msg))
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}

// SaveBackendToken stores the backend session token in the config file.
// Only keys already in the file are rewritten; env and defaults are not
// copied into it.
func SaveBackendToken(token string) (string, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, ".sol-swap.yaml")
	}

	fv := viper.New()
	fv.SetConfigFile(path)
	fv.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := fv.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read config: %w", err)
		}
	}
	fv.Set("backend_token", token)
	if err := fv.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	viper.Set("backend_token", token)
	if globalConfig != nil {
		globalConfig.BackendToken = token
	}
	return path, nil
}
