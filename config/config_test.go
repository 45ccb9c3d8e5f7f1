package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-swap/pkg/apperror"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg := fromViper(newTestViper())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://quote-api.jup.ag/v6", cfg.AggregatorURL)
	assert.Equal(t, 50, cfg.DefaultSlippageBps)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceDelay)
	assert.Equal(t, "generic", cfg.Wallet.Kind)
	assert.Equal(t, 0, cfg.PlatformFeeBps)
	assert.False(t, cfg.Wallet.Configured())
}

func TestValidateFeeAccountRequired(t *testing.T) {
	v := newTestViper()
	v.Set("platform_fee_bps", 1000)
	err := fromViper(v).Validate()
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))

	v.Set("fee_account", "FeeAcct1111111111111111111111111111111111111")
	assert.NoError(t, fromViper(v).Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(v *viper.Viper){
		"slippage":    func(v *viper.Viper) { v.Set("default_slippage_bps", 20000) },
		"network":     func(v *viper.Viper) { v.Set("network", "testnet") },
		"wallet kind": func(v *viper.Viper) { v.Set("wallet.kind", "backpack") },
		"timeout":     func(v *viper.Viper) { v.Set("quote_timeout", "0s") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			v := newTestViper()
			mutate(v)
			assert.Error(t, fromViper(v).Validate())
		})
	}
}

func TestTrailingSlashTrimmed(t *testing.T) {
	v := newTestViper()
	v.Set("backend_url", "http://localhost:3001/api/")
	assert.Equal(t, "http://localhost:3001/api", fromViper(v).BackendURL)
}

func TestSaveBackendTokenKeepsFileKeys(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SOL_SWAP_WALLET_PRIVATE_KEY", "should-not-be-written")
	path := filepath.Join(home, ".sol-swap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network: mainnet\n"), 0600))

	written, err := SaveBackendToken("sess-1")
	require.NoError(t, err)
	assert.Equal(t, path, written)

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	assert.Equal(t, "sess-1", v.GetString("backend_token"))
	assert.Equal(t, "mainnet", v.GetString("network"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should-not-be-written")
}
