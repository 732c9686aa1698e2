// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Rpc lists the candidate chain endpoints in probe order.
type Rpc struct {
	URLs       []string `yaml:"urls"`
	Commitment string   `yaml:"commitment"` // processed|confirmed|finalized
}

// Jupiter configures the swap aggregator client.
type Jupiter struct {
	BaseURL          string  `yaml:"base_url"` // https://quote-api.jup.ag
	SlippageBps      int     `yaml:"slippage_bps"`
	RequestsPerSec   float64 `yaml:"requests_per_sec"`
	WrapUnwrapSol    bool    `yaml:"wrap_unwrap_sol"`
	CheckTradable    bool    `yaml:"check_tradable"`
	TokenListURL     string  `yaml:"token_list_url"`
	OnlyDirectRoutes bool    `yaml:"only_direct_routes"`
}

// Wallet stores signing material sources: an inline key or a flat key file.
type Wallet struct {
	PrivateKey string `yaml:"private_key"` // base58 or JSON byte array
	KeysFile   string `yaml:"keys_file"`
}

// Tokens names the flat file of tradable mint addresses.
type Tokens struct {
	MintsFile string `yaml:"mints_file"`
}

// Submit tunes transaction broadcast and confirmation polling.
type Submit struct {
	MaxRetries         uint `yaml:"max_retries"`
	ConfirmTimeoutSecs int  `yaml:"confirm_timeout_secs"`
	PollIntervalMs     int  `yaml:"poll_interval_ms"`
	ResendIntervalSecs int  `yaml:"resend_interval_secs"`
}

// Trader holds the randomized loop knobs: sizing fractions, sleep window, and side bias.
type Trader struct {
	FeeBufferLamports uint64  `yaml:"fee_buffer_lamports"`
	BuyMinPct         float64 `yaml:"buy_min_pct"`
	BuyMaxPct         float64 `yaml:"buy_max_pct"`
	SellMinPct        float64 `yaml:"sell_min_pct"`
	SellMaxPct        float64 `yaml:"sell_max_pct"`
	SleepMinSecs      int     `yaml:"sleep_min_secs"`
	SleepMaxSecs      int     `yaml:"sleep_max_secs"`
	BiasMint          string  `yaml:"bias_mint"`
	BiasProb          float64 `yaml:"bias_prob"`
}

// Price configures the Dexscreener lookup used for USD-denominated sizing.
type Price struct {
	BaseURL string `yaml:"base_url"`
	Chain   string `yaml:"chain"`
}

// IPCheck configures the proxy rotation checker.
type IPCheck struct {
	ProxyURL     string   `yaml:"proxy_url"`
	StateFile    string   `yaml:"state_file"`
	TimeoutSecs  int      `yaml:"timeout_secs"`
	EchoServices []string `yaml:"echo_services"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App     App     `yaml:"app"`
	Rpc     Rpc     `yaml:"rpc"`
	Jupiter Jupiter `yaml:"jupiter"`
	Wallet  Wallet  `yaml:"wallet"`
	Tokens  Tokens  `yaml:"tokens"`
	Submit  Submit  `yaml:"submit"`
	Trader  Trader  `yaml:"trader"`
	Price   Price   `yaml:"price"`
	IPCheck IPCheck `yaml:"ipcheck"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
