package config

// ApplyDefaults fills zero-valued knobs that have sane operational defaults.
// Explicit YAML values always win.
func ApplyDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Rpc.Commitment == "" {
		cfg.Rpc.Commitment = "confirmed"
	}
	if cfg.Jupiter.BaseURL == "" {
		cfg.Jupiter.BaseURL = "https://quote-api.jup.ag"
	}
	if cfg.Jupiter.TokenListURL == "" {
		cfg.Jupiter.TokenListURL = "https://token.jup.ag/all"
	}
	if cfg.Jupiter.SlippageBps == 0 {
		cfg.Jupiter.SlippageBps = 150
	}
	if cfg.Jupiter.RequestsPerSec == 0 {
		cfg.Jupiter.RequestsPerSec = 2
	}
	if cfg.Submit.MaxRetries == 0 {
		cfg.Submit.MaxRetries = 5
	}
	if cfg.Submit.ConfirmTimeoutSecs == 0 {
		cfg.Submit.ConfirmTimeoutSecs = 75
	}
	if cfg.Submit.PollIntervalMs == 0 {
		cfg.Submit.PollIntervalMs = 1000
	}
	if cfg.Submit.ResendIntervalSecs == 0 {
		cfg.Submit.ResendIntervalSecs = 5
	}
	if cfg.Trader.FeeBufferLamports == 0 {
		cfg.Trader.FeeBufferLamports = 10_000_000 // keep 0.01 SOL for fees
	}
	if cfg.Trader.BuyMinPct == 0 {
		cfg.Trader.BuyMinPct = 5
	}
	if cfg.Trader.BuyMaxPct == 0 {
		cfg.Trader.BuyMaxPct = 20
	}
	if cfg.Trader.SellMinPct == 0 {
		cfg.Trader.SellMinPct = 10
	}
	if cfg.Trader.SellMaxPct == 0 {
		cfg.Trader.SellMaxPct = 40
	}
	if cfg.Trader.SleepMinSecs == 0 {
		cfg.Trader.SleepMinSecs = 15
	}
	if cfg.Trader.SleepMaxSecs == 0 {
		cfg.Trader.SleepMaxSecs = 45
	}
	if cfg.Price.BaseURL == "" {
		cfg.Price.BaseURL = "https://api.dexscreener.com"
	}
	if cfg.Price.Chain == "" {
		cfg.Price.Chain = "solana"
	}
	if cfg.IPCheck.StateFile == "" {
		cfg.IPCheck.StateFile = ".last_ip"
	}
	if cfg.IPCheck.TimeoutSecs == 0 {
		cfg.IPCheck.TimeoutSecs = 10
	}
}
