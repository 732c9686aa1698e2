package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "volume-bot-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if len(cfg.Rpc.URLs) != 2 || cfg.Rpc.URLs[0] != "https://api.mainnet-beta.solana.com" {
		t.Fatalf("unexpected rpc urls: %+v", cfg.Rpc.URLs)
	}
	if cfg.Rpc.Commitment != "confirmed" {
		t.Fatalf("expected confirmed commitment, got %s", cfg.Rpc.Commitment)
	}
	if cfg.Jupiter.BaseURL != "https://quote-api.jup.ag" {
		t.Fatalf("unexpected Jupiter.BaseURL: %s", cfg.Jupiter.BaseURL)
	}
	if cfg.Jupiter.SlippageBps != 150 {
		t.Fatalf("unexpected slippage bps: %d", cfg.Jupiter.SlippageBps)
	}
	if !cfg.Jupiter.WrapUnwrapSol {
		t.Fatalf("expected wrap_unwrap_sol true")
	}
	if cfg.Wallet.KeysFile != "wallets.txt" {
		t.Fatalf("unexpected keys file: %s", cfg.Wallet.KeysFile)
	}
	if cfg.Tokens.MintsFile != "tokens.txt" {
		t.Fatalf("unexpected mints file: %s", cfg.Tokens.MintsFile)
	}
	if cfg.Submit.ConfirmTimeoutSecs != 75 {
		t.Fatalf("unexpected confirm timeout: %d", cfg.Submit.ConfirmTimeoutSecs)
	}
	if cfg.Submit.ResendIntervalSecs != 5 {
		t.Fatalf("unexpected resend interval: %d", cfg.Submit.ResendIntervalSecs)
	}
	if cfg.Trader.BuyMinPct != 5 || cfg.Trader.BuyMaxPct != 20 {
		t.Fatalf("unexpected buy pct range: %.1f-%.1f", cfg.Trader.BuyMinPct, cfg.Trader.BuyMaxPct)
	}
	if cfg.Trader.SellMinPct != 10 || cfg.Trader.SellMaxPct != 40 {
		t.Fatalf("unexpected sell pct range: %.1f-%.1f", cfg.Trader.SellMinPct, cfg.Trader.SellMaxPct)
	}
	if cfg.Trader.BiasMint != "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v" {
		t.Fatalf("unexpected bias mint: %s", cfg.Trader.BiasMint)
	}
	if cfg.Trader.BiasProb != 0.3 {
		t.Fatalf("unexpected bias prob: %.2f", cfg.Trader.BiasProb)
	}
	if cfg.Price.Chain != "solana" {
		t.Fatalf("unexpected price chain: %s", cfg.Price.Chain)
	}
	if cfg.IPCheck.StateFile != ".last_ip" {
		t.Fatalf("unexpected state file: %s", cfg.IPCheck.StateFile)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Jupiter.BaseURL != "https://quote-api.jup.ag" {
		t.Fatalf("unexpected default jupiter base: %s", cfg.Jupiter.BaseURL)
	}
	if cfg.Submit.ConfirmTimeoutSecs != 75 {
		t.Fatalf("unexpected default confirm timeout: %d", cfg.Submit.ConfirmTimeoutSecs)
	}
	if cfg.Trader.FeeBufferLamports != 10_000_000 {
		t.Fatalf("unexpected default fee buffer: %d", cfg.Trader.FeeBufferLamports)
	}
	if cfg.Trader.SleepMinSecs != 15 || cfg.Trader.SleepMaxSecs != 45 {
		t.Fatalf("unexpected default sleep window: %d-%d", cfg.Trader.SleepMinSecs, cfg.Trader.SleepMaxSecs)
	}

	cfg.Jupiter.SlippageBps = 50
	ApplyDefaults(&cfg)
	if cfg.Jupiter.SlippageBps != 50 {
		t.Fatalf("explicit value overwritten: %d", cfg.Jupiter.SlippageBps)
	}
}
