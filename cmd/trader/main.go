// Binary trader runs the randomized swap-volume loop until terminated.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/malyshevid/volume-bot/internal/config"
	"github.com/malyshevid/volume-bot/internal/jup"
	"github.com/malyshevid/volume-bot/internal/metrics"
	"github.com/malyshevid/volume-bot/internal/rpcpool"
	"github.com/malyshevid/volume-bot/internal/submit"
	"github.com/malyshevid/volume-bot/internal/tokens"
	"github.com/malyshevid/volume-bot/internal/trader"
	"github.com/malyshevid/volume-bot/internal/util"
	"github.com/malyshevid/volume-bot/internal/wallet"
)

func main() {
	_ = godotenv.Load() // best-effort

	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Msg("config")
	}
	config.ApplyDefaults(cfg)
	log := util.NewLogger(getEnv("LOG_LEVEL", cfg.App.LogLevel))

	if addr := getEnv("METRICS_ADDR", cfg.App.MetricsAddr); addr != "" {
		metrics.Serve(addr)
		log.Info().Str("addr", addr).Msg("metrics listening")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	urls := rpcpool.Candidates(cfg.Rpc.URLs, os.Getenv)
	client, rpcURL, err := rpcpool.NewSelector(log).Select(ctx, urls)
	if err != nil {
		log.Fatal().Err(err).Msg("rpc endpoint selection")
	}
	log.Info().Str("rpc", rpcURL).Msg("connected")

	wallets, err := loadWallets(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("wallets")
	}
	mints, err := tokens.LoadMints(cfg.Tokens.MintsFile, log)
	if err != nil {
		log.Fatal().Err(err).Msg("tokens")
	}
	log.Info().Int("wallets", len(wallets)).Int("mints", len(mints)).Msg("loaded trading universe")

	jupClient := jup.NewClient(
		getEnv("JUPITER_BASE_URL", cfg.Jupiter.BaseURL),
		cfg.Jupiter.TokenListURL,
		cfg.Jupiter.RequestsPerSec,
		log,
	)

	var tradable map[string]bool
	if cfg.Jupiter.CheckTradable {
		listCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		tradable, err = jupClient.TradableMints(listCtx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("token list unavailable, continuing without tradability check")
			tradable = nil
		}
	}

	submitter := submit.New(client, submit.Config{
		MaxRetries:     cfg.Submit.MaxRetries,
		ConfirmTimeout: time.Duration(cfg.Submit.ConfirmTimeoutSecs) * time.Second,
		PollInterval:   time.Duration(cfg.Submit.PollIntervalMs) * time.Millisecond,
		ResendInterval: time.Duration(cfg.Submit.ResendIntervalSecs) * time.Second,
		Commitment:     submit.CommitmentFromString(cfg.Rpc.Commitment),
	}, log)

	swapper := &trader.JupiterSwapper{
		Jup:              jupClient,
		Sub:              submitter,
		SlippageBps:      cfg.Jupiter.SlippageBps,
		WrapUnwrapSol:    cfg.Jupiter.WrapUnwrapSol,
		OnlyDirectRoutes: cfg.Jupiter.OnlyDirectRoutes,
		Tradable:         tradable,
		Log:              log,
	}
	chain := trader.NewRPCChain(client, cfg.Rpc.Commitment)

	engine, err := trader.New(chain, swapper, wallets, mints, cfg.Trader, log)
	if err != nil {
		log.Fatal().Err(err).Msg("trader")
	}

	log.Info().Str("env", cfg.App.Env).Msg("trading loop starting")
	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("trading loop")
	}
	log.Info().Msg("shutdown")
}

func loadWallets(cfg *config.Config, log zerolog.Logger) ([]solana.PrivateKey, error) {
	if cfg.Wallet.KeysFile != "" {
		return wallet.LoadKeyFile(cfg.Wallet.KeysFile, log)
	}
	if raw := getEnv("SOLANA_PRIVATE_KEY", cfg.Wallet.PrivateKey); raw != "" {
		key, err := wallet.ParseKey(raw)
		if err != nil {
			return nil, err
		}
		return []solana.PrivateKey{key}, nil
	}
	return nil, errors.New("no wallet source configured: set wallet.keys_file or SOLANA_PRIVATE_KEY")
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
