// Binary swap executes a single aggregator swap from the command line:
//
//	swap buy  <mint> <amount>   # spend SOL, receive <mint>
//	swap sell <mint> <amount>   # spend <mint>, receive SOL
//
// Amounts are SOL for buys and UI token units for sells; with --usd the
// amount is a USD notional converted via the Dexscreener price.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/malyshevid/volume-bot/internal/config"
	"github.com/malyshevid/volume-bot/internal/jup"
	"github.com/malyshevid/volume-bot/internal/price"
	"github.com/malyshevid/volume-bot/internal/rpcpool"
	"github.com/malyshevid/volume-bot/internal/submit"
	"github.com/malyshevid/volume-bot/internal/trader"
	"github.com/malyshevid/volume-bot/internal/util"
	"github.com/malyshevid/volume-bot/internal/wallet"
)

const lamportsPerSol = 1_000_000_000

func main() {
	if err := run(); err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // best-effort

	configPath := flag.String("config", "config.yaml", "path to YAML config")
	usd := flag.Bool("usd", false, "interpret amount as USD notional")
	slippageBps := flag.Int("slippage-bps", 0, "override slippage tolerance")
	flag.Parse()

	if flag.NArg() != 3 {
		return fmt.Errorf("usage: swap [flags] {buy|sell} <mint> <amount>")
	}
	op, mintArg, amountArg := flag.Arg(0), flag.Arg(1), flag.Arg(2)
	if op != "buy" && op != "sell" {
		return fmt.Errorf("operation must be buy or sell, got %q", op)
	}
	mint, err := solana.PublicKeyFromBase58(mintArg)
	if err != nil {
		return fmt.Errorf("invalid mint %q: %w", mintArg, err)
	}
	amount, err := decimal.NewFromString(amountArg)
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("amount must be a positive number, got %q", amountArg)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	config.ApplyDefaults(cfg)
	log := util.NewLogger(getEnv("LOG_LEVEL", cfg.App.LogLevel))
	if *slippageBps > 0 {
		cfg.Jupiter.SlippageBps = *slippageBps
	}

	key, err := loadKey(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	urls := rpcpool.Candidates(cfg.Rpc.URLs, os.Getenv)
	client, rpcURL, err := rpcpool.NewSelector(log).Select(ctx, urls)
	if err != nil {
		return err
	}
	log.Info().Str("rpc", rpcURL).Msg("connected")

	side := trader.Buy
	if op == "sell" {
		side = trader.Sell
	}
	atoms, err := resolveAtoms(ctx, client, cfg, side, mint, amount, *usd, log)
	if err != nil {
		return err
	}

	jupClient := jup.NewClient(
		getEnv("JUPITER_BASE_URL", cfg.Jupiter.BaseURL),
		cfg.Jupiter.TokenListURL,
		cfg.Jupiter.RequestsPerSec,
		log,
	)
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
		Log:              log,
	}

	sig, err := swapper.Swap(ctx, trader.Intent{Side: side, Wallet: key, Mint: mint, Amount: atoms})
	if err != nil {
		return err
	}
	color.Green("✓ swap confirmed")
	fmt.Println("https://explorer.solana.com/tx/" + sig.String())
	return nil
}

// resolveAtoms converts the CLI amount into smallest units of the input asset.
func resolveAtoms(ctx context.Context, client *rpc.Client, cfg *config.Config, side trader.Side, mint solana.PublicKey, amount decimal.Decimal, usd bool, log zerolog.Logger) (uint64, error) {
	priceClient := price.NewClient(cfg.Price.BaseURL, cfg.Price.Chain)

	if side == trader.Buy {
		sol := amount
		if usd {
			solUSD, err := priceClient.TokenUSD(ctx, trader.WSOL)
			if err != nil {
				return 0, fmt.Errorf("sol price: %w", err)
			}
			sol = amount.Div(solUSD)
			log.Info().Str("sol_usd", solUSD.String()).Str("sol", sol.String()).Msg("usd converted")
		}
		atoms := sol.Mul(decimal.NewFromInt(lamportsPerSol)).Floor()
		if !atoms.IsPositive() {
			return 0, fmt.Errorf("amount too small: %s SOL", sol)
		}
		return uint64(atoms.IntPart()), nil
	}

	supply, err := client.GetTokenSupply(ctx, mint, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("token decimals: %w", err)
	}
	decimals := int32(supply.Value.Decimals)
	if usd {
		tokenUSD, err := priceClient.TokenUSD(ctx, mint.String())
		if err != nil {
			return 0, fmt.Errorf("token price: %w", err)
		}
		return price.UsdToAtoms(amount, tokenUSD, decimals)
	}
	atoms := amount.Mul(decimal.New(1, decimals)).Floor()
	if !atoms.IsPositive() {
		return 0, fmt.Errorf("amount too small for %d decimals", decimals)
	}
	return uint64(atoms.IntPart()), nil
}

func loadKey(cfg *config.Config) (solana.PrivateKey, error) {
	if raw := getEnv("SOLANA_PRIVATE_KEY", cfg.Wallet.PrivateKey); raw != "" {
		return wallet.ParseKey(raw)
	}
	return nil, fmt.Errorf("no wallet configured: set wallet.private_key or SOLANA_PRIVATE_KEY")
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
