// Package trader drives the randomized buy/sell loop: pick a wallet, a mint,
// a side, and a size, execute the swap, sleep, repeat.
package trader

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/malyshevid/volume-bot/internal/config"
	"github.com/malyshevid/volume-bot/internal/metrics"
)

// Side enumerates trade directions.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Intent is one iteration's randomly generated trade request.
type Intent struct {
	Side   Side
	Wallet solana.PrivateKey
	Mint   solana.PublicKey
	Amount uint64 // smallest units of the input asset
}

// Chain reads balances for sizing decisions.
type Chain interface {
	// NativeBalance returns the owner's SOL balance in lamports.
	NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	// TokenBalance returns the owner's holding of mint, summed across all
	// token accounts, in smallest units.
	TokenBalance(ctx context.Context, owner solana.PublicKey, mint solana.PublicKey) (uint64, error)
}

// Swapper executes a trade intent end to end.
type Swapper interface {
	Swap(ctx context.Context, intent Intent) (solana.Signature, error)
}

// ErrSkip marks an iteration abandoned before quoting; the loop continues.
type ErrSkip struct{ Reason string }

func (e ErrSkip) Error() string { return "iteration skipped: " + e.Reason }

// Engine holds the loop state.
type Engine struct {
	chain   Chain
	swapper Swapper
	wallets []solana.PrivateKey
	mints   []solana.PublicKey
	cfg     config.Trader
	log     zerolog.Logger
	rng     *rand.Rand
}

// New builds an Engine. wallets and mints must be non-empty.
func New(chain Chain, swapper Swapper, wallets []solana.PrivateKey, mints []solana.PublicKey, cfg config.Trader, log zerolog.Logger) (*Engine, error) {
	if len(wallets) == 0 {
		return nil, fmt.Errorf("trader: no wallets")
	}
	if len(mints) == 0 {
		return nil, fmt.Errorf("trader: no mints")
	}
	if cfg.BiasMint != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.BiasMint); err != nil {
			return nil, fmt.Errorf("trader: invalid bias mint %q: %w", cfg.BiasMint, err)
		}
	}
	return &Engine{
		chain:   chain,
		swapper: swapper,
		wallets: wallets,
		mints:   mints,
		cfg:     cfg,
		log:     log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// pickMint applies the optional bias: with probability BiasProb the designated
// mint is chosen regardless of the uniform draw.
func (e *Engine) pickMint() solana.PublicKey {
	if e.cfg.BiasMint != "" && e.rng.Float64() < e.cfg.BiasProb {
		if mint, err := solana.PublicKeyFromBase58(e.cfg.BiasMint); err == nil {
			return mint
		}
	}
	return e.mints[e.rng.Intn(len(e.mints))]
}

func (e *Engine) pickSide() Side {
	if e.rng.Intn(2) == 0 {
		return Buy
	}
	return Sell
}

// fraction draws a uniform percentage in [minPct, maxPct] and applies it.
func fraction(rng *rand.Rand, amount uint64, minPct, maxPct float64) uint64 {
	if maxPct < minPct {
		maxPct = minPct
	}
	pct := minPct + rng.Float64()*(maxPct-minPct)
	return uint64(float64(amount) * pct / 100)
}

// buildIntent sizes one trade from current balances. Returns ErrSkip when the
// wallet cannot fund the side that was drawn.
func (e *Engine) buildIntent(ctx context.Context) (Intent, error) {
	wallet := e.wallets[e.rng.Intn(len(e.wallets))]
	mint := e.pickMint()
	side := e.pickSide()

	intent := Intent{Side: side, Wallet: wallet, Mint: mint}
	owner := wallet.PublicKey()

	switch side {
	case Buy:
		balance, err := e.chain.NativeBalance(ctx, owner)
		if err != nil {
			return intent, fmt.Errorf("native balance: %w", err)
		}
		if balance <= e.cfg.FeeBufferLamports {
			return intent, ErrSkip{Reason: "insufficient_balance"}
		}
		spendable := balance - e.cfg.FeeBufferLamports
		intent.Amount = fraction(e.rng, spendable, e.cfg.BuyMinPct, e.cfg.BuyMaxPct)
	case Sell:
		holding, err := e.chain.TokenBalance(ctx, owner, mint)
		if err != nil {
			return intent, fmt.Errorf("token balance: %w", err)
		}
		if holding == 0 {
			return intent, ErrSkip{Reason: "zero_holding"}
		}
		intent.Amount = fraction(e.rng, holding, e.cfg.SellMinPct, e.cfg.SellMaxPct)
	}
	if intent.Amount == 0 {
		return intent, ErrSkip{Reason: "dust_amount"}
	}
	return intent, nil
}

// RunOnce performs a single iteration: size, swap, record.
func (e *Engine) RunOnce(ctx context.Context) error {
	metrics.IterationsTotal.Inc()

	intent, err := e.buildIntent(ctx)
	if err != nil {
		if skip, ok := err.(ErrSkip); ok {
			metrics.SkipsTotal.WithLabelValues(skip.Reason).Inc()
			e.log.Info().Str("reason", skip.Reason).Str("side", string(intent.Side)).Msg("iteration skipped")
			return nil
		}
		return err
	}

	log := e.log.With().
		Str("side", string(intent.Side)).
		Str("mint", intent.Mint.String()).
		Str("wallet", intent.Wallet.PublicKey().String()).
		Uint64("amount", intent.Amount).
		Logger()

	sig, err := e.swapper.Swap(ctx, intent)
	if err != nil {
		metrics.SwapsTotal.WithLabelValues(string(intent.Side), "error").Inc()
		log.Warn().Err(err).Msg("swap failed")
		return err
	}
	metrics.SwapsTotal.WithLabelValues(string(intent.Side), "ok").Inc()
	log.Info().Str("sig", sig.String()).Msg("swap confirmed")
	return nil
}

// Run loops until ctx is canceled. Iteration errors are logged, never fatal;
// between iterations the loop sleeps a uniform random duration in the
// configured window.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := e.RunOnce(ctx); err != nil && ctx.Err() == nil {
			e.log.Warn().Err(err).Msg("iteration failed")
		}

		sleep := e.sleepDuration()
		e.log.Debug().Dur("sleep", sleep).Msg("next iteration")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

func (e *Engine) sleepDuration() time.Duration {
	min, max := e.cfg.SleepMinSecs, e.cfg.SleepMaxSecs
	if max <= min {
		return time.Duration(min) * time.Second
	}
	return time.Duration(min+e.rng.Intn(max-min+1)) * time.Second
}
