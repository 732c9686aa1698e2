package trader

import (
	"context"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/malyshevid/volume-bot/internal/jup"
	"github.com/malyshevid/volume-bot/internal/metrics"
	"github.com/malyshevid/volume-bot/internal/submit"
)

// WSOL is the wrapped-SOL mint every trade routes through.
const WSOL = "So11111111111111111111111111111111111111112"

// JupiterSwapper executes intents via the aggregator and the submitter.
// Buys swap SOL into the mint; sells swap the mint back into SOL. Every swap
// is quoted ExactIn with the raw input amount.
type JupiterSwapper struct {
	Jup              *jup.Client
	Sub              *submit.Submitter
	SlippageBps      int
	WrapUnwrapSol    bool
	OnlyDirectRoutes bool
	Tradable         map[string]bool // nil disables the tradability check
	Log              zerolog.Logger
}

func (s *JupiterSwapper) Swap(ctx context.Context, intent Intent) (solana.Signature, error) {
	if s.Tradable != nil && !s.Tradable[intent.Mint.String()] {
		return solana.Signature{}, fmt.Errorf("mint %s not in tradable set", intent.Mint)
	}

	inputMint, outputMint := WSOL, intent.Mint.String()
	if intent.Side == Sell {
		inputMint, outputMint = intent.Mint.String(), WSOL
	}

	quote, err := s.Jup.GetQuote(ctx, jup.QuoteParams{
		InputMint:        inputMint,
		OutputMint:       outputMint,
		Amount:           intent.Amount,
		Mode:             jup.ExactIn,
		SlippageBps:      s.SlippageBps,
		OnlyDirectRoutes: s.OnlyDirectRoutes,
	})
	if err != nil {
		metrics.QuotesTotal.WithLabelValues("error").Inc()
		return solana.Signature{}, fmt.Errorf("quote: %w", err)
	}
	metrics.QuotesTotal.WithLabelValues("ok").Inc()
	s.Log.Debug().
		Str("in", quote.InAmount).Str("out", quote.OutAmount).
		Str("impact", quote.PriceImpactPct).Msg("quote received")

	txBase64, err := s.Jup.BuildSwap(ctx, quote, intent.Wallet.PublicKey(), s.WrapUnwrapSol)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build swap: %w", err)
	}

	sig, err := s.Sub.Execute(ctx, txBase64, intent.Wallet)
	if err != nil {
		return sig, fmt.Errorf("submit swap: %w", err)
	}
	return sig, nil
}
