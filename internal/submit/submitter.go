// Package submit signs aggregator-built transactions, broadcasts them, and
// polls status until a terminal state or timeout.
package submit

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/malyshevid/volume-bot/internal/metrics"
)

// ErrConfirmTimeout is returned when the confirmation budget elapses without
// the transaction reaching a terminal status.
var ErrConfirmTimeout = errors.New("confirmation timed out")

// ChainRPC is the slice of the chain RPC surface the submitter needs.
// *rpc.Client satisfies it.
type ChainRPC interface {
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Config tunes broadcast and confirmation behavior.
type Config struct {
	MaxRetries     uint
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	ResendInterval time.Duration
	Commitment     rpc.CommitmentType
}

// DefaultConfig mirrors the operational defaults: 75s budget, 1s polls,
// re-broadcast every 5s.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     5,
		ConfirmTimeout: 75 * time.Second,
		PollInterval:   time.Second,
		ResendInterval: 5 * time.Second,
		Commitment:     rpc.CommitmentConfirmed,
	}
}

// CommitmentFromString maps a config string to an RPC commitment level,
// defaulting to confirmed.
func CommitmentFromString(s string) rpc.CommitmentType {
	switch s {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

// Submitter drives a signed transaction to confirmation.
type Submitter struct {
	client ChainRPC
	cfg    Config
	log    zerolog.Logger
}

// New builds a Submitter; zero-valued cfg fields fall back to defaults.
func New(client ChainRPC, cfg Config, log zerolog.Logger) *Submitter {
	def := DefaultConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = def.ConfirmTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ResendInterval == 0 {
		cfg.ResendInterval = def.ResendInterval
	}
	if cfg.Commitment == "" {
		cfg.Commitment = def.Commitment
	}
	return &Submitter{client: client, cfg: cfg, log: log}
}

// DecodeAndSign turns a base64 transaction from the aggregator into a signed
// *solana.Transaction.
func DecodeAndSign(txBase64 string, key solana.PrivateKey) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return nil, fmt.Errorf("decode tx: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal tx: %w", err)
	}
	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(key.PublicKey()) {
			return &key
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return tx, nil
}

// Execute signs, broadcasts, and waits for confirmation in one call.
func (s *Submitter) Execute(ctx context.Context, txBase64 string, key solana.PrivateKey) (solana.Signature, error) {
	tx, err := DecodeAndSign(txBase64, key)
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err := s.Send(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := s.AwaitConfirmation(ctx, sig, tx); err != nil {
		return sig, err
	}
	return sig, nil
}

// Send broadcasts a signed transaction, skipping preflight and letting the
// RPC node retry forwarding up to MaxRetries times.
func (s *Submitter) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	maxRetries := s.cfg.MaxRetries
	sig, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		MaxRetries:          &maxRetries,
		PreflightCommitment: s.cfg.Commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send tx: %w", err)
	}
	return sig, nil
}

// AwaitConfirmation polls signature status every PollInterval within the
// ConfirmTimeout budget. A status error fails immediately; confirmed or
// finalized succeeds. While unresolved, the signed transaction is re-sent
// every ResendInterval to improve landing odds; re-send errors are dropped.
func (s *Submitter) AwaitConfirmation(ctx context.Context, sig solana.Signature, tx *solana.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	lastResend := time.Now()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w after %s: %s", ErrConfirmTimeout, s.cfg.ConfirmTimeout, sig)
			}
			return ctx.Err()
		case <-ticker.C:
		}

		statuses, err := s.client.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			s.log.Warn().Err(err).Str("sig", sig.String()).Msg("status poll failed")
		} else if len(statuses.Value) > 0 && statuses.Value[0] != nil {
			st := statuses.Value[0]
			if st.Err != nil {
				return fmt.Errorf("transaction failed on chain: %v", st.Err)
			}
			switch st.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		if tx != nil && time.Since(lastResend) >= s.cfg.ResendInterval {
			lastResend = time.Now()
			if _, err := s.Send(ctx, tx); err == nil {
				metrics.RebroadcastsTotal.Inc()
			}
			// re-broadcast errors are intentionally dropped
		}
	}
}
