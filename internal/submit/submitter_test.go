package submit

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

type fakeRPC struct {
	mu       sync.Mutex
	sends    int
	sendErr  error
	statuses []*rpc.SignatureStatusesResult
	polls    int
}

func (f *fakeRPC) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	return solana.Signature{1}, nil
}

func (f *fakeRPC) GetSignatureStatuses(ctx context.Context, history bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var st *rpc.SignatureStatusesResult
	if f.polls < len(f.statuses) {
		st = f.statuses[f.polls]
	} else if len(f.statuses) > 0 {
		st = f.statuses[len(f.statuses)-1]
	}
	f.polls++
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{st}}, nil
}

func (f *fakeRPC) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

func fastConfig() Config {
	return Config{
		MaxRetries:     1,
		ConfirmTimeout: 300 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
		ResendInterval: 50 * time.Millisecond,
		Commitment:     rpc.CommitmentConfirmed,
	}
}

func unsignedTxBase64(t *testing.T, payer solana.PublicKey) string {
	t.Helper()
	ix := system.NewTransferInstruction(1, payer, payer).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{9}, solana.TransactionPayer(payer))
	if err != nil {
		t.Fatalf("build tx: %v", err)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal tx: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodeAndSign(t *testing.T) {
	wallet := solana.NewWallet()
	tx, err := DecodeAndSign(unsignedTxBase64(t, wallet.PublicKey()), wallet.PrivateKey)
	if err != nil {
		t.Fatalf("DecodeAndSign returned error: %v", err)
	}
	if len(tx.Signatures) == 0 {
		t.Fatalf("expected at least one signature")
	}
	if err := tx.VerifySignatures(); err != nil {
		t.Fatalf("signature did not verify: %v", err)
	}
}

func TestDecodeAndSignBadBase64(t *testing.T) {
	if _, err := DecodeAndSign("!!!not-base64!!!", solana.NewWallet().PrivateKey); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
}

func TestAwaitConfirmationSuccess(t *testing.T) {
	fake := &fakeRPC{statuses: []*rpc.SignatureStatusesResult{
		nil,
		{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
		{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
	}}
	s := New(fake, fastConfig(), zerolog.Nop())
	if err := s.AwaitConfirmation(context.Background(), solana.Signature{1}, nil); err != nil {
		t.Fatalf("expected confirmation, got %v", err)
	}
}

func TestAwaitConfirmationFinalized(t *testing.T) {
	fake := &fakeRPC{statuses: []*rpc.SignatureStatusesResult{
		{ConfirmationStatus: rpc.ConfirmationStatusFinalized},
	}}
	s := New(fake, fastConfig(), zerolog.Nop())
	if err := s.AwaitConfirmation(context.Background(), solana.Signature{1}, nil); err != nil {
		t.Fatalf("expected success on finalized, got %v", err)
	}
}

func TestAwaitConfirmationChainError(t *testing.T) {
	fake := &fakeRPC{statuses: []*rpc.SignatureStatusesResult{
		{Err: map[string]any{"InstructionError": []any{0, "Custom"}}},
	}}
	s := New(fake, fastConfig(), zerolog.Nop())
	err := s.AwaitConfirmation(context.Background(), solana.Signature{1}, nil)
	if err == nil || errors.Is(err, ErrConfirmTimeout) {
		t.Fatalf("expected immediate chain failure, got %v", err)
	}
}

func TestAwaitConfirmationTimeout(t *testing.T) {
	fake := &fakeRPC{} // never returns a status
	s := New(fake, fastConfig(), zerolog.Nop())
	start := time.Now()
	err := s.AwaitConfirmation(context.Background(), solana.Signature{1}, nil)
	if !errors.Is(err, ErrConfirmTimeout) {
		t.Fatalf("expected ErrConfirmTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("confirmation wait did not respect budget: %s", elapsed)
	}
}

func TestAwaitConfirmationRebroadcasts(t *testing.T) {
	wallet := solana.NewWallet()
	tx, err := DecodeAndSign(unsignedTxBase64(t, wallet.PublicKey()), wallet.PrivateKey)
	if err != nil {
		t.Fatalf("DecodeAndSign: %v", err)
	}
	fake := &fakeRPC{} // stays pending until timeout
	s := New(fake, fastConfig(), zerolog.Nop())
	if err := s.AwaitConfirmation(context.Background(), solana.Signature{1}, tx); !errors.Is(err, ErrConfirmTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if fake.sendCount() < 2 {
		t.Fatalf("expected periodic re-broadcasts, got %d sends", fake.sendCount())
	}
}

func TestAwaitConfirmationRebroadcastErrorIgnored(t *testing.T) {
	wallet := solana.NewWallet()
	tx, err := DecodeAndSign(unsignedTxBase64(t, wallet.PublicKey()), wallet.PrivateKey)
	if err != nil {
		t.Fatalf("DecodeAndSign: %v", err)
	}
	fake := &fakeRPC{sendErr: errors.New("node busy")}
	s := New(fake, fastConfig(), zerolog.Nop())
	if err := s.AwaitConfirmation(context.Background(), solana.Signature{1}, tx); !errors.Is(err, ErrConfirmTimeout) {
		t.Fatalf("re-broadcast errors must not surface, got %v", err)
	}
}

func TestExecute(t *testing.T) {
	wallet := solana.NewWallet()
	fake := &fakeRPC{statuses: []*rpc.SignatureStatusesResult{
		{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
	}}
	s := New(fake, fastConfig(), zerolog.Nop())
	sig, err := s.Execute(context.Background(), unsignedTxBase64(t, wallet.PublicKey()), wallet.PrivateKey)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if sig.IsZero() {
		t.Fatalf("expected non-zero signature")
	}
	if fake.sendCount() != 1 {
		t.Fatalf("expected single broadcast, got %d", fake.sendCount())
	}
}

func TestExecuteSendFailure(t *testing.T) {
	wallet := solana.NewWallet()
	fake := &fakeRPC{sendErr: errors.New("blockhash not found")}
	s := New(fake, fastConfig(), zerolog.Nop())
	if _, err := s.Execute(context.Background(), unsignedTxBase64(t, wallet.PublicKey()), wallet.PrivateKey); err == nil {
		t.Fatalf("expected error when broadcast fails")
	}
}
