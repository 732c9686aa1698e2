package trader

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCChain implements Chain over a live solana RPC client.
type RPCChain struct {
	Client *rpc.Client
	Commit rpc.CommitmentType
}

// NewRPCChain wraps an RPC client with the given commitment level.
func NewRPCChain(client *rpc.Client, commit string) *RPCChain {
	c := rpc.CommitmentConfirmed
	switch commit {
	case "processed":
		c = rpc.CommitmentProcessed
	case "finalized":
		c = rpc.CommitmentFinalized
	}
	return &RPCChain{Client: client, Commit: c}
}

func (r *RPCChain) NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	out, err := r.Client.GetBalance(ctx, owner, r.Commit)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return out.Value, nil
}

// TokenBalance sums the mint holding across every token account the owner has.
func (r *RPCChain) TokenBalance(ctx context.Context, owner solana.PublicKey, mint solana.PublicKey) (uint64, error) {
	out, err := r.Client.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{Mint: &mint},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingBase64, Commitment: r.Commit},
	)
	if err != nil {
		return 0, fmt.Errorf("get token accounts: %w", err)
	}

	var total uint64
	for _, acc := range out.Value {
		data := acc.Account.Data.GetBinary()
		var ta token.Account
		if err := bin.NewBinDecoder(data).Decode(&ta); err != nil {
			return 0, fmt.Errorf("decode token account %s: %w", acc.Pubkey, err)
		}
		total += ta.Amount
	}
	return total, nil
}
