// Package rpcpool picks a live chain RPC endpoint from an ordered candidate list.
package rpcpool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

// ErrNoEndpoint is returned when every candidate failed the liveness probe.
var ErrNoEndpoint = errors.New("no rpc endpoint responded")

// DefaultProbeTimeout bounds a single liveness probe.
const DefaultProbeTimeout = 7 * time.Second

// Selector probes candidates in order and returns the first healthy client.
type Selector struct {
	Timeout time.Duration
	Log     zerolog.Logger
}

// NewSelector builds a Selector with the default probe timeout.
func NewSelector(log zerolog.Logger) *Selector {
	return &Selector{Timeout: DefaultProbeTimeout, Log: log}
}

// Candidates assembles the ordered endpoint list: URLs derived from optional
// provider API keys first, then the configured URLs. Empty entries are dropped.
func Candidates(configured []string, getenv func(string) string) []string {
	var urls []string
	if key := getenv("HELIUS_API_KEY"); key != "" {
		urls = append(urls, "https://mainnet.helius-rpc.com/?api-key="+key)
	}
	if u := getenv("QUICKNODE_RPC_URL"); u != "" {
		urls = append(urls, u)
	}
	urls = append(urls, configured...)

	out := urls[:0]
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// Select walks the list once: each URL gets a single health probe bounded by
// the selector timeout; the first endpoint that reports healthy wins.
func (s *Selector) Select(ctx context.Context, urls []string) (*rpc.Client, string, error) {
	if len(urls) == 0 {
		return nil, "", fmt.Errorf("select endpoint: empty candidate list")
	}
	for _, u := range urls {
		client := rpc.New(u)
		probeCtx, cancel := context.WithTimeout(ctx, s.Timeout)
		health, err := client.GetHealth(probeCtx)
		cancel()
		if err != nil {
			s.Log.Warn().Err(err).Str("url", u).Msg("rpc endpoint probe failed")
			continue
		}
		if health != rpc.HealthOk {
			s.Log.Warn().Str("url", u).Str("health", health).Msg("rpc endpoint unhealthy")
			continue
		}
		s.Log.Info().Str("url", u).Msg("rpc endpoint selected")
		return client, u, nil
	}
	return nil, "", ErrNoEndpoint
}
