// Package price looks up USD token prices via the Dexscreener REST API.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client queries the Dexscreener token-pairs endpoint.
type Client struct {
	Base  string
	Chain string
	Http  *http.Client
}

// NewClient builds a Client with a 10s HTTP timeout.
func NewClient(base, chain string) *Client {
	return &Client{Base: base, Chain: chain, Http: &http.Client{Timeout: 10 * time.Second}}
}

type pairsResponse struct {
	Pairs []pair `json:"pairs"`
	Pair  *pair  `json:"pair"`
}

type pair struct {
	ChainID   string `json:"chainId"`
	PriceUsd  string `json:"priceUsd"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

func (r *pairsResponse) bestPair(chain string) (*pair, bool) {
	var best *pair
	for i := range r.Pairs {
		p := &r.Pairs[i]
		if chain != "" && p.ChainID != chain {
			continue
		}
		if best == nil || p.Liquidity.USD > best.Liquidity.USD {
			best = p
		}
	}
	if best != nil {
		return best, true
	}
	if r.Pair != nil {
		return r.Pair, true
	}
	return nil, false
}

// TokenUSD returns the USD price of the given mint, taken from the deepest
// pool on the configured chain.
func (c *Client) TokenUSD(ctx context.Context, mint string) (decimal.Decimal, error) {
	u := c.Base + "/latest/dex/tokens/" + mint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := c.Http.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("dexscreener status %d", resp.StatusCode)
	}

	var parsed pairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Zero, fmt.Errorf("decode dexscreener response: %w", err)
	}
	best, ok := parsed.bestPair(c.Chain)
	if !ok {
		return decimal.Zero, fmt.Errorf("no pairs for mint %s", mint)
	}
	px, err := decimal.NewFromString(best.PriceUsd)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse priceUsd %q: %w", best.PriceUsd, err)
	}
	if !px.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive priceUsd %q", best.PriceUsd)
	}
	return px, nil
}

// UsdToAtoms converts a USD amount into smallest token units given the token's
// USD price and decimal count.
func UsdToAtoms(usd, priceUSD decimal.Decimal, decimals int32) (uint64, error) {
	if !priceUSD.IsPositive() {
		return 0, fmt.Errorf("non-positive price")
	}
	atoms := usd.Div(priceUSD).Mul(decimal.New(1, decimals)).Floor()
	if !atoms.IsPositive() {
		return 0, fmt.Errorf("usd amount %s too small at price %s", usd, priceUSD)
	}
	return uint64(atoms.IntPart()), nil
}
