package jup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type tokenListEntry struct {
	Address    string `json:"address"`
	Trades     *int   `json:"trades"`
	Extensions struct {
		CoingeckoID string `json:"coingeckoId"`
	} `json:"extensions"`
}

func (t *tokenListEntry) tradable() bool {
	if t.Trades != nil && *t.Trades == 0 && t.Extensions.CoingeckoID == "" {
		return false
	}
	return true
}

// TradableMints downloads the aggregator token list and returns the set of
// mint addresses marked tradable. Callers treat a failure here as advisory:
// the swap itself is the authoritative check.
func (c *Client) TradableMints(ctx context.Context) (map[string]bool, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TokenListURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token list status %d", resp.StatusCode)
	}

	var entries []tokenListEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode token list: %w", err)
	}
	set := make(map[string]bool, len(entries))
	for i := range entries {
		if entries[i].tradable() {
			set[entries[i].Address] = true
		}
	}
	return set, nil
}
