// Package jup wraps the Jupiter v6 aggregator HTTP API: price quotes,
// pre-built swap transactions, and the tradable token list.
package jup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// SwapMode fixes either the input or the output amount of a swap.
type SwapMode string

const (
	ExactIn  SwapMode = "ExactIn"
	ExactOut SwapMode = "ExactOut"
)

// Client issues requests against a Jupiter-compatible aggregator base URL.
type Client struct {
	Base         string
	TokenListURL string
	Http         *http.Client
	Limiter      *rate.Limiter
	Log          zerolog.Logger
}

// NewClient builds a Client with an 8s HTTP timeout and a request rate cap.
// requestsPerSec <= 0 disables the cap.
func NewClient(base, tokenListURL string, requestsPerSec float64, log zerolog.Logger) *Client {
	limit := rate.Inf
	if requestsPerSec > 0 {
		limit = rate.Limit(requestsPerSec)
	}
	return &Client{
		Base:         base,
		TokenListURL: tokenListURL,
		Http:         &http.Client{Timeout: 8 * time.Second},
		Limiter:      rate.NewLimiter(limit, 1),
		Log:          log,
	}
}

// QuoteParams describes a requested swap. Amount is in smallest units
// (lamports for SOL; token decimals apply).
type QuoteParams struct {
	InputMint        string
	OutputMint       string
	Amount           uint64
	Mode             SwapMode
	SlippageBps      int
	OnlyDirectRoutes bool
}

// Quote is the aggregator's route estimate for a requested swap.
type Quote struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int             `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            json.RawMessage `json:"routePlan"`
}

// OutAmountUint parses the quoted output amount into smallest units.
func (q *Quote) OutAmountUint() (uint64, error) {
	d, err := decimal.NewFromString(q.OutAmount)
	if err != nil {
		return 0, fmt.Errorf("parse outAmount %q: %w", q.OutAmount, err)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("non-positive outAmount %q", q.OutAmount)
	}
	return uint64(d.IntPart()), nil
}

// GetQuote fetches a route for the requested swap. The v6 API answers either
// with a bare quote object or with {"data":[...]}; the first record wins.
// A quote whose output amount is non-positive or unparseable is an error.
func (c *Client) GetQuote(ctx context.Context, p QuoteParams) (*Quote, error) {
	if p.Amount == 0 {
		return nil, fmt.Errorf("quote amount must be positive")
	}
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	mode := p.Mode
	if mode == "" {
		mode = ExactIn
	}
	q := url.Values{}
	q.Set("inputMint", p.InputMint)
	q.Set("outputMint", p.OutputMint)
	q.Set("amount", fmt.Sprintf("%d", p.Amount))
	q.Set("slippageBps", fmt.Sprintf("%d", p.SlippageBps))
	q.Set("swapMode", string(mode))
	q.Set("onlyDirectRoutes", fmt.Sprintf("%t", p.OnlyDirectRoutes))
	u := c.Base + "/v6/quote?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jupiter quote status %d: %s", resp.StatusCode, truncate(body, 300))
	}

	raw, err := firstRoute(body)
	if err != nil {
		return nil, err
	}
	var quote Quote
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	if _, err := quote.OutAmountUint(); err != nil {
		return nil, err
	}
	return &quote, nil
}

// firstRoute extracts the first quote record from the response body.
func firstRoute(body []byte) (json.RawMessage, error) {
	var envelope struct {
		Data        []json.RawMessage `json:"data"`
		MinInAmount string            `json:"minInAmount"`
		Error       string            `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Data) > 0 {
			return envelope.Data[0], nil
		}
		if envelope.Error != "" {
			return nil, fmt.Errorf("jupiter quote error: %s", envelope.Error)
		}
		if envelope.MinInAmount != "" {
			return nil, fmt.Errorf("no route: amount below minInAmount %s", envelope.MinInAmount)
		}
	}
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return nil, fmt.Errorf("jupiter returned no routes")
		}
		return list[0], nil
	}
	// Bare quote object.
	return json.RawMessage(body), nil
}

// SwapRequest mirrors the /v6/swap request body.
type SwapRequest struct {
	QuoteResponse    *Quote `json:"quoteResponse"`
	UserPublicKey    string `json:"userPublicKey"`
	WrapAndUnwrapSol bool   `json:"wrapAndUnwrapSol"`
}

// BuildSwap asks the aggregator for a ready-to-sign transaction and returns
// it base64-encoded. A response without swapTransaction is an error.
func (c *Client) BuildSwap(ctx context.Context, quote *Quote, user solana.PublicKey, wrapUnwrapSol bool) (string, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return "", err
	}
	payload, err := json.Marshal(SwapRequest{
		QuoteResponse:    quote,
		UserPublicKey:    user.String(),
		WrapAndUnwrapSol: wrapUnwrapSol,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/v6/swap", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("jupiter swap status %d: %s", resp.StatusCode, truncate(body, 300))
	}

	var sr struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("decode swap response: %w", err)
	}
	if sr.SwapTransaction == "" {
		return "", fmt.Errorf("swap response missing swapTransaction: %s", truncate(body, 400))
	}
	return sr.SwapTransaction, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
