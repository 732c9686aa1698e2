// Package ipcheck verifies proxy rotation by asking several public IP-echo
// services for the caller's address and majority-voting the answers.
package ipcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	xproxy "golang.org/x/net/proxy"
)

// Status maps directly to the process exit code.
type Status int

const (
	StatusChanged   Status = 0 // consensus IP differs from the recorded one
	StatusUnchanged Status = 1 // proxy still exits through the same IP
	StatusNoIP      Status = 2 // no echo service produced a usable IP
)

// DefaultServices are the IP-echo endpoints queried when none are configured.
var DefaultServices = []string{
	"https://api.ipify.org",
	"https://ifconfig.me/ip",
	"https://icanhazip.com",
	"https://checkip.amazonaws.com",
	"https://ipinfo.io/ip",
}

// Checker queries echo services through an optional proxy and tracks the
// last consensus IP in a state file.
type Checker struct {
	Client    *http.Client
	Services  []string
	StateFile string
	Timeout   time.Duration
	Log       zerolog.Logger
}

// NewHTTPClient builds a client routed through proxyURL. http/https proxies
// use the standard CONNECT transport; socks5 URLs go through the x/net dialer.
// An empty proxyURL yields a direct client.
func NewHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	if proxyURL == "" {
		return &http.Client{Timeout: timeout}, nil
	}
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}

	var transport http.RoundTripper
	switch u.Scheme {
	case "socks5", "socks5h":
		dialer, err := xproxy.FromURL(u, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 dialer: %w", err)
		}
		transport = &http.Transport{Dial: dialer.Dial}
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(u)}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// NormalizeIP turns an echo-service body into a canonical IP string. Bodies
// may be plain text, padded with whitespace, or JSON like {"ip":"1.2.3.4"}.
func NormalizeIP(body string) (string, bool) {
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, "{") {
		var wrapped struct {
			IP     string `json:"ip"`
			Origin string `json:"origin"`
		}
		if err := json.Unmarshal([]byte(body), &wrapped); err == nil {
			if wrapped.IP != "" {
				body = wrapped.IP
			} else if wrapped.Origin != "" {
				body = wrapped.Origin
			}
		}
	}
	ip := net.ParseIP(strings.TrimSpace(body))
	if ip == nil {
		return "", false
	}
	return ip.String(), true
}

// Consensus returns the most frequent IP. Ties break toward the earliest
// first occurrence.
func Consensus(ips []string) (string, bool) {
	counts := make(map[string]int)
	order := make([]string, 0, len(ips))
	for _, ip := range ips {
		if counts[ip] == 0 {
			order = append(order, ip)
		}
		counts[ip]++
	}
	best, bestCount := "", 0
	for _, ip := range order {
		if counts[ip] > bestCount {
			best, bestCount = ip, counts[ip]
		}
	}
	return best, bestCount > 0
}

func (c *Checker) fetchOne(ctx context.Context, service string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, service, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}
	ip, ok := NormalizeIP(string(body))
	if !ok {
		return "", fmt.Errorf("unparseable body %q", strings.TrimSpace(string(body)))
	}
	return ip, nil
}

// Run queries every service, votes, compares against the recorded IP, and
// always overwrites the state file when a consensus was reached.
func (c *Checker) Run(ctx context.Context) (Status, string, error) {
	services := c.Services
	if len(services) == 0 {
		services = DefaultServices
	}

	var ips []string
	for _, service := range services {
		ip, err := c.fetchOne(ctx, service)
		if err != nil {
			c.Log.Warn().Err(err).Str("service", service).Msg("ip echo failed")
			continue
		}
		c.Log.Debug().Str("service", service).Str("ip", ip).Msg("ip echo ok")
		ips = append(ips, ip)
	}

	consensus, ok := Consensus(ips)
	if !ok {
		return StatusNoIP, "", fmt.Errorf("no ip obtained from %d services", len(services))
	}

	previous := ""
	if data, err := os.ReadFile(c.StateFile); err == nil {
		previous = strings.TrimSpace(string(data))
	}
	if err := os.WriteFile(c.StateFile, []byte(consensus+"\n"), 0o644); err != nil {
		return StatusNoIP, consensus, fmt.Errorf("write state file: %w", err)
	}

	if previous == consensus {
		return StatusUnchanged, consensus, nil
	}
	return StatusChanged, consensus, nil
}
