package ipcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func echoServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
}

func newChecker(t *testing.T, stateFile string, services ...string) *Checker {
	t.Helper()
	return &Checker{
		Client:    &http.Client{},
		Services:  services,
		StateFile: stateFile,
		Timeout:   2 * time.Second,
		Log:       zerolog.Nop(),
	}
}

func TestNormalizeIP(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.2.3.4", "1.2.3.4", true},
		{"  1.2.3.4\n", "1.2.3.4", true},
		{`{"ip":"5.6.7.8"}`, "5.6.7.8", true},
		{`{"origin":"9.9.9.9"}`, "9.9.9.9", true},
		{"2001:db8::1", "2001:db8::1", true},
		{"not an ip", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeIP(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("NormalizeIP(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestConsensusMajority(t *testing.T) {
	ip, ok := Consensus([]string{"1.2.3.4", "8.8.8.8", "1.2.3.4", "9.9.9.9", "1.2.3.4"})
	if !ok || ip != "1.2.3.4" {
		t.Fatalf("expected majority 1.2.3.4, got %q ok=%v", ip, ok)
	}
}

func TestConsensusEmpty(t *testing.T) {
	if _, ok := Consensus(nil); ok {
		t.Fatalf("expected no consensus from empty input")
	}
}

func TestRunIPChanged(t *testing.T) {
	servers := []*httptest.Server{
		echoServer(t, "1.2.3.4"),
		echoServer(t, "1.2.3.4\n"),
		echoServer(t, `{"ip":"1.2.3.4"}`),
		echoServer(t, "8.8.8.8"),
		echoServer(t, "garbage"),
	}
	urls := make([]string, len(servers))
	for i, s := range servers {
		defer s.Close()
		urls[i] = s.URL
	}

	state := filepath.Join(t.TempDir(), "last_ip")
	if err := os.WriteFile(state, []byte("9.9.9.9\n"), 0o644); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	checker := newChecker(t, state, urls...)
	status, ip, err := checker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if status != StatusChanged {
		t.Fatalf("expected StatusChanged, got %d", status)
	}
	if ip != "1.2.3.4" {
		t.Fatalf("expected consensus 1.2.3.4, got %s", ip)
	}

	data, err := os.ReadFile(state)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if string(data) != "1.2.3.4\n" {
		t.Fatalf("state file not overwritten: %q", data)
	}
}

func TestRunIPUnchanged(t *testing.T) {
	server := echoServer(t, "5.5.5.5")
	defer server.Close()

	state := filepath.Join(t.TempDir(), "last_ip")
	if err := os.WriteFile(state, []byte("5.5.5.5\n"), 0o644); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	checker := newChecker(t, state, server.URL)
	status, ip, err := checker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if status != StatusUnchanged || ip != "5.5.5.5" {
		t.Fatalf("expected unchanged 5.5.5.5, got status=%d ip=%s", status, ip)
	}
}

func TestRunNoIP(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer dead.Close()

	state := filepath.Join(t.TempDir(), "last_ip")
	checker := newChecker(t, state, dead.URL)
	status, _, err := checker.Run(context.Background())
	if err == nil {
		t.Fatalf("expected error when no ip obtained")
	}
	if status != StatusNoIP {
		t.Fatalf("expected StatusNoIP, got %d", status)
	}
	if _, err := os.Stat(state); !os.IsNotExist(err) {
		t.Fatalf("state file must not be written without consensus")
	}
}

func TestNewHTTPClient(t *testing.T) {
	if _, err := NewHTTPClient("", time.Second); err != nil {
		t.Fatalf("direct client: %v", err)
	}
	if _, err := NewHTTPClient("http://127.0.0.1:8080", time.Second); err != nil {
		t.Fatalf("http proxy client: %v", err)
	}
	if _, err := NewHTTPClient("socks5://127.0.0.1:1080", time.Second); err != nil {
		t.Fatalf("socks5 proxy client: %v", err)
	}
	if _, err := NewHTTPClient("ftp://127.0.0.1:21", time.Second); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
	if _, err := NewHTTPClient("://bad", time.Second); err == nil {
		t.Fatalf("expected error for malformed url")
	}
}
