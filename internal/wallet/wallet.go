// Package wallet decodes signing keys from raw strings, env vars, and flat key files.
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
)

const secretKeyLen = 64

// ParseKey accepts either a JSON array of byte integers or a base58 string
// and returns the decoded signing key. The decoded key must be exactly 64 bytes.
func ParseKey(raw string) (solana.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty private key")
	}

	var buf []byte
	if strings.HasPrefix(raw, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(raw), &ints); err != nil {
			return nil, fmt.Errorf("parse key byte array: %w", err)
		}
		buf = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("key byte %d out of range: %d", i, v)
			}
			buf[i] = byte(v)
		}
	} else {
		decoded, err := base58.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("decode base58 key: %w", err)
		}
		buf = decoded
	}

	if len(buf) != secretKeyLen {
		return nil, fmt.Errorf("invalid key length %d, want %d", len(buf), secretKeyLen)
	}
	return solana.PrivateKey(buf), nil
}

// LoadKeyFromEnv reads SOLANA_PRIVATE_KEY, loading .env best-effort first.
func LoadKeyFromEnv() (solana.PrivateKey, error) {
	_ = godotenv.Load() // best-effort
	raw := os.Getenv("SOLANA_PRIVATE_KEY")
	if raw == "" {
		return nil, errors.New("SOLANA_PRIVATE_KEY not set")
	}
	return ParseKey(raw)
}

// LoadKeyFile reads a flat file of one key candidate per line. Lines that fail
// to decode are dropped with a warning; only an empty valid subset is fatal.
func LoadKeyFile(path string, log zerolog.Logger) ([]solana.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	var keys []solana.PrivateKey
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, err := ParseKey(line)
		if err != nil {
			log.Warn().Err(err).Int("line", i+1).Msg("skipping invalid wallet key")
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("key file %s: no valid keys", path)
	}
	return keys, nil
}
