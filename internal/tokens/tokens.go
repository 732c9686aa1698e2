// Package tokens loads and validates flat files of mint addresses.
package tokens

import (
	"fmt"
	"os"
	"strings"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
)

// LoadMints reads a newline-delimited file of base58 mint addresses. Lines
// that fail address validation are dropped with a warning; the load fails
// only when zero valid mints remain.
func LoadMints(path string, log zerolog.Logger) ([]solana.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mints file: %w", err)
	}

	var mints []solana.PublicKey
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		mint, err := solana.PublicKeyFromBase58(line)
		if err != nil {
			log.Warn().Err(err).Int("line", i+1).Str("entry", line).Msg("skipping invalid mint address")
			continue
		}
		mints = append(mints, mint)
	}
	if len(mints) == 0 {
		return nil, fmt.Errorf("mints file %s: no valid addresses", path)
	}
	return mints, nil
}
