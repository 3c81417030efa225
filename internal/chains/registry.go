// Package chains implements the Chains Registry (spec.md §4.A): it loads
// per-chain configuration once at startup, resolves each chain's signing
// key from the environment, and serves it to the rest of the service as
// read-only, concurrency-safe state.
package chains

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/aquaprotocol/rfq-issuer/internal/bigutil"
	"github.com/aquaprotocol/rfq-issuer/internal/ethaddr"
	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

// Chain is the fully resolved, in-memory configuration for one chain.
// It is immutable after Load and safe for concurrent reads.
type Chain struct {
	ChainID         int64
	Name            string
	RPCURL          string
	ExecutorAddress string
	AquaAddress     string
	MakerAddress    string
	PricingURL      string
	StrategyURL     string
	ExecutorFeeBps  int

	signingKey *ecdsa.PrivateKey
}

// SigningKey returns the chain's maker signing key. Only the Signer
// component should call this.
func (c Chain) SigningKey() *ecdsa.PrivateKey { return c.signingKey }

// Public is the secret-stripped projection returned by List and the
// /v1/chains endpoint.
type Public struct {
	ChainID         int64  `json:"chainId"`
	Name            string `json:"name"`
	ExecutorAddress string `json:"executor"`
	AquaAddress     string `json:"aqua"`
	MakerAddress    string `json:"maker"`
	ExecutorFeeBps  int    `json:"executorFeeBps"`
}

func (c Chain) Public() Public {
	return Public{
		ChainID:         c.ChainID,
		Name:            c.Name,
		ExecutorAddress: c.ExecutorAddress,
		AquaAddress:     c.AquaAddress,
		MakerAddress:    c.MakerAddress,
		ExecutorFeeBps:  c.ExecutorFeeBps,
	}
}

// Registry is the read-only chain store. A nil *Registry has no chains.
type Registry struct {
	byChain map[int64]Chain
}

// fileEntry mirrors the on-disk chains.json schema (spec.md §6,
// "Configuration surface").
type fileEntry struct {
	Name           string `json:"name"`
	RPCURL         string `json:"rpcUrl"`
	Aqua           string `json:"aqua"`
	Executor       string `json:"executor"`
	SigningKeyEnv  string `json:"signingKeyEnv"`
	ExecutorFeeBps *int   `json:"executorFeeBps,omitempty"`
	PricingURL     string `json:"pricingUrl,omitempty"`
	StrategyURL    string `json:"strategyUrl,omitempty"`
}

// Options carries the process-global fallbacks used when a chain entry
// does not override pricingUrl/strategyUrl itself.
type Options struct {
	DefaultPricingURL  string
	DefaultStrategyURL string
}

// Load reads the chains JSON file at path (keyed by decimal chain id
// string) and resolves each chain's signing key from the OS environment.
func Load(path string, opts Options) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chains config %s: %w", path, err)
	}

	var entries map[string]fileEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing chains config %s: %w", path, err)
	}

	byChain := make(map[int64]Chain, len(entries))
	for idStr, entry := range entries {
		chainID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain id key %q: %w", idStr, err)
		}

		executor, err := ethaddr.Parse(entry.Executor)
		if err != nil {
			return nil, fmt.Errorf("chain %d: executor address: %w", chainID, err)
		}
		aqua, err := ethaddr.Parse(entry.Aqua)
		if err != nil {
			return nil, fmt.Errorf("chain %d: aqua address: %w", chainID, err)
		}

		rawKey := os.Getenv(entry.SigningKeyEnv)
		if rawKey == "" {
			return nil, fmt.Errorf("chain %d: signing key env %q is unset", chainID, entry.SigningKeyEnv)
		}
		key, err := crypto.HexToECDSA(trimHexPrefix(rawKey))
		if err != nil {
			return nil, fmt.Errorf("chain %d: invalid signing key: %w", chainID, err)
		}
		maker := crypto.PubkeyToAddress(key.PublicKey).Hex()

		feeBps := 0
		if entry.ExecutorFeeBps != nil {
			feeBps = bigutil.ClampBps(*entry.ExecutorFeeBps)
		}

		pricingURL := entry.PricingURL
		if pricingURL == "" {
			pricingURL = opts.DefaultPricingURL
		}
		strategyURL := entry.StrategyURL
		if strategyURL == "" {
			strategyURL = opts.DefaultStrategyURL
		}

		byChain[chainID] = Chain{
			ChainID:         chainID,
			Name:            entry.Name,
			RPCURL:          entry.RPCURL,
			ExecutorAddress: executor,
			AquaAddress:     aqua,
			MakerAddress:    maker,
			PricingURL:      pricingURL,
			StrategyURL:     strategyURL,
			ExecutorFeeBps:  feeBps,
			signingKey:      key,
		}
	}

	return &Registry{byChain: byChain}, nil
}

// Get resolves a chain or fails CHAIN_NOT_SUPPORTED.
func (r *Registry) Get(chainID int64) (Chain, error) {
	if r == nil {
		return Chain{}, rfqerr.ChainNotSupported(chainID)
	}
	c, ok := r.byChain[chainID]
	if !ok {
		return Chain{}, rfqerr.ChainNotSupported(chainID)
	}
	return c, nil
}

// List returns every configured chain, secrets stripped.
func (r *Registry) List() []Public {
	if r == nil {
		return nil
	}
	out := make([]Public, 0, len(r.byChain))
	for _, c := range r.byChain {
		out = append(out, c.Public())
	}
	return out
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
