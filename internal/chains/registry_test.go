package chains

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

func writeChainsFile(t *testing.T, entries map[string]fileEntry) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "chains.json")
	raw, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal chains file: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write chains file: %v", err)
	}
	return path
}

func TestLoadAndGet(t *testing.T) {
	t.Setenv("SIGNING_KEY_8453", "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")

	feeBps := 25
	path := writeChainsFile(t, map[string]fileEntry{
		"8453": {
			Name:          "base",
			RPCURL:        "https://mainnet.base.org",
			Aqua:          "0x0000000000000000000000000000000000000001",
			Executor:      "0x0000000000000000000000000000000000000002",
			SigningKeyEnv: "SIGNING_KEY_8453",
			ExecutorFeeBps: &feeBps,
		},
	})

	reg, err := Load(path, Options{DefaultPricingURL: "http://pricing", DefaultStrategyURL: "http://strategy"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	c, err := reg.Get(8453)
	if err != nil {
		t.Fatalf("Get(8453): %v", err)
	}
	if c.MakerAddress == "" {
		t.Fatal("expected derived maker address")
	}
	if c.ExecutorFeeBps != 25 {
		t.Fatalf("expected fee bps 25, got %d", c.ExecutorFeeBps)
	}
	if c.PricingURL != "http://pricing" || c.StrategyURL != "http://strategy" {
		t.Fatalf("expected global URL fallback, got %+v", c)
	}

	if _, err := reg.Get(1); err == nil {
		t.Fatal("expected CHAIN_NOT_SUPPORTED for unknown chain")
	} else if coded := rfqerr.FromError(err); coded.Code() != rfqerr.CodeChainNotSupported {
		t.Fatalf("expected CHAIN_NOT_SUPPORTED, got %s", coded.Code())
	}

	pub := reg.List()
	if len(pub) != 1 {
		t.Fatalf("expected 1 public chain, got %d", len(pub))
	}
}
