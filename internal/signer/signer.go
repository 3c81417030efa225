// Package signer produces the EIP-712 typed-data signature over a
// Quote that the executor contract verifies on-chain. The domain
// separator and type hash are load-bearing: they must byte-match the
// deployed executor or every fill reverts.
package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

const domainName = "AquaQuoteExecutor"
const domainVersion = "1"

var quoteTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Quote": {
		{Name: "maker", Type: "address"},
		{Name: "tokenIn", Type: "address"},
		{Name: "tokenOut", Type: "address"},
		{Name: "amountIn", Type: "uint256"},
		{Name: "amountOut", Type: "uint256"},
		{Name: "strategyHash", Type: "bytes32"},
		{Name: "nonce", Type: "uint256"},
		{Name: "expiry", Type: "uint256"},
	},
}

// Payload carries the Quote fields to sign, in the field order and ABI
// types mandated by the Quote primary type.
type Payload struct {
	ChainID      int64
	Executor     string
	Maker        string
	TokenIn      string
	TokenOut     string
	AmountIn     *big.Int
	AmountOut    *big.Int
	StrategyHash string // 32-byte hex, 0x-prefixed
	Nonce        *big.Int
	Expiry       *big.Int
}

// Result is the outcome of a sign operation: the hex-encoded signature
// and the typed-data document that produced it (persisted alongside
// the quote for audit/replay verification).
type Result struct {
	Signature string
	TypedData *apitypes.TypedData
}

// KeySource resolves the signing key for a chain, matching
// chains.Chain.SigningKey()'s shape without importing the chains
// package (avoiding an import cycle, since chains never needs signer).
type KeySource interface {
	SigningKey() *ecdsa.PrivateKey
}

// Signer caches the derived signing material per chain and produces
// EIP-712 signatures over Quote payloads.
type Signer struct {
	mu    sync.RWMutex
	cache map[int64]*ecdsa.PrivateKey
}

func New() *Signer {
	return &Signer{cache: make(map[int64]*ecdsa.PrivateKey)}
}

func (s *Signer) keyFor(chainID int64, src KeySource) *ecdsa.PrivateKey {
	s.mu.RLock()
	if k, ok := s.cache[chainID]; ok {
		s.mu.RUnlock()
		return k
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.cache[chainID]; ok {
		return k
	}
	k := src.SigningKey()
	s.cache[chainID] = k
	return k
}

// Sign builds the typed-data document for payload, hashes it per
// EIP-712, and produces a 65-byte ECDSA secp256k1 signature.
func (s *Signer) Sign(_ context.Context, src KeySource, payload Payload) (*Result, error) {
	key := s.keyFor(payload.ChainID, src)
	if key == nil {
		return nil, rfqerr.Internal(fmt.Sprintf("no signing key configured for chain %d", payload.ChainID))
	}

	typedData := buildTypedData(payload)

	digest, err := hashTypedData(typedData)
	if err != nil {
		return nil, rfqerr.Internal(fmt.Sprintf("hashing typed data: %v", err))
	}

	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, rfqerr.Internal(fmt.Sprintf("signing quote: %v", err))
	}
	// crypto.Sign returns v in {0,1}; contracts recovering via ecrecover
	// expect the Ethereum convention v in {27,28}.
	sig[64] += 27

	return &Result{
		Signature: "0x" + common.Bytes2Hex(sig),
		TypedData: typedData,
	}, nil
}

func buildTypedData(p Payload) *apitypes.TypedData {
	return &apitypes.TypedData{
		Types:       quoteTypes,
		PrimaryType: "Quote",
		Domain: apitypes.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainId:           math.NewHexOrDecimal256(p.ChainID),
			VerifyingContract: p.Executor,
		},
		Message: apitypes.TypedDataMessage{
			"maker":        p.Maker,
			"tokenIn":      p.TokenIn,
			"tokenOut":     p.TokenOut,
			"amountIn":     p.AmountIn.String(),
			"amountOut":    p.AmountOut.String(),
			"strategyHash": p.StrategyHash,
			"nonce":        p.Nonce.String(),
			"expiry":       p.Expiry.String(),
		},
	}
}

// hashTypedData reproduces the \x19\x01-prefixed EIP-712 signing hash:
// keccak256(\x19\x01 || domainSeparator || hashStruct(message)).
func hashTypedData(typedData *apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hashing domain separator: %w", err)
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("hashing Quote struct: %w", err)
	}
	raw := append([]byte{0x19, 0x01}, []byte(domainSeparator)...)
	raw = append(raw, []byte(messageHash)...)
	return crypto.Keccak256(raw), nil
}
