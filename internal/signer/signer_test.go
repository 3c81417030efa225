package signer

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeySource struct {
	key *ecdsa.PrivateKey
}

func (f fakeKeySource) SigningKey() *ecdsa.PrivateKey { return f.key }

func TestSign_RecoversToSignerAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	src := fakeKeySource{key: key}

	s := New()
	payload := Payload{
		ChainID:      8453,
		Executor:     "0x000000000000000000000000000000000000EE",
		Maker:        "0x1111111111111111111111111111111111111A",
		TokenIn:      "0x2222222222222222222222222222222222222B",
		TokenOut:     "0x3333333333333333333333333333333333333C",
		AmountIn:     big.NewInt(1_000_000),
		AmountOut:    big.NewInt(999_000),
		StrategyHash: "0x" + common.Bytes2Hex(make([]byte, 32)),
		Nonce:        big.NewInt(0),
		Expiry:       big.NewInt(1700000120),
	}

	result, err := s.Sign(context.Background(), src, payload)
	require.NoError(t, err)
	require.Len(t, hexutil.MustDecode(result.Signature), 65)

	digest, err := hashTypedData(result.TypedData)
	require.NoError(t, err)

	sigBytes := hexutil.MustDecode(result.Signature)
	// undo the +27 v-offset applied for ecrecover compatibility before
	// calling into crypto.SigToPub, which expects v in {0,1}.
	recoverable := append([]byte{}, sigBytes...)
	recoverable[64] -= 27

	pub, err := crypto.SigToPub(digest, recoverable)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(*pub))
}

func TestSign_CachesKeyPerChain(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	src := fakeKeySource{key: key}

	s := New()
	payload := Payload{
		ChainID:      1,
		Executor:     "0x000000000000000000000000000000000000EE",
		Maker:        "0x1111111111111111111111111111111111111A",
		TokenIn:      "0x2222222222222222222222222222222222222B",
		TokenOut:     "0x3333333333333333333333333333333333333C",
		AmountIn:     big.NewInt(1),
		AmountOut:    big.NewInt(1),
		StrategyHash: "0x" + common.Bytes2Hex(make([]byte, 32)),
		Nonce:        big.NewInt(0),
		Expiry:       big.NewInt(1),
	}
	_, err = s.Sign(context.Background(), src, payload)
	require.NoError(t, err)

	assert.Same(t, key, s.keyFor(1, src))
}
