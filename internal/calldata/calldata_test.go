package calldata

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFill_SelectorMatchesSignature(t *testing.T) {
	strategyHash, err := StrategyHashBytes32("0x" + common.Bytes2Hex(make([]byte, 32)))
	require.NoError(t, err)

	q := Quote{
		Maker:        common.HexToAddress("0x1111111111111111111111111111111111111A"),
		TokenIn:      common.HexToAddress("0x2222222222222222222222222222222222222B"),
		TokenOut:     common.HexToAddress("0x3333333333333333333333333333333333333C"),
		AmountIn:     big.NewInt(1_000_000),
		AmountOut:    big.NewInt(999_000),
		StrategyHash: strategyHash,
		Nonce:        big.NewInt(7),
		Expiry:       big.NewInt(1700000120),
	}
	sig := make([]byte, 65)
	sig[64] = 27

	call, err := EncodeFill("0x000000000000000000000000000000000000EE", q, sig, big.NewInt(999_000))
	require.NoError(t, err)

	assert.Equal(t, "0x000000000000000000000000000000000000EE", call.To)
	assert.Equal(t, "0", call.Value)

	data := common.FromHex(call.Data)
	require.True(t, len(data) > 4)
	assert.Equal(t, fillSelector, data[:4])
}

func TestEncodeFill_RoundTripDecode(t *testing.T) {
	strategyHash, err := StrategyHashBytes32("0x" + common.Bytes2Hex(bytesOfValue(0xAB)))
	require.NoError(t, err)

	q := Quote{
		Maker:        common.HexToAddress("0x1111111111111111111111111111111111111A"),
		TokenIn:      common.HexToAddress("0x2222222222222222222222222222222222222B"),
		TokenOut:     common.HexToAddress("0x3333333333333333333333333333333333333C"),
		AmountIn:     big.NewInt(5_000_000),
		AmountOut:    big.NewInt(4_900_000),
		StrategyHash: strategyHash,
		Nonce:        big.NewInt(42),
		Expiry:       big.NewInt(1700000999),
	}
	sig := make([]byte, 65)
	for i := range sig {
		sig[i] = byte(i)
	}

	call, err := EncodeFill("0x000000000000000000000000000000000000EE", q, sig, big.NewInt(4_900_000))
	require.NoError(t, err)

	data := common.FromHex(call.Data)
	decoded, err := fillMethod.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, decoded, 3)

	// abi.Unpack returns the tuple as a reflectively built anonymous
	// struct, so field access goes through reflection rather than a
	// static type assertion.
	decodedQuote := reflect.ValueOf(decoded[0])
	assert.Equal(t, q.Nonce, decodedQuote.FieldByName("Nonce").Interface())
	assert.Equal(t, q.Expiry, decodedQuote.FieldByName("Expiry").Interface())
	assert.Equal(t, q.Maker, decodedQuote.FieldByName("Maker").Interface())

	decodedSig, ok := decoded[1].([]byte)
	require.True(t, ok)
	assert.Equal(t, sig, decodedSig)

	decodedMin, ok := decoded[2].(*big.Int)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(4_900_000), decodedMin)
}

func bytesOfValue(b byte) []byte {
	out := make([]byte, 32)
	for i := range out {
		out[i] = b
	}
	return out
}
