// Package calldata ABI-encodes calls to the executor's fill method,
// the last step before a quote is persisted and returned.
package calldata

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// quoteTupleComponents mirrors the tuple in the executor's
// fill((address,address,address,uint256,uint256,bytes32,uint256,uint256),bytes,uint256)
// signature.
var quoteTupleComponents = []abi.ArgumentMarshaling{
	{Name: "maker", Type: "address"},
	{Name: "tokenIn", Type: "address"},
	{Name: "tokenOut", Type: "address"},
	{Name: "amountIn", Type: "uint256"},
	{Name: "amountOut", Type: "uint256"},
	{Name: "strategyHash", Type: "bytes32"},
	{Name: "nonce", Type: "uint256"},
	{Name: "expiry", Type: "uint256"},
}

var fillMethod abi.Method

func init() {
	quoteTupleType, err := abi.NewType("tuple", "", quoteTupleComponents)
	if err != nil {
		panic(fmt.Sprintf("building Quote tuple abi type: %v", err))
	}
	bytesType, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	fillMethod = abi.NewMethod("fill", "fill", abi.Function, "nonpayable", false, false,
		abi.Arguments{
			{Name: "q", Type: quoteTupleType},
			{Name: "sig", Type: bytesType},
			{Name: "minAmountOutNet", Type: uint256Type},
		},
		nil,
	)
}

// Quote is the on-chain Quote tuple, field order load-bearing.
type Quote struct {
	Maker        common.Address
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     *big.Int
	AmountOut    *big.Int
	StrategyHash [32]byte
	Nonce        *big.Int
	Expiry       *big.Int
}

// Call is the assembled executor transaction: {to, data, value}.
type Call struct {
	To    string
	Data  string // 0x-prefixed hex
	Value string // decimal string, always "0" for fill
}

// EncodeFill ABI-encodes a fill(...) call against the executor at
// executorAddress.
func EncodeFill(executorAddress string, q Quote, signature []byte, minAmountOutNet *big.Int) (Call, error) {
	packed, err := fillMethod.Inputs.Pack(q, signature, minAmountOutNet)
	if err != nil {
		return Call{}, fmt.Errorf("packing fill() arguments: %w", err)
	}
	data := append(append([]byte{}, fillMethod.ID...), packed...)

	return Call{
		To:    executorAddress,
		Data:  "0x" + common.Bytes2Hex(data),
		Value: "0",
	}, nil
}

// DecodeFill reverses EncodeFill: it strips the 4-byte selector and
// unpacks the fill(...) arguments, for callers (e.g. tests) that need to
// verify a previously assembled Call's tuple fields without reaching
// into this package's unexported ABI method.
func DecodeFill(data []byte) (Quote, []byte, *big.Int, error) {
	if len(data) < 4 {
		return Quote{}, nil, nil, fmt.Errorf("calldata too short: %d bytes", len(data))
	}
	decoded, err := fillMethod.Inputs.Unpack(data[4:])
	if err != nil {
		return Quote{}, nil, nil, fmt.Errorf("unpacking fill() arguments: %w", err)
	}
	if len(decoded) != 3 {
		return Quote{}, nil, nil, fmt.Errorf("expected 3 decoded fill() args, got %d", len(decoded))
	}

	tuple := decoded[0]
	rv := reflect.ValueOf(tuple)
	q := Quote{
		Maker:        rv.FieldByName("Maker").Interface().(common.Address),
		TokenIn:      rv.FieldByName("TokenIn").Interface().(common.Address),
		TokenOut:     rv.FieldByName("TokenOut").Interface().(common.Address),
		AmountIn:     rv.FieldByName("AmountIn").Interface().(*big.Int),
		AmountOut:    rv.FieldByName("AmountOut").Interface().(*big.Int),
		StrategyHash: rv.FieldByName("StrategyHash").Interface().([32]byte),
		Nonce:        rv.FieldByName("Nonce").Interface().(*big.Int),
		Expiry:       rv.FieldByName("Expiry").Interface().(*big.Int),
	}

	sig, ok := decoded[1].([]byte)
	if !ok {
		return Quote{}, nil, nil, fmt.Errorf("decoded sig arg is not []byte")
	}
	minAmountOutNet, ok := decoded[2].(*big.Int)
	if !ok {
		return Quote{}, nil, nil, fmt.Errorf("decoded minAmountOutNet arg is not *big.Int")
	}
	return q, sig, minAmountOutNet, nil
}

// StrategyHashBytes32 parses a 0x-prefixed 32-byte hex string into the
// fixed-size array the tuple expects.
func StrategyHashBytes32(hexStr string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimPrefix(hexStr, "0x")
	raw := common.Hex2Bytes(trimmed)
	if len(raw) != 32 {
		return out, fmt.Errorf("strategy hash must be 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// fillSelector is kept for tests that want to confirm the 4-byte
// selector without re-deriving it from the method each time.
var fillSelector = crypto.Keccak256([]byte("fill((address,address,address,uint256,uint256,bytes32,uint256,uint256),bytes,uint256)"))[:4]
