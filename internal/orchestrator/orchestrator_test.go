package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aquaprotocol/rfq-issuer/internal/calldata"
	"github.com/aquaprotocol/rfq-issuer/internal/chains"
	"github.com/aquaprotocol/rfq-issuer/internal/nonce"
	"github.com/aquaprotocol/rfq-issuer/internal/pairs"
	"github.com/aquaprotocol/rfq-issuer/internal/pricing"
	"github.com/aquaprotocol/rfq-issuer/internal/quotestore"
	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
	"github.com/aquaprotocol/rfq-issuer/internal/signer"
	"github.com/aquaprotocol/rfq-issuer/internal/strategy"
	"github.com/aquaprotocol/rfq-issuer/internal/strategyclient"
	"github.com/aquaprotocol/rfq-issuer/internal/tokens"
)

const (
	weth  = "0x4200000000000000000000000000000000000006"
	usdc  = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	taker = "0x1234567890123456789012345678901234567890"
)

// strategyHash is a well-formed 32-byte hex string (64 hex chars after 0x).
var strategyHash = "0x" + strings.Repeat("0", 61) + "abc"

// erc20Caller answers decimals()/symbol() without a live RPC node.
type erc20Caller struct{ decimals uint8 }

func (c erc20Caller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	selector := crypto.Keccak256([]byte("decimals()"))[:4]
	if len(msg.Data) >= 4 && string(msg.Data[:4]) == string(selector) {
		t, _ := abi.NewType("uint8", "", nil)
		packed, err := abi.Arguments{{Type: t}}.Pack(c.decimals)
		return packed, err
	}
	// symbol() tolerated to fail; return an error so Symbol stays nil.
	return nil, fmt.Errorf("symbol not implemented")
}

type testHarness struct {
	orch          *Orchestrator
	chain         chains.Chain
	pricingServer *httptest.Server
	strategyServer *httptest.Server
	strategyRec   strategy.Record
	pairStore     *pairs.MemoryStore
	strategyStore *strategy.MemoryStore
}

// buildHarness wires an in-memory orchestrator with fake pricing/strategy
// upstreams, following spec.md §8's "fully in-memory orchestrator test
// harness" testable-properties guidance.
func buildHarness(t *testing.T, pricingHandler http.HandlerFunc, strategyHandler http.HandlerFunc, executorFeeBps int) *testHarness {
	t.Helper()

	pricingSrv := httptest.NewServer(pricingHandler)
	t.Cleanup(pricingSrv.Close)
	strategySrv := httptest.NewServer(strategyHandler)
	t.Cleanup(strategySrv.Close)

	t.Setenv("SIGNING_KEY_TEST_8453", "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	dir := t.TempDir()
	path := filepath.Join(dir, "chains.json")
	fee := executorFeeBps
	raw := fmt.Sprintf(`{"8453":{"name":"base","rpcUrl":"https://rpc.example","aqua":"0x0000000000000000000000000000000000000001","executor":"0x0000000000000000000000000000000000000002","signingKeyEnv":"SIGNING_KEY_TEST_8453","executorFeeBps":%d,"pricingUrl":%q,"strategyUrl":%q}}`,
		fee, pricingSrv.URL, strategySrv.URL)
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	registry, err := chains.Load(path, chains.Options{})
	require.NoError(t, err)
	chain, err := registry.Get(8453)
	require.NoError(t, err)

	pairStore := pairs.NewMemoryStore()
	_, err = pairStore.Upsert(context.Background(), 8453, weth, usdc, true, "")
	require.NoError(t, err)

	strategyStore := strategy.NewMemoryStore()
	rec, err := strategyStore.Create(context.Background(), strategy.CreateInput{
		ChainID: 8453, Name: "s1", Version: 1, Params: "{}", Hash: strategyHash,
	})
	require.NoError(t, err)
	require.NoError(t, strategyStore.SetActive(context.Background(), 8453, rec.ID))

	tokenStore := tokens.NewMemoryStore()
	tokenCache := tokens.NewCacheWithDialer(tokenStore, func(int64, string) (tokens.CallContracter, error) {
		return erc20Caller{decimals: 18}, nil
	})

	pricingClient := pricing.NewClient(2*time.Second, zap.NewNop())
	strategyClient := strategyclient.NewClient(2*time.Second, zap.NewNop())
	nonceAllocator := nonce.NewMemoryAllocator()
	quoteStore := quotestore.NewMemoryStore()
	sign := signer.New()

	orch := New(registry, tokenCache, pairStore, strategyStore, pricingClient, strategyClient, nonceAllocator, sign, quoteStore, zap.NewNop())

	return &testHarness{
		orch: orch, chain: chain,
		pricingServer: pricingSrv, strategyServer: strategySrv,
		strategyRec: rec, pairStore: pairStore, strategyStore: strategyStore,
	}
}

func depthHandler(amountOutRaw string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"asOfMs": 1700000000000,
			"midPrice": "1.0",
			"depthPoints": [{"amountInRaw":"100000000000000000","amountOutRaw":%q,"price":"1.0","impactBps":1,"provenance":[{"venue":"uniswap-v3"}]}],
			"sourcesUsed": ["uniswap-v3"],
			"latencyMs": 10,
			"confidenceScore": 0.9,
			"stale": false,
			"reasonCodes": []
		}`, amountOutRaw)
	}
}

func intentHandler(buyAmount string, feeBps int, expiry int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"strategy": {"id":"ignored","version":1,"hash":%q},
			"buyAmount": %q,
			"feeBps": %d,
			"feeAmount": "175000",
			"expiry": %d,
			"pricing": {"asOfMs":1700000000000,"confidenceScore":0.9,"stale":false,"sourcesUsed":["uniswap-v3"]}
		}`, strategyHash, buyAmount, feeBps, expiry)
	}
}

func TestCreateQuote_S1HappyPath(t *testing.T) {
	now := time.Now().Unix() + 120
	h := buildHarness(t, depthHandler("350000000"), intentHandler("350000000", 5, now), 0)

	resp, err := h.orch.CreateQuote(context.Background(), QuoteRequest{
		PriceRequest: PriceRequest{ChainID: 8453, SellToken: weth, BuyToken: usdc, SellAmount: "100000000000000000"},
		Taker:        taker,
	})
	require.NoError(t, err)

	assert.Equal(t, "350000000", resp.BuyAmount)
	assert.Equal(t, "0", resp.Nonce)
	assert.Equal(t, h.chain.ExecutorAddress, resp.Tx.To)
	assert.Equal(t, "0", resp.Tx.Value)

	// invariant 2: the signature recovers to the chain's maker address.
	assertSignatureRecoversToMaker(t, resp, h.chain.MakerAddress)

	// invariant 5: tx.data ABI-decodes to the signed tuple + sig + minNetOut.
	// executorFeeBps=0 here, so grossOut == netOut.
	assertCalldataMatchesSignedFields(t, resp, "350000000", "350000000")
}

func TestCreateQuote_S2ExecutorFeeScaling(t *testing.T) {
	now := time.Now().Unix() + 120
	h := buildHarness(t, depthHandler("350000000"), intentHandler("350000000", 5, now), 25)

	resp, err := h.orch.CreateQuote(context.Background(), QuoteRequest{
		PriceRequest: PriceRequest{ChainID: 8453, SellToken: weth, BuyToken: usdc, SellAmount: "100000000000000000"},
		Taker:        taker,
	})
	require.NoError(t, err)

	// netOut = 350000000, fb = 25bps -> grossOut = ceil(350000000*10000/9975) = 350877193
	assertCalldataMatchesSignedFields(t, resp, "350877193", "350000000")
	// the net amount the taker is owed is unchanged by the fee.
	assert.Equal(t, "350000000", resp.BuyAmount)
}

func TestCreateQuote_S3ConcurrentNonces(t *testing.T) {
	now := time.Now().Unix() + 120
	h := buildHarness(t, depthHandler("1"), intentHandler("1", 0, now), 0)

	const n = 100
	var wg sync.WaitGroup
	mu := sync.Mutex{}
	seen := make(map[string]bool, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := h.orch.CreateQuote(context.Background(), QuoteRequest{
				PriceRequest: PriceRequest{ChainID: 8453, SellToken: weth, BuyToken: usdc, SellAmount: "1"},
				Taker:        taker,
			})
			require.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			seen[resp.Nonce] = true
		}()
	}
	wg.Wait()

	require.Len(t, seen, n, "every nonce must be unique")
	for i := 0; i < n; i++ {
		assert.True(t, seen[fmt.Sprintf("%d", i)], "expected contiguous nonce %d to have been issued", i)
	}
}

func TestGetPrice_S4PauseRejection(t *testing.T) {
	called := false
	h := buildHarness(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		depthHandler("1")(w, r)
	}, intentHandler("1", 0, 0), 0)

	require.NoError(t, h.strategyStore.SetPaused(context.Background(), 8453, true))

	_, err := h.orch.GetPrice(context.Background(), PriceRequest{ChainID: 8453, SellToken: weth, BuyToken: usdc, SellAmount: "1"})
	require.Error(t, err)
	assert.Equal(t, rfqerr.CodeChainPaused, rfqerr.FromError(err).Code())
	assert.False(t, called, "no upstream call should be made once the chain is paused")
}

func TestCreateQuote_S5ExpiryMillisecondsNormalized(t *testing.T) {
	h := buildHarness(t, depthHandler("1"), intentHandler("1", 0, 1736000000000), 0)

	resp, err := h.orch.CreateQuote(context.Background(), QuoteRequest{
		PriceRequest: PriceRequest{ChainID: 8453, SellToken: weth, BuyToken: usdc, SellAmount: "1"},
		Taker:        taker,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1736000000, resp.Expiry)
}

func TestCreateQuote_S6ReplayFetchMatchesOriginal(t *testing.T) {
	now := time.Now().Unix() + 120
	h := buildHarness(t, depthHandler("350000000"), intentHandler("350000000", 5, now), 0)

	resp, err := h.orch.CreateQuote(context.Background(), QuoteRequest{
		PriceRequest: PriceRequest{ChainID: 8453, SellToken: weth, BuyToken: usdc, SellAmount: "100000000000000000"},
		Taker:        taker,
	})
	require.NoError(t, err)

	rec, err := h.orch.GetQuoteByID(context.Background(), resp.QuoteID)
	require.NoError(t, err)
	assert.Equal(t, resp.Signature, rec.Signature)
	assert.Equal(t, resp.Tx.To, rec.TxTo)
	assert.Equal(t, resp.Tx.Data, rec.TxData)
	assert.Equal(t, resp.Tx.Value, rec.TxValue)
}

func TestGetPrice_NoSideEffects(t *testing.T) {
	h := buildHarness(t, depthHandler("42"), intentHandler("42", 0, 0), 0)

	_, err := h.orch.GetPrice(context.Background(), PriceRequest{ChainID: 8453, SellToken: weth, BuyToken: usdc, SellAmount: "1"})
	require.NoError(t, err)

	_, err = h.orch.GetQuoteByID(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.Equal(t, rfqerr.CodeQuoteNotFound, rfqerr.FromError(err).Code())
}

func TestCreateQuote_PairNotEnabledFails(t *testing.T) {
	h := buildHarness(t, depthHandler("1"), intentHandler("1", 0, 0), 0)
	_, err := h.orch.CreateQuote(context.Background(), QuoteRequest{
		PriceRequest: PriceRequest{ChainID: 8453, SellToken: usdc, BuyToken: taker, SellAmount: "1"},
		Taker:        taker,
	})
	require.Error(t, err)
	assert.Equal(t, rfqerr.CodePairNotEnabled, rfqerr.FromError(err).Code())
}

func TestCreateQuote_StrategyUpstreamFailure(t *testing.T) {
	h := buildHarness(t, depthHandler("1"), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 0)

	_, err := h.orch.CreateQuote(context.Background(), QuoteRequest{
		PriceRequest: PriceRequest{ChainID: 8453, SellToken: weth, BuyToken: usdc, SellAmount: "1"},
		Taker:        taker,
	})
	require.Error(t, err)
	assert.Equal(t, rfqerr.CodeStrategyUpstreamFailed, rfqerr.FromError(err).Code())

	// the strategy call fails before the nonce is allocated, so no nonce is
	// burned and no quote record exists.
	_, err = h.orch.GetQuoteByID(context.Background(), "does-not-exist")
	require.Error(t, err)
}

func assertSignatureRecoversToMaker(t *testing.T, resp *QuoteResponse, maker string) {
	t.Helper()
	var td apitypes.TypedData
	require.NoError(t, json.Unmarshal(resp.TypedData, &td))
	digest, _, err := apitypes.TypedDataAndHash(td)
	require.NoError(t, err)

	sig := resp.Signature
	require.True(t, len(sig) == 132, "expected 0x-prefixed 65-byte signature, got %d chars", len(sig))
	recoverable := common.FromHex(sig)
	// undo the +27 v-offset before crypto.SigToPub, which expects v in {0,1}.
	recoverable[64] -= 27
	pub, err := crypto.SigToPub(digest, recoverable)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(maker), crypto.PubkeyToAddress(*pub))
}

func assertCalldataMatchesSignedFields(t *testing.T, resp *QuoteResponse, expectedGrossOut, expectedMinNetOut string) {
	t.Helper()
	data := common.FromHex(resp.Tx.Data)
	require.True(t, len(data) > 4, "calldata must include 4-byte selector plus packed args")
	assert.Equal(t, "0", resp.Tx.Value)

	q, _, minAmountOutNet, err := calldata.DecodeFill(data)
	require.NoError(t, err)
	assert.Equal(t, expectedGrossOut, q.AmountOut.String(), "amountOut in the signed tuple must equal grossOut")
	assert.Equal(t, expectedMinNetOut, minAmountOutNet.String())
}
