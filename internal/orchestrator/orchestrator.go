// Package orchestrator implements the Quote Orchestrator (spec.md
// §4.I): it composes the Chains Registry, Token Metadata Cache, Pair
// Admission Store, Strategy Catalog, Pricing Client, Strategy Client,
// Nonce Allocator, Signer, calldata assembly, and Quote persistence
// into the getPrice/createQuote pipelines.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aquaprotocol/rfq-issuer/internal/bigutil"
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

// Orchestrator wires components A-H into the two hot paths.
type Orchestrator struct {
	chains          *chains.Registry
	tokenCache      *tokens.Cache
	pairStore       pairs.Store
	strategyStore   strategy.Store
	pricingClient   *pricing.Client
	strategyClient  *strategyclient.Client
	nonceAllocator  nonce.Allocator
	signer          *signer.Signer
	quoteStore      quotestore.Store
	log             *zap.Logger
}

func New(
	registry *chains.Registry,
	tokenCache *tokens.Cache,
	pairStore pairs.Store,
	strategyStore strategy.Store,
	pricingClient *pricing.Client,
	strategyClient *strategyclient.Client,
	nonceAllocator nonce.Allocator,
	sign *signer.Signer,
	quoteStore quotestore.Store,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		chains:         registry,
		tokenCache:     tokenCache,
		pairStore:      pairStore,
		strategyStore:  strategyStore,
		pricingClient:  pricingClient,
		strategyClient: strategyClient,
		nonceAllocator: nonceAllocator,
		signer:         sign,
		quoteStore:     quoteStore,
		log:            log,
	}
}

// PriceRequest is getPrice's input.
type PriceRequest struct {
	ChainID    int64
	SellToken  string
	BuyToken   string
	SellAmount string
}

// PriceResponse is getPrice's output.
type PriceResponse struct {
	ChainID         int64
	SellToken       string
	BuyToken        string
	SellAmount      string
	BuyAmount       string
	PricingSnapshot *pricing.Snapshot
}

// QuoteRequest is createQuote's input: PriceRequest plus taker/recipient.
type QuoteRequest struct {
	PriceRequest
	Taker     string
	Recipient string
}

// QuoteResponse mirrors the wire QuoteResponse shape (spec §6).
type QuoteResponse struct {
	QuoteID   string
	ChainID   int64
	Maker     string
	Taker     string
	Recipient string
	Executor  string
	Strategy  StrategyRef
	SellToken string
	BuyToken  string
	SellAmount string
	BuyAmount  string
	FeeBps     int
	FeeAmount  string
	Expiry     int64
	Nonce      string
	TypedData  json.RawMessage
	Signature  string
	Tx         calldata.Call
	Pricing    PricingInfo
}

type StrategyRef struct {
	ID      string
	Version int
	Hash    string
}

type PricingInfo struct {
	AsOfMs          int64
	ConfidenceScore float64
	Stale           bool
	SourcesUsed     []string
}

// priceContext carries intermediate results from getPrice's pipeline
// that createQuote reuses, avoiding duplicate upstream calls.
type priceContext struct {
	chain      chains.Chain
	chainState strategy.ChainState
	sellRecord *tokens.Record
	buyRecord  *tokens.Record
	snapshot   *pricing.Snapshot
	buyAmount  string
}

// GetPrice implements spec.md §4.I's getPrice contract.
func (o *Orchestrator) GetPrice(ctx context.Context, req PriceRequest) (*PriceResponse, error) {
	start := time.Now()
	pc, err := o.resolvePrice(ctx, req)
	outcome := "ok"
	chainLabel := strconv.FormatInt(req.ChainID, 10)
	if err != nil {
		outcome = "error"
	}
	priceLatencySeconds.WithLabelValues(chainLabel, outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	return &PriceResponse{
		ChainID:         req.ChainID,
		SellToken:       req.SellToken,
		BuyToken:        req.BuyToken,
		SellAmount:      req.SellAmount,
		BuyAmount:       pc.buyAmount,
		PricingSnapshot: pc.snapshot,
	}, nil
}

// resolvePrice runs steps 1-6 of spec.md §4.I, shared by getPrice and
// createQuote.
func (o *Orchestrator) resolvePrice(ctx context.Context, req PriceRequest) (*priceContext, error) {
	chain, err := o.chains.Get(req.ChainID)
	if err != nil {
		return nil, err
	}

	state, err := o.strategyStore.GetChainState(ctx, req.ChainID)
	if err != nil {
		return nil, err
	}
	if state.Paused {
		return nil, rfqerr.ChainPaused(req.ChainID)
	}

	if _, err := o.pairStore.EnsureEnabled(ctx, req.ChainID, req.SellToken, req.BuyToken); err != nil {
		return nil, err
	}

	sellRec, buyRec, err := o.ensureTokensConcurrently(ctx, chain, req.SellToken, req.BuyToken)
	if err != nil {
		return nil, err
	}

	snapshot, err := o.pricingClient.RequestDepth(ctx, chain.PricingURL, pricing.Request{
		ChainID:    req.ChainID,
		SellToken:  req.SellToken,
		BuyToken:   req.BuyToken,
		SellAmount: req.SellAmount,
	})
	if err != nil {
		return nil, err
	}

	buyAmount := "0"
	if len(snapshot.DepthPoints) > 0 {
		buyAmount = snapshot.DepthPoints[0].AmountOutRaw
	}

	return &priceContext{
		chain:      chain,
		chainState: state,
		sellRecord: sellRec,
		buyRecord:  buyRec,
		snapshot:   snapshot,
		buyAmount:  buyAmount,
	}, nil
}

// ensureTokensConcurrently resolves both token records for a price
// request in parallel, following the §4.B cache's own internal
// decimals/symbol concurrency pattern one level up.
func (o *Orchestrator) ensureTokensConcurrently(ctx context.Context, chain chains.Chain, sellToken, buyToken string) (*tokens.Record, *tokens.Record, error) {
	type result struct {
		rec *tokens.Record
		err error
	}
	sellCh := make(chan result, 1)
	buyCh := make(chan result, 1)

	go func() {
		rec, err := o.tokenCache.Ensure(ctx, chain.ChainID, chain.RPCURL, sellToken)
		sellCh <- result{rec, err}
	}()
	go func() {
		rec, err := o.tokenCache.Ensure(ctx, chain.ChainID, chain.RPCURL, buyToken)
		buyCh <- result{rec, err}
	}()

	sellRes := <-sellCh
	buyRes := <-buyCh
	if sellRes.err != nil {
		return nil, nil, sellRes.err
	}
	if buyRes.err != nil {
		return nil, nil, buyRes.err
	}
	return sellRes.rec, buyRes.rec, nil
}

// CreateQuote implements spec.md §4.I's createQuote contract, steps 7-15.
func (o *Orchestrator) CreateQuote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	start := time.Now()
	resp, err := o.createQuote(ctx, req)
	outcome := "ok"
	chainLabel := strconv.FormatInt(req.ChainID, 10)
	if err != nil {
		outcome = "error"
	}
	quoteLatencySeconds.WithLabelValues(chainLabel, outcome).Observe(time.Since(start).Seconds())
	if err == nil {
		quotesIssuedTotal.WithLabelValues(chainLabel).Inc()
	}
	return resp, err
}

func (o *Orchestrator) createQuote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	recipient := req.Recipient
	if recipient == "" {
		recipient = req.Taker
	}

	pc, err := o.resolvePrice(ctx, req.PriceRequest)
	if err != nil {
		return nil, err
	}

	sellAmount, err := bigutil.NormalizeUint(req.SellAmount)
	if err != nil {
		return nil, rfqerr.InvalidAmount(err.Error())
	}

	if pc.chainState.MaxTradeSizeRaw != "" {
		maxTradeSize, ok := bigutilParse(pc.chainState.MaxTradeSizeRaw)
		if ok && maxTradeSize.Sign() > 0 && sellAmount.Cmp(maxTradeSize) > 0 {
			return nil, rfqerr.InvalidAmount(fmt.Sprintf("sellAmount exceeds chain %d's configured max trade size", req.ChainID))
		}
	}

	activeStrategy, err := o.strategyStore.GetActiveStrategy(ctx, req.ChainID)
	if err != nil {
		return nil, err
	}

	intent, err := o.strategyClient.RequestIntent(ctx, pc.chain.StrategyURL, strategyclient.Request{
		ChainID:         req.ChainID,
		Maker:           pc.chain.MakerAddress,
		Executor:        pc.chain.ExecutorAddress,
		Taker:           req.Taker,
		SellToken:       req.SellToken,
		BuyToken:        req.BuyToken,
		SellAmount:      req.SellAmount,
		Recipient:       recipient,
		PricingSnapshot: pc.snapshot,
		Strategy: strategyclient.StrategyRef{
			ID:      activeStrategy.ID,
			Version: activeStrategy.Version,
			Hash:    activeStrategy.Hash,
			Params:  activeStrategy.Params,
		},
	})
	if err != nil {
		return nil, err
	}

	netOut, err := bigutil.NormalizeUint(intent.BuyAmount)
	if err != nil {
		return nil, rfqerr.InvalidAmount(err.Error())
	}
	// §4.I step 9: the fee that grosses netOut up into the signed
	// amountOut is the chain's configured executor fee, not the
	// strategy intent's feeBps (that figure is persisted informationally
	// only, per step 15 and §9's first open question).
	fb := bigutil.ClampBps(pc.chain.ExecutorFeeBps)

	var grossOut, minNetOut = netOut, netOut
	if fb != 0 && netOut.Sign() != 0 {
		grossOut = computeGrossOut(netOut, fb)
	}

	expirySeconds, err := normalizeExpiry(intent.Expiry)
	if err != nil {
		return nil, rfqerr.InvalidAmount(err.Error())
	}

	allocatedNonce, err := o.nonceAllocator.Allocate(ctx, req.ChainID, pc.chain.MakerAddress)
	if err != nil {
		return nil, err
	}

	quoteID := uuid.NewString()

	strategyHashBytes, err := calldata.StrategyHashBytes32(activeStrategy.Hash)
	if err != nil {
		return nil, rfqerr.Internal(fmt.Sprintf("invalid strategy hash: %v", err))
	}

	signResult, err := o.signer.Sign(ctx, pc.chain, signer.Payload{
		ChainID:      req.ChainID,
		Executor:     pc.chain.ExecutorAddress,
		Maker:        pc.chain.MakerAddress,
		TokenIn:      req.SellToken,
		TokenOut:     req.BuyToken,
		AmountIn:     sellAmount,
		AmountOut:    grossOut,
		StrategyHash: activeStrategy.Hash,
		Nonce:        allocatedNonce,
		Expiry:       bigIntFromInt64(expirySeconds),
	})
	if err != nil {
		return nil, err
	}

	sigBytes, err := hexToBytes(signResult.Signature)
	if err != nil {
		return nil, rfqerr.Internal(fmt.Sprintf("decoding produced signature: %v", err))
	}

	tx, err := calldata.EncodeFill(pc.chain.ExecutorAddress, calldata.Quote{
		Maker:        addressFromHex(pc.chain.MakerAddress),
		TokenIn:      addressFromHex(req.SellToken),
		TokenOut:     addressFromHex(req.BuyToken),
		AmountIn:     sellAmount,
		AmountOut:    grossOut,
		StrategyHash: strategyHashBytes,
		Nonce:        allocatedNonce,
		Expiry:       bigIntFromInt64(expirySeconds),
	}, sigBytes, minNetOut)
	if err != nil {
		return nil, rfqerr.Internal(fmt.Sprintf("assembling executor calldata: %v", err))
	}

	typedDataJSON, err := json.Marshal(signResult.TypedData)
	if err != nil {
		return nil, rfqerr.Internal(fmt.Sprintf("encoding typed data: %v", err))
	}

	record := quotestore.Quote{
		QuoteID:           quoteID,
		ChainID:           req.ChainID,
		Maker:             pc.chain.MakerAddress,
		Taker:             req.Taker,
		Recipient:         recipient,
		Executor:          pc.chain.ExecutorAddress,
		StrategyID:        activeStrategy.ID,
		StrategyVersion:   activeStrategy.Version,
		StrategyHash:      activeStrategy.Hash,
		SellToken:         req.SellToken,
		BuyToken:          req.BuyToken,
		SellAmount:        sellAmount.String(),
		BuyAmount:         netOut.String(),
		FeeBps:            intent.FeeBps,
		FeeAmount:         intent.FeeAmount,
		Nonce:             allocatedNonce.String(),
		Expiry:            expirySeconds,
		TypedData:         string(typedDataJSON),
		Signature:         signResult.Signature,
		TxTo:              tx.To,
		TxData:            tx.Data,
		TxValue:           tx.Value,
		Status:            quotestore.StatusIssued,
		PricingAsOfMs:     pc.snapshot.AsOfMs,
		PricingConfidence: pc.snapshot.ConfidenceScore,
		PricingStale:      pc.snapshot.Stale,
		PricingSources:    pc.snapshot.SourcesUsed,
		CreatedAt:         time.Now(),
	}
	if err := o.quoteStore.Insert(ctx, record); err != nil {
		return nil, err
	}

	return &QuoteResponse{
		QuoteID:    quoteID,
		ChainID:    req.ChainID,
		Maker:      pc.chain.MakerAddress,
		Taker:      req.Taker,
		Recipient:  recipient,
		Executor:   pc.chain.ExecutorAddress,
		Strategy:   StrategyRef{ID: activeStrategy.ID, Version: activeStrategy.Version, Hash: activeStrategy.Hash},
		SellToken:  req.SellToken,
		BuyToken:   req.BuyToken,
		SellAmount: sellAmount.String(),
		BuyAmount:  netOut.String(),
		FeeBps:     intent.FeeBps,
		FeeAmount:  intent.FeeAmount,
		Expiry:     expirySeconds,
		Nonce:      allocatedNonce.String(),
		TypedData:  typedDataJSON,
		Signature:  signResult.Signature,
		Tx:         tx,
		Pricing: PricingInfo{
			AsOfMs:          pc.snapshot.AsOfMs,
			ConfidenceScore: pc.snapshot.ConfidenceScore,
			Stale:           pc.snapshot.Stale,
			SourcesUsed:     pc.snapshot.SourcesUsed,
		},
	}, nil
}

// GetQuoteByID returns the persisted record verbatim.
func (o *Orchestrator) GetQuoteByID(ctx context.Context, quoteID string) (*quotestore.Quote, error) {
	return o.quoteStore.Get(ctx, quoteID)
}
