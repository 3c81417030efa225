// Package strategyclient implements the Strategy Client: it POSTs
// intent requests to the external strategy service, mirroring
// pricing.Client's http.Client-with-Timeout-plus-breaker shape.
package strategyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/aquaprotocol/rfq-issuer/internal/pricing"
	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

// StrategyRef identifies the strategy the caller wants the intent
// computed for.
type StrategyRef struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Hash    string `json:"hash"`
	Params  string `json:"params"`
}

// Request is the /intent payload.
type Request struct {
	ChainID         int64             `json:"chainId"`
	Maker           string            `json:"maker"`
	Executor        string            `json:"executor"`
	Taker           string            `json:"taker"`
	SellToken       string            `json:"sellToken"`
	BuyToken        string            `json:"buyToken"`
	SellAmount      string            `json:"sellAmount"`
	Recipient       string            `json:"recipient"`
	PricingSnapshot *pricing.Snapshot `json:"pricingSnapshot"`
	Strategy        StrategyRef       `json:"strategy"`
}

// ResolvedStrategy is the echoed strategy identity in the intent response.
type ResolvedStrategy struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Hash    string `json:"hash"`
}

// PricingEcho is the subset of pricing context the strategy service
// reports back alongside its intent.
type PricingEcho struct {
	AsOfMs          int64    `json:"asOfMs"`
	ConfidenceScore float64  `json:"confidenceScore"`
	Stale           bool     `json:"stale"`
	SourcesUsed     []string `json:"sourcesUsed"`
}

// Intent is the strategy service's computed fill intent.
type Intent struct {
	Strategy  ResolvedStrategy `json:"strategy"`
	BuyAmount string           `json:"buyAmount"`
	FeeBps    int              `json:"feeBps"`
	FeeAmount string           `json:"feeAmount"`
	Expiry    json.Number      `json:"expiry"`
	Pricing   PricingEcho      `json:"pricing"`
}

// UnmarshalJSON tolerates spec §4.F's documented `expiry: int | string`
// shape. json.Number only decodes from a bare numeric literal, so a
// quoted expiry would otherwise fail the whole Intent decode; unwrap the
// quotes before handing the value to json.Number.
func (i *Intent) UnmarshalJSON(data []byte) error {
	var aux struct {
		Strategy  ResolvedStrategy `json:"strategy"`
		BuyAmount string           `json:"buyAmount"`
		FeeBps    int              `json:"feeBps"`
		FeeAmount string           `json:"feeAmount"`
		Expiry    json.RawMessage  `json:"expiry"`
		Pricing   PricingEcho      `json:"pricing"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	expiry, err := decodeFlexibleNumber(aux.Expiry)
	if err != nil {
		return fmt.Errorf("decoding expiry: %w", err)
	}

	i.Strategy = aux.Strategy
	i.BuyAmount = aux.BuyAmount
	i.FeeBps = aux.FeeBps
	i.FeeAmount = aux.FeeAmount
	i.Expiry = expiry
	i.Pricing = aux.Pricing
	return nil
}

func decodeFlexibleNumber(raw json.RawMessage) (json.Number, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) >= 2 && trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return json.Number(s), nil
	}
	return json.Number(trimmed), nil
}

// Client requests fill intents from the strategy service.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Intent]
}

func NewClient(timeout time.Duration, log *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker[*Intent](gobreaker.Settings{
		Name:        "strategy-client",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("strategy client circuit breaker state change", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &Client{httpClient: &http.Client{Timeout: timeout}, breaker: breaker}
}

// RequestIntent POSTs to {strategyUrl}/intent. All failures surface as
// STRATEGY_UPSTREAM_FAILED.
func (c *Client) RequestIntent(ctx context.Context, strategyURL string, req Request) (*Intent, error) {
	intent, err := c.breaker.Execute(func() (*Intent, error) {
		return c.doRequest(ctx, strategyURL, req)
	})
	if err != nil {
		return nil, rfqerr.StrategyUpstreamFailed(err.Error())
	}
	return intent, nil
}

func (c *Client) doRequest(ctx context.Context, strategyURL string, req Request) (*Intent, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding intent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strategyURL+"/intent", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building intent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing intent request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading intent response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("strategy service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var intent Intent
	if err := json.Unmarshal(respBody, &intent); err != nil {
		return nil, fmt.Errorf("decoding intent response: %w", err)
	}
	return &intent, nil
}
