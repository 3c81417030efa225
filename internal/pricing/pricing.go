// Package pricing implements the Pricing Client: it POSTs depth
// requests to the external pricing service under a timeout, following
// the httpClient-with-Timeout pattern the teacher uses for its fiat
// and exchange market-data providers
// (internal/marketmaking/marketfeeds/fiat_providers.go).
package pricing

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

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

// DepthPoint is one point on the pricing service's depth curve.
type DepthPoint struct {
	AmountInRaw  string          `json:"amountInRaw"`
	AmountOutRaw string          `json:"amountOutRaw"`
	Price        string          `json:"price"`
	ImpactBps    float64         `json:"impactBps"`
	Provenance   ProvenanceList  `json:"provenance"`
}

// Provenance identifies a liquidity source behind a depth point.
type Provenance struct {
	Venue   string  `json:"venue"`
	FeeTier *string `json:"feeTier,omitempty"`
}

// ProvenanceList normalizes the upstream pricing service's provenance
// field, which may arrive as a JSON array, a single object, or null /
// omitted entirely, into a stable []Provenance shape. Null decodes to an
// empty list; an omitted field is filled in by RequestDepth.
type ProvenanceList []Provenance

func (p *ProvenanceList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*p = ProvenanceList{}
		return nil
	}
	if trimmed[0] == '[' {
		var arr []Provenance
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return err
		}
		*p = arr
		return nil
	}
	var single Provenance
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	*p = []Provenance{single}
	return nil
}

// Snapshot is the PricingSnapshot response described in spec §4.E.
type Snapshot struct {
	AsOfMs           int64        `json:"asOfMs"`
	BlockNumber      *int64       `json:"blockNumber,omitempty"`
	MidPrice         string       `json:"midPrice"`
	DepthPoints      []DepthPoint `json:"depthPoints"`
	SourcesUsed      []string     `json:"sourcesUsed"`
	LatencyMs        int64        `json:"latencyMs"`
	ConfidenceScore  float64      `json:"confidenceScore"`
	Stale            bool         `json:"stale"`
	ReasonCodes      []string     `json:"reasonCodes"`
}

// Request is the depth request payload.
type Request struct {
	ChainID    int64  `json:"chainId"`
	SellToken  string `json:"sellToken"`
	BuyToken   string `json:"buyToken"`
	SellAmount string `json:"sellAmount"`
}

// Client requests depth snapshots from the pricing service.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Snapshot]
	log        *zap.Logger
}

// NewClient builds a Client with the given per-request timeout and a
// circuit breaker over the pricing service endpoint, following the
// gobreaker usage the rest of the pack applies to upstream RPC
// subscriptions.
func NewClient(timeout time.Duration, log *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker[*Snapshot](gobreaker.Settings{
		Name:        "pricing-client",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("pricing client circuit breaker state change", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		log:        log,
	}
}

// RequestDepth POSTs to {pricingUrl}/depth and returns the normalized
// snapshot. All network and decode failures surface as
// PRICING_UPSTREAM_FAILED.
func (c *Client) RequestDepth(ctx context.Context, pricingURL string, req Request) (*Snapshot, error) {
	snap, err := c.breaker.Execute(func() (*Snapshot, error) {
		return c.doRequest(ctx, pricingURL, req)
	})
	if err != nil {
		return nil, rfqerr.PricingUpstreamFailed(err.Error())
	}
	return snap, nil
}

func (c *Client) doRequest(ctx context.Context, pricingURL string, req Request) (*Snapshot, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding depth request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, pricingURL+"/depth", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building depth request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing depth request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading depth response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pricing service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var snap Snapshot
	if err := json.Unmarshal(respBody, &snap); err != nil {
		return nil, fmt.Errorf("decoding depth response: %w", err)
	}
	for i := range snap.DepthPoints {
		if snap.DepthPoints[i].Provenance == nil {
			snap.DepthPoints[i].Provenance = ProvenanceList{}
		}
	}
	return &snap, nil
}
