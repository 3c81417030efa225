package transport

import "github.com/aquaprotocol/rfq-issuer/internal/orchestrator"

// priceRequestDTO is the wire shape of POST /v1/price.
type priceRequestDTO struct {
	ChainID    int64  `json:"chainId" validate:"required"`
	SellToken  string `json:"sellToken" validate:"required"`
	BuyToken   string `json:"buyToken" validate:"required"`
	SellAmount string `json:"sellAmount" validate:"required"`
}

// quoteRequestDTO is the wire shape of POST /v1/quote.
type quoteRequestDTO struct {
	ChainID    int64  `json:"chainId" validate:"required"`
	SellToken  string `json:"sellToken" validate:"required"`
	BuyToken   string `json:"buyToken" validate:"required"`
	SellAmount string `json:"sellAmount" validate:"required"`
	Taker      string `json:"taker" validate:"required"`
	Recipient  string `json:"recipient,omitempty"`
}

func (r priceRequestDTO) toOrchestrator() orchestrator.PriceRequest {
	return orchestrator.PriceRequest{
		ChainID:    r.ChainID,
		SellToken:  r.SellToken,
		BuyToken:   r.BuyToken,
		SellAmount: r.SellAmount,
	}
}

func (r quoteRequestDTO) toOrchestrator() orchestrator.QuoteRequest {
	return orchestrator.QuoteRequest{
		PriceRequest: orchestrator.PriceRequest{
			ChainID:    r.ChainID,
			SellToken:  r.SellToken,
			BuyToken:   r.BuyToken,
			SellAmount: r.SellAmount,
		},
		Taker:     r.Taker,
		Recipient: r.Recipient,
	}
}

// priceResponseDTO mirrors spec §6's PriceResponse.
type priceResponseDTO struct {
	ChainID         int64       `json:"chainId"`
	SellToken       string      `json:"sellToken"`
	BuyToken        string      `json:"buyToken"`
	SellAmount      string      `json:"sellAmount"`
	BuyAmount       string      `json:"buyAmount"`
	PricingSnapshot interface{} `json:"pricingSnapshot"`
}

func newPriceResponseDTO(r *orchestrator.PriceResponse) priceResponseDTO {
	return priceResponseDTO{
		ChainID:         r.ChainID,
		SellToken:       r.SellToken,
		BuyToken:        r.BuyToken,
		SellAmount:      r.SellAmount,
		BuyAmount:       r.BuyAmount,
		PricingSnapshot: r.PricingSnapshot,
	}
}

// quoteResponseDTO mirrors spec §6's QuoteResponse.
type quoteResponseDTO struct {
	QuoteID    string          `json:"quoteId"`
	ChainID    int64           `json:"chainId"`
	Maker      string          `json:"maker"`
	Taker      string          `json:"taker"`
	Recipient  string          `json:"recipient"`
	Executor   string          `json:"executor"`
	Strategy   strategyRefDTO  `json:"strategy"`
	SellToken  string          `json:"sellToken"`
	BuyToken   string          `json:"buyToken"`
	SellAmount string          `json:"sellAmount"`
	BuyAmount  string          `json:"buyAmount"`
	FeeBps     int             `json:"feeBps"`
	FeeAmount  string          `json:"feeAmount"`
	Expiry     int64           `json:"expiry"`
	Nonce      string          `json:"nonce"`
	TypedData  interface{}     `json:"typedData"`
	Signature  string          `json:"signature"`
	Tx         txDTO           `json:"tx"`
	Pricing    pricingInfoDTO  `json:"pricing"`
}

type strategyRefDTO struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Hash    string `json:"hash"`
}

type txDTO struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

type pricingInfoDTO struct {
	AsOfMs          int64    `json:"asOfMs"`
	ConfidenceScore float64  `json:"confidenceScore"`
	Stale           bool     `json:"stale"`
	SourcesUsed     []string `json:"sourcesUsed"`
}

func newQuoteResponseDTO(r *orchestrator.QuoteResponse) quoteResponseDTO {
	return quoteResponseDTO{
		QuoteID:    r.QuoteID,
		ChainID:    r.ChainID,
		Maker:      r.Maker,
		Taker:      r.Taker,
		Recipient:  r.Recipient,
		Executor:   r.Executor,
		Strategy:   strategyRefDTO{ID: r.Strategy.ID, Version: r.Strategy.Version, Hash: r.Strategy.Hash},
		SellToken:  r.SellToken,
		BuyToken:   r.BuyToken,
		SellAmount: r.SellAmount,
		BuyAmount:  r.BuyAmount,
		FeeBps:     r.FeeBps,
		FeeAmount:  r.FeeAmount,
		Expiry:     r.Expiry,
		Nonce:      r.Nonce,
		TypedData:  r.TypedData,
		Signature:  r.Signature,
		Tx:         txDTO{To: r.Tx.To, Data: r.Tx.Data, Value: r.Tx.Value},
		Pricing: pricingInfoDTO{
			AsOfMs:          r.Pricing.AsOfMs,
			ConfidenceScore: r.Pricing.ConfidenceScore,
			Stale:           r.Pricing.Stale,
			SourcesUsed:     r.Pricing.SourcesUsed,
		},
	}
}

// pairUpsertDTO is the body for POST /v1/admin/pairs.
type pairUpsertDTO struct {
	ChainID  int64  `json:"chainId" validate:"required"`
	TokenA   string `json:"tokenA" validate:"required"`
	TokenB   string `json:"tokenB" validate:"required"`
	Enabled  bool   `json:"enabled"`
	Metadata string `json:"metadata,omitempty"`
}

// strategyCreateDTO is the body for POST /v1/admin/strategies.
type strategyCreateDTO struct {
	ChainID int64  `json:"chainId" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Version int    `json:"version" validate:"required"`
	Params  string `json:"params"`
	Hash    string `json:"hash" validate:"required"`
}

// configUpdateDTO is the body for PUT /v1/admin/config.
type configUpdateDTO struct {
	ChainID         int64    `json:"chainId" validate:"required"`
	Paused          *bool    `json:"paused,omitempty"`
	DailyCapUsd     *float64 `json:"dailyCapUsd,omitempty"`
	MaxTradeSizeRaw *string  `json:"maxTradeSizeRaw,omitempty"`
}
