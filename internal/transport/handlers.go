package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/aquaprotocol/rfq-issuer/internal/ethaddr"
	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

// validate is the shared validator.v10 instance used to enforce DTO
// shape beyond what JSON unmarshaling alone checks (required fields,
// etc.), mirroring the teacher's package-level `validate := validator.New()`.
var validate = validator.New()

// bindJSON unmarshals the request body into dst and runs struct-tag
// validation against it.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return rfqerr.InvalidRequest(err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		return rfqerr.InvalidRequest(err.Error())
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
}

func (s *Server) handleListChains(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chains": s.chains.List()})
}

func (s *Server) handleMetadata(c *gin.Context) {
	chainID, err := parseChainID(c.Query("chainId"))
	if err != nil {
		writeValidationError(c, err.Error())
		return
	}

	chain, err := s.chains.Get(chainID)
	if err != nil {
		writeError(c, err)
		return
	}
	state, err := s.strategyStore.GetChainState(c.Request.Context(), chainID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{
		"chainId":   chain.ChainID,
		"chainName": chain.Name,
		"maker":     chain.MakerAddress,
		"executor":  chain.ExecutorAddress,
		"paused":    state.Paused,
	}
	if state.ActiveStrategyID != nil {
		if active, err := s.strategyStore.FindByID(c.Request.Context(), *state.ActiveStrategyID); err == nil {
			resp["activeStrategy"] = gin.H{
				"id":      active.ID,
				"version": active.Version,
				"hash":    active.Hash,
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePrice(c *gin.Context) {
	var body priceRequestDTO
	if err := bindJSON(c, &body); err != nil {
		writeError(c, err)
		return
	}
	if err := validateAddressesAndAmount(body.SellToken, body.BuyToken, body.SellAmount); err != nil {
		writeValidationError(c, err.Error())
		return
	}

	resp, err := s.orchestrator.GetPrice(c.Request.Context(), body.toOrchestrator())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPriceResponseDTO(resp))
}

func (s *Server) handleQuote(c *gin.Context) {
	var body quoteRequestDTO
	if err := bindJSON(c, &body); err != nil {
		writeError(c, err)
		return
	}
	if err := validateAddressesAndAmount(body.SellToken, body.BuyToken, body.SellAmount); err != nil {
		writeValidationError(c, err.Error())
		return
	}
	if _, err := ethaddr.Parse(body.Taker); err != nil {
		writeValidationError(c, "taker: "+err.Error())
		return
	}
	if body.Recipient != "" {
		if _, err := ethaddr.Parse(body.Recipient); err != nil {
			writeValidationError(c, "recipient: "+err.Error())
			return
		}
	}

	resp, err := s.orchestrator.CreateQuote(c.Request.Context(), body.toOrchestrator())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newQuoteResponseDTO(resp))
}

func (s *Server) handleGetQuote(c *gin.Context) {
	quoteID := c.Param("quoteId")
	rec, err := s.orchestrator.GetQuoteByID(c.Request.Context(), quoteID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func validateAddressesAndAmount(sellToken, buyToken, sellAmount string) error {
	if _, err := ethaddr.Parse(sellToken); err != nil {
		return rfqerr.InvalidRequest("sellToken: " + err.Error())
	}
	if _, err := ethaddr.Parse(buyToken); err != nil {
		return rfqerr.InvalidRequest("buyToken: " + err.Error())
	}
	if sellAmount == "" {
		return rfqerr.InvalidRequest("sellAmount is required")
	}
	return nil
}

func parseChainID(s string) (int64, error) {
	if s == "" {
		return 0, rfqerr.InvalidRequest("chainId is required")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, rfqerr.InvalidRequest("chainId must be a decimal integer")
	}
	return id, nil
}
