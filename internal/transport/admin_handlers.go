package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquaprotocol/rfq-issuer/internal/ethaddr"
	"github.com/aquaprotocol/rfq-issuer/internal/strategy"
)

// Admin CRUD handlers: thin delegation to C/D/B per spec.md §4.J, no
// business logic beyond what the stores already expose.

func (s *Server) handleListPairs(c *gin.Context) {
	chainID, err := parseChainID(c.Query("chainId"))
	if err != nil {
		writeValidationError(c, err.Error())
		return
	}
	recs, err := s.pairStore.List(c.Request.Context(), chainID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pairs": recs})
}

func (s *Server) handleUpsertPair(c *gin.Context) {
	var body pairUpsertDTO
	if err := bindJSON(c, &body); err != nil {
		writeError(c, err)
		return
	}
	if _, err := ethaddr.Parse(body.TokenA); err != nil {
		writeValidationError(c, "tokenA: "+err.Error())
		return
	}
	if _, err := ethaddr.Parse(body.TokenB); err != nil {
		writeValidationError(c, "tokenB: "+err.Error())
		return
	}
	rec, err := s.pairStore.Upsert(c.Request.Context(), body.ChainID, body.TokenA, body.TokenB, body.Enabled, body.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleListStrategies(c *gin.Context) {
	chainID, err := parseChainID(c.Query("chainId"))
	if err != nil {
		writeValidationError(c, err.Error())
		return
	}
	recs, err := s.strategyStore.List(c.Request.Context(), chainID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategies": recs})
}

func (s *Server) handleCreateStrategy(c *gin.Context) {
	var body strategyCreateDTO
	if err := bindJSON(c, &body); err != nil {
		writeError(c, err)
		return
	}
	rec, err := s.strategyStore.Create(c.Request.Context(), strategy.CreateInput{
		ChainID: body.ChainID,
		Name:    body.Name,
		Version: body.Version,
		Params:  body.Params,
		Hash:    body.Hash,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleActivateStrategy(c *gin.Context) {
	strategyID := c.Param("id")
	rec, err := s.strategyStore.FindByID(c.Request.Context(), strategyID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.strategyStore.SetActive(c.Request.Context(), rec.ChainID, strategyID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chainId": rec.ChainID, "activeStrategyId": strategyID})
}

func (s *Server) handleUpdateConfig(c *gin.Context) {
	var body configUpdateDTO
	if err := bindJSON(c, &body); err != nil {
		writeError(c, err)
		return
	}
	ctx := c.Request.Context()

	if body.Paused != nil {
		if err := s.strategyStore.SetPaused(ctx, body.ChainID, *body.Paused); err != nil {
			writeError(c, err)
			return
		}
	}
	if body.DailyCapUsd != nil || body.MaxTradeSizeRaw != nil {
		state, err := s.strategyStore.GetChainState(ctx, body.ChainID)
		if err != nil {
			writeError(c, err)
			return
		}
		dailyCap := state.DailyCapUsd
		maxTrade := state.MaxTradeSizeRaw
		if body.DailyCapUsd != nil {
			dailyCap = *body.DailyCapUsd
		}
		if body.MaxTradeSizeRaw != nil {
			maxTrade = *body.MaxTradeSizeRaw
		}
		if err := s.strategyStore.SetAdvisoryLimits(ctx, body.ChainID, dailyCap, maxTrade); err != nil {
			writeError(c, err)
			return
		}
	}

	state, err := s.strategyStore.GetChainState(ctx, body.ChainID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) handleListTokens(c *gin.Context) {
	chainID, err := parseChainID(c.Query("chainId"))
	if err != nil {
		writeValidationError(c, err.Error())
		return
	}
	recs, err := s.tokenStore.List(c.Request.Context(), chainID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": recs})
}
