package strategyclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

func TestRequestIntent_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/intent", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"strategy": {"id":"s1","version":1,"hash":"0xabc"},
			"buyAmount": "350000000",
			"feeBps": 25,
			"feeAmount": "8770",
			"expiry": 1700000120,
			"pricing": {"asOfMs":1700000000000,"confidenceScore":0.97,"stale":false,"sourcesUsed":["uniswap-v3"]}
		}`))
	}))
	defer srv.Close()

	c := NewClient(2*time.Second, zap.NewNop())
	intent, err := c.RequestIntent(context.Background(), srv.URL, Request{ChainID: 8453, Strategy: StrategyRef{ID: "s1"}})
	require.NoError(t, err)
	assert.Equal(t, "350000000", intent.BuyAmount)
	assert.Equal(t, 25, intent.FeeBps)
}

func TestRequestIntent_UpstreamFailureMapsToCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(2*time.Second, zap.NewNop())
	_, err := c.RequestIntent(context.Background(), srv.URL, Request{ChainID: 8453})
	require.Error(t, err)
	assert.Equal(t, rfqerr.CodeStrategyUpstreamFailed, rfqerr.FromError(err).Code())
}
