package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

func TestRequestDepth_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/depth", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"asOfMs": 1700000000000,
			"midPrice": "1.0005",
			"depthPoints": [{"amountInRaw":"1000000","amountOutRaw":"999000","price":"0.999","impactBps":1.2,"provenance":{"venue":"uniswap-v3","feeTier":"500"}}],
			"sourcesUsed": ["uniswap-v3"],
			"latencyMs": 42,
			"confidenceScore": 0.97,
			"stale": false,
			"reasonCodes": []
		}`))
	}))
	defer srv.Close()

	c := NewClient(2*time.Second, zap.NewNop())
	snap, err := c.RequestDepth(context.Background(), srv.URL, Request{ChainID: 8453, SellToken: "0xA", BuyToken: "0xB", SellAmount: "1000000"})
	require.NoError(t, err)
	require.Len(t, snap.DepthPoints, 1)
	assert.Equal(t, "999000", snap.DepthPoints[0].AmountOutRaw)
	require.Len(t, snap.DepthPoints[0].Provenance, 1)
	assert.Equal(t, "uniswap-v3", snap.DepthPoints[0].Provenance[0].Venue)
}

func TestRequestDepth_UpstreamFailureMapsToCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(2*time.Second, zap.NewNop())
	_, err := c.RequestDepth(context.Background(), srv.URL, Request{ChainID: 8453})
	require.Error(t, err)
	assert.Equal(t, rfqerr.CodePricingUpstreamFailed, rfqerr.FromError(err).Code())
}

func TestProvenanceList_NormalizesShapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"array", `[{"venue":"a"},{"venue":"b"}]`, 2},
		{"object", `{"venue":"a"}`, 1},
		{"null", `null`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p ProvenanceList
			require.NoError(t, json.Unmarshal([]byte(tc.in), &p))
			assert.Len(t, p, tc.want)
		})
	}
}
