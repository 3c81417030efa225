package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/aquaprotocol/rfq-issuer/internal/rfqerr"
)

const requestIDHeader = "x-request-id"
const requestIDKey = "rfq.requestID"

// requestIDMiddleware honors an inbound x-request-id or mints a v4 uuid,
// per spec.md §4.J, and echoes it back on the response.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// deadlineMiddleware wraps the inbound request context with the global
// per-request deadline (spec.md §5) so cancellation reaches every
// outstanding upstream/DB call made with c.Request.Context(), and
// renders REQUEST_TIMEOUT if the handler chain doesn't finish before
// ctx.Done() fires.
//
// The handler chain runs in its own goroutine against a scratch
// bufferedWriter, never against the real gin.ResponseWriter. Only this
// goroutine ever touches the real writer, and it does so in exactly one
// of the two select branches, so a slow handler's eventual writes land
// in the discarded scratch buffer instead of racing a timeout response
// already sent to the client.
func deadlineMiddleware(newCtx func(parent context.Context) (context.Context, context.CancelFunc)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := newCtx(c.Request.Context())
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		reqID := requestID(c)
		path := c.Request.URL.Path

		realWriter := c.Writer
		scratch := newBufferedWriter()
		c.Writer = scratch

		done := make(chan struct{})
		go func() {
			defer close(done)
			c.Next()
		}()

		select {
		case <-done:
			flushBuffered(realWriter, scratch)
		case <-ctx.Done():
			renderError(realWriter, reqID, path, rfqerr.RequestTimeout())
			<-done
		}
	}
}

// bufferedWriter is a scratch gin.ResponseWriter that accumulates a
// handler's output in memory instead of writing it to the wire,
// so deadlineMiddleware can decide, from a single goroutine, whether
// that output or a timeout response is the one that actually gets sent.
type bufferedWriter struct {
	header  http.Header
	body    bytes.Buffer
	status  int
	written bool
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header)}
}

func (w *bufferedWriter) Header() http.Header { return w.header }

func (w *bufferedWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
}

func (w *bufferedWriter) WriteHeaderNow() {}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *bufferedWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *bufferedWriter) Size() int     { return w.body.Len() }
func (w *bufferedWriter) Written() bool { return w.written }

func (w *bufferedWriter) Pusher() http.Pusher { return nil }
func (w *bufferedWriter) Flush()              {}
func (w *bufferedWriter) CloseNotify() <-chan bool {
	return make(chan bool)
}
func (w *bufferedWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return nil, nil, http.ErrNotSupported
}

// flushBuffered commits a bufferedWriter's accumulated output to the
// real gin.ResponseWriter, the only place that writer is ever touched.
func flushBuffered(real gin.ResponseWriter, scratch *bufferedWriter) {
	for k, vv := range scratch.header {
		for _, v := range vv {
			real.Header().Add(k, v)
		}
	}
	if scratch.Written() {
		real.WriteHeader(scratch.Status())
	}
	if scratch.body.Len() > 0 {
		real.Write(scratch.body.Bytes()) //nolint:errcheck
	}
}

// renderError writes the uniform error envelope directly to w, for the
// timeout path where the real gin.Context's writer has been swapped out
// for a scratch buffer the handler goroutine owns.
func renderError(w http.ResponseWriter, requestID, path string, err error) {
	e := rfqerr.FromError(err)
	body, marshalErr := json.Marshal(errorEnvelope{
		Code:       e.Code(),
		Message:    e.Message(),
		StatusCode: e.StatusCode(),
		RequestID:  requestID,
		Path:       path,
		Timestamp:  time.Now(),
	})
	if marshalErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.StatusCode())
	w.Write(body) //nolint:errcheck
}

// ipRateLimiter is a per-IP token bucket middleware grounded on the
// teacher's rate-limiting concern (api/server.go wires
// ulule/limiter/v3, not present with a go.mod footprint anywhere in the
// retrieved pack; golang.org/x/time/rate is used instead, as documented
// in DESIGN.md) guarding POST /v1/quote specifically, since it is the
// only endpoint that burns a nonce and calls two upstreams.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ipRateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

func (l *ipRateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.limiterFor(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, errorEnvelope{
				Code:       "RATE_LIMITED",
				Message:    "too many requests",
				StatusCode: http.StatusTooManyRequests,
				RequestID:  requestID(c),
				Path:       c.Request.URL.Path,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
