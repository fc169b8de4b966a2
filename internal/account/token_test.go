package account

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meridianhq/portal-backend/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenServer struct {
	mu       sync.Mutex
	requests int32
	fail     bool
}

func (s *tokenServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&s.requests, 1)
		s.mu.Lock()
		fail := s.fail
		s.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"bearer","expires_in":3600}`, n)
	}
}

func (s *tokenServer) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func TestTokenCachedUntilExpiry(t *testing.T) {
	ts := &tokenServer{}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	clk := clock.NewFakeClock(time.Now())
	source := newTokenSource(srv.URL, "svc", "secret", clk)

	first, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", first)

	// Well inside the expiry window: no second grant.
	clk.Advance(30 * time.Minute)
	again, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ts.requests))

	// Past the recorded expiry: refreshed.
	clk.Advance(2 * time.Hour)
	fresh, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", fresh)
	assert.Equal(t, int32(2), atomic.LoadInt32(&ts.requests))
}

func TestTokenFetchFailureClearsCache(t *testing.T) {
	ts := &tokenServer{}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	clk := clock.NewFakeClock(time.Now())
	source := newTokenSource(srv.URL, "svc", "secret", clk)

	_, err := source.Token(context.Background())
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	ts.setFail(true)
	_, err = source.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Nil(t, source.token)

	// Recovery issues a fresh grant instead of serving anything stale.
	ts.setFail(false)
	tok, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-3", tok)
}

func TestConcurrentCallersShareOneGrant(t *testing.T) {
	ts := &tokenServer{}
	srv := httptest.NewServer(ts.handler())
	defer srv.Close()

	source := newTokenSource(srv.URL, "svc", "secret", clock.NewFakeClock(time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := source.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok-1", tok)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&ts.requests))
}
