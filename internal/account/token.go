package account

import (
	"context"
	"errors"
	"sync"

	"github.com/meridianhq/portal-backend/internal/clock"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrNoToken is returned when a service-account token could not be
// obtained; callers degrade (notify an admin) instead of failing hard.
var ErrNoToken = errors.New("account: no service token available")

// tokenSource holds the single process-wide service-account token.
// Refreshes are serialized under the mutex so concurrent callers wait for
// one in-flight client-credentials grant instead of issuing their own.
type tokenSource struct {
	mu    sync.Mutex
	conf  *clientcredentials.Config
	clock clock.Clock
	token *oauth2.Token
}

func newTokenSource(tokenURL, clientID, clientSecret string, clk clock.Clock) *tokenSource {
	return &tokenSource{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		},
		clock: clk,
	}
}

// Token returns the cached token while it is strictly before its recorded
// expiry, otherwise fetches a fresh one. Fetch failure clears the cache
// and surfaces ErrNoToken.
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil && s.clock.Now().Before(s.token.Expiry) {
		return s.token.AccessToken, nil
	}

	tok, err := s.conf.Token(ctx)
	if err != nil {
		s.token = nil
		zap.L().Error("service token fetch failed", zap.Error(err))
		return "", ErrNoToken
	}
	s.token = tok
	return tok.AccessToken, nil
}
