// Package auth keeps the bearer token used to talk to the Zoom API.
//
// A Cache fetches a token with the account-credentials grant on first use,
// hands the same token out until shortly before it expires and then replaces
// it wholesale. Check-and-refresh runs under a mutex, so concurrent sessions
// sharing one Cache never race two refresh requests past each other.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spigell/hr-screener/internal/errs"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	// DefaultTokenURL is the Zoom OAuth token endpoint.
	DefaultTokenURL = "https://zoom.us/oauth/token"
	// ExpiryMargin is subtracted from the reported lifetime so a token is never used at the edge of expiry.
	// Short-lived tokens give up at most half of their lifetime instead.
	ExpiryMargin = 60 * time.Second

	defaultTimeout = 15 * time.Second
	grantType      = "account_credentials"
)

// Credentials identify the server-to-server OAuth app. They live in memory only.
type Credentials struct {
	AccountID    string
	ClientID     string
	ClientSecret string
}

// Token is a bearer credential valid while now < ExpiresAt.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token can still be used at now.
func (t Token) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// Clock returns the current time.
type Clock func() time.Time

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(clock Clock) Option {
	return func(c *Cache) { c.now = clock }
}

// WithTokenURL points the cache at another token endpoint.
func WithTokenURL(url string) Option {
	return func(c *Cache) { c.tokenURL = url }
}

// WithTimeout sets the timeout of a single token request.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Cache holds a single token. The zero value is not usable; use NewCache.
type Cache struct {
	creds    Credentials
	tokenURL string
	http     *resty.Client
	now      Clock
	logger   *zap.Logger

	mu    sync.Mutex
	token Token
}

// NewCache returns an empty cache for the account. The first Token call fetches a token.
func NewCache(creds Credentials, opts ...Option) *Cache {
	c := &Cache{
		creds:    creds,
		tokenURL: DefaultTokenURL,
		http:     resty.New().SetTimeout(defaultTimeout),
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the cached token or fetches a new one when the cached token expired.
// A failed fetch keeps the previous token and returns an error wrapping errs.ErrAuth.
func (c *Cache) Token(ctx context.Context) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token.Valid(now) {
		return c.token, nil
	}

	value, ttl, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("refreshing zoom access token", zap.Error(err))
		return Token{}, fmt.Errorf("%w: %w", errs.ErrAuth, err)
	}

	c.token = Token{Value: value, ExpiresAt: now.Add(ttl - min(ExpiryMargin, ttl/2))}
	c.logger.Debug("zoom access token refreshed",
		zap.Duration("reported_ttl", ttl),
		zap.Time("expires_at", c.token.ExpiresAt),
	)

	return c.token, nil
}

// Invalidate drops the cached token so the next Token call refreshes it.
// It is used when the provider rejects a token before its computed expiry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = Token{}
}

func (c *Cache) fetch(ctx context.Context) (string, time.Duration, error) {
	if strings.TrimSpace(c.creds.AccountID) == "" || strings.TrimSpace(c.creds.ClientID) == "" || strings.TrimSpace(c.creds.ClientSecret) == "" {
		return "", 0, fmt.Errorf("zoom credentials are incomplete")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret).
		SetFormData(map[string]string{
			"grant_type": grantType,
			"account_id": c.creds.AccountID,
		}).
		Post(c.tokenURL)
	if err != nil {
		return "", 0, fmt.Errorf("token request: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		reason := gjson.GetBytes(body, "reason").String()
		if reason == "" {
			reason = gjson.GetBytes(body, "error").String()
		}
		return "", 0, fmt.Errorf("bad status: %s: %s", resp.Status(), reason)
	}

	value := strings.TrimSpace(gjson.GetBytes(body, "access_token").String())
	if value == "" {
		return "", 0, fmt.Errorf("token response has no access_token")
	}

	seconds := gjson.GetBytes(body, "expires_in").Int()
	if seconds <= 0 {
		return "", 0, fmt.Errorf("token response has no positive expires_in")
	}

	return value, time.Duration(seconds) * time.Second, nil
}
