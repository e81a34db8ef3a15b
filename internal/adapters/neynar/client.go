// Package neynar is a small client for the Neynar Farcaster API used as the profile supply
package neynar

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	perr "basematch/internal/platform/errors"
	"basematch/internal/platform/logger"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	baseURLDefault   = "https://api.neynar.com"
	defaultTimeout   = 10 * time.Second
	defaultUA        = "basematch"
	defaultMaxRetry  = 3
	defaultRetryBase = 300 * time.Millisecond
	defaultRPS       = 5
	defaultBurst     = 5
	defaultTrip      = 3
	defaultCooldown  = 30 * time.Second

	// demoKey is Neynar's public docs key, heavily rate limited
	demoKey = "NEYNAR_API_DOCS"
)

// Options configures the Client
type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration

	MaxRetries int
	RetryBase  time.Duration

	RatePerSec float64
	Burst      int

	// TripAfter consecutive failures opens the breaker for Cooldown
	TripAfter uint32
	Cooldown  time.Duration
}

// Client issues rate limited, retried requests behind a circuit breaker
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker
	log     logger.Logger
	sleep   func(time.Duration)
}

// NewClient creates a Client with defaults filled in
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.APIKey == "" {
		o.APIKey = demoKey
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.RatePerSec <= 0 {
		o.RatePerSec = defaultRPS
	}
	if o.Burst <= 0 {
		o.Burst = defaultBurst
	}
	if o.TripAfter == 0 {
		o.TripAfter = defaultTrip
	}
	if o.Cooldown <= 0 {
		o.Cooldown = defaultCooldown
	}
	c := &Client{
		http:    &http.Client{Timeout: o.Timeout},
		opts:    o,
		limiter: rate.NewLimiter(rate.Limit(o.RatePerSec), o.Burst),
		log:     *logger.Named("neynar"),
		sleep:   time.Sleep,
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "neynar",
		Timeout: o.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.TripAfter
		},
		// caller errors (bad request, cancelled) say nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || perr.IsCode(err, perr.ErrorCodeInvalidArgument)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return c
}

// BreakerState reports the breaker state, for health output
func (c *Client) BreakerState() string { return c.cb.State().String() }

// get fetches path and returns the body, capped at 4MB
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	out, err := c.cb.Execute(func() (any, error) { return c.do(ctx, path) })
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "neynar circuit open")
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) do(ctx context.Context, path string) ([]byte, error) {
	url := c.opts.BaseURL + path
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "neynar rate limiter")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "neynar new request")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("api_key", c.opts.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil || attempt >= c.opts.MaxRetries {
				return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "neynar request failed")
			}
			c.retry(attempt, "transport error")
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			_ = resp.Body.Close()
			if err != nil {
				return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "neynar read body")
			}
			return b, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			_ = drainAndClose(resp.Body)
			if attempt >= c.opts.MaxRetries {
				code := perr.ErrorCodeUnavailable
				if resp.StatusCode == http.StatusTooManyRequests {
					code = perr.ErrorCodeTooManyRequests
				}
				return nil, perr.Newf(code, "neynar status %d after %d attempts", resp.StatusCode, attempt+1)
			}
			c.retry(attempt, resp.Status)
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, perr.Newf(perr.ErrorCodeUnavailable, "neynar unexpected status %d body %s", resp.StatusCode, string(body))
		}
	}
}

func (c *Client) retry(attempt int, why string) {
	back := c.backoff(attempt)
	c.log.Warn().Dur("retry_in", back).Int("attempt", attempt).Str("reason", why).Msg("neynar retrying")
	c.sleep(back)
}

func (c *Client) backoff(attempt int) time.Duration {
	return min(c.opts.RetryBase<<uint(attempt), 10*time.Second)
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
