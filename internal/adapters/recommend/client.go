package recommend

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"recotrip/internal/adapters/observability"
	"recotrip/internal/domain"
)

const (
	// Timeout bounds one Recommend call, retries included, unless overridden.
	Timeout = 10 * time.Second

	endpoint       = "/recommend"
	defaultMessage = "Failed to fetch recommendations"
	maxAttempts    = 3
)

type Client struct {
	base    string
	hc      *http.Client
	rl      *rate.Limiter
	timeout time.Duration
}

type Option func(*Client)

// WithTimeout replaces the default 10s budget.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

func New(base string, rps int, opts ...Option) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("recommendation base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	c := &Client{
		base:    strings.TrimRight(base, "/"),
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		timeout: Timeout,
	}
	for _, o := range opts {
		o(c)
	}
	c.hc = &http.Client{Timeout: c.timeout}
	return c, nil
}

// Recommend posts the user's position and preferences and returns the ranked list as received.
func (c *Client) Recommend(ctx context.Context, req domain.RecommendationRequest) ([]domain.Place, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &domain.NetworkError{Message: defaultMessage, Err: err}
	}
	var out []domain.Place
	if err := c.post(ctx, body, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Place{}
	}
	return out, nil
}

// post retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) post(ctx context.Context, body []byte, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return networkErr(0, "", err)
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, bytes.NewReader(body))
		if err != nil {
			return networkErr(0, "", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "recotrip/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("recommend", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return networkErr(0, "", ctx.Err())
			}
			lastErr = networkErr(0, "", err)
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("recommend", endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return networkErr(resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusBadGateway,
			resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			msg := payloadMessage(resp.Body)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = networkErr(resp.StatusCode, msg, fmt.Errorf("remote %d", resp.StatusCode))
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return networkErr(resp.StatusCode, msg, ctx.Err())
			}
			return lastErr

		default:
			msg := payloadMessage(resp.Body)
			resp.Body.Close()
			return networkErr(resp.StatusCode, msg, fmt.Errorf("bad status %d", resp.StatusCode))
		}
	}
	return lastErr
}

// payloadMessage extracts {"message": "..."} from an error body, if any.
func payloadMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var p struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &p) != nil {
		return ""
	}
	return strings.TrimSpace(p.Message)
}

func networkErr(status int, msg string, err error) *domain.NetworkError {
	if msg == "" {
		msg = defaultMessage
	}
	return &domain.NetworkError{Message: msg, Status: status, Timeout: isTimeout(err), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
