package bookingsite

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_revenue/internal/adapters/observability"
	"hotel_revenue/internal/domain"
)

const service = "bookingsite"

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API (tries the current endpoint first, falls back to the legacy one) ----

// GetPriceBreakdown returns the raw price-breakdown document for one stay.
func (c *Client) GetPriceBreakdown(ctx context.Context, hotelID string, checkin, checkout time.Time) (map[string]any, error) {
	q := url.Values{}
	q.Set("checkin", checkin.Format(time.DateOnly))
	q.Set("checkout", checkout.Format(time.DateOnly))
	q.Set("adults", "2")
	q.Set("rooms", "1")
	id := url.PathEscape(hotelID)
	candidates := []string{
		fmt.Sprintf("%s/hotels/%s/price-breakdown?%s", c.base, id, q.Encode()), // preferred
		fmt.Sprintf("%s/hotel/%s/prices?%s", c.base, id, q.Encode()),           // legacy
	}
	var out map[string]any
	return out, c.getFirst(ctx, "price-breakdown", candidates, &out)
}

// ---- Internals ----

var (
	ErrNotFound     = fmt.Errorf("bookingsite: %w", domain.ErrNotFound)
	ErrUnauthorized = fmt.Errorf("bookingsite: %w", domain.ErrUnauthorized)
	ErrForbidden    = fmt.Errorf("bookingsite: forbidden: %w", domain.ErrUnauthorized)
)

func (c *Client) getFirst(ctx context.Context, endpoint string, urls []string, out any) error {
	var last error
	for _, u := range urls {
		if err := c.get(ctx, endpoint, u, out); err != nil {
			if errors.Is(err, ErrNotFound) {
				last = err
				continue // try next pattern
			}
			return err // non-404: stop early
		}
		return nil
	}
	if last != nil {
		return last
	}
	return errors.New("no candidate URL succeeded")
}

const maxAttempts = 4

// errRetry marks a failure worth another attempt; wait is the server's hint.
type errRetry struct {
	status int // 0 for transport errors
	wait   time.Duration
	cause  error
}

func (e *errRetry) Error() string {
	if e.cause != nil {
		return "booking site: " + e.cause.Error()
	}
	return fmt.Sprintf("booking site returned %d", e.status)
}

func (e *errRetry) Unwrap() error { return e.cause }

// get performs a GET with client-side rate limiting and JSON decode into out.
// 429, transient 5xx and transport errors are retried with backoff; every
// attempt waits on the limiter.
func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if err := c.rl.Wait(ctx); err != nil {
			return err
		}
		err := c.attempt(ctx, endpoint, url, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var rt *errRetry
		if !errors.As(err, &rt) {
			return err
		}
		wait := backoff(i)
		if rt.wait > 0 {
			wait = rt.wait
		}
		lastErr = err
		if i == maxAttempts-1 || !sleepCtx(ctx, wait) {
			break
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, endpoint, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "hotel-revenue/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, endpoint, 0, time.Since(start))
		return &errRetry{cause: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case code == http.StatusNoContent:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusTooManyRequests || code >= 500 && code != http.StatusNotImplemented:
		return &errRetry{status: code, wait: retryAfter(resp)}
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("bad status %d: %s", code, strings.TrimSpace(string(b)))
	}
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

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent/invalid.
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
