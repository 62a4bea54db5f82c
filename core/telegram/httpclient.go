package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/earnify/paybot/core/telegram/netutil"
)

const (
	dialTimeout   = 5 * time.Second
	retryAttempts = 3
	retryBackoff  = 2 * time.Second
)

// BuildHTTPClient returns the client used for Bot API calls. In longpoll mode
// a getUpdates request legitimately idles for the full poll window before the
// first response byte, so the header and overall budgets are derived from
// longPoll instead of being flat constants.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: longPoll + 5*time.Second,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{
		Timeout: longPoll + 30*time.Second,
		Transport: &retryingTransport{
			next:     transport,
			attempts: retryAttempts,
			backoff:  retryBackoff,
		},
	}
}

// retryingTransport re-sends requests that failed with a transient network
// error. Telegram API calls are safe to repeat: sends are idempotent enough
// for a chat bot and getUpdates is read-only.
type retryingTransport struct {
	next     http.RoundTripper
	attempts int
	backoff  time.Duration
}

func (t *retryingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= t.attempts; attempt++ {
		r, err := t.request(req, attempt)
		if err != nil {
			// body cannot be replayed, give up with the transport error
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}
		resp, err := t.next.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == t.attempts {
			break
		}
		if err := t.wait(req, attempt+1); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// request returns the request to send on this attempt, rewinding the body
// for retries when the request carries one.
func (t *retryingTransport) request(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 {
		return req, nil
	}
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
		return r, nil
	}
	if req.Body != nil {
		return nil, http.ErrBodyReadAfterClose
	}
	return r, nil
}

func (t *retryingTransport) wait(req *http.Request, attempt int) error {
	delay := t.backoff * time.Duration(attempt)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}
