package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Target is one downstream service able to accept a relayed event.
type Target interface {
	Name() string
	Ready() bool
	Acquire() bool
	Deliver(ctx context.Context, payload []byte) error
}

// HTTPTarget POSTs JSON payloads to a fixed URL behind a circuit breaker.
type HTTPTarget struct {
	name   string
	url    string
	client *http.Client
	br     *Breaker
}

func NewHTTPTarget(name, url string, timeout time.Duration, br *Breaker) *HTTPTarget {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if br == nil {
		br = NewBreaker(0, 0)
	}

	return &HTTPTarget{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: timeout},
		br:     br,
	}
}

func (t *HTTPTarget) Name() string  { return t.name }
func (t *HTTPTarget) Ready() bool   { return t.br.Ready() }
func (t *HTTPTarget) Acquire() bool { return t.br.Acquire() }

func (t *HTTPTarget) Deliver(ctx context.Context, payload []byte) error {
	if err := t.post(ctx, payload); err != nil {
		t.br.Failure()
		return err
	}

	t.br.Success()
	return nil
}

func (t *HTTPTarget) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("target=%s status=%d", t.name, res.StatusCode)
	}

	return nil
}
