package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inr100/offsync/internal/ir"
)

// Default reachability probe settings.
const (
	DefaultProbeTarget  = "https://www.google.com"
	DefaultProbeTimeout = 5 * time.Second
)

// Prober checks whether the backend is reachable.
// A nil error means online.
type Prober interface {
	Probe(ctx context.Context) error
}

// HTTPProber issues one HTTP request and treats any 2xx answer as online.
// Errors, timeouts and other statuses all mean offline.
type HTTPProber struct {
	Target  string
	Method  string
	Timeout time.Duration
	Client  *http.Client
}

// NewHTTPProber creates a HEAD prober for target with the default timeout.
func NewHTTPProber(target string) *HTTPProber {
	return &HTTPProber{
		Target:  target,
		Method:  http.MethodHead,
		Timeout: DefaultProbeTimeout,
	}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	method := p.Method
	if method == "" {
		method = http.MethodHead
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, p.Target, nil)
	if err != nil {
		return ir.NewError(ir.ErrCodeNetworkUnavailable, "probe", p.Target, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return ir.NewError(ir.ErrCodeNetworkUnavailable, "probe", p.Target, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ir.NewError(ir.ErrCodeNetworkUnavailable, "probe", p.Target,
			fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}
