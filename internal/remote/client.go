package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inr100/offsync/internal/ir"
)

// IdempotencyHeader carries the action's idempotency key.
const IdempotencyHeader = "Idempotency-Key"

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client is an HTTP JSON implementation of API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient creates a Client for baseURL with the given per-call timeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

var _ API = (*Client)(nil)

// PlaceOrder submits a new order.
func (c *Client) PlaceOrder(ctx context.Context, key string, order ir.PlaceOrder) (Result, error) {
	return c.do(ctx, http.MethodPost, "/api/orders", key, order)
}

// CancelOrder cancels an open order.
func (c *Client) CancelOrder(ctx context.Context, key string, orderID string) (Result, error) {
	return c.do(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(orderID)+"/cancel", key, nil)
}

// AddMoney credits the wallet.
func (c *Client) AddMoney(ctx context.Context, key string, amount float64, paymentMethod string) (Result, error) {
	return c.do(ctx, http.MethodPost, "/api/wallet/add-money", key, ir.AddMoney{
		Amount:        amount,
		PaymentMethod: paymentMethod,
	})
}

// UpdateProfile patches profile fields.
func (c *Client) UpdateProfile(ctx context.Context, key string, profile map[string]any) (Result, error) {
	return c.do(ctx, http.MethodPut, "/api/profile", key, profile)
}

// CreateSocialPost publishes a community post.
func (c *Client) CreateSocialPost(ctx context.Context, key string, content string, images []string) (Result, error) {
	return c.do(ctx, http.MethodPost, "/api/community/posts", key, ir.CreatePost{
		Content: content,
		Images:  images,
	})
}

// GetPortfolio fetches the portfolio snapshot.
func (c *Client) GetPortfolio(ctx context.Context) (Result, error) {
	return c.do(ctx, http.MethodGet, "/api/portfolio", "", nil)
}

// GetMarketData fetches market quotes.
func (c *Client) GetMarketData(ctx context.Context) (Result, error) {
	return c.do(ctx, http.MethodGet, "/api/market-data", "", nil)
}

// envelopeResponse is the backend's JSON body. Success is a pointer so a
// body without the field can fall back to the HTTP status.
type envelopeResponse struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path, key string, body any) (Result, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return Result{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, ir.NewError(ir.ErrCodeRemoteCall, method+" "+path, key, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{}, ir.NewError(ir.ErrCodeRemoteCall, method+" "+path, key, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	res := Result{Success: ok}

	var env envelopeResponse
	if len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &env) == nil && (env.Success != nil || env.Data != nil || env.Error != "") {
		if env.Success != nil {
			res.Success = ok && *env.Success
		}
		res.Data = env.Data
		res.Error = env.Error
	} else if ok && json.Valid(raw) {
		res.Data = json.RawMessage(raw)
	}

	if !res.Success && res.Error == "" {
		res.Error = resp.Status
	}
	return res, nil
}
