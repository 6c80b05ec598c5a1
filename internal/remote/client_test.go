package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inr100/offsync/internal/ir"
)

func TestClient_PlaceOrder_SendsIdempotencyKey(t *testing.T) {
	var gotKey, gotMethod, gotPath string
	var gotBody ir.PlaceOrder
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(IdempotencyHeader)
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"success":true,"data":{"order_id":"o-9"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	res, err := c.PlaceOrder(context.Background(), "key-1", ir.PlaceOrder{Symbol: "TCS", Side: "BUY", Quantity: 1})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.JSONEq(t, `{"order_id":"o-9"}`, string(res.Data))
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/orders", gotPath)
	assert.Equal(t, "TCS", gotBody.Symbol)
}

func TestClient_BackendRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"error":"insufficient funds"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	res, err := c.AddMoney(context.Background(), "k", 100, "upi")
	require.NoError(t, err, "a rejection is an answer, not a transport error")
	assert.False(t, res.Success)
	assert.Equal(t, "insufficient funds", res.Error)
}

func TestClient_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	res, err := c.CancelOrder(context.Background(), "k", "o-1")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "503")
}

func TestClient_PlainJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get(IdempotencyHeader), "reads carry no idempotency key")
		_, _ = io.WriteString(w, `{"holdings":[]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok", time.Second)
	res, err := c.GetPortfolio(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.JSONEq(t, `{"holdings":[]}`, string(res.Data))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.GetMarketData(context.Background())
	require.Error(t, err)
	assert.True(t, ir.IsRemoteError(err))
}

func TestClient_CancelOrderEscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.CancelOrder(context.Background(), "k", "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/a%2Fb/cancel", gotPath)
}
