package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inr100/offsync/internal/cache"
	"github.com/inr100/offsync/internal/ir"
	"github.com/inr100/offsync/internal/remote"
)

// ErrNotFetchable is returned by Reader.Read for a resource the backend
// does not serve.
var ErrNotFetchable = errors.New("resource has no backend source")

// Reader serves server-state resources cache first. On a miss it fetches
// the resource from the backend and writes it through the cache with the
// resource's policy TTL. Concurrent misses share one fetch.
type Reader struct {
	cache   *cache.Cache
	fetches map[string]func(context.Context) (remote.Result, error)
}

// NewReader creates a Reader for the portfolio and market data resources.
func NewReader(c *cache.Cache, api remote.API) *Reader {
	return &Reader{
		cache: c,
		fetches: map[string]func(context.Context) (remote.Result, error){
			cache.ResourcePortfolio:  api.GetPortfolio,
			cache.ResourceMarketData: api.GetMarketData,
		},
	}
}

// Fetchable reports whether resource can be loaded from the backend.
func (r *Reader) Fetchable(resource string) bool {
	_, ok := r.fetches[resource]
	return ok
}

// Read returns the cached payload for resource, fetching it on a miss.
// A failed fetch is returned as a REMOTE_CALL error and nothing is cached.
func (r *Reader) Read(ctx context.Context, resource string) (json.RawMessage, error) {
	fetch, ok := r.fetches[resource]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", resource, ErrNotFetchable)
	}

	return r.cache.GetOrLoad(ctx, resource, func(ctx context.Context) (any, error) {
		res, err := fetch(ctx)
		if err != nil || !res.Success {
			return nil, ir.NewError(ir.ErrCodeRemoteCall, "fetch", resource,
				errors.New(replayError(res.Error, err)))
		}
		if len(res.Data) == 0 {
			return nil, ir.NewError(ir.ErrCodeRemoteCall, "fetch", resource,
				errors.New("empty response"))
		}
		return res.Data, nil
	})
}
