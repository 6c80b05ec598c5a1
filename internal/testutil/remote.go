package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/inr100/offsync/internal/ir"
	"github.com/inr100/offsync/internal/remote"
)

// Method names recorded by ScriptedAPI.
const (
	MethodPlaceOrder       = "PlaceOrder"
	MethodCancelOrder      = "CancelOrder"
	MethodAddMoney         = "AddMoney"
	MethodUpdateProfile    = "UpdateProfile"
	MethodCreateSocialPost = "CreateSocialPost"
	MethodGetPortfolio     = "GetPortfolio"
	MethodGetMarketData    = "GetMarketData"
)

// ErrScriptedTransport is returned for Outcome{Transport: true}.
var ErrScriptedTransport = errors.New("scripted transport failure")

// Outcome is one scripted answer.
type Outcome struct {
	// Fail makes the backend reject the call (Result.Success=false).
	Fail bool
	// Transport makes the call return an error instead of a Result.
	Transport bool
	// Data is returned on success.
	Data json.RawMessage
}

// Call records one invocation of the fake.
type Call struct {
	Method         string
	IdempotencyKey string
	Arg            any
}

// ScriptedAPI is a remote.API fake with per-method scripted outcomes.
//
// Outcomes queued with Script are consumed in order; once a method's
// script is exhausted its default applies (success unless FailAlways).
//
// Thread-safety: safe for concurrent use via internal mutex.
type ScriptedAPI struct {
	mu       sync.Mutex
	scripts  map[string][]Outcome
	defaults map[string]Outcome
	calls    []Call

	// OnCall, if set, runs before each call is answered (outside the lock).
	// Tests use it to block a call or to observe cancellation.
	OnCall func(ctx context.Context, method string)
}

// NewScriptedAPI creates a fake whose calls all succeed.
func NewScriptedAPI() *ScriptedAPI {
	return &ScriptedAPI{
		scripts:  make(map[string][]Outcome),
		defaults: make(map[string]Outcome),
	}
}

var _ remote.API = (*ScriptedAPI)(nil)

// Script appends outcomes for method.
func (f *ScriptedAPI) Script(method string, outcomes ...Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[method] = append(f.scripts[method], outcomes...)
}

// FailAlways makes method reject every unscripted call.
func (f *ScriptedAPI) FailAlways(method string) {
	f.SetDefault(method, Outcome{Fail: true})
}

// SetDefault sets the outcome used once method's script is exhausted.
func (f *ScriptedAPI) SetDefault(method string, o Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaults[method] = o
}

// Calls returns a copy of every recorded call in order.
func (f *ScriptedAPI) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times method was called.
func (f *ScriptedAPI) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded calls; scripts and defaults are kept.
func (f *ScriptedAPI) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *ScriptedAPI) answer(ctx context.Context, method, key string, arg any) (remote.Result, error) {
	if f.OnCall != nil {
		f.OnCall(ctx, method)
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, IdempotencyKey: key, Arg: arg})
	var o Outcome
	if script := f.scripts[method]; len(script) > 0 {
		o = script[0]
		f.scripts[method] = script[1:]
	} else {
		o = f.defaults[method]
	}
	f.mu.Unlock()

	switch {
	case o.Transport:
		return remote.Result{}, ErrScriptedTransport
	case o.Fail:
		return remote.Result{Success: false, Error: method + " rejected"}, nil
	default:
		data := o.Data
		if data == nil {
			data = json.RawMessage(`{}`)
		}
		return remote.Result{Success: true, Data: data}, nil
	}
}

func (f *ScriptedAPI) PlaceOrder(ctx context.Context, key string, order ir.PlaceOrder) (remote.Result, error) {
	return f.answer(ctx, MethodPlaceOrder, key, order)
}

func (f *ScriptedAPI) CancelOrder(ctx context.Context, key string, orderID string) (remote.Result, error) {
	return f.answer(ctx, MethodCancelOrder, key, orderID)
}

func (f *ScriptedAPI) AddMoney(ctx context.Context, key string, amount float64, paymentMethod string) (remote.Result, error) {
	return f.answer(ctx, MethodAddMoney, key, ir.AddMoney{Amount: amount, PaymentMethod: paymentMethod})
}

func (f *ScriptedAPI) UpdateProfile(ctx context.Context, key string, profile map[string]any) (remote.Result, error) {
	return f.answer(ctx, MethodUpdateProfile, key, profile)
}

func (f *ScriptedAPI) CreateSocialPost(ctx context.Context, key string, content string, images []string) (remote.Result, error) {
	return f.answer(ctx, MethodCreateSocialPost, key, ir.CreatePost{Content: content, Images: images})
}

func (f *ScriptedAPI) GetPortfolio(ctx context.Context) (remote.Result, error) {
	return f.answer(ctx, MethodGetPortfolio, "", nil)
}

func (f *ScriptedAPI) GetMarketData(ctx context.Context) (remote.Result, error) {
	return f.answer(ctx, MethodGetMarketData, "", nil)
}

// StaticProber reports a fixed connectivity answer and counts probes.
type StaticProber struct {
	mu     sync.Mutex
	online bool
	probes int
}

// NewStaticProber creates a prober answering online.
func NewStaticProber(online bool) *StaticProber {
	return &StaticProber{online: online}
}

// Probe returns the configured answer.
func (p *StaticProber) Probe(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probes++
	if !p.online {
		return errors.New("static prober: offline")
	}
	return nil
}

// SetOnline changes the answer.
func (p *StaticProber) SetOnline(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = online
}

// Probes returns how many probes ran.
func (p *StaticProber) Probes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probes
}
