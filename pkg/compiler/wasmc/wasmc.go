// Package wasmc hosts a compiler service compiled to WebAssembly. The
// guest module owns the session state; each evaluation passes a JSON
// request through guest memory and reads a JSON response back.
//
// The guest must export three functions:
//
//	allocate(size u32) -> ptr u32
//	deallocate(ptr, size u32)
//	evaluate(ptr, size u32) -> u64 (response ptr in high bits, size in low)
package wasmc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/kiln-shell/kiln/pkg/repl"
)

// Compiler is a repl.Compiler backed by a WebAssembly guest.
type Compiler struct {
	runtime wazero.Runtime
	module  api.Module

	mu         sync.Mutex
	allocate   api.Function
	deallocate api.Function
	evaluate   api.Function
}

// Load instantiates the guest from its binary. The returned Compiler
// must be closed when the session ends.
func Load(ctx context.Context, wasm []byte) (*Compiler, error) {
	runtime := wazero.NewRuntimeWithConfig(ctx,
		wazero.NewRuntimeConfig().WithCloseOnContextDone(true))
	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	module, err := runtime.Instantiate(ctx, wasm)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("instantiating compiler guest: %w", err)
	}

	c := &Compiler{runtime: runtime, module: module}
	for name, fn := range map[string]*api.Function{
		"allocate":   &c.allocate,
		"deallocate": &c.deallocate,
		"evaluate":   &c.evaluate,
	} {
		if *fn = module.ExportedFunction(name); *fn == nil {
			runtime.Close(ctx)
			return nil, fmt.Errorf("compiler guest does not export %q", name)
		}
	}
	return c, nil
}

// Close releases the guest and all its memory.
func (c *Compiler) Close(ctx context.Context) error {
	return c.runtime.Close(ctx)
}

type request struct {
	Code       string   `json:"code"`
	References []string `json:"references,omitempty"`
}

type response struct {
	HasValue     bool            `json:"hasValue"`
	Value        json.RawMessage `json:"value,omitempty"`
	Bindings     []binding       `json:"bindings,omitempty"`
	Usings       []string        `json:"usings,omitempty"`
	Diagnostic   *diagnostic     `json:"diagnostic,omitempty"`
	RuntimeError string          `json:"runtimeError,omitempty"`
}

type binding struct {
	Name     string          `json:"name"`
	TypeName string          `json:"typeName"`
	Value    json.RawMessage `json:"value,omitempty"`
}

type diagnostic struct {
	Message    string `json:"message"`
	Incomplete bool   `json:"incomplete,omitempty"`
}

// Evaluate implements repl.Compiler. Calls are serialized; the guest is
// single-threaded.
func (c *Compiler) Evaluate(ctx context.Context, code string, prior repl.SessionState, refs []repl.ReferenceHandle) (repl.SessionState, any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := request{Code: code}
	for _, ref := range refs {
		req.References = append(req.References, ref.Path)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, nil, err
	}

	raw, err := c.roundTrip(ctx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, fmt.Errorf("compiler guest: %w", err)
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, nil, fmt.Errorf("undecodable guest response: %w", err)
	}
	return mapResponse(&resp)
}

// roundTrip copies the request into guest memory, runs evaluate, and
// copies the response back out.
func (c *Compiler) roundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	size := uint64(len(payload))
	results, err := c.allocate.Call(ctx, size)
	if err != nil {
		return nil, err
	}
	ptr := results[0]
	defer c.deallocate.Call(ctx, ptr, size)

	if !c.module.Memory().Write(uint32(ptr), payload) {
		return nil, errors.New("request does not fit in guest memory")
	}
	results, err = c.evaluate.Call(ctx, ptr, size)
	if err != nil {
		return nil, err
	}
	respPtr := uint32(results[0] >> 32)
	respSize := uint32(results[0])
	raw, ok := c.module.Memory().Read(respPtr, respSize)
	if !ok {
		return nil, errors.New("response pointer out of range")
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	c.deallocate.Call(ctx, uint64(respPtr), uint64(respSize))
	return out, nil
}

func mapResponse(resp *response) (repl.SessionState, any, error) {
	if resp.Diagnostic != nil {
		return nil, nil, &repl.Diagnostic{
			Message:    resp.Diagnostic.Message,
			Incomplete: resp.Diagnostic.Incomplete,
		}
	}
	if resp.RuntimeError != "" {
		return nil, nil, &repl.RuntimeError{Err: errors.New(resp.RuntimeError)}
	}

	state := &snapshot{usings: resp.Usings}
	for _, b := range resp.Bindings {
		state.bindings = append(state.bindings, repl.Binding{
			Name:     b.Name,
			TypeName: b.TypeName,
			Value:    decodeValue(b.Value),
		})
	}
	var value any
	if resp.HasValue {
		value = decodeValue(resp.Value)
	}
	return state, value, nil
}

func decodeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// snapshot mirrors the guest's session state on the host side.
type snapshot struct {
	bindings []repl.Binding
	usings   []string
}

func (s *snapshot) Bindings() []repl.Binding { return append([]repl.Binding(nil), s.bindings...) }
func (s *snapshot) Usings() []string         { return append([]string(nil), s.usings...) }
