// Package remote implements an evaluation backend that delegates to an
// out-of-process compiler service over JSON-RPC 2.0. The wire format is
// the same header-framed JSON codec used by language servers, so the
// service can be implemented with any LSP toolkit.
//
// The service owns the real session state; the client keeps only the
// snapshot of bindings and imports returned by the last evaluation.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/kiln-shell/kiln/pkg/logutil"
	"github.com/kiln-shell/kiln/pkg/repl"
)

var logger = logutil.GetLogger("[remote] ")

// Client is a repl.Compiler backed by a compiler service connection.
type Client struct {
	conn *jsonrpc2.Conn
}

// Dial establishes a client over the given transport, typically the
// stdio of a spawned service process or a socket.
func Dial(ctx context.Context, rwc io.ReadWriteCloser) *Client {
	conn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(clientHandler))
	return &Client{conn: conn}
}

// clientHandler handles server-initiated traffic. The protocol has no
// server-to-client requests; anything received is logged and dropped.
func clientHandler(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	logger.Println("unexpected server request:", req.Method)
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
}

// Close tears down the connection. The service side observes the
// disconnect and discards the session.
func (c *Client) Close() error { return c.conn.Close() }

// Evaluate implements repl.Compiler.
func (c *Client) Evaluate(ctx context.Context, code string, prior repl.SessionState, refs []repl.ReferenceHandle) (repl.SessionState, any, error) {
	params := evaluateParams{Code: code}
	for _, ref := range refs {
		params.References = append(params.References, ref.Path)
	}

	var result evaluateResult
	if err := c.conn.Call(ctx, "session/evaluate", params, &result); err != nil {
		return nil, nil, callError(ctx, err)
	}
	if result.Diagnostic != nil {
		return nil, nil, &repl.Diagnostic{
			Message:    result.Diagnostic.Message,
			Incomplete: result.Diagnostic.Incomplete,
		}
	}
	if result.RuntimeError != "" {
		return nil, nil, &repl.RuntimeError{Err: errors.New(result.RuntimeError)}
	}

	state := &snapshot{usings: result.Usings}
	for _, b := range result.Bindings {
		state.bindings = append(state.bindings, repl.Binding{
			Name:     b.Name,
			TypeName: b.TypeName,
			Value:    decodeValue(b.Value),
		})
	}
	var value any
	if result.HasValue {
		value = decodeValue(result.Value)
	}
	return state, value, nil
}

// Warm implements repl.Warmer by asking the service to spin up its
// compilation pipeline ahead of the first fragment.
func (c *Client) Warm(ctx context.Context) {
	if err := c.conn.Notify(ctx, "session/warm", nil); err != nil {
		logger.Println("warm request failed:", err)
	}
}

// Complete asks the service for completion items at a byte offset in
// the given source.
func (c *Client) Complete(ctx context.Context, code string, offset int) ([]lsp.CompletionItem, error) {
	var items []lsp.CompletionItem
	err := c.conn.Call(ctx, "session/complete", completeParams{Code: code, Offset: offset}, &items)
	if err != nil {
		return nil, callError(ctx, err)
	}
	return items, nil
}

// callError normalizes transport failures: cancellation surfaces as the
// context error, anything else as a diagnostic since the service and
// the session can no longer be assumed consistent.
func callError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		return &repl.Diagnostic{Message: rpcErr.Message}
	}
	return err
}

func decodeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Println("undecodable value from service:", err)
		return string(raw)
	}
	return v
}

// snapshot is the client-side view of the service's session state.
type snapshot struct {
	bindings []repl.Binding
	usings   []string
}

func (s *snapshot) Bindings() []repl.Binding { return append([]repl.Binding(nil), s.bindings...) }
func (s *snapshot) Usings() []string         { return append([]string(nil), s.usings...) }
