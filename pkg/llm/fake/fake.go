// Package fake provides a deterministic llm.Client for tests and the
// scripted demo (cmd/enginedemo), standing in for the external model
// service per spec §1's out-of-scope boundary.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/vctt94/cardengine/pkg/llm"
)

// Client replays a fixed script of responses, one per Stream call, in
// order. It never inspects req: scripted scenarios and tests decide
// what the "model" does up front rather than reacting to state, which
// keeps cmd/enginedemo's output reproducible.
type Client struct {
	mu       sync.Mutex
	script   []llm.Response
	next     int
	AfterEnd llm.Response // returned once script is exhausted; zero value has no content and no tool calls
}

// New builds a scripted fake client. AfterEnd defaults to an empty
// Response (no content, no tool calls); the agent runner does not stop
// on such a step and keeps stepping until its step limit.
func New(script ...llm.Response) *Client {
	return &Client{script: script}
}

// Stream returns the next scripted response, ignoring req entirely.
func (c *Client) Stream(ctx context.Context, req llm.Request) (llm.Response, error) {
	select {
	case <-ctx.Done():
		return llm.Response{}, ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.next >= len(c.script) {
		return c.AfterEnd, nil
	}
	resp := c.script[c.next]
	c.next++
	return resp, nil
}

// Remaining reports how many scripted responses have not yet been
// consumed; demo/test code uses it to assert the whole script ran.
func (c *Client) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.script) - c.next
}

// Tool builds a llm.ToolCall with a stable synthetic ID, for building
// test scripts without hand-numbering call IDs.
func Tool(id, name string, args map[string]any) llm.ToolCall {
	return llm.ToolCall{ID: fmt.Sprintf("call-%s", id), Name: name, Arguments: args}
}
