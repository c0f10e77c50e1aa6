package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/recruiter-agent/internal/types"
)

// ScriptedClient replays queued assistant messages. It backs tests and dry runs.
type ScriptedClient struct {
	mu       sync.Mutex
	replies  []types.Message
	Requests []Request
}

// NewScriptedClient queues replies in order.
func NewScriptedClient(replies ...types.Message) *ScriptedClient {
	return &ScriptedClient{replies: replies}
}

// Push appends more replies.
func (c *ScriptedClient) Push(replies ...types.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
}

// Invoke pops the next reply. It fails once the script is exhausted.
func (c *ScriptedClient) Invoke(_ context.Context, req Request) (types.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Requests = append(c.Requests, req)
	if len(c.replies) == 0 {
		return types.Message{}, fmt.Errorf("scripted client: no reply queued for request %d", len(c.Requests))
	}
	next := c.replies[0]
	c.replies = c.replies[1:]
	next.ToolCalls = firstCallOnly(next.ToolCalls)
	return next, nil
}

// Remaining returns the number of queued replies.
func (c *ScriptedClient) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.replies)
}

// GetModel implements Client.
func (c *ScriptedClient) GetModel(tier ModelTier) string {
	return "scripted-" + string(tier)
}

// Close implements Client.
func (c *ScriptedClient) Close() error {
	return nil
}
