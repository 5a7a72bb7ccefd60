// Package conversation holds the bounded message transcript for one chat
// session. All reads and writes go through the conversation mutex; callers
// never touch the message slice directly.
package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/funcall-ai/funcall/internal/consts"
	"github.com/funcall-ai/funcall/internal/llm"
	"github.com/funcall-ai/funcall/internal/logger"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

var (
	ErrInvalidRole    = errors.New("invalid message role")
	ErrInvalidContent = errors.New("message content must not be empty")
)

// ValidRole reports whether role belongs to the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant, RoleFunction:
		return true
	}
	return false
}

// Message is one transcript entry. It carries a server-assigned timestamp
// that never leaves the process; the wire format is produced on demand.
type Message struct {
	Role         string            `json:"role"`
	Content      string            `json:"content"`
	Name         string            `json:"name,omitempty"`
	FunctionCall *llm.FunctionCall `json:"functionCall,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// AppendOptions carries the optional fields of a transcript entry.
type AppendOptions struct {
	Name         string
	FunctionCall *llm.FunctionCall
}

// Stats is a read-only snapshot of the transcript.
type Stats struct {
	ID              string         `json:"id"`
	MessageCount    int            `json:"messageCount"`
	CountsByRole    map[string]int `json:"countsByRole"`
	EstimatedTokens int            `json:"estimatedTokens"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// Export is a point-in-time copy of the transcript plus its stats. Model is
// filled in by the owner that knows the active completion client.
type Export struct {
	Messages []*Message `json:"messages"`
	Stats    Stats      `json:"stats"`
	Model    string     `json:"model,omitempty"`
}

// Conversation is a bounded transcript. The count bound is enforced on every
// append; the token bound only when the caller asks for it.
type Conversation struct {
	mu          sync.Mutex
	id          string
	messages    []*Message
	maxMessages int
	createdAt   time.Time
}

// New creates a conversation seeded with a system message. An empty
// systemPrompt falls back to the default so the transcript always starts
// with a system entry.
func New(systemPrompt string) *Conversation {
	if systemPrompt == "" {
		systemPrompt = consts.DefaultSystemPrompt
	}
	c := &Conversation{
		id:          uuid.NewString(),
		maxMessages: consts.MaxHistoryMessages,
		createdAt:   time.Now(),
	}
	c.messages = append(c.messages, &Message{
		Role:      RoleSystem,
		Content:   systemPrompt,
		Timestamp: time.Now(),
	})
	return c
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string {
	return c.id
}

// SystemPrompt returns the content of the system message.
func (c *Conversation) SystemPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.messages {
		if m.Role == RoleSystem {
			return m.Content
		}
	}
	return ""
}

// Append validates and stores one message, then applies the count bound.
// Empty content is only legal on an assistant message that carries a
// function call.
func (c *Conversation) Append(role, content string, opts AppendOptions) error {
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	if content == "" && !(role == RoleAssistant && opts.FunctionCall != nil) {
		return ErrInvalidContent
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, &Message{
		Role:         role,
		Content:      content,
		Name:         opts.Name,
		FunctionCall: opts.FunctionCall,
		Timestamp:    time.Now(),
	})
	c.trimToCountLocked()
	return nil
}

// trimToCountLocked drops the oldest non-system messages until the transcript
// fits maxMessages. The system message is never evicted.
func (c *Conversation) trimToCountLocked() {
	if len(c.messages) <= c.maxMessages {
		return
	}
	excess := len(c.messages) - c.maxMessages
	kept := make([]*Message, 0, c.maxMessages)
	for _, m := range c.messages {
		if m.Role == RoleSystem {
			kept = append(kept, m)
			continue
		}
		if excess > 0 {
			excess--
			continue
		}
		kept = append(kept, m)
	}
	logger.Debug("conversation %s trimmed to %d messages", c.id, len(kept))
	c.messages = kept
}

// TrimToTokenLimit drops the oldest non-system messages until the estimated
// transcript cost fits budget. The system message is reserved first and kept
// even when it alone exceeds the budget. Returns the number of messages
// dropped.
func (c *Conversation) TrimToTokenLimit(budget int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var system *Message
	var rest []*Message
	for _, m := range c.messages {
		if m.Role == RoleSystem && system == nil {
			system = m
			continue
		}
		rest = append(rest, m)
	}

	remaining := budget
	if system != nil {
		remaining -= estimateMessage(system)
	}

	// Walk newest-first so the most recent context survives.
	kept := make([]*Message, 0, len(rest))
	for i := len(rest) - 1; i >= 0; i-- {
		cost := estimateMessage(rest[i])
		if cost > remaining {
			break
		}
		remaining -= cost
		kept = append(kept, rest[i])
	}
	// Restore chronological order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	dropped := len(rest) - len(kept)
	rebuilt := make([]*Message, 0, len(kept)+1)
	if system != nil {
		rebuilt = append(rebuilt, system)
	}
	rebuilt = append(rebuilt, kept...)
	c.messages = rebuilt

	if dropped > 0 {
		logger.Debug("conversation %s dropped %d messages to fit %d tokens", c.id, dropped, budget)
	}
	return dropped
}

func estimateMessage(m *Message) int {
	return llm.EstimateMessageTokens(m.Content, m.FunctionCall, consts.PerMessageTokenOverhead)
}

// Stats derives a snapshot without mutating the transcript.
func (c *Conversation) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statsLocked()
}

func (c *Conversation) statsLocked() Stats {
	counts := make(map[string]int, 4)
	tokens := 0
	for _, m := range c.messages {
		counts[m.Role]++
		tokens += estimateMessage(m)
	}
	return Stats{
		ID:              c.id,
		MessageCount:    len(c.messages),
		CountsByRole:    counts,
		EstimatedTokens: tokens,
		CreatedAt:       c.createdAt,
	}
}

// Snapshot returns a copy of the transcript in order. With includeSystem
// false the system message is omitted.
func (c *Conversation) Snapshot(includeSystem bool) []*Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(includeSystem)
}

func (c *Conversation) snapshotLocked(includeSystem bool) []*Message {
	out := make([]*Message, 0, len(c.messages))
	for _, m := range c.messages {
		if !includeSystem && m.Role == RoleSystem {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out
}

// ExportState returns an ordered transcript copy plus stats.
func (c *Conversation) ExportState(includeSystem bool) *Export {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Export{
		Messages: c.snapshotLocked(includeSystem),
		Stats:    c.statsLocked(),
	}
}

// Clear resets the transcript back to just the system message.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := make([]*Message, 0, 1)
	for _, m := range c.messages {
		if m.Role == RoleSystem {
			kept = append(kept, m)
			break
		}
	}
	c.messages = kept
}

// WireMessages converts the transcript into the request wire format.
// With fullHistory false the system message, the latest user message, and
// everything appended after it are sent; follow-up completions within a
// function-call turn still see the call echo and its result.
func (c *Conversation) WireMessages(fullHistory bool) []*llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	src := c.messages
	if !fullHistory {
		src = nil
		for _, m := range c.messages {
			if m.Role == RoleSystem {
				src = append(src, m)
				break
			}
		}
		start := len(c.messages)
		for i := len(c.messages) - 1; i >= 0; i-- {
			if c.messages[i].Role == RoleUser {
				start = i
				break
			}
		}
		src = append(src, c.messages[start:]...)
	}

	out := make([]*llm.Message, 0, len(src))
	for _, m := range src {
		out = append(out, &llm.Message{
			Role:         m.Role,
			Content:      m.Content,
			Name:         m.Name,
			FunctionCall: m.FunctionCall,
		})
	}
	return out
}
