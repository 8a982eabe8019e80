// Package chat models the conversation passed into the orchestrator.
package chat

import (
	"fmt"
	"strings"
)

// Role is the author of a conversation turn.
type Role string

// Known roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleAssistant, RoleSystem:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Turn is one message in a conversation.
type Turn struct {
	Role    Role
	Content string
}

// Conversation is an ordered list of turns, oldest first.
type Conversation []Turn

// Window returns at most the n most recent turns. n <= 0 returns the whole conversation.
func (c Conversation) Window(n int) Conversation {
	if n <= 0 || len(c) <= n {
		return c
	}
	return c[len(c)-n:]
}

// LatestUserText returns the content of the last user turn, or "" if there is none.
func (c Conversation) LatestUserText() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleUser {
			return c[i].Content
		}
	}
	return ""
}

// History renders the conversation as "role: content" lines.
func (c Conversation) History() string {
	var b strings.Builder
	for i, t := range c {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}
