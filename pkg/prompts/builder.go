package prompts

import (
	"fmt"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
)

type section struct {
	title string
	body  string
}

// Builder constructs chat messages for a collaborator call using a fluent
// interface. Empty sections are skipped.
type Builder struct {
	system      string
	gs          *state.GameState
	sections    []section
	userMessage string
}

// New creates a builder with the given system instructions.
func New(system string) *Builder {
	return &Builder{system: system}
}

// WithGameState adds the compact state summary.
func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithSection adds a titled block of context.
func (b *Builder) WithSection(title, body string) *Builder {
	if strings.TrimSpace(body) != "" {
		b.sections = append(b.sections, section{title: title, body: body})
	}
	return b
}

// WithList adds a titled bullet list.
func (b *Builder) WithList(title string, items []string) *Builder {
	if len(items) == 0 {
		return b
	}
	var sb strings.Builder
	for _, it := range items {
		sb.WriteString("- " + it + "\n")
	}
	return b.WithSection(title, strings.TrimRight(sb.String(), "\n"))
}

// WithUserMessage sets the final user message.
func (b *Builder) WithUserMessage(message string) *Builder {
	b.userMessage = message
	return b
}

// Build returns the system message followed by the user message.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if strings.TrimSpace(b.system) == "" {
		return nil, fmt.Errorf("system prompt is required")
	}

	var sb strings.Builder
	sb.WriteString(b.system)
	if b.gs != nil {
		sb.WriteString("\n\n### Game State\n")
		sb.WriteString(state.ToPromptState(b.gs).JSON())
	}
	for _, s := range b.sections {
		sb.WriteString("\n\n### " + s.title + "\n")
		sb.WriteString(s.body)
	}

	messages := []chat.ChatMessage{{Role: chat.ChatRoleSystem, Content: sb.String()}}
	if strings.TrimSpace(b.userMessage) != "" {
		messages = append(messages, chat.ChatMessage{Role: chat.ChatRoleUser, Content: b.userMessage})
	}
	return messages, nil
}
