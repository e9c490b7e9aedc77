// Package llm defines the boundary between the agent runner and the
// external language-model service. Per spec §1 the concrete model
// integration is an external collaborator and explicitly out of scope;
// only the interface the runner calls against lives here, grounded on
// the pack's `model.LLM`/`model.Request`/`model.Response` boundary
// shape (kadirpekel-hector's llmagent.Config.Model field).
package llm

import "context"

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one model-requested tool invocation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Message is one entry in the conversation history the agent runner
// maintains (spec §4.H). Assistant messages may carry ToolCalls; tool
// messages answer a specific ToolCallID and record which tool produced
// them so condensation (spec §4.H) can inspect ToolName without
// re-parsing Content.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// ToolSpec is the model-facing description of one callable tool
// (spec §4.G: name, description, JSON-schema-equivalent parameters).
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is one inference call: a system prompt, the tools available
// this step, the full ephemeral-state-appended message list, and a
// per-step token budget (spec §4.H step 4c, §6's maxTokensPerStep knob).
type Request struct {
	System    string
	Tools     []ToolSpec
	Messages  []Message
	MaxTokens int
}

// Response is the model's answer to one Request: any text content plus
// zero or more tool calls the runner must execute before the next step.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Client is the external model boundary. A single Stream call
// corresponds to spec §4.H step 4c's "stream the model ... maxSteps=1
// (one inference, potentially multiple parallel tool calls)" — despite
// the name, implementations may stream tokens internally, but the
// interface surfaces only the fully-drained Response, since the agent
// runner only ever acts once the step's tool calls are known.
type Client interface {
	Stream(ctx context.Context, req Request) (Response, error)
}
