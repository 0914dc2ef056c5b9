package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/wikiflow/llm"
	"github.com/BaSui01/wikiflow/types"
)

// defaultSystemPrompt mirrors the agent's operating instructions.
const defaultSystemPrompt = `You are an agent that operates the user's Atlassian Confluence.
Based on the user's request you search Confluence pages, show page details, and create new pages.

Capabilities:
- Text search: find pages by keyword
- Page details: show the content of a specific page
- Page creation: create a new Confluence page

When an operation completes, report the result clearly.`

// LLMTaskConfig configures the agent task loop.
type LLMTaskConfig struct {
	Model         string
	SystemPrompt  string
	MaxIterations int
	MaxTokens     int
	Temperature   float32
}

// LLMTask runs a tool-calling conversation against the LLM provider.
// It implements the Task boundary consumed by the orchestrator.
type LLMTask struct {
	provider llm.Provider
	tools    *Registry
	cfg      LLMTaskConfig
	logger   *zap.Logger
}

// NewLLMTask creates the agent task.
func NewLLMTask(provider llm.Provider, tools *Registry, cfg LLMTaskConfig, logger *zap.Logger) *LLMTask {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMTask{
		provider: provider,
		tools:    tools,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "llm_task")),
	}
}

// Invoke runs the conversation until the model stops calling tools or
// the iteration cap is reached.
func (t *LLMTask) Invoke(ctx context.Context, prompt string) (*TaskResult, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: t.cfg.SystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	}

	result := &TaskResult{}
	lastContent := ""

	for i := 0; i < t.cfg.MaxIterations; i++ {
		resp, err := t.provider.Completion(ctx, &llm.ChatRequest{
			Model:       t.cfg.Model,
			Messages:    messages,
			Tools:       t.tools.Schemas(),
			MaxTokens:   t.cfg.MaxTokens,
			Temperature: t.cfg.Temperature,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, types.NewError(types.ErrUpstreamError, "llm returned no choices")
		}

		result.Model = resp.Model
		result.Usage.Add(resp.Usage)

		msg := resp.Choices[0].Message
		messages = append(messages, msg)
		if msg.Content != "" {
			lastContent = msg.Content
		}

		if len(msg.ToolCalls) == 0 {
			result.Text = msg.Content
			return result, nil
		}

		for _, call := range msg.ToolCalls {
			output := t.dispatch(ctx, call, result)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Name:       call.Name,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	// Iteration cap reached: surface whatever the model said last.
	t.logger.Warn("task iteration cap reached",
		zap.Int("max_iterations", t.cfg.MaxIterations))
	result.Text = lastContent
	return result, nil
}

// dispatch runs one tool call and records an auth requirement on the
// result when the tool reports it.
func (t *LLMTask) dispatch(ctx context.Context, call llm.ToolCall, result *TaskResult) string {
	tool, ok := t.tools.Get(call.Name)
	if !ok {
		t.logger.Warn("model requested unknown tool", zap.String("tool", call.Name))
		return errorResponse("unknown tool", fmt.Sprintf("no tool named %s", call.Name))
	}

	t.logger.Debug("tool call",
		zap.String("tool", call.Name),
		zap.String("tool_call_id", call.ID))

	output, err := tool.Invoke(ctx, call.Arguments)
	if err != nil {
		t.logger.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
		return errorResponse(fmt.Sprintf("%s failed", call.Name), err.Error())
	}
	if isAuthRequired(output) {
		result.AuthTool = call.Name
	}
	return output
}
