// Package llm defines the language-model provider boundary used by
// the agent task and an OpenAI-compatible chat-completions
// implementation.
package llm
