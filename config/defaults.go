package config

import (
	"time"

	"github.com/BaSui01/wikiflow/confluence"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Agent:      DefaultAgentConfig(),
		LLM:        DefaultLLMConfig(),
		Auth:       DefaultAuthConfig(),
		Confluence: DefaultConfluenceConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    0, // streaming responses must not be cut off
		ShutdownTimeout: 15 * time.Second,
		RateLimit:       50,
		RateBurst:       100,
	}
}

// DefaultAgentConfig returns the default invocation task
// configuration.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Model:         "gpt-4o",
		MaxIterations: 8,
		MaxTokens:     4096,
		Temperature:   0.7,
	}
}

// DefaultLLMConfig returns the default model provider configuration.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: "openai",
		BaseURL:  "https://api.openai.com",
		Timeout:  2 * time.Minute,
	}
}

// DefaultAuthConfig returns the default authorization flow
// configuration.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Provider:     "atlassian",
		Scopes:       []string{"read:confluence-content.all", "write:confluence-content"},
		FlowType:     "authorization_code",
		Force:        false,
		PollInterval: 2 * time.Second,
		Timeout:      5 * time.Minute,
	}
}

// DefaultConfluenceConfig returns the default document API
// configuration.
func DefaultConfluenceConfig() ConfluenceConfig {
	return ConfluenceConfig{
		DiscoveryURL: confluence.DefaultDiscoveryURL,
		APIBase:      confluence.DefaultAPIBase,
		Timeout:      30 * time.Second,
	}
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "json",
		OutputPaths:  []string{"stdout"},
		EnableCaller: true,
	}
}

// DefaultTelemetryConfig returns the default telemetry configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "wikiflow",
		SampleRate:   1.0,
	}
}
