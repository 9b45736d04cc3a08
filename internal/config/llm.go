package config

// ProviderGenAI is the Google GenAI (Gemini) backend.
const ProviderGenAI = "genai"

// DefaultModel is the multimodal model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// LLMConfig configures the reasoning backend.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	// Timeout is a Go duration. Empty means the call has no deadline.
	Timeout string `yaml:"timeout"`
}
