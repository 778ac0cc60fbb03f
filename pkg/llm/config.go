package llm

import "strings"

// Environment variables consulted during resolution
const (
	EnvProvider   = "LLM_PROVIDER"
	EnvModel      = "LLM_MODEL"
	EnvTemp       = "LLM_TEMPERATURE"
	EnvMaxRetries = "LLM_MAX_RETRIES"
	EnvMaxTokens  = "LLM_MAX_TOKENS"
	EnvBaseURL    = "LLM_BASE_URL"

	EnvGoogleAPIKey    = "GOOGLE_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"

	EnvAzureAPIKey     = "AZURE_OPENAI_API_KEY"
	EnvAzureEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvAzureDeployment = "AZURE_OPENAI_DEPLOYMENT_NAME"
	EnvAzureAPIVersion = "AZURE_OPENAI_API_VERSION"
)

// Built-in defaults
const (
	DefaultProvider        = ProviderGoogleGemini
	DefaultTemperature     = 0.0
	DefaultMaxRetries      = 2
	DefaultMaxTokens       = 4096
	DefaultAzureAPIVersion = "2024-02-15-preview"
)

// ProviderConfig describes the desired model backend. Zero values mean "not supplied".
type ProviderConfig struct {
	Provider    Provider `json:"provider" mapstructure:"provider"`
	Model       string   `json:"model,omitempty" mapstructure:"model"`
	Temperature *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	MaxRetries  *int     `json:"max_retries,omitempty" mapstructure:"max_retries"`
	MaxTokens   int      `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
	APIKey      string   `json:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string   `json:"base_url,omitempty" mapstructure:"base_url"`

	// Azure only
	AzureEndpoint       string `json:"azure_endpoint,omitempty" mapstructure:"azure_endpoint"`
	AzureDeploymentName string `json:"azure_deployment_name,omitempty" mapstructure:"azure_deployment_name"`
	AzureAPIVersion     string `json:"azure_api_version,omitempty" mapstructure:"azure_api_version"`
}

// Settings is a fully resolved ProviderConfig, as carried by a Client.
type Settings struct {
	Provider    Provider `json:"provider"`
	Model       string   `json:"model"`
	Temperature float64  `json:"temperature"`
	MaxRetries  int      `json:"max_retries"`
	MaxTokens   int      `json:"max_tokens"`
	APIKey      string   `json:"-"`
	BaseURL     string   `json:"base_url,omitempty"`

	AzureEndpoint   string `json:"azure_endpoint,omitempty"`
	AzureDeployment string `json:"azure_deployment,omitempty"`
	AzureAPIVersion string `json:"azure_api_version,omitempty"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

// azureBaseURL joins an Azure resource endpoint and deployment into the request base path.
func azureBaseURL(endpoint, deployment string) string {
	return strings.TrimRight(endpoint, "/") + "/openai/deployments/" + deployment
}
