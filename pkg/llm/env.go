package llm

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Env is a read-only snapshot of process environment variables.
type Env map[string]string

// OSEnv snapshots the current process environment.
func OSEnv() Env {
	snapshot := make(Env)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok {
			snapshot[key] = value
		}
	}
	return snapshot
}

// Get returns the trimmed value of key, or "" when unset.
func (e Env) Get(key string) string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e[key])
}

// envConfig mirrors the LLM_* and AZURE_OPENAI_* variables. Defaults match
// DefaultProvider, DefaultTemperature and DefaultMaxRetries.
type envConfig struct {
	Provider    string  `env:"LLM_PROVIDER" envDefault:"google-gemini"`
	Model       string  `env:"LLM_MODEL"`
	Temperature float64 `env:"LLM_TEMPERATURE" envDefault:"0"`
	MaxRetries  int     `env:"LLM_MAX_RETRIES" envDefault:"2"`
	MaxTokens   int     `env:"LLM_MAX_TOKENS"`
	BaseURL     string  `env:"LLM_BASE_URL"`

	AzureEndpoint   string `env:"AZURE_OPENAI_ENDPOINT"`
	AzureDeployment string `env:"AZURE_OPENAI_DEPLOYMENT_NAME"`
	AzureAPIVersion string `env:"AZURE_OPENAI_API_VERSION"`
}

// LoadConfigFromEnv builds a ProviderConfig from environment variables.
// Malformed or negative numeric values fail with KindMalformedValue instead
// of falling back to defaults.
func LoadConfigFromEnv(environment Env) (ProviderConfig, error) {
	// Blank values count as unset so envDefault applies.
	trimmed := make(map[string]string, len(environment))
	for key := range environment {
		if value := environment.Get(key); value != "" {
			trimmed[key] = value
		}
	}

	var raw envConfig
	if err := env.ParseWithOptions(&raw, env.Options{Environment: trimmed}); err != nil {
		return ProviderConfig{}, envParseError(err, environment)
	}

	if math.IsNaN(raw.Temperature) || math.IsInf(raw.Temperature, 0) {
		return ProviderConfig{}, malformed(EnvTemp, environment, fmt.Errorf("not a finite number"))
	}
	if raw.MaxRetries < 0 {
		return ProviderConfig{}, malformed(EnvMaxRetries, environment, fmt.Errorf("must not be negative"))
	}
	if raw.MaxTokens < 0 {
		return ProviderConfig{}, malformed(EnvMaxTokens, environment, fmt.Errorf("must not be negative"))
	}

	return ProviderConfig{
		Provider:            Provider(raw.Provider),
		Model:               raw.Model,
		Temperature:         Float64(raw.Temperature),
		MaxRetries:          Int(raw.MaxRetries),
		MaxTokens:           raw.MaxTokens,
		BaseURL:             raw.BaseURL,
		AzureEndpoint:       raw.AzureEndpoint,
		AzureDeploymentName: raw.AzureDeployment,
		AzureAPIVersion:     raw.AzureAPIVersion,
	}, nil
}

func malformed(name string, environment Env, err error) *ConfigError {
	return &ConfigError{Kind: KindMalformedValue, Field: name, EnvVar: name, Value: environment.Get(name), Err: err}
}

// envParseError maps a field parse failure back to the variable it came from
func envParseError(err error, environment Env) error {
	var aggErr env.AggregateError
	if errors.As(err, &aggErr) {
		for _, e := range aggErr.Errors {
			var parseErr env.ParseError
			if !errors.As(e, &parseErr) {
				continue
			}
			field, ok := reflect.TypeOf(envConfig{}).FieldByName(parseErr.Name)
			if !ok {
				continue
			}
			name, _, _ := strings.Cut(field.Tag.Get("env"), ",")
			return malformed(name, environment, parseErr.Err)
		}
	}
	return fmt.Errorf("failed to parse LLM environment: %w", err)
}
