package llm

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// providerSpec holds the per-kind construction rules.
type providerSpec struct {
	label        string
	defaultModel string
	keyEnv       string
	build        func(Settings) (Client, error)
}

var providerSpecs = map[Provider]providerSpec{
	ProviderGoogleGemini: {
		label:        "Google",
		defaultModel: "gemini-2.5-flash",
		keyEnv:       EnvGoogleAPIKey,
		build:        newGeminiClient,
	},
	ProviderAnthropic: {
		label:        "Anthropic",
		defaultModel: "claude-3-5-sonnet-20241022",
		keyEnv:       EnvAnthropicAPIKey,
		build:        newAnthropicClient,
	},
	ProviderOpenAI: {
		label:        "OpenAI",
		defaultModel: "gpt-4o",
		keyEnv:       EnvOpenAIAPIKey,
		build:        newOpenAIClient,
	},
	ProviderAzureOpenAI: {
		label:        "Azure OpenAI",
		defaultModel: "gpt-4o",
		keyEnv:       EnvAzureAPIKey,
		build:        newAzureOpenAIClient,
	},
}

// ProviderInfo describes a supported provider for display.
type ProviderInfo struct {
	Provider     Provider
	Label        string
	DefaultModel string
	KeyEnv       string
}

// SupportedProviders lists every provider with its defaults.
func SupportedProviders() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(providerSpecs))
	for kind, spec := range providerSpecs {
		infos = append(infos, ProviderInfo{
			Provider:     kind,
			Label:        spec.label,
			DefaultModel: spec.defaultModel,
			KeyEnv:       spec.keyEnv,
		})
	}
	order := make(map[Provider]int)
	for i, p := range Providers() {
		order[p] = i
	}
	sort.Slice(infos, func(i, j int) bool { return order[infos[i].Provider] < order[infos[j].Provider] })
	return infos
}

// Factory creates model clients. Environment access is limited to the
// snapshot it was built with.
type Factory struct {
	env    Env
	logger zerolog.Logger
}

// NewFactory creates a factory over an environment snapshot.
func NewFactory(environment Env, logger zerolog.Logger) *Factory {
	if environment == nil {
		environment = Env{}
	}
	return &Factory{
		env:    environment,
		logger: logger,
	}
}

// CreateClient constructs a client for cfg. It fails with a *ConfigError
// when the provider is unknown or a required field cannot be resolved.
func (f *Factory) CreateClient(cfg ProviderConfig) (Client, error) {
	spec, ok := providerSpecs[cfg.Provider]
	if !ok {
		return nil, &ConfigError{
			Kind:   KindUnsupportedProvider,
			Field:  "provider",
			EnvVar: EnvProvider,
			Value:  string(cfg.Provider),
		}
	}

	settings, err := f.resolve(cfg, spec)
	if err != nil {
		return nil, err
	}

	client, err := spec.build(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}

	f.logger.Debug().
		Str("provider", string(settings.Provider)).
		Str("model", settings.Model).
		Float64("temperature", settings.Temperature).
		Int("maxRetries", settings.MaxRetries).
		Msg("LLM client created")

	return client, nil
}

// CreateClientFromEnvironment reads LLM_* variables and delegates to CreateClient.
func (f *Factory) CreateClientFromEnvironment() (Client, error) {
	cfg, err := LoadConfigFromEnv(f.env)
	if err != nil {
		return nil, err
	}
	return f.CreateClient(cfg)
}

// resolve applies explicit > environment > default for every field.
func (f *Factory) resolve(cfg ProviderConfig, spec providerSpec) (Settings, error) {
	settings := Settings{
		Provider:    cfg.Provider,
		Model:       firstNonEmpty(cfg.Model, spec.defaultModel),
		Temperature: DefaultTemperature,
		MaxRetries:  DefaultMaxRetries,
		MaxTokens:   DefaultMaxTokens,
		APIKey:      firstNonEmpty(cfg.APIKey, f.env.Get(spec.keyEnv)),
		BaseURL:     cfg.BaseURL,
	}
	if cfg.Temperature != nil {
		settings.Temperature = *cfg.Temperature
	}
	if cfg.MaxRetries != nil {
		if *cfg.MaxRetries < 0 {
			return Settings{}, &ConfigError{
				Kind:  KindMalformedValue,
				Field: "maxRetries",
				Value: fmt.Sprintf("%d", *cfg.MaxRetries),
				Err:   fmt.Errorf("must not be negative"),
			}
		}
		settings.MaxRetries = *cfg.MaxRetries
	}
	if cfg.MaxTokens < 0 {
		return Settings{}, &ConfigError{
			Kind:  KindMalformedValue,
			Field: "maxTokens",
			Value: fmt.Sprintf("%d", cfg.MaxTokens),
			Err:   fmt.Errorf("must not be negative"),
		}
	}
	if cfg.MaxTokens > 0 {
		settings.MaxTokens = cfg.MaxTokens
	}

	if settings.APIKey == "" {
		return Settings{}, &ConfigError{
			Kind:   KindMissingCredential,
			Field:  "apiKey",
			EnvVar: spec.keyEnv,
			Label:  spec.label,
		}
	}

	if cfg.Provider != ProviderAzureOpenAI {
		return settings, nil
	}

	settings.AzureEndpoint = firstNonEmpty(cfg.AzureEndpoint, f.env.Get(EnvAzureEndpoint))
	settings.AzureDeployment = firstNonEmpty(cfg.AzureDeploymentName, f.env.Get(EnvAzureDeployment))
	settings.AzureAPIVersion = firstNonEmpty(cfg.AzureAPIVersion, f.env.Get(EnvAzureAPIVersion), DefaultAzureAPIVersion)

	if settings.AzureEndpoint == "" {
		return Settings{}, &ConfigError{
			Kind:   KindMissingEndpoint,
			Field:  "azureEndpoint",
			EnvVar: EnvAzureEndpoint,
			Label:  spec.label,
		}
	}
	if settings.AzureDeployment == "" {
		return Settings{}, &ConfigError{
			Kind:   KindMissingDeploymentName,
			Field:  "azureDeploymentName",
			EnvVar: EnvAzureDeployment,
			Label:  spec.label,
		}
	}
	settings.BaseURL = azureBaseURL(settings.AzureEndpoint, settings.AzureDeployment)

	return settings, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
