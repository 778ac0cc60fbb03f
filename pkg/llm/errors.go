package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies configuration failures.
type ErrorKind string

const (
	KindUnsupportedProvider   ErrorKind = "unsupported-provider"
	KindMissingCredential     ErrorKind = "missing-credential"
	KindMissingEndpoint       ErrorKind = "missing-endpoint"
	KindMissingDeploymentName ErrorKind = "missing-deployment-name"
	KindMalformedValue        ErrorKind = "malformed-value"
)

var (
	// ErrUnsupportedProvider is matched by configuration errors for unknown providers
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrMissingCredential is matched when no API key could be resolved
	ErrMissingCredential = errors.New("missing credential")

	// ErrMissingEndpoint is matched when the Azure endpoint could not be resolved
	ErrMissingEndpoint = errors.New("missing endpoint")

	// ErrMissingDeploymentName is matched when the Azure deployment could not be resolved
	ErrMissingDeploymentName = errors.New("missing deployment name")

	// ErrMalformedValue is matched when an environment value cannot be parsed
	ErrMalformedValue = errors.New("malformed configuration value")
)

var kindSentinels = map[ErrorKind]error{
	KindUnsupportedProvider:   ErrUnsupportedProvider,
	KindMissingCredential:     ErrMissingCredential,
	KindMissingEndpoint:       ErrMissingEndpoint,
	KindMissingDeploymentName: ErrMissingDeploymentName,
	KindMalformedValue:        ErrMalformedValue,
}

// ConfigError reports a static setup defect. It is never retried.
type ConfigError struct {
	Kind   ErrorKind
	Field  string // config field that failed to resolve
	EnvVar string // environment variable the caller should set or fix
	Value  string // offending value, for unsupported/malformed kinds
	Label  string // human provider label, e.g. "Azure OpenAI"
	Err    error
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case KindUnsupportedProvider:
		return fmt.Sprintf("Unsupported LLM provider: %s", e.Value)
	case KindMissingCredential:
		return fmt.Sprintf("%s API Key is required. Set %s in environment variables.", e.Label, e.EnvVar)
	case KindMissingEndpoint:
		return fmt.Sprintf("%s Endpoint is required. Set %s in environment variables.", e.Label, e.EnvVar)
	case KindMissingDeploymentName:
		return fmt.Sprintf("%s Deployment Name is required. Set %s in environment variables.", e.Label, e.EnvVar)
	case KindMalformedValue:
		name := e.EnvVar
		if name == "" {
			name = e.Field
		}
		msg := fmt.Sprintf("malformed configuration value for %s: %q", name, e.Value)
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	default:
		return fmt.Sprintf("invalid LLM configuration (%s)", e.Field)
	}
}

// Unwrap exposes the underlying parse error, if any.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *ConfigError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// IsConfigError reports whether err is a *ConfigError of the given kind.
func IsConfigError(err error, kind ErrorKind) bool {
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		return false
	}
	return cfgErr.Kind == kind
}
