package browser

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// SecurityValidator checks navigation targets against a SecurityConfig
type SecurityValidator struct {
	config SecurityConfig
}

// NewSecurityValidator creates a new security validator
func NewSecurityValidator(config SecurityConfig) *SecurityValidator {
	return &SecurityValidator{
		config: config,
	}
}

// ValidateURL validates a URL and checks security policies
func (sv *SecurityValidator) ValidateURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" {
		return newError(ErrCodeValidation, "invalid URL: %s", urlStr)
	}

	switch parsedURL.Scheme {
	case "http", "https":
	case "file":
		if !sv.config.AllowFileUrls {
			sv.logSecurityViolation("file_url_blocked", urlStr)
			return newError(ErrCodeSecurity, "file:// URLs are not allowed")
		}
		return nil
	default:
		sv.logSecurityViolation("scheme_blocked", urlStr)
		return newError(ErrCodeSecurity, "unsupported URL scheme: %s", parsedURL.Scheme)
	}

	host := strings.ToLower(parsedURL.Hostname())
	if host == "" {
		return newError(ErrCodeValidation, "URL has no host: %s", urlStr)
	}

	if isLocalhost(host) && !sv.config.AllowLocalhostUrls {
		sv.logSecurityViolation("localhost_url_blocked", urlStr)
		return newError(ErrCodeSecurity, "localhost URLs are not allowed")
	}

	if len(sv.config.AllowedDomains) > 0 && !matchAny(host, sv.config.AllowedDomains) {
		sv.logSecurityViolation("domain_not_allowed", urlStr)
		return newError(ErrCodeSecurity, "domain not in allowed list: %s", host)
	}

	if matchAny(host, sv.config.BlockedDomains) {
		sv.logSecurityViolation("domain_blocked", urlStr)
		return newError(ErrCodeSecurity, "domain is blocked: %s", host)
	}

	return nil
}

func isLocalhost(host string) bool {
	return host == "localhost" ||
		host == "::1" ||
		host == "0.0.0.0" ||
		strings.HasPrefix(host, "127.") ||
		strings.HasSuffix(host, ".localhost")
}

func matchAny(host string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchDomain(host, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// matchDomain supports exact hosts, "*.example.com" and ".example.com".
// Both wildcard forms also match the bare domain.
func matchDomain(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[2:]
		return host == suffix || strings.HasSuffix(host, "."+suffix)
	}
	if strings.HasPrefix(pattern, ".") {
		return host == pattern[1:] || strings.HasSuffix(host, pattern)
	}
	return false
}

func (sv *SecurityValidator) logSecurityViolation(violationType, target string) {
	log.Warn().
		Str("violation", violationType).
		Str("url", target).
		Msg("Browser navigation blocked")
}

// IsValidSelector rejects empty selectors and ones that try to smuggle script
func IsValidSelector(selector string) bool {
	selector = strings.TrimSpace(selector)
	if selector == "" || len(selector) > 1000 {
		return false
	}
	lower := strings.ToLower(selector)
	return !strings.Contains(lower, "javascript:") && !strings.Contains(lower, "<script")
}
