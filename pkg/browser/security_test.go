package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name     string
		config   SecurityConfig
		url      string
		wantCode string
	}{
		{name: "https allowed", url: "https://www.google.com/search?q=neuro+san"},
		{name: "http allowed", url: "http://example.com"},
		{name: "relative rejected", url: "/search", wantCode: ErrCodeValidation},
		{name: "javascript scheme rejected", url: "javascript:alert(1)", wantCode: ErrCodeSecurity},
		{name: "file blocked by default", url: "file:///etc/passwd", wantCode: ErrCodeSecurity},
		{
			name:   "file allowed when enabled",
			config: SecurityConfig{AllowFileUrls: true},
			url:    "file:///tmp/test.html",
		},
		{name: "localhost blocked", url: "http://localhost:8080", wantCode: ErrCodeSecurity},
		{name: "loopback blocked", url: "http://127.0.0.1:3000/", wantCode: ErrCodeSecurity},
		{
			name:   "localhost allowed when enabled",
			config: SecurityConfig{AllowLocalhostUrls: true},
			url:    "http://localhost:8080",
		},
		{
			name:   "allowed domain wildcard",
			config: SecurityConfig{AllowedDomains: []string{"*.example.com"}},
			url:    "https://docs.example.com/page",
		},
		{
			name:   "wildcard matches bare domain",
			config: SecurityConfig{AllowedDomains: []string{"*.example.com"}},
			url:    "https://example.com",
		},
		{
			name:     "outside allowed list",
			config:   SecurityConfig{AllowedDomains: []string{"example.com"}},
			url:      "https://evil.com",
			wantCode: ErrCodeSecurity,
		},
		{
			name:     "blocked subdomain",
			config:   SecurityConfig{BlockedDomains: []string{".ads.net"}},
			url:      "https://tracker.ads.net/pixel",
			wantCode: ErrCodeSecurity,
		},
		{
			name:     "blocked domain is case insensitive",
			config:   SecurityConfig{BlockedDomains: []string{"Evil.com"}},
			url:      "https://EVIL.com/",
			wantCode: ErrCodeSecurity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSecurityValidator(tt.config).ValidateURL(tt.url)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var browserErr *Error
			require.ErrorAs(t, err, &browserErr)
			assert.Equal(t, tt.wantCode, browserErr.Code)
		})
	}
}

func TestIsValidSelector(t *testing.T) {
	assert.True(t, IsValidSelector("textarea[name=q]"))
	assert.True(t, IsValidSelector("#search h3"))
	assert.False(t, IsValidSelector(""))
	assert.False(t, IsValidSelector("   "))
	assert.False(t, IsValidSelector("a[href='javascript:void(0)']"))
	assert.False(t, IsValidSelector("<script>alert(1)</script>"))
}
