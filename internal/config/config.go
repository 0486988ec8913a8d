package config

import (
	"fmt"
	"net"
	"strings"

	env "github.com/netflix/go-env"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/types"
)

// Type alias for Config
type Config = types.Config

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	// Parse AllowedIPs from comma-separated string
	if config.AllowedIPsStr != "" {
		parts := strings.Split(config.AllowedIPsStr, ",")
		config.AllowedIPs = make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				config.AllowedIPs = append(config.AllowedIPs, trimmed)
			}
		}
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values and adjusts them to safe ranges.
func validateConfig(config *Config) error {
	if strings.TrimSpace(config.ExaAPIKey) == "" {
		return fmt.Errorf("EXA_API_KEY cannot be empty")
	}

	if !strings.HasPrefix(config.ExaBaseURL, "http://") && !strings.HasPrefix(config.ExaBaseURL, "https://") {
		return fmt.Errorf("EXA_BASE_URL must include scheme (http:// or https://)")
	}

	if config.ExaTimeout <= 0 {
		return fmt.Errorf("EXA_TIMEOUT must be greater than 0")
	}

	if config.ExaRateLimit <= 0 {
		return fmt.Errorf("EXA_RATE_LIMIT must be greater than 0")
	}
	if config.ExaRateLimit > 100 {
		return fmt.Errorf("EXA_RATE_LIMIT cannot exceed 100 requests/second")
	}
	if config.ExaRateBurst <= 0 {
		return fmt.Errorf("EXA_RATE_BURST must be greater than 0")
	}

	// Clamp the cache size to a safe range rather than rejecting it.
	if config.CacheSize < 1 {
		config.CacheSize = 1
	}
	if config.CacheSize > 1000 {
		config.CacheSize = 1000
	}

	if err := validateServerConfig(config); err != nil {
		return fmt.Errorf("server configuration validation failed: %w", err)
	}

	return nil
}

// validateServerConfig validates the HTTP transport configuration.
func validateServerConfig(config *Config) error {
	if config.ServerHost == "" {
		return fmt.Errorf("MCP_SERVER_HOST cannot be empty")
	}

	if net.ParseIP(config.ServerHost) == nil && config.ServerHost != "localhost" && !isValidHostname(config.ServerHost) {
		return fmt.Errorf("MCP_SERVER_HOST must be a valid IP address or hostname: %s", config.ServerHost)
	}

	if config.ServerPort < 1 || config.ServerPort > 65535 {
		return fmt.Errorf("MCP_SERVER_PORT must be between 1 and 65535")
	}

	if config.ServerReadTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_READ_TIMEOUT must be greater than 0")
	}
	if config.ServerWriteTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if config.ServerIdleTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_IDLE_TIMEOUT must be greater than 0")
	}
	if config.ServerShutdownTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}

	if config.ServerMaxHeaderBytes <= 0 {
		return fmt.Errorf("MCP_SERVER_MAX_HEADER_BYTES must be greater than 0")
	}
	if config.ServerMaxHeaderBytes > 10<<20 { // 10MB limit
		return fmt.Errorf("MCP_SERVER_MAX_HEADER_BYTES cannot exceed 10MB")
	}

	if config.IPAuthEnabled {
		if len(config.AllowedIPs) == 0 {
			return fmt.Errorf("MCP_ALLOWED_IPS cannot be empty when IP authentication is enabled")
		}
		for i, entry := range config.AllowedIPs {
			if net.ParseIP(entry) != nil {
				continue
			}
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return fmt.Errorf("invalid IP address or CIDR in MCP_ALLOWED_IPS at index %d: %s", i, entry)
			}
		}
	}

	return nil
}

// isValidHostname checks if a string is a valid hostname.
func isValidHostname(hostname string) bool {
	if len(hostname) == 0 || len(hostname) > 253 {
		return false
	}

	for _, char := range hostname {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') || char == '-' || char == '.') {
			return false
		}
	}

	if strings.HasPrefix(hostname, "-") || strings.HasSuffix(hostname, "-") {
		return false
	}

	return true
}
