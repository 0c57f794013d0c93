package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyGatewayFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks applies API key fallbacks from environment variables
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("RESUMEFORGE_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = strings.Split(apiKeysEnv, ",")
			// Trim whitespace from each key
			for i, key := range c.Server.APIKeys {
				c.Server.APIKeys[i] = strings.TrimSpace(key)
			}
		}
	}
}

// applyGatewayFallbacks normalizes gateway backend selection
func (c *Config) applyGatewayFallbacks() {
	c.AI.Primary = strings.ToLower(strings.TrimSpace(c.AI.Primary))
	c.AI.Fallback = strings.ToLower(strings.TrimSpace(c.AI.Fallback))

	// Failover requires a distinct, configured fallback backend. Disable it
	// rather than fail startup when the fallback has no API key.
	if c.AI.Fallback == "" || c.AI.Fallback == c.AI.Primary {
		c.AI.FailoverEnabled = false
		return
	}
	if c.AI.FailoverEnabled && c.FallbackAPIKey() == "" {
		log.Printf("[CONFIG] Fallback backend %q has no API key configured, disabling failover", c.AI.Fallback)
		c.AI.FailoverEnabled = false
	}
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	c.Server.TLS.Mode = strings.ToLower(strings.TrimSpace(c.Server.TLS.Mode))
	if c.Server.TLS.Mode == "" {
		c.Server.TLS.Mode = TLSModeDisabled
	}

	// Set default TLS version if not specified
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != TLSModeDisabled {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	// Try to get hostname, fallback to default
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	// Log config file source
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	// Log environment variables that are set
	envVars := []string{
		"RESUMEFORGE_AI_PRIMARY",
		"RESUMEFORGE_AI_FALLBACK",
		"RESUMEFORGE_AI_GEMINI_APIKEY",
		"RESUMEFORGE_AI_OPENAI_APIKEY",
		"RESUMEFORGE_CACHE_BACKEND",
		"RESUMEFORGE_STORE_BACKEND",
		"RESUMEFORGE_SERVER_PORT",
		"RESUMEFORGE_SERVER_HOST",
		"RESUMEFORGE_APP_LOGLEVEL",
		"RESUMEFORGE_VAULT_ENABLED",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			// Mask sensitive values
			if strings.Contains(strings.ToLower(envVar), "apikey") || strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	// Log key configuration values (with sensitive data masked)
	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Primary: %s (model: %s)", c.AI.Primary, c.backendModel(c.AI.Primary))
	if c.AI.FailoverEnabled {
		log.Printf("[CONFIG] AI Fallback: %s (model: %s)", c.AI.Fallback, c.backendModel(c.AI.Fallback))
	} else {
		log.Println("[CONFIG] AI Fallback: disabled")
	}
	if c.PrimaryAPIKey() != "" {
		log.Println("[CONFIG] Primary API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] Primary API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Cache Backend: %s", c.Cache.Backend)
	log.Printf("[CONFIG] Store Backend: %s", c.Store.Backend)
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] =====================================")
}

// backendModel returns the generation model configured for a backend
func (c *Config) backendModel(backend string) string {
	switch backend {
	case "gemini":
		return c.AI.Gemini.Model
	case "openai":
		return c.AI.OpenAI.Model
	}
	return ""
}
