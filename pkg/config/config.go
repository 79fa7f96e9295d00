package config

import "time"

// Config holds process engine configuration. All configuration options are
// centralized here for easy management and validation.
type Config struct {
	// Instance pool limits
	MaxLiveInstances int // Maximum number of instances held in the engine's live pool (0 = unlimited)
	MaxNodePoolSize  int // Maximum number of node entities tracked per instance (0 = unlimited)

	// Timeouts
	PersistTimeout      time.Duration // Maximum time allowed for a single persistence round trip
	CompleteTaskTimeout time.Duration // Maximum time allowed for CompleteTask to run end-to-end
	ClearPoolInterval   time.Duration // How often the engine sweeps terminal instances from the live pool

	// Webhook task plugin HTTP settings
	HTTPTimeout      time.Duration // Timeout for outbound webhook task requests
	MaxHTTPRedirects int           // Maximum number of HTTP redirects to follow
	MaxResponseSize  int64         // Maximum size of an HTTP response body (bytes)

	// Zero Trust Security - Network Access Control for the webhook task.
	// By default only HTTPS to public addresses is allowed.
	AllowHTTP          bool     // Explicitly allow plain HTTP (default: false, HTTPS only)
	AllowedDomains     []string // Whitelist of allowed domains (empty = no domain restriction)
	AllowPrivateIPs    bool     // Allow private IP ranges (10.x, 172.16.x, 192.168.x)
	AllowLocalhost     bool     // Allow localhost and loopback addresses
	AllowLinkLocal     bool     // Allow link-local addresses (169.254.x.x)
	AllowCloudMetadata bool     // Allow cloud metadata endpoints (169.254.169.254, etc.)
}

// Default returns a Config with secure, production-ready default values.
func Default() *Config {
	return &Config{
		MaxLiveInstances: 10000,
		MaxNodePoolSize:  1000,

		PersistTimeout:      5 * time.Second,
		CompleteTaskTimeout: 30 * time.Second,
		ClearPoolInterval:   1 * time.Minute,

		HTTPTimeout:      30 * time.Second,
		MaxHTTPRedirects: 10,
		MaxResponseSize:  10 * 1024 * 1024, // 10MB

		AllowHTTP:          false,
		AllowedDomains:     nil,
		AllowPrivateIPs:    false,
		AllowLocalhost:     false,
		AllowLinkLocal:     false,
		AllowCloudMetadata: false,
	}
}

// Development returns a Config optimized for development with relaxed
// network restrictions.
func Development() *Config {
	cfg := Default()
	cfg.AllowHTTP = true
	cfg.AllowPrivateIPs = true
	cfg.AllowLocalhost = true
	cfg.ClearPoolInterval = 10 * time.Second
	return cfg
}

// Production returns a Config optimized for production with strict
// network security.
func Production() *Config {
	cfg := Default()
	cfg.AllowHTTP = false
	cfg.AllowPrivateIPs = false
	cfg.AllowLocalhost = false
	cfg.AllowLinkLocal = false
	cfg.AllowCloudMetadata = false
	return cfg
}

// Testing returns a Config tuned for fast, deterministic tests.
func Testing() *Config {
	cfg := Default()
	cfg.AllowHTTP = true
	cfg.AllowPrivateIPs = true
	cfg.AllowLocalhost = true
	cfg.HTTPTimeout = 2 * time.Second
	cfg.PersistTimeout = 1 * time.Second
	cfg.CompleteTaskTimeout = 2 * time.Second
	cfg.ClearPoolInterval = 1 * time.Second
	return cfg
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.MaxLiveInstances < 0 {
		return ErrInvalidMaxLiveInstances
	}
	if c.MaxNodePoolSize < 0 {
		return ErrInvalidMaxNodePoolSize
	}
	if c.PersistTimeout < 0 {
		return ErrInvalidPersistTimeout
	}
	if c.CompleteTaskTimeout < 0 {
		return ErrInvalidCompleteTaskTimeout
	}
	if c.ClearPoolInterval < 0 {
		return ErrInvalidClearPoolInterval
	}
	if c.HTTPTimeout < 0 {
		return ErrInvalidHTTPTimeout
	}
	if c.MaxHTTPRedirects < 0 {
		return ErrInvalidMaxRedirects
	}
	if c.MaxResponseSize < 0 {
		return ErrInvalidMaxResponseSize
	}
	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.AllowedDomains != nil {
		clone.AllowedDomains = make([]string, len(c.AllowedDomains))
		copy(clone.AllowedDomains, c.AllowedDomains)
	}
	return &clone
}
