// Package security provides security utilities for the process engine,
// chiefly SSRF protection for the webhook task plugin's outbound calls.
//
// SSRFConfig deliberately mirrors config.Config's webhook network-access
// fields field-for-field (allow-sense booleans plus a domain allowlist)
// rather than carrying the teacher's fuller block-sense/blocklist surface
// (BlockedDomains, a freestanding AllowedSchemes list): stepflow's only
// caller is pkg/tasklib's webhook task, which only ever has a *config.Config
// to translate, so this package exposes exactly the fields
// NewSSRFProtectionFromConfig needs and no more.
package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/yesoreyeram/stepflow/pkg/config"
)

// SSRFProtection validates outbound webhook URLs against the engine's
// network access policy before the webhook task plugin is allowed to
// dial them.
type SSRFProtection struct {
	allowedSchemes     map[string]bool
	blockPrivateIPs    bool
	blockLocalhost     bool
	blockLinkLocal     bool
	blockCloudMetadata bool
	allowedDomains     map[string]bool
}

// SSRFConfig configures SSRF protection. Each field has the same name and
// allow-sense polarity as the matching field on config.Config, so a caller
// holding a *config.Config never has to invert a boolean to build one.
type SSRFConfig struct {
	// AllowHTTP permits plain http:// targets; when false only https:// is
	// accepted.
	AllowHTTP bool

	// AllowPrivateIPs permits RFC 1918 ranges (10.0.0.0/8, 172.16.0.0/12,
	// 192.168.0.0/16) and the IPv6 ULA range (fc00::/7).
	AllowPrivateIPs bool

	// AllowLocalhost permits loopback and all-interfaces addresses.
	AllowLocalhost bool

	// AllowLinkLocal permits link-local addresses (169.254.0.0/16, fe80::/10).
	AllowLinkLocal bool

	// AllowCloudMetadata permits cloud metadata endpoints
	// (169.254.169.254, fd00:ec2::254, and known metadata hostnames).
	AllowCloudMetadata bool

	// AllowedDomains, if non-empty, restricts targets to this hostname
	// allowlist regardless of the IP-range settings above.
	AllowedDomains []string
}

// DefaultSSRFConfig returns the zero-trust configuration: HTTPS only, every
// private/loopback/link-local/metadata range blocked, no domain allowlist.
func DefaultSSRFConfig() SSRFConfig {
	return SSRFConfig{}
}

// FromConfig translates cfg's webhook network-access fields into an
// SSRFConfig, one field at a time with no polarity inversion.
func FromConfig(cfg *config.Config) SSRFConfig {
	return SSRFConfig{
		AllowHTTP:          cfg.AllowHTTP,
		AllowPrivateIPs:    cfg.AllowPrivateIPs,
		AllowLocalhost:     cfg.AllowLocalhost,
		AllowLinkLocal:     cfg.AllowLinkLocal,
		AllowCloudMetadata: cfg.AllowCloudMetadata,
		AllowedDomains:     cfg.AllowedDomains,
	}
}

// NewSSRFProtection creates an SSRF protection instance with the zero-trust
// default configuration.
func NewSSRFProtection() *SSRFProtection {
	return NewSSRFProtectionWithConfig(DefaultSSRFConfig())
}

// NewSSRFProtectionFromConfig builds an SSRFProtection directly from a
// *config.Config, the one translation step the webhook task plugin needs.
func NewSSRFProtectionFromConfig(cfg *config.Config) *SSRFProtection {
	return NewSSRFProtectionWithConfig(FromConfig(cfg))
}

// NewSSRFProtectionWithConfig creates a new SSRF protection instance with custom config
func NewSSRFProtectionWithConfig(cfg SSRFConfig) *SSRFProtection {
	p := &SSRFProtection{
		allowedSchemes:     make(map[string]bool),
		blockPrivateIPs:    !cfg.AllowPrivateIPs,
		blockLocalhost:     !cfg.AllowLocalhost,
		blockLinkLocal:     !cfg.AllowLinkLocal,
		blockCloudMetadata: !cfg.AllowCloudMetadata,
		allowedDomains:     make(map[string]bool),
	}

	p.allowedSchemes["https"] = true
	if cfg.AllowHTTP {
		p.allowedSchemes["http"] = true
	}

	for _, domain := range cfg.AllowedDomains {
		p.allowedDomains[strings.ToLower(domain)] = true
	}

	return p
}

// ValidateURL validates a URL for SSRF protection
func (p *SSRFProtection) ValidateURL(urlStr string) error {
	// Parse URL
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Check scheme
	if !p.allowedSchemes[strings.ToLower(parsedURL.Scheme)] {
		return fmt.Errorf("URL scheme not allowed: %s (allowed: %v)", parsedURL.Scheme, p.getAllowedSchemesList())
	}

	// Get hostname
	hostname := parsedURL.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL missing hostname")
	}

	// Check domain whitelist (if configured)
	if len(p.allowedDomains) > 0 && !p.allowedDomains[strings.ToLower(hostname)] {
		return fmt.Errorf("domain not in allowlist: %s", hostname)
	}

	// Try to parse as IP first
	ip := net.ParseIP(hostname)
	if ip != nil {
		// Hostname is an IP address
		if err := p.validateIP(ip); err != nil {
			return fmt.Errorf("IP validation failed for %s: %w", hostname, err)
		}
		return nil
	}

	// Check hostname-based validation first
	if err := p.validateHostname(hostname); err != nil {
		return err
	}

	// Try to resolve hostname to IP
	ips, err := net.LookupIP(hostname)
	if err != nil {
		// If we can't resolve, hostname validation already passed
		return nil
	}

	// Check each resolved IP
	for _, ip := range ips {
		if err := p.validateIP(ip); err != nil {
			return fmt.Errorf("IP validation failed for %s (%s): %w", hostname, ip, err)
		}
	}

	return nil
}

// validateIP validates an IP address
func (p *SSRFProtection) validateIP(ip net.IP) error {
	// Check localhost
	if p.blockLocalhost && isLocalhost(ip) {
		return fmt.Errorf("localhost addresses are blocked")
	}

	// Check private IPs
	if p.blockPrivateIPs && isPrivateIP(ip) {
		return fmt.Errorf("private IP addresses are blocked")
	}

	// Check link-local
	if p.blockLinkLocal && isLinkLocal(ip) {
		return fmt.Errorf("link-local addresses are blocked")
	}

	// Check cloud metadata
	if p.blockCloudMetadata && isCloudMetadata(ip) {
		return fmt.Errorf("cloud metadata endpoints are blocked")
	}

	return nil
}

// validateHostname validates a non-IP hostname by name, before it is resolved
func (p *SSRFProtection) validateHostname(hostname string) error {
	hostname = strings.ToLower(hostname)

	// Check for localhost variations
	if p.blockLocalhost {
		localhostNames := []string{"localhost", "127.0.0.1", "::1", "0.0.0.0"}
		for _, localName := range localhostNames {
			if hostname == localName {
				return fmt.Errorf("localhost addresses are blocked")
			}
		}
	}

	// Check for cloud metadata hostnames
	if p.blockCloudMetadata {
		metadataHosts := []string{
			"169.254.169.254",
			"metadata.google.internal",
			"metadata.azure.com",
		}
		for _, metadataHost := range metadataHosts {
			if hostname == metadataHost {
				return fmt.Errorf("cloud metadata endpoints are blocked")
			}
		}
	}

	return nil
}

// getAllowedSchemesList returns list of allowed schemes for error messages
func (p *SSRFProtection) getAllowedSchemesList() []string {
	schemes := make([]string, 0, len(p.allowedSchemes))
	for scheme := range p.allowedSchemes {
		schemes = append(schemes, scheme)
	}
	return schemes
}

// isLocalhost checks if IP is localhost/loopback
func isLocalhost(ip net.IP) bool {
	if ip.IsLoopback() {
		return true
	}

	// Also check for 0.0.0.0 (all interfaces - often treated as localhost)
	if ipv4 := ip.To4(); ipv4 != nil {
		if ipv4[0] == 0 && ipv4[1] == 0 && ipv4[2] == 0 && ipv4[3] == 0 {
			return true
		}
	}

	return false
}

// isPrivateIP checks if IP is in private ranges
func isPrivateIP(ip net.IP) bool {
	// Convert to 4-byte representation if IPv4
	if ipv4 := ip.To4(); ipv4 != nil {
		// 10.0.0.0/8
		if ipv4[0] == 10 {
			return true
		}
		// 172.16.0.0/12
		if ipv4[0] == 172 && ipv4[1] >= 16 && ipv4[1] <= 31 {
			return true
		}
		// 192.168.0.0/16
		if ipv4[0] == 192 && ipv4[1] == 168 {
			return true
		}
		return false
	}

	// Check for IPv6 private ranges (ULA: fc00::/7)
	if len(ip) == 16 && (ip[0]&0xfe) == 0xfc {
		return true
	}

	return false
}

// isLinkLocal checks if IP is link-local
func isLinkLocal(ip net.IP) bool {
	// Convert to 4-byte representation if IPv4
	if ipv4 := ip.To4(); ipv4 != nil {
		// IPv4 link-local: 169.254.0.0/16
		if ipv4[0] == 169 && ipv4[1] == 254 {
			return true
		}
		return false
	}

	// IPv6 link-local: fe80::/10
	if len(ip) == 16 && ip[0] == 0xfe && (ip[1]&0xc0) == 0x80 {
		return true
	}

	return ip.IsLinkLocalUnicast()
}

// isCloudMetadata checks if IP is a cloud metadata endpoint
func isCloudMetadata(ip net.IP) bool {
	// Convert to 4-byte representation if IPv4
	if ipv4 := ip.To4(); ipv4 != nil {
		// AWS, GCP, Azure metadata: 169.254.169.254
		if ipv4[0] == 169 && ipv4[1] == 254 && ipv4[2] == 169 && ipv4[3] == 254 {
			return true
		}
		return false
	}

	// AWS IMDSv2 (IPv6): fd00:ec2::254
	if len(ip) == 16 {
		if ip[0] == 0xfd && ip[1] == 0x00 && ip[2] == 0x0e && ip[3] == 0xc2 {
			// Check if it ends with ::254
			isZeros := true
			for i := 4; i < 14; i++ {
				if ip[i] != 0 {
					isZeros = false
					break
				}
			}
			if isZeros && ip[14] == 0x02 && ip[15] == 0x54 {
				return true
			}
		}
	}

	return false
}
