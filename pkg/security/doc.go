// Package security provides network-access controls for the webhook task
// plugin's outbound HTTP calls.
//
// # Overview
//
// Task handlers run arbitrary logic against engine-supplied instance
// variables; the webhook task in particular makes outbound HTTP requests
// on the engine's behalf. SSRFProtection enforces a zero-trust default:
// only HTTPS to public addresses is allowed; plain HTTP and private,
// loopback, link-local and cloud-metadata targets are denied unless
// explicitly allowed via config.AllowHTTP, config.AllowPrivateIPs,
// config.AllowLocalhost, and related fields.
//
// # Basic Usage
//
//	protection := security.NewSSRFProtectionFromConfig(cfg)
//
//	if err := protection.ValidateURL(targetURL); err != nil {
//	    return fmt.Errorf("webhook target rejected: %w", err)
//	}
//
// # Thread Safety
//
// SSRFProtection is safe for concurrent use once constructed.
package security
