package config

import "testing"

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefault_DeniesNetworkAccessByDefault(t *testing.T) {
	cfg := Default()
	if cfg.AllowHTTP || cfg.AllowPrivateIPs || cfg.AllowLocalhost || cfg.AllowLinkLocal || cfg.AllowCloudMetadata {
		t.Fatalf("expected zero-trust defaults, got %+v", cfg)
	}
}

func TestDevelopment_RelaxesNetworkRestrictions(t *testing.T) {
	cfg := Development()
	if !cfg.AllowHTTP || !cfg.AllowPrivateIPs || !cfg.AllowLocalhost {
		t.Fatalf("expected relaxed network access, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProduction_KeepsStrictNetworkSecurity(t *testing.T) {
	cfg := Production()
	if cfg.AllowHTTP || cfg.AllowPrivateIPs || cfg.AllowLocalhost || cfg.AllowLinkLocal || cfg.AllowCloudMetadata {
		t.Fatalf("expected strict defaults, got %+v", cfg)
	}
}

func TestTesting_IsFastAndDeterministic(t *testing.T) {
	cfg := Testing()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.AllowHTTP || !cfg.AllowPrivateIPs || !cfg.AllowLocalhost {
		t.Fatalf("expected Testing to allow local webhook targets, got %+v", cfg)
	}
}

func TestValidate_RejectsNegativeFields(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"MaxLiveInstances", func(c *Config) { c.MaxLiveInstances = -1 }, ErrInvalidMaxLiveInstances},
		{"MaxNodePoolSize", func(c *Config) { c.MaxNodePoolSize = -1 }, ErrInvalidMaxNodePoolSize},
		{"PersistTimeout", func(c *Config) { c.PersistTimeout = -1 }, ErrInvalidPersistTimeout},
		{"CompleteTaskTimeout", func(c *Config) { c.CompleteTaskTimeout = -1 }, ErrInvalidCompleteTaskTimeout},
		{"ClearPoolInterval", func(c *Config) { c.ClearPoolInterval = -1 }, ErrInvalidClearPoolInterval},
		{"HTTPTimeout", func(c *Config) { c.HTTPTimeout = -1 }, ErrInvalidHTTPTimeout},
		{"MaxHTTPRedirects", func(c *Config) { c.MaxHTTPRedirects = -1 }, ErrInvalidMaxRedirects},
		{"MaxResponseSize", func(c *Config) { c.MaxResponseSize = -1 }, ErrInvalidMaxResponseSize},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err != tc.wantErr {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestClone_IsIndependentOfOriginal(t *testing.T) {
	cfg := Default()
	cfg.AllowedDomains = []string{"example.com"}

	clone := cfg.Clone()
	clone.AllowedDomains[0] = "mutated.com"
	clone.MaxLiveInstances = 1

	if cfg.AllowedDomains[0] != "example.com" {
		t.Fatalf("expected Clone to deep-copy AllowedDomains, original was mutated: %v", cfg.AllowedDomains)
	}
	if cfg.MaxLiveInstances == clone.MaxLiveInstances {
		t.Fatal("expected Clone to return an independent struct")
	}
}

func TestClone_NilAllowedDomains(t *testing.T) {
	cfg := Default()
	cfg.AllowedDomains = nil
	clone := cfg.Clone()
	if clone.AllowedDomains != nil {
		t.Fatalf("expected nil AllowedDomains to stay nil, got %v", clone.AllowedDomains)
	}
}
