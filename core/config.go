package core

import (
	"fmt"
	"strings"
)

// Config carries the authorization-server and host-application identity used
// to drive a flow. BundleID is deliberately not validated here: a missing app
// identity is reported as a request failure when a flow starts, not at
// construction time.
type Config struct {
	ClientID          string `koanf:"client_id" mapstructure:"client_id"`
	Domain            string `koanf:"domain" mapstructure:"domain"`
	BundleID          string `koanf:"bundle_id" mapstructure:"bundle_id"`
	UniversalLink     bool   `koanf:"universal_link" mapstructure:"universal_link"`
	AuthorizeEndpoint string `koanf:"authorize_endpoint" mapstructure:"authorize_endpoint"`
	TokenEndpoint     string `koanf:"token_endpoint" mapstructure:"token_endpoint"`
}

func DefaultConfig() Config {
	return Config{
		AuthorizeEndpoint: "/authorize",
		TokenEndpoint:     "/oauth/token",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("core: client_id is required")
	}
	if strings.TrimSpace(c.Domain) == "" {
		return fmt.Errorf("core: domain is required")
	}
	return nil
}

// IssuerURL normalizes Domain into an absolute https base URL.
func (c Config) IssuerURL() string {
	domain := strings.TrimSpace(c.Domain)
	if domain == "" {
		return ""
	}
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	return strings.TrimSuffix(domain, "/")
}

func (c Config) AuthorizeURL() string {
	return c.IssuerURL() + normalizeEndpoint(c.AuthorizeEndpoint, "/authorize")
}

func (c Config) TokenURL() string {
	return c.IssuerURL() + normalizeEndpoint(c.TokenEndpoint, "/oauth/token")
}

// CallbackURL computes the redirect URI registered with the authorization
// server: {scheme}://{domain}/ios/{bundle_id}/callback, where scheme is the
// app bundle identifier, or https in universal-link mode.
func (c Config) CallbackURL() (string, error) {
	bundleID := strings.TrimSpace(c.BundleID)
	if bundleID == "" {
		return "", fmt.Errorf("core: bundle identifier could not be determined")
	}
	host := c.domainHost()
	if host == "" {
		return "", fmt.Errorf("core: domain is required")
	}
	scheme := bundleID
	if c.UniversalLink {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/ios/%s/callback", scheme, host, bundleID), nil
}

func (c Config) domainHost() string {
	domain := strings.TrimSpace(c.Domain)
	if index := strings.Index(domain, "://"); index >= 0 {
		domain = domain[index+3:]
	}
	return strings.TrimSuffix(domain, "/")
}

func normalizeEndpoint(endpoint, fallback string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = fallback
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return endpoint
}
