package zoho

import (
	"errors"
	"time"
)

// Config holds configuration for the Zoho Inventory API integration.
type Config struct {
	// ClientID is the OAuth client id from the Zoho API console.
	ClientID string
	// ClientSecret is the OAuth client secret.
	ClientSecret string
	// RefreshToken is the long-lived grant used to mint access tokens.
	RefreshToken string
	// OrganizationID scopes every inventory call to one Zoho organization.
	OrganizationID string
	// AuthBaseURL is the accounts endpoint for the token exchange.
	AuthBaseURL string
	// APIBaseURL is the inventory API endpoint.
	APIBaseURL string
	// RequestsPerMinute is the remote's published rate ceiling. The client
	// paces all outbound calls to stay under it.
	RequestsPerMinute int
	// MaxRetries bounds retry attempts for transient and throttled calls.
	MaxRetries int
	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int
}

const (
	// DefaultAuthBaseURL is the production accounts endpoint.
	DefaultAuthBaseURL = "https://accounts.zoho.com/oauth/v2"
	// DefaultAPIBaseURL is the production inventory endpoint.
	DefaultAPIBaseURL = "https://www.zohoapis.com/inventory/v1"
	// defaultRequestsPerMinute stays under Zoho's 100 calls/min org limit.
	defaultRequestsPerMinute = 80
	// tokenExpirySkew refreshes the access token this long before it
	// actually expires.
	tokenExpirySkew = 60 * time.Second
)

// Errors for Zoho configuration.
var (
	ErrConfigMissingClientID     = errors.New("zoho: client id is required")
	ErrConfigMissingClientSecret = errors.New("zoho: client secret is required")
	ErrConfigMissingRefreshToken = errors.New("zoho: refresh token is required")
	ErrConfigMissingOrgID        = errors.New("zoho: organization id is required")
)

// NewConfig creates a Zoho configuration with production defaults.
func NewConfig(clientID, clientSecret, refreshToken, organizationID string) *Config {
	return &Config{
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		RefreshToken:      refreshToken,
		OrganizationID:    organizationID,
		AuthBaseURL:       DefaultAuthBaseURL,
		APIBaseURL:        DefaultAPIBaseURL,
		RequestsPerMinute: defaultRequestsPerMinute,
		MaxRetries:        5,
		TimeoutSeconds:    30,
	}
}

// Validate validates the Zoho configuration.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if c.RefreshToken == "" {
		return ErrConfigMissingRefreshToken
	}
	if c.OrganizationID == "" {
		return ErrConfigMissingOrgID
	}
	return nil
}

// withDefaults fills zero-valued tunables.
func (c *Config) withDefaults() *Config {
	out := *c
	if out.AuthBaseURL == "" {
		out.AuthBaseURL = DefaultAuthBaseURL
	}
	if out.APIBaseURL == "" {
		out.APIBaseURL = DefaultAPIBaseURL
	}
	if out.RequestsPerMinute <= 0 {
		out.RequestsPerMinute = defaultRequestsPerMinute
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = 5
	}
	if out.TimeoutSeconds <= 0 {
		out.TimeoutSeconds = 30
	}
	return &out
}
