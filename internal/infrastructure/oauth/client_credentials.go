package oauth

import (
	"context"
	"net/http"

	"movement-hold-service/pkg/logger"

	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentials handles service-to-service OAuth for the hold action API
type ClientCredentials struct {
	config *clientcredentials.Config
	logger logger.Logger
}

// NewClientCredentials creates a client credentials handler. It returns nil when no
// client id is configured, meaning calls go out unauthenticated.
func NewClientCredentials(clientID, clientSecret, tokenURL string, scopes []string, logger logger.Logger) *ClientCredentials {
	if clientID == "" {
		return nil
	}

	return &ClientCredentials{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		},
		logger: logger,
	}
}

// HTTPClient returns a client that attaches and refreshes bearer tokens. A nil
// receiver yields a plain client.
func (c *ClientCredentials) HTTPClient(ctx context.Context) *http.Client {
	if c == nil {
		return &http.Client{}
	}
	c.logger.Info("Using client credentials for hold action API", "tokenURL", c.config.TokenURL)
	return c.config.Client(ctx)
}
