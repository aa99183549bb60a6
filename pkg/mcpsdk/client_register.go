package mcpsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Register creates a client through dynamic client registration (RFC 7591).
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	resp, err := c.postJSON(ctx, PathRegister, req, nil)
	if err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetClient reads a registration back using its registration access token
// (RFC 7592).
func (c *SDKClient) GetClient(ctx context.Context, clientID, registrationAccessToken string) (*ClientInformation, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathClients+url.PathEscape(clientID), nil, map[string]string{
		"Authorization": "Bearer " + registrationAccessToken,
	})
	if err != nil {
		return nil, err
	}

	var out ClientInformation
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
