package mcpsdk

import (
	"context"
	"net/http"
)

// GetStatus fetches the /health document.
func (c *SDKClient) GetStatus(ctx context.Context) (*StatusResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathHealth, nil, nil)
	if err != nil {
		return nil, err
	}

	var status StatusResponse
	if err := decodeJSON(resp, &status, http.StatusOK); err != nil {
		return nil, err
	}

	return &status, nil
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathLivez, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}

	return &health, nil
}

// GetReadiness checks if the service is ready.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathReadyz, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}

	return &health, nil
}

// GetAuthorizationServerMetadata fetches the RFC 8414 discovery document.
func (c *SDKClient) GetAuthorizationServerMetadata(ctx context.Context) (*AuthorizationServerMetadata, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathAuthServerMetadata, nil, nil)
	if err != nil {
		return nil, err
	}

	var md AuthorizationServerMetadata
	if err := decodeJSON(resp, &md, http.StatusOK); err != nil {
		return nil, err
	}

	return &md, nil
}
