package sqlite

import (
	"context"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
)

type clientsRepo struct {
	q querier
}

const clientColumns = `id, name, secret_hash, registration_token_hash, redirect_uris, grant_types,
	response_types, scopes, token_endpoint_auth_method, contacts, logo_uri, client_uri,
	policy_uri, tos_uri, software_id, software_version, auto_registered, created_at`

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Name,
		c.SecretHash,
		c.RegistrationTokenHash,
		encodeList(c.RedirectURIs),
		joinFields(c.GrantTypes),
		joinFields(c.ResponseTypes),
		joinFields(c.Scopes),
		c.TokenEndpointAuthMethod,
		encodeList(c.Contacts),
		c.LogoURI,
		c.ClientURI,
		c.PolicyURI,
		c.TosURI,
		c.SoftwareID,
		c.SoftwareVersion,
		c.AutoRegistered,
		toMillis(c.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *clientsRepo) GetClient(ctx context.Context, id string) (domain.Client, error) {
	var (
		c                                              domain.Client
		redirectURIs, grantTypes, responseTypes, scope string
		contacts                                       string
		createdAt                                      int64
	)

	err := r.q.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id).Scan(
		&c.ID,
		&c.Name,
		&c.SecretHash,
		&c.RegistrationTokenHash,
		&redirectURIs,
		&grantTypes,
		&responseTypes,
		&scope,
		&c.TokenEndpointAuthMethod,
		&contacts,
		&c.LogoURI,
		&c.ClientURI,
		&c.PolicyURI,
		&c.TosURI,
		&c.SoftwareID,
		&c.SoftwareVersion,
		&c.AutoRegistered,
		&createdAt,
	)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}

	c.RedirectURIs = decodeList(redirectURIs)
	c.GrantTypes = splitAndFilter(grantTypes)
	c.ResponseTypes = splitAndFilter(responseTypes)
	c.Scopes = splitAndFilter(scope)
	c.Contacts = decodeList(contacts)
	c.CreatedAt = fromMillis(createdAt)
	return c, nil
}
