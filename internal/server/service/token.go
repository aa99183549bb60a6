package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/store"
	"github.com/aussiebroadwan/influxmcp/pkg/cryptox"
	"github.com/aussiebroadwan/influxmcp/pkg/httpx"
	"github.com/aussiebroadwan/influxmcp/pkg/slogx"
)

// Token type hints accepted by revocation and reported by introspection.
const (
	TokenTypeHintAccess  = "access_token"
	TokenTypeHintRefresh = "refresh_token"
)

type TokenService struct {
	Store      store.Store
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// RotateRefreshTokens replaces the refresh token on every refresh grant.
	// Off by default: the same refresh token is handed back.
	RotateRefreshTokens bool

	Now func() time.Time
}

// ExchangeCodeRequest carries the authorization_code grant parameters.
// ClientID and RedirectURI are optional and only cross-checked when set.
type ExchangeCodeRequest struct {
	Code         string
	CodeVerifier string
	ClientID     string
	RedirectURI  string
}

// ExchangeAuthorizationCode implements the authorization_code grant.
//
// Expired or already used codes are deleted on sight. Any other rejection
// leaves the code untouched so a failed exchange never consumes it. The
// mark-used, mint and delete steps run in one transaction and the mark is a
// compare-and-set, so concurrent redemptions of one code yield exactly one
// token pair.
func (s *TokenService) ExchangeAuthorizationCode(ctx context.Context, req ExchangeCodeRequest) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := nowOr(s.Now)

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, oauthError(ErrInvalidRequest, "Missing code parameter")
	}
	verifier := strings.TrimSpace(req.CodeVerifier)
	if verifier == "" {
		return nil, oauthError(ErrInvalidRequest, "Missing code_verifier parameter")
	}

	codeHash := cryptox.FingerprintToken(code)

	authCode, err := s.Store.AuthorizationCodes().GetAuthorizationCode(ctx, codeHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, oauthError(ErrInvalidGrant, "Invalid authorization code")
		}
		return nil, err
	}

	if authCode.Expired(now) {
		s.discardCode(ctx, codeHash)
		return nil, oauthError(ErrInvalidGrant, "Authorization code expired")
	}
	if authCode.Used() {
		s.discardCode(ctx, codeHash)
		return nil, oauthError(ErrInvalidGrant, "Authorization code already used")
	}
	if req.ClientID != "" && req.ClientID != authCode.ClientID {
		return nil, oauthError(ErrInvalidGrant, "client_id does not match the authorization code")
	}
	if req.RedirectURI != "" && req.RedirectURI != authCode.RedirectURI {
		return nil, oauthError(ErrInvalidGrant, "redirect_uri does not match the authorization code")
	}
	if !cryptox.VerifyPKCE(verifier, authCode.CodeChallenge, authCode.CodeChallengeMethod) {
		l.Info("authorization_code grant PKCE verification failed", slog.String("client_id", authCode.ClientID))
		return nil, oauthError(ErrInvalidGrant, "Invalid code_verifier")
	}

	var pair *domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.AuthorizationCodes().MarkAuthorizationCodeUsed(ctx, codeHash, now); err != nil {
			if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
				return oauthError(ErrInvalidGrant, "Authorization code already used")
			}
			return err
		}

		refresh, refreshRecord, err := s.mintToken(domain.TokenKindRefresh, authCode.ClientID, authCode.Scopes, "", now)
		if err != nil {
			return err
		}
		access, accessRecord, err := s.mintToken(domain.TokenKindAccess, authCode.ClientID, authCode.Scopes, refreshRecord.TokenHash, now)
		if err != nil {
			return err
		}

		if err := tx.Tokens().CreateToken(ctx, refreshRecord); err != nil {
			return err
		}
		if err := tx.Tokens().CreateToken(ctx, accessRecord); err != nil {
			return err
		}
		if err := tx.AuthorizationCodes().DeleteAuthorizationCode(ctx, codeHash); err != nil {
			return err
		}

		pair = s.tokenPair(access, refresh, authCode.Scopes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Info("authorization code redeemed", slog.String("client_id", authCode.ClientID))
	return pair, nil
}

// ExchangeRefreshToken implements the refresh_token grant. clientID is
// optional and only cross-checked when set.
func (s *TokenService) ExchangeRefreshToken(ctx context.Context, refreshToken, clientID string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := nowOr(s.Now)

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, oauthError(ErrInvalidRequest, "Missing refresh_token parameter")
	}

	refreshHash := cryptox.FingerprintToken(refreshToken)

	record, err := s.Store.Tokens().GetToken(ctx, refreshHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, oauthError(ErrInvalidGrant, "Invalid refresh token")
		}
		return nil, err
	}

	if record.Kind != domain.TokenKindRefresh {
		return nil, oauthError(ErrInvalidGrant, "Invalid refresh token")
	}
	if record.Expired(now) {
		if err := s.Store.Tokens().DeleteToken(ctx, refreshHash); err != nil {
			l.Warn("failed to delete expired refresh token", slog.Any("error", err))
		}
		return nil, oauthError(ErrInvalidGrant, "Refresh token expired")
	}
	if clientID != "" && clientID != record.ClientID {
		return nil, oauthError(ErrInvalidGrant, "client_id does not match the refresh token")
	}

	var pair *domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// Re-read inside the transaction so two concurrent rotations cannot
		// both succeed.
		if _, err := tx.Tokens().GetToken(ctx, refreshHash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return oauthError(ErrInvalidGrant, "Invalid refresh token")
			}
			return err
		}

		nextRefresh, parentHash := refreshToken, refreshHash
		if s.RotateRefreshTokens {
			if err := tx.Tokens().DeleteToken(ctx, refreshHash); err != nil {
				return err
			}

			var rotated domain.Token
			nextRefresh, rotated, err = s.mintToken(domain.TokenKindRefresh, record.ClientID, record.Scopes, "", now)
			if err != nil {
				return err
			}
			if err := tx.Tokens().CreateToken(ctx, rotated); err != nil {
				return err
			}
			parentHash = rotated.TokenHash
		}

		access, accessRecord, err := s.mintToken(domain.TokenKindAccess, record.ClientID, record.Scopes, parentHash, now)
		if err != nil {
			return err
		}
		if err := tx.Tokens().CreateToken(ctx, accessRecord); err != nil {
			return err
		}

		pair = s.tokenPair(access, nextRefresh, record.Scopes)
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Info("refresh token exchanged",
		slog.String("client_id", record.ClientID),
		slog.Bool("rotated", s.RotateRefreshTokens),
	)
	return pair, nil
}

// RevokeToken removes a token of either kind along with the access tokens
// minted from it. Unknown tokens are not an error (RFC 7009 section 2.2).
func (s *TokenService) RevokeToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return oauthError(ErrInvalidRequest, "Missing token parameter")
	}
	if err := s.Store.Tokens().DeleteToken(ctx, cryptox.FingerprintToken(token)); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// Introspection is the RFC 7662 view of a token.
type Introspection struct {
	Active    bool
	ClientID  string
	Scope     string
	TokenType string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IntrospectToken reports whether token is live. Unknown and expired tokens
// are inactive; expired ones are deleted.
func (s *TokenService) IntrospectToken(ctx context.Context, token string) (Introspection, error) {
	record, err := s.lookupLive(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return Introspection{Active: false}, nil
		}
		return Introspection{}, err
	}

	tokenType := TokenTypeHintAccess
	if record.Kind == domain.TokenKindRefresh {
		tokenType = TokenTypeHintRefresh
	}

	return Introspection{
		Active:    true,
		ClientID:  record.ClientID,
		Scope:     domain.JoinScopes(record.Scopes),
		TokenType: tokenType,
		ExpiresAt: record.ExpiresAt,
		IssuedAt:  record.CreatedAt,
	}, nil
}

// VerifyAccessToken resolves a bearer token presented to a protected
// resource. Refresh tokens are rejected.
func (s *TokenService) VerifyAccessToken(ctx context.Context, token string) (httpx.Principal, error) {
	record, err := s.lookupLive(ctx, token)
	if err != nil {
		return httpx.Principal{}, err
	}
	if record.Kind != domain.TokenKindAccess {
		return httpx.Principal{}, oauthError(ErrInvalidToken, "Token is not an access token")
	}
	return httpx.Principal{ClientID: record.ClientID, Scopes: record.Scopes}, nil
}

func (s *TokenService) lookupLive(ctx context.Context, token string) (domain.Token, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Token{}, oauthError(ErrInvalidToken, "Missing token")
	}

	hash := cryptox.FingerprintToken(token)
	record, err := s.Store.Tokens().GetToken(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Token{}, oauthError(ErrInvalidToken, "Unknown token")
		}
		return domain.Token{}, err
	}

	if record.Expired(nowOr(s.Now)) {
		if err := s.Store.Tokens().DeleteToken(ctx, hash); err != nil {
			slogx.FromContext(ctx).Warn("failed to delete expired token", slog.Any("error", err))
		}
		return domain.Token{}, oauthError(ErrInvalidToken, "Token expired")
	}
	return record, nil
}

// mintToken creates an opaque token and the record stored under its fingerprint.
func (s *TokenService) mintToken(kind domain.TokenKind, clientID string, scopes []string, parentHash string, now time.Time) (string, domain.Token, error) {
	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.Token{}, err
	}

	ttl := s.accessTTL()
	if kind == domain.TokenKindRefresh {
		ttl = s.refreshTTL()
	}

	return opaque, domain.Token{
		TokenHash:  cryptox.FingerprintToken(opaque),
		Kind:       kind,
		ClientID:   clientID,
		Scopes:     scopes,
		ParentHash: parentHash,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}, nil
}

func (s *TokenService) tokenPair(access, refresh string, scopes []string) *domain.TokenPair {
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    domain.TokenTypeBearer,
		ExpiresIn:    s.accessTTL(),
		Scope:        domain.JoinScopes(scopes),
	}
}

func (s *TokenService) discardCode(ctx context.Context, codeHash string) {
	if err := s.Store.AuthorizationCodes().DeleteAuthorizationCode(ctx, codeHash); err != nil {
		slogx.FromContext(ctx).Warn("failed to delete rejected authorization code", slog.Any("error", err))
	}
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL <= 0 {
		return time.Hour
	}
	return s.AccessTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.RefreshTTL
}
