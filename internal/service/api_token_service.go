package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/saham-app/saham-backend/internal/domain"
)

const (
	// tokenPrefix is the prefix for all API tokens
	tokenPrefix = "shm_"
	// tokenRandomBytes is the number of random bytes for the token
	tokenRandomBytes = 32
	// tokenPrefixLength is the length of the displayable prefix
	tokenPrefixLength = 8
	// maxTokensPerWorkspace caps active tokens per workspace
	maxTokensPerWorkspace = 10
)

// APITokenService handles API token business logic
type APITokenService struct {
	repo domain.APITokenRepository
}

// NewAPITokenService creates a new APITokenService
func NewAPITokenService(repo domain.APITokenRepository) *APITokenService {
	return &APITokenService{repo: repo}
}

// CreatedAPIToken carries the full token for one-time display
type CreatedAPIToken struct {
	Token   *domain.APIToken
	Full    string
	Warning string
}

// Create creates a new API token and returns the full token (shown only once)
func (s *APITokenService) Create(ctx context.Context, userID uuid.UUID, workspaceID int32, description string) (*CreatedAPIToken, error) {
	existing, err := s.repo.GetByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= maxTokensPerWorkspace {
		return nil, domain.ErrTooManyAPITokens
	}

	rawToken, err := generateSecureToken()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate secure token")
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	fullToken := tokenPrefix + rawToken
	token := &domain.APIToken{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Description: description,
		TokenHash:   hashToken(fullToken),
		TokenPrefix: tokenPrefix + rawToken[:tokenPrefixLength] + "...",
	}

	if err := s.repo.Create(ctx, token); err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create API token")
		return nil, err
	}

	log.Info().
		Str("token_id", token.ID.String()).
		Int32("workspace_id", workspaceID).
		Msg("API token created")

	return &CreatedAPIToken{
		Token:   token,
		Full:    fullToken,
		Warning: "Make sure to copy your API token now. You won't be able to see it again!",
	}, nil
}

// GetByWorkspace retrieves all active API tokens for a workspace
func (s *APITokenService) GetByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.APIToken, error) {
	return s.repo.GetByWorkspace(ctx, workspaceID)
}

// Revoke revokes an API token
func (s *APITokenService) Revoke(ctx context.Context, workspaceID int32, tokenID uuid.UUID) error {
	if err := s.repo.Revoke(ctx, workspaceID, tokenID); err != nil {
		log.Error().Err(err).
			Int32("workspace_id", workspaceID).
			Str("token_id", tokenID.String()).
			Msg("Failed to revoke API token")
		return err
	}
	log.Info().Int32("workspace_id", workspaceID).Str("token_id", tokenID.String()).Msg("API token revoked")
	return nil
}

// ValidateToken validates an API token and returns the stored record
func (s *APITokenService) ValidateToken(ctx context.Context, token string) (*domain.APIToken, error) {
	if len(token) < len(tokenPrefix)+tokenPrefixLength || token[:len(tokenPrefix)] != tokenPrefix {
		return nil, domain.ErrAPITokenNotFound
	}

	stored, err := s.repo.GetByHash(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}
	if stored.RevokedAt != nil {
		return nil, domain.ErrAPITokenNotFound
	}

	// Best-effort; a failed timestamp update must not fail the request
	if err := s.repo.UpdateLastUsed(ctx, stored.ID); err != nil {
		log.Warn().Err(err).Str("token_id", stored.ID.String()).Msg("Failed to update token last-used timestamp")
	}

	return stored, nil
}

func generateSecureToken() (string, error) {
	b := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
