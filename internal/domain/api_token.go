package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAPITokenNotFound = errors.New("api token not found")
	ErrTooManyAPITokens = errors.New("maximum number of api tokens reached")
)

// APIToken grants programmatic access to a workspace (reporting scripts,
// scheduled exports run outside this service)
type APIToken struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	WorkspaceID int32      `json:"workspaceId"`
	Description string     `json:"description"`
	TokenHash   string     `json:"-"`
	TokenPrefix string     `json:"tokenPrefix"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	RevokedAt   *time.Time `json:"revokedAt,omitempty"`
}

type APITokenRepository interface {
	Create(ctx context.Context, token *APIToken) error
	GetByWorkspace(ctx context.Context, workspaceID int32) ([]*APIToken, error)
	GetByHash(ctx context.Context, hash string) (*APIToken, error)
	Revoke(ctx context.Context, workspaceID int32, id uuid.UUID) error
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
}
