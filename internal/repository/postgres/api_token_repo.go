package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saham-app/saham-backend/internal/domain"
)

var apiTokenColumns = []string{
	"id", "user_id", "workspace_id", "description", "token_hash",
	"token_prefix", "last_used_at", "created_at", "revoked_at",
}

type apiTokenRow struct {
	ID          uuid.UUID  `db:"id"`
	UserID      uuid.UUID  `db:"user_id"`
	WorkspaceID int32      `db:"workspace_id"`
	Description string     `db:"description"`
	TokenHash   string     `db:"token_hash"`
	TokenPrefix string     `db:"token_prefix"`
	LastUsedAt  *time.Time `db:"last_used_at"`
	CreatedAt   time.Time  `db:"created_at"`
	RevokedAt   *time.Time `db:"revoked_at"`
}

func (r apiTokenRow) toDomain() *domain.APIToken {
	return &domain.APIToken{
		ID:          r.ID,
		UserID:      r.UserID,
		WorkspaceID: r.WorkspaceID,
		Description: r.Description,
		TokenHash:   r.TokenHash,
		TokenPrefix: r.TokenPrefix,
		LastUsedAt:  r.LastUsedAt,
		CreatedAt:   r.CreatedAt,
		RevokedAt:   r.RevokedAt,
	}
}

// APITokenRepository implements domain.APITokenRepository using PostgreSQL
type APITokenRepository struct {
	pool *pgxpool.Pool
}

// NewAPITokenRepository creates a new APITokenRepository
func NewAPITokenRepository(pool *pgxpool.Pool) *APITokenRepository {
	return &APITokenRepository{pool: pool}
}

// Create stores a new API token
func (r *APITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	sql, args, err := builder().
		Insert("api_tokens").
		Columns("user_id", "workspace_id", "description", "token_hash", "token_prefix").
		Values(token.UserID, token.WorkspaceID, token.Description, token.TokenHash, token.TokenPrefix).
		Suffix("RETURNING " + joinColumns(apiTokenColumns)).
		ToSql()
	if err != nil {
		return err
	}

	var row apiTokenRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		return err
	}
	*token = *row.toDomain()
	return nil
}

// GetByWorkspace lists non-revoked tokens for a workspace
func (r *APITokenRepository) GetByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.APIToken, error) {
	sql, args, err := builder().
		Select(apiTokenColumns...).
		From("api_tokens").
		Where(squirrel.Eq{"workspace_id": workspaceID, "revoked_at": nil}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []apiTokenRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	result := make([]*domain.APIToken, len(rows))
	for i, row := range rows {
		result[i] = row.toDomain()
	}
	return result, nil
}

// GetByHash retrieves a token by its SHA-256 hash
func (r *APITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	sql, args, err := builder().
		Select(apiTokenColumns...).
		From("api_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row apiTokenRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrAPITokenNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// Revoke marks a token revoked
func (r *APITokenRepository) Revoke(ctx context.Context, workspaceID int32, id uuid.UUID) error {
	sql, args, err := builder().
		Update("api_tokens").
		Set("revoked_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"workspace_id": workspaceID, "id": id, "revoked_at": nil}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAPITokenNotFound
	}
	return nil
}

// UpdateLastUsed records token usage
func (r *APITokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	sql, args, err := builder().
		Update("api_tokens").
		Set("last_used_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, sql, args...)
	return err
}
