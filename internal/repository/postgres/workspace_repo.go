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

var workspaceColumns = []string{
	"id", "user_id", "name", "default_currency", "created_at", "updated_at",
}

type workspaceRow struct {
	ID              int32     `db:"id"`
	UserID          uuid.UUID `db:"user_id"`
	Name            string    `db:"name"`
	DefaultCurrency string    `db:"default_currency"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r workspaceRow) toDomain() *domain.Workspace {
	return &domain.Workspace{
		ID:              r.ID,
		UserID:          r.UserID,
		Name:            r.Name,
		DefaultCurrency: domain.Currency(r.DefaultCurrency),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// WorkspaceRepository implements domain.WorkspaceRepository using PostgreSQL
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

// GetByID retrieves a workspace by ID
func (r *WorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(workspaceColumns...).
		From("workspaces").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row workspaceRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByUserID retrieves the workspace owned by a user
func (r *WorkspaceRepository) GetByUserID(userID uuid.UUID) (*domain.Workspace, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(workspaceColumns...).
		From("workspaces").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row workspaceRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByUserAuth0ID retrieves the workspace owned by the user with the given
// Auth0 subject
func (r *WorkspaceRepository) GetByUserAuth0ID(auth0ID string) (*domain.Workspace, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(
			"w.id", "w.user_id", "w.name", "w.default_currency",
			"w.created_at", "w.updated_at",
		).
		From("workspaces w").
		Join("users u ON u.id = w.user_id").
		Where(squirrel.Eq{"u.auth0_id": auth0ID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row workspaceRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// Create creates a new workspace
func (r *WorkspaceRepository) Create(workspace *domain.Workspace) (*domain.Workspace, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Insert("workspaces").
		Columns("user_id", "name", "default_currency").
		Values(workspace.UserID, workspace.Name, string(workspace.DefaultCurrency)).
		Suffix("RETURNING " + joinColumns(workspaceColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row workspaceRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}
