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

var userColumns = []string{
	"id", "auth0_id", "email", "name", "picture_url", "created_at", "updated_at",
}

type userRow struct {
	ID         uuid.UUID `db:"id"`
	Auth0ID    string    `db:"auth0_id"`
	Email      string    `db:"email"`
	Name       *string   `db:"name"`
	PictureURL *string   `db:"picture_url"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:         r.ID,
		Auth0ID:    r.Auth0ID,
		Email:      r.Email,
		Name:       r.Name,
		PictureURL: r.PictureURL,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by internal ID
func (r *UserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row userRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByAuth0ID retrieves a user by Auth0 subject
func (r *UserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"auth0_id": auth0ID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row userRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// Create creates a new user
func (r *UserRepository) Create(user *domain.User) (*domain.User, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Insert("users").
		Columns("auth0_id", "email", "name", "picture_url").
		Values(user.Auth0ID, user.Email, user.Name, user.PictureURL).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row userRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// UpdateName updates a user's display name
func (r *UserRepository) UpdateName(auth0ID string, name string) (*domain.User, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Update("users").
		Set("name", name).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"auth0_id": auth0ID}).
		Suffix("RETURNING " + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row userRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// CreateOrGetByAuth0ID upserts a user keyed on the Auth0 subject. Login is the
// only caller, so profile fields refresh on conflict.
func (r *UserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Insert("users").
		Columns("auth0_id", "email", "name", "picture_url").
		Values(auth0ID, email, name, pictureURL).
		Suffix(`ON CONFLICT (auth0_id) DO UPDATE
			SET email = EXCLUDED.email,
			    name = COALESCE(EXCLUDED.name, users.name),
			    picture_url = COALESCE(EXCLUDED.picture_url, users.picture_url),
			    updated_at = NOW()
			RETURNING ` + joinColumns(userColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row userRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}
