package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saham-app/saham-backend/internal/domain"
)

var investorColumns = []string{
	"id", "workspace_id", "name", "phone", "email", "national_id",
	"currency", "join_date", "is_active", "notes",
	"created_at", "updated_at", "deleted_at",
}

type investorRow struct {
	ID          int32      `db:"id"`
	WorkspaceID int32      `db:"workspace_id"`
	Name        string     `db:"name"`
	Phone       *string    `db:"phone"`
	Email       *string    `db:"email"`
	NationalID  *string    `db:"national_id"`
	Currency    string     `db:"currency"`
	JoinDate    time.Time  `db:"join_date"`
	IsActive    bool       `db:"is_active"`
	Notes       *string    `db:"notes"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (r investorRow) toDomain() *domain.Investor {
	return &domain.Investor{
		ID:          r.ID,
		WorkspaceID: r.WorkspaceID,
		Name:        r.Name,
		Phone:       r.Phone,
		Email:       r.Email,
		NationalID:  r.NationalID,
		Currency:    domain.Currency(r.Currency),
		JoinDate:    r.JoinDate,
		IsActive:    r.IsActive,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		DeletedAt:   r.DeletedAt,
	}
}

// InvestorRepository implements domain.InvestorRepository using PostgreSQL
type InvestorRepository struct {
	pool *pgxpool.Pool
}

// NewInvestorRepository creates a new InvestorRepository
func NewInvestorRepository(pool *pgxpool.Pool) *InvestorRepository {
	return &InvestorRepository{pool: pool}
}

// Create creates a new investor
func (r *InvestorRepository) Create(investor *domain.Investor) (*domain.Investor, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Insert("investors").
		Columns("workspace_id", "name", "phone", "email", "national_id",
			"currency", "join_date", "is_active", "notes").
		Values(investor.WorkspaceID, investor.Name, investor.Phone, investor.Email,
			investor.NationalID, string(investor.Currency), investor.JoinDate,
			investor.IsActive, investor.Notes).
		Suffix("RETURNING " + joinColumns(investorColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row investorRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByID retrieves an investor by its ID within a workspace
func (r *InvestorRepository) GetByID(workspaceID int32, id int32) (*domain.Investor, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(investorColumns...).
		From("investors").
		Where(squirrel.Eq{"workspace_id": workspaceID, "id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row investorRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrInvestorNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetAllByWorkspace retrieves investors for a workspace, optionally including
// inactive ones
func (r *InvestorRepository) GetAllByWorkspace(workspaceID int32, includeInactive bool) ([]*domain.Investor, error) {
	ctx := context.Background()

	q := builder().
		Select(investorColumns...).
		From("investors").
		Where(squirrel.Eq{"workspace_id": workspaceID, "deleted_at": nil}).
		OrderBy("id ASC")
	if !includeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []investorRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	result := make([]*domain.Investor, len(rows))
	for i, row := range rows {
		result[i] = row.toDomain()
	}
	return result, nil
}

// Update updates an investor's details
func (r *InvestorRepository) Update(investor *domain.Investor) (*domain.Investor, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Update("investors").
		Set("name", investor.Name).
		Set("phone", investor.Phone).
		Set("email", investor.Email).
		Set("national_id", investor.NationalID).
		Set("currency", string(investor.Currency)).
		Set("join_date", investor.JoinDate).
		Set("is_active", investor.IsActive).
		Set("notes", investor.Notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"workspace_id": investor.WorkspaceID, "id": investor.ID, "deleted_at": nil}).
		Suffix("RETURNING " + joinColumns(investorColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row investorRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrInvestorNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// SoftDelete marks an investor as deleted (sets deleted_at timestamp)
func (r *InvestorRepository) SoftDelete(workspaceID int32, id int32) error {
	ctx := context.Background()

	sql, args, err := builder().
		Update("investors").
		Set("deleted_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"workspace_id": workspaceID, "id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrInvestorNotFound
	}
	return nil
}

// CountByWorkspace returns total and active investor counts
func (r *InvestorRepository) CountByWorkspace(workspaceID int32) (int64, int64, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select("COUNT(*)", "COUNT(*) FILTER (WHERE is_active)").
		From("investors").
		Where(squirrel.Eq{"workspace_id": workspaceID, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return 0, 0, err
	}

	var total, active int64
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&total, &active); err != nil {
		return 0, 0, err
	}
	return total, active, nil
}
