package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saham-app/saham-backend/internal/domain"
)

var financialYearColumns = []string{
	"id", "workspace_id", "year", "period_name", "start_date", "end_date",
	"total_profit", "currency", "status",
	"rollover_percentage", "auto_rollover", "auto_rollover_date",
	"created_at", "updated_at",
}

type financialYearRow struct {
	ID                 int32          `db:"id"`
	WorkspaceID        int32          `db:"workspace_id"`
	Year               int32          `db:"year"`
	PeriodName         string         `db:"period_name"`
	StartDate          time.Time      `db:"start_date"`
	EndDate            time.Time      `db:"end_date"`
	TotalProfit        pgtype.Numeric `db:"total_profit"`
	Currency           string         `db:"currency"`
	Status             string         `db:"status"`
	RolloverPercentage pgtype.Numeric `db:"rollover_percentage"`
	AutoRollover       bool           `db:"auto_rollover"`
	AutoRolloverDate   *time.Time     `db:"auto_rollover_date"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (r financialYearRow) toDomain() *domain.FinancialYear {
	return &domain.FinancialYear{
		ID:          r.ID,
		WorkspaceID: r.WorkspaceID,
		Year:        r.Year,
		PeriodName:  r.PeriodName,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		TotalProfit: pgNumericToDecimal(r.TotalProfit),
		Currency:    domain.Currency(r.Currency),
		Status:      domain.FinancialYearStatus(r.Status),
		Rollover: domain.RolloverSettings{
			RolloverPercentage: pgNumericToDecimal(r.RolloverPercentage),
			AutoRollover:       r.AutoRollover,
			AutoRolloverDate:   r.AutoRolloverDate,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// FinancialYearRepository implements domain.FinancialYearRepository using PostgreSQL
type FinancialYearRepository struct {
	pool *pgxpool.Pool
}

// NewFinancialYearRepository creates a new FinancialYearRepository
func NewFinancialYearRepository(pool *pgxpool.Pool) *FinancialYearRepository {
	return &FinancialYearRepository{pool: pool}
}

// Create creates a new financial year
func (r *FinancialYearRepository) Create(year *domain.FinancialYear) (*domain.FinancialYear, error) {
	ctx := context.Background()
	totalProfit, err := decimalToPgNumeric(year.TotalProfit)
	if err != nil {
		return nil, fmt.Errorf("invalid total profit: %w", err)
	}
	rolloverPct, err := decimalToPgNumeric(year.Rollover.RolloverPercentage)
	if err != nil {
		return nil, fmt.Errorf("invalid rollover percentage: %w", err)
	}

	sql, args, err := builder().
		Insert("financial_years").
		Columns("workspace_id", "year", "period_name", "start_date", "end_date",
			"total_profit", "currency", "status",
			"rollover_percentage", "auto_rollover", "auto_rollover_date").
		Values(year.WorkspaceID, year.Year, year.PeriodName, year.StartDate, year.EndDate,
			totalProfit, string(year.Currency), string(year.Status),
			rolloverPct, year.Rollover.AutoRollover, year.Rollover.AutoRolloverDate).
		Suffix("RETURNING " + joinColumns(financialYearColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row financialYearRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByID retrieves a financial year by its ID within a workspace
func (r *FinancialYearRepository) GetByID(workspaceID int32, id int32) (*domain.FinancialYear, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(financialYearColumns...).
		From("financial_years").
		Where(squirrel.Eq{"workspace_id": workspaceID, "id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row financialYearRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrFinancialYearNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetAllByWorkspace retrieves all financial years for a workspace, newest
// period first
func (r *FinancialYearRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.FinancialYear, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(financialYearColumns...).
		From("financial_years").
		Where(squirrel.Eq{"workspace_id": workspaceID}).
		OrderBy("start_date DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []financialYearRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	result := make([]*domain.FinancialYear, len(rows))
	for i, row := range rows {
		result[i] = row.toDomain()
	}
	return result, nil
}

// Update updates a financial year's definition
func (r *FinancialYearRepository) Update(year *domain.FinancialYear) (*domain.FinancialYear, error) {
	ctx := context.Background()
	totalProfit, err := decimalToPgNumeric(year.TotalProfit)
	if err != nil {
		return nil, fmt.Errorf("invalid total profit: %w", err)
	}
	rolloverPct, err := decimalToPgNumeric(year.Rollover.RolloverPercentage)
	if err != nil {
		return nil, fmt.Errorf("invalid rollover percentage: %w", err)
	}

	sql, args, err := builder().
		Update("financial_years").
		Set("year", year.Year).
		Set("period_name", year.PeriodName).
		Set("start_date", year.StartDate).
		Set("end_date", year.EndDate).
		Set("total_profit", totalProfit).
		Set("currency", string(year.Currency)).
		Set("rollover_percentage", rolloverPct).
		Set("auto_rollover", year.Rollover.AutoRollover).
		Set("auto_rollover_date", year.Rollover.AutoRolloverDate).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"workspace_id": year.WorkspaceID, "id": year.ID}).
		Suffix("RETURNING " + joinColumns(financialYearColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row financialYearRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrFinancialYearNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// UpdateStatus moves a financial year to a new lifecycle status
func (r *FinancialYearRepository) UpdateStatus(workspaceID int32, id int32, status domain.FinancialYearStatus) error {
	ctx := context.Background()

	sql, args, err := builder().
		Update("financial_years").
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"workspace_id": workspaceID, "id": id}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrFinancialYearNotFound
	}
	return nil
}

// UpdateRolloverSettings persists the rollover configuration for a year
func (r *FinancialYearRepository) UpdateRolloverSettings(workspaceID int32, id int32, settings domain.RolloverSettings) error {
	ctx := context.Background()
	rolloverPct, err := decimalToPgNumeric(settings.RolloverPercentage)
	if err != nil {
		return fmt.Errorf("invalid rollover percentage: %w", err)
	}

	sql, args, err := builder().
		Update("financial_years").
		Set("rollover_percentage", rolloverPct).
		Set("auto_rollover", settings.AutoRollover).
		Set("auto_rollover_date", settings.AutoRolloverDate).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"workspace_id": workspaceID, "id": id}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrFinancialYearNotFound
	}
	return nil
}

// Delete permanently removes a financial year
func (r *FinancialYearRepository) Delete(workspaceID int32, id int32) error {
	ctx := context.Background()

	sql, args, err := builder().
		Delete("financial_years").
		Where(squirrel.Eq{"workspace_id": workspaceID, "id": id}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrFinancialYearNotFound
	}
	return nil
}

// GetDueAutoRollover returns approved or distributed years across all
// workspaces whose auto-rollover date has passed
func (r *FinancialYearRepository) GetDueAutoRollover(now time.Time) ([]*domain.FinancialYear, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(financialYearColumns...).
		From("financial_years").
		Where(squirrel.Eq{"status": []string{string(domain.StatusApproved), string(domain.StatusDistributed)}}).
		Where(squirrel.Eq{"auto_rollover": true}).
		Where(squirrel.LtOrEq{"auto_rollover_date": now}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []financialYearRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	result := make([]*domain.FinancialYear, len(rows))
	for i, row := range rows {
		result[i] = row.toDomain()
	}
	return result, nil
}
