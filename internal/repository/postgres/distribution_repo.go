package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saham-app/saham-backend/internal/domain"
)

var distributionColumns = []string{
	"id", "workspace_id", "financial_year_id", "investor_id",
	"investment_amount", "share_percentage", "total_days",
	"daily_profit_rate", "calculated_profit",
	"is_rolled_over", "rollover_amount", "status",
	"created_at", "updated_at",
}

type distributionRow struct {
	ID               int32          `db:"id"`
	WorkspaceID      int32          `db:"workspace_id"`
	FinancialYearID  int32          `db:"financial_year_id"`
	InvestorID       int32          `db:"investor_id"`
	InvestmentAmount pgtype.Numeric `db:"investment_amount"`
	SharePercentage  pgtype.Numeric `db:"share_percentage"`
	TotalDays        int32          `db:"total_days"`
	DailyProfitRate  pgtype.Numeric `db:"daily_profit_rate"`
	CalculatedProfit pgtype.Numeric `db:"calculated_profit"`
	IsRolledOver     bool           `db:"is_rolled_over"`
	RolloverAmount   pgtype.Numeric `db:"rollover_amount"`
	Status           string         `db:"status"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r distributionRow) toDomain() *domain.Distribution {
	return &domain.Distribution{
		ID:              r.ID,
		WorkspaceID:     r.WorkspaceID,
		FinancialYearID: r.FinancialYearID,
		InvestorID:      r.InvestorID,
		Calculation: domain.DistributionCalculation{
			InvestmentAmount: pgNumericToDecimal(r.InvestmentAmount),
			SharePercentage:  pgNumericToDecimal(r.SharePercentage),
			TotalDays:        int(r.TotalDays),
			DailyProfitRate:  pgNumericToDecimal(r.DailyProfitRate),
			CalculatedProfit: pgNumericToDecimal(r.CalculatedProfit),
		},
		Rollover: domain.DistributionRollover{
			IsRolledOver:   r.IsRolledOver,
			RolloverAmount: pgNumericToDecimal(r.RolloverAmount),
		},
		Status:    domain.FinancialYearStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// DistributionRepository implements domain.DistributionRepository using PostgreSQL
type DistributionRepository struct {
	pool *pgxpool.Pool
}

// NewDistributionRepository creates a new DistributionRepository
func NewDistributionRepository(pool *pgxpool.Pool) *DistributionRepository {
	return &DistributionRepository{pool: pool}
}

// ReplaceForYear deletes all distribution records for the year and inserts the
// new set inside one database transaction
func (r *DistributionRepository) ReplaceForYear(workspaceID int32, financialYearID int32, distributions []*domain.Distribution) ([]*domain.Distribution, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	deleteSQL, deleteArgs, err := builder().
		Delete("distributions").
		Where(squirrel.Eq{"workspace_id": workspaceID, "financial_year_id": financialYearID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, deleteSQL, deleteArgs...); err != nil {
		return nil, err
	}

	result := make([]*domain.Distribution, len(distributions))
	for i, d := range distributions {
		inserted, err := insertDistributionTx(ctx, tx, d)
		if err != nil {
			return nil, err
		}
		result[i] = inserted
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func insertDistributionTx(ctx context.Context, tx pgx.Tx, d *domain.Distribution) (*domain.Distribution, error) {
	investmentAmount, err := decimalToPgNumeric(d.Calculation.InvestmentAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid investment amount: %w", err)
	}
	sharePercentage, err := decimalToPgNumeric(d.Calculation.SharePercentage)
	if err != nil {
		return nil, fmt.Errorf("invalid share percentage: %w", err)
	}
	dailyProfitRate, err := decimalToPgNumeric(d.Calculation.DailyProfitRate)
	if err != nil {
		return nil, fmt.Errorf("invalid daily profit rate: %w", err)
	}
	calculatedProfit, err := decimalToPgNumeric(d.Calculation.CalculatedProfit)
	if err != nil {
		return nil, fmt.Errorf("invalid calculated profit: %w", err)
	}
	rolloverAmount, err := decimalToPgNumeric(d.Rollover.RolloverAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid rollover amount: %w", err)
	}

	sql, args, err := builder().
		Insert("distributions").
		Columns("workspace_id", "financial_year_id", "investor_id",
			"investment_amount", "share_percentage", "total_days",
			"daily_profit_rate", "calculated_profit",
			"is_rolled_over", "rollover_amount", "status").
		Values(d.WorkspaceID, d.FinancialYearID, d.InvestorID,
			investmentAmount, sharePercentage, int32(d.Calculation.TotalDays),
			dailyProfitRate, calculatedProfit,
			d.Rollover.IsRolledOver, rolloverAmount, string(d.Status)).
		Suffix("RETURNING " + joinColumns(distributionColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row distributionRow
	if err := pgxscan.Get(ctx, tx, &row, sql, args...); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByYear retrieves all distribution records for a financial year
func (r *DistributionRepository) GetByYear(workspaceID int32, financialYearID int32) ([]*domain.Distribution, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(distributionColumns...).
		From("distributions").
		Where(squirrel.Eq{"workspace_id": workspaceID, "financial_year_id": financialYearID}).
		OrderBy("investor_id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []distributionRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	result := make([]*domain.Distribution, len(rows))
	for i, row := range rows {
		result[i] = row.toDomain()
	}
	return result, nil
}

// GetByID retrieves one distribution record
func (r *DistributionRepository) GetByID(workspaceID int32, id int32) (*domain.Distribution, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(distributionColumns...).
		From("distributions").
		Where(squirrel.Eq{"workspace_id": workspaceID, "id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row distributionRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrDistributionNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// CountByYear counts distribution records for a financial year
func (r *DistributionRepository) CountByYear(workspaceID int32, financialYearID int32) (int64, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select("COUNT(*)").
		From("distributions").
		Where(squirrel.Eq{"workspace_id": workspaceID, "financial_year_id": financialYearID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CountByInvestor counts distribution records referencing an investor
func (r *DistributionRepository) CountByInvestor(workspaceID int32, investorID int32) (int64, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select("COUNT(*)").
		From("distributions").
		Where(squirrel.Eq{"workspace_id": workspaceID, "investor_id": investorID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateStatusForYear moves all distribution records of a year to a new status
func (r *DistributionRepository) UpdateStatusForYear(workspaceID int32, financialYearID int32, status domain.FinancialYearStatus) error {
	ctx := context.Background()

	sql, args, err := builder().
		Update("distributions").
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"workspace_id": workspaceID, "financial_year_id": financialYearID}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, sql, args...)
	return err
}

// ApplyRollover marks distributions rolled over and books the matching deposit
// rows in one database transaction
func (r *DistributionRepository) ApplyRollover(workspaceID int32, financialYearID int32, applications []*domain.RolloverApplication) error {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, app := range applications {
		rolloverAmount, err := decimalToPgNumeric(app.Amount)
		if err != nil {
			return fmt.Errorf("invalid rollover amount: %w", err)
		}

		updateSQL, updateArgs, err := builder().
			Update("distributions").
			Set("is_rolled_over", true).
			Set("rollover_amount", rolloverAmount).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{
				"workspace_id":      workspaceID,
				"financial_year_id": financialYearID,
				"id":                app.DistributionID,
				"is_rolled_over":    false,
			}).
			ToSql()
		if err != nil {
			return err
		}
		result, err := tx.Exec(ctx, updateSQL, updateArgs...)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrDistributionNotFound
		}

		if app.Deposit != nil {
			if err := insertTransactionTx(ctx, tx, app.Deposit); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func insertTransactionTx(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	sql, args, err := builder().
		Insert("transactions").
		Columns("workspace_id", "investor_id", "financial_year_id", "type",
			"amount", "currency", "transaction_date", "source", "notes").
		Values(transaction.WorkspaceID, transaction.InvestorID, transaction.FinancialYearID,
			string(transaction.Type), amount, string(transaction.Currency),
			transaction.TransactionDate, string(transaction.Source), transaction.Notes).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, sql, args...)
	return err
}
