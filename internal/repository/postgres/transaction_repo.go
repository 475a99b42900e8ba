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

var transactionColumns = []string{
	"id", "workspace_id", "investor_id", "financial_year_id", "type",
	"amount", "currency", "transaction_date", "source", "notes",
	"created_at", "updated_at", "deleted_at",
}

type transactionRow struct {
	ID              int32          `db:"id"`
	WorkspaceID     int32          `db:"workspace_id"`
	InvestorID      int32          `db:"investor_id"`
	FinancialYearID *int32         `db:"financial_year_id"`
	Type            string         `db:"type"`
	Amount          pgtype.Numeric `db:"amount"`
	Currency        string         `db:"currency"`
	TransactionDate time.Time      `db:"transaction_date"`
	Source          string         `db:"source"`
	Notes           *string        `db:"notes"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	DeletedAt       *time.Time     `db:"deleted_at"`
}

func (r transactionRow) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:              r.ID,
		WorkspaceID:     r.WorkspaceID,
		InvestorID:      r.InvestorID,
		FinancialYearID: r.FinancialYearID,
		Type:            domain.TransactionType(r.Type),
		Amount:          pgNumericToDecimal(r.Amount),
		Currency:        domain.Currency(r.Currency),
		TransactionDate: r.TransactionDate,
		Source:          domain.TransactionSource(r.Source),
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		DeletedAt:       r.DeletedAt,
	}
}

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create creates a new ledger entry
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	sql, args, err := builder().
		Insert("transactions").
		Columns("workspace_id", "investor_id", "financial_year_id", "type",
			"amount", "currency", "transaction_date", "source", "notes").
		Values(transaction.WorkspaceID, transaction.InvestorID, transaction.FinancialYearID,
			string(transaction.Type), amount, string(transaction.Currency),
			transaction.TransactionDate, string(transaction.Source), transaction.Notes).
		Suffix("RETURNING " + joinColumns(transactionColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row transactionRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByID retrieves a ledger entry by its ID within a workspace
func (r *TransactionRepository) GetByID(workspaceID int32, id int32) (*domain.Transaction, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"workspace_id": workspaceID, "id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row transactionRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func applyTransactionFilters(q squirrel.SelectBuilder, filters *domain.TransactionFilters) squirrel.SelectBuilder {
	if filters.InvestorID != nil {
		q = q.Where(squirrel.Eq{"investor_id": *filters.InvestorID})
	}
	if filters.FinancialYearID != nil {
		q = q.Where(squirrel.Eq{"financial_year_id": *filters.FinancialYearID})
	}
	if filters.Type != nil {
		q = q.Where(squirrel.Eq{"type": string(*filters.Type)})
	}
	if filters.StartDate != nil {
		q = q.Where(squirrel.GtOrEq{"transaction_date": *filters.StartDate})
	}
	if filters.EndDate != nil {
		q = q.Where(squirrel.LtOrEq{"transaction_date": *filters.EndDate})
	}
	return q
}

// GetByWorkspace retrieves ledger entries for a workspace, newest first,
// paginated
func (r *TransactionRepository) GetByWorkspace(workspaceID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	ctx := context.Background()

	base := builder().
		Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"workspace_id": workspaceID, "deleted_at": nil})
	base = applyTransactionFilters(base, filters)

	countSQL, countArgs, err := builder().
		Select("COUNT(*)").
		FromSelect(base, "sub").
		ToSql()
	if err != nil {
		return nil, err
	}
	var totalItems int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&totalItems); err != nil {
		return nil, err
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 {
		pageSize = domain.DefaultPageSize
	}

	sql, args, err := base.
		OrderBy("transaction_date DESC", "id DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	data := make([]*domain.Transaction, len(rows))
	for i, row := range rows {
		data[i] = row.toDomain()
	}

	totalPages := int32((totalItems + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedTransactions{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// GetRecent retrieves the most recent ledger entries for a workspace
func (r *TransactionRepository) GetRecent(workspaceID int32, limit int32) ([]*domain.Transaction, error) {
	ctx := context.Background()

	sql, args, err := builder().
		Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"workspace_id": workspaceID, "deleted_at": nil}).
		OrderBy("transaction_date DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	result := make([]*domain.Transaction, len(rows))
	for i, row := range rows {
		result[i] = row.toDomain()
	}
	return result, nil
}

// Update modifies a ledger entry
func (r *TransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	sql, args, err := builder().
		Update("transactions").
		Set("financial_year_id", transaction.FinancialYearID).
		Set("type", string(transaction.Type)).
		Set("amount", amount).
		Set("currency", string(transaction.Currency)).
		Set("transaction_date", transaction.TransactionDate).
		Set("notes", transaction.Notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"workspace_id": transaction.WorkspaceID, "id": transaction.ID, "deleted_at": nil}).
		Suffix("RETURNING " + joinColumns(transactionColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row transactionRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// SoftDelete marks a ledger entry as deleted (sets deleted_at timestamp)
func (r *TransactionRepository) SoftDelete(workspaceID int32, id int32) error {
	ctx := context.Background()

	sql, args, err := builder().
		Update("transactions").
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
		return domain.ErrTransactionNotFound
	}
	return nil
}

type contributionSummaryRow struct {
	InvestorID     int32          `db:"investor_id"`
	SumDeposits    pgtype.Numeric `db:"sum_deposits"`
	SumWithdrawals pgtype.Numeric `db:"sum_withdrawals"`
	SumProfit      pgtype.Numeric `db:"sum_profit"`
}

func (r contributionSummaryRow) toDomain() *domain.ContributionSummary {
	return &domain.ContributionSummary{
		InvestorID:     r.InvestorID,
		SumDeposits:    pgNumericToDecimal(r.SumDeposits),
		SumWithdrawals: pgNumericToDecimal(r.SumWithdrawals),
		SumProfit:      pgNumericToDecimal(r.SumProfit),
	}
}

func summarySelect(workspaceID int32) squirrel.SelectBuilder {
	return builder().
		Select(
			"investor_id",
			"COALESCE(SUM(amount) FILTER (WHERE type = 'deposit'), 0) AS sum_deposits",
			"COALESCE(SUM(amount) FILTER (WHERE type = 'withdrawal'), 0) AS sum_withdrawals",
			"COALESCE(SUM(amount) FILTER (WHERE type = 'profit'), 0) AS sum_profit",
		).
		From("transactions").
		Where(squirrel.Eq{"workspace_id": workspaceID, "deleted_at": nil}).
		GroupBy("investor_id")
}

// GetContributionSummaries aggregates the ledger per investor for a workspace
func (r *TransactionRepository) GetContributionSummaries(workspaceID int32) ([]*domain.ContributionSummary, error) {
	ctx := context.Background()

	sql, args, err := summarySelect(workspaceID).OrderBy("investor_id ASC").ToSql()
	if err != nil {
		return nil, err
	}

	var rows []contributionSummaryRow
	if err := pgxscan.Select(ctx, r.pool, &rows, sql, args...); err != nil {
		return nil, err
	}
	result := make([]*domain.ContributionSummary, len(rows))
	for i, row := range rows {
		result[i] = row.toDomain()
	}
	return result, nil
}

// GetContributionSummary aggregates the ledger for one investor. An investor
// with no ledger rows gets a zero summary.
func (r *TransactionRepository) GetContributionSummary(workspaceID int32, investorID int32) (*domain.ContributionSummary, error) {
	ctx := context.Background()

	sql, args, err := summarySelect(workspaceID).
		Where(squirrel.Eq{"investor_id": investorID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row contributionSummaryRow
	if err := pgxscan.Get(ctx, r.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return &domain.ContributionSummary{InvestorID: investorID}, nil
		}
		return nil, err
	}
	return row.toDomain(), nil
}
