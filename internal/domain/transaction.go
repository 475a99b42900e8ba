package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound        = errors.New("transaction not found")
	ErrTransactionAmountInvalid   = errors.New("transaction amount must be positive")
	ErrInvalidTransactionType     = errors.New("transaction type must be deposit, withdrawal or profit")
	ErrInsufficientBalance        = errors.New("withdrawal exceeds contribution balance")
	ErrSystemTransactionImmutable = errors.New("system-generated transactions cannot be modified")
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeProfit     TransactionType = "profit"
)

// TransactionSource records what created a ledger row. Only manual rows may be
// edited or deleted through the API; rollover and distribution rows are owned
// by the engine.
type TransactionSource string

const (
	SourceManual       TransactionSource = "manual"
	SourceRollover     TransactionSource = "rollover"
	SourceDistribution TransactionSource = "distribution"
)

// Transaction is one ledger entry for an investor. Deposits and withdrawals
// move contributed capital; profit rows record payouts and never change the
// contribution balance.
type Transaction struct {
	ID              int32             `json:"id"`
	WorkspaceID     int32             `json:"workspaceId"`
	InvestorID      int32             `json:"investorId"`
	FinancialYearID *int32            `json:"financialYearId,omitempty"`
	Type            TransactionType   `json:"type"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        Currency          `json:"currency"`
	TransactionDate time.Time         `json:"transactionDate"`
	Source          TransactionSource `json:"source"`
	Notes           *string           `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	DeletedAt       *time.Time        `json:"deletedAt,omitempty"`
}

func (t *Transaction) Validate() error {
	switch t.Type {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeProfit:
	default:
		return ErrInvalidTransactionType
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrTransactionAmountInvalid
	}
	if !t.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	return nil
}

// IsSystemGenerated reports whether the row was created by rollover or payout
// recording rather than an operator.
func (t *Transaction) IsSystemGenerated() bool {
	return t.Source != SourceManual
}

type TransactionFilters struct {
	InvestorID      *int32
	FinancialYearID *int32
	Type            *TransactionType
	StartDate       *time.Time
	EndDate         *time.Time
	Page            int32
	PageSize        int32
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PaginatedTransactions struct {
	Data       []*Transaction `json:"data"`
	Page       int32          `json:"page"`
	PageSize   int32          `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int32          `json:"totalPages"`
}

// ContributionSummary aggregates the ledger per investor. The contribution
// balance is SumDeposits - SumWithdrawals; profit payouts are excluded.
type ContributionSummary struct {
	InvestorID     int32
	SumDeposits    decimal.Decimal
	SumWithdrawals decimal.Decimal
	SumProfit      decimal.Decimal
}

// Balance returns the derived contribution balance
func (s *ContributionSummary) Balance() decimal.Decimal {
	return s.SumDeposits.Sub(s.SumWithdrawals)
}

type TransactionRepository interface {
	Create(transaction *Transaction) (*Transaction, error)
	GetByID(workspaceID int32, id int32) (*Transaction, error)
	GetByWorkspace(workspaceID int32, filters *TransactionFilters) (*PaginatedTransactions, error)
	GetRecent(workspaceID int32, limit int32) ([]*Transaction, error)
	Update(transaction *Transaction) (*Transaction, error)
	SoftDelete(workspaceID int32, id int32) error
	GetContributionSummaries(workspaceID int32) ([]*ContributionSummary, error)
	GetContributionSummary(workspaceID int32, investorID int32) (*ContributionSummary, error)
}
