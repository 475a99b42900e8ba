package domain

import (
	"errors"
	"time"

	"github.com/saham-app/saham-backend/internal/util"
	"github.com/shopspring/decimal"
)

var (
	ErrFinancialYearNotFound     = errors.New("financial year not found")
	ErrInvalidPeriod             = errors.New("period start date must be before end date")
	ErrInvalidTotalProfit        = errors.New("total profit must be positive")
	ErrPeriodNameEmpty           = errors.New("period name is required")
	ErrYearNotEditable           = errors.New("only draft financial years can be edited")
	ErrYearClosed                = errors.New("financial year is closed")
	ErrYearHasDistributions      = errors.New("financial year has distribution records and cannot be deleted")
	ErrYearNotCalculated         = errors.New("distributions have not been calculated for this financial year")
	ErrYearNotApproved           = errors.New("financial year distributions are not approved")
	ErrYearNotExpired            = errors.New("financial year period has not elapsed yet")
	ErrInvalidRolloverPercentage = errors.New("rollover percentage must be between 0 and 100")
	ErrCalculationInProgress     = errors.New("a calculation is already in progress for this financial year")
)

// FinancialYearStatus is the stored lifecycle state of a year
type FinancialYearStatus string

const (
	StatusDraft       FinancialYearStatus = "draft"
	StatusCalculated  FinancialYearStatus = "calculated"
	StatusApproved    FinancialYearStatus = "approved"
	StatusDistributed FinancialYearStatus = "distributed"
	StatusClosed      FinancialYearStatus = "closed"
)

// PeriodStatus is derived from the current date against the period boundaries.
// It is display-only and never stored.
type PeriodStatus string

const (
	PeriodPending PeriodStatus = "pending"
	PeriodActive  PeriodStatus = "active"
	PeriodExpired PeriodStatus = "expired"
)

// RolloverSettings controls what fraction of computed profit is re-invested as
// new contributed capital instead of being paid out.
type RolloverSettings struct {
	RolloverPercentage decimal.Decimal `json:"rolloverPercentage"`
	AutoRollover       bool            `json:"autoRollover"`
	AutoRolloverDate   *time.Time      `json:"autoRolloverDate,omitempty"`
}

func (r *RolloverSettings) Validate() error {
	if r.RolloverPercentage.IsNegative() || r.RolloverPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidRolloverPercentage
	}
	return nil
}

// FinancialYear is an administrator-defined period over which a fixed total
// profit is allocated across investor contributions.
type FinancialYear struct {
	ID          int32               `json:"id"`
	WorkspaceID int32               `json:"workspaceId"`
	Year        int32               `json:"year"`
	PeriodName  string              `json:"periodName"`
	StartDate   time.Time           `json:"startDate"`
	EndDate     time.Time           `json:"endDate"`
	TotalProfit decimal.Decimal     `json:"totalProfit"`
	Currency    Currency            `json:"currency"`
	Status      FinancialYearStatus `json:"status"`
	Rollover    RolloverSettings    `json:"rolloverSettings"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func (y *FinancialYear) Validate() error {
	if y.PeriodName == "" {
		return ErrPeriodNameEmpty
	}
	if !y.StartDate.Before(y.EndDate) {
		return ErrInvalidPeriod
	}
	if y.TotalProfit.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidTotalProfit
	}
	if !y.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	return y.Rollover.Validate()
}

// TotalDaysInPeriod counts the days in the period inclusive of both endpoints
func (y *FinancialYear) TotalDaysInPeriod() int {
	return util.DaysInclusive(y.StartDate, y.EndDate)
}

// IsEditable reports whether the year definition may still be changed
func (y *FinancialYear) IsEditable() bool {
	return y.Status == StatusDraft
}

// HasCalculation reports whether the allocation engine has already run
func (y *FinancialYear) HasCalculation() bool {
	return y.Status != StatusDraft
}

// IsApprovedOrLater reports whether distributions have been approved
func (y *FinancialYear) IsApprovedOrLater() bool {
	return y.Status == StatusApproved || y.Status == StatusDistributed || y.Status == StatusClosed
}

// PeriodStatusAt derives the display status against a reference date
func (y *FinancialYear) PeriodStatusAt(now time.Time) PeriodStatus {
	day := util.StartOfDay(now)
	if day.Before(util.StartOfDay(y.StartDate)) {
		return PeriodPending
	}
	if day.After(util.StartOfDay(y.EndDate)) {
		return PeriodExpired
	}
	return PeriodActive
}

type FinancialYearRepository interface {
	Create(year *FinancialYear) (*FinancialYear, error)
	GetByID(workspaceID int32, id int32) (*FinancialYear, error)
	GetAllByWorkspace(workspaceID int32) ([]*FinancialYear, error)
	Update(year *FinancialYear) (*FinancialYear, error)
	UpdateStatus(workspaceID int32, id int32, status FinancialYearStatus) error
	UpdateRolloverSettings(workspaceID int32, id int32, settings RolloverSettings) error
	Delete(workspaceID int32, id int32) error
	// GetDueAutoRollover returns approved years across all workspaces whose
	// auto-rollover date has passed. Consumed by the rollover worker.
	GetDueAutoRollover(now time.Time) ([]*FinancialYear, error)
}
