package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrDistributionNotFound     = errors.New("distribution not found")
	ErrNoApprovedInvestors      = errors.New("no investors with positive contributions to distribute to")
	ErrInvalidContribution      = errors.New("contribution amount must be positive")
	ErrNoApprovedDistributions  = errors.New("no approved distributions to roll over")
	ErrNothingToDistribute      = errors.New("no payable amounts to distribute")
)

// AllocationMode selects the profit-share formula.
//
// FullPeriod answers "if this were a closed, completed year, what is each
// investor's ownership-weighted share" and ignores time of entry.
// ActualElapsedDays answers "what has actually accrued to date" and weights
// each share by the investor's day-window inside the period. A late entrant
// can hold a non-zero FullPeriod share while their elapsed-days share is
// still zero.
type AllocationMode string

const (
	ModeFullPeriod        AllocationMode = "full_period"
	ModeActualElapsedDays AllocationMode = "actual_elapsed_days"
)

// ContributionRecord is one engine input: an investor's contributed capital
// and the date it became eligible for profit accrual.
type ContributionRecord struct {
	InvestorID int32
	Amount     decimal.Decimal
	StartDate  time.Time
}

// DistributionCalculation holds the per-investor engine output
type DistributionCalculation struct {
	InvestmentAmount decimal.Decimal `json:"investmentAmount"`
	SharePercentage  decimal.Decimal `json:"sharePercentage"`
	TotalDays        int             `json:"totalDays"`
	DailyProfitRate  decimal.Decimal `json:"dailyProfitRate"`
	CalculatedProfit decimal.Decimal `json:"calculatedProfit"`
}

// DistributionRollover tracks the re-invested portion of a computed share.
// RolloverAmount is set at rollover application time and is never recomputed
// by subsequent engine runs.
type DistributionRollover struct {
	IsRolledOver   bool            `json:"isRolledOver"`
	RolloverAmount decimal.Decimal `json:"rolloverAmount"`
}

// PayableAmount is the remainder owed after rollover
func (r *DistributionRollover) PayableAmount(calculatedProfit decimal.Decimal) decimal.Decimal {
	if !r.IsRolledOver {
		return calculatedProfit
	}
	return calculatedProfit.Sub(r.RolloverAmount)
}

// Distribution is one investor's share of one financial year's profit.
// The full set for a year is replaced whenever the engine re-runs.
type Distribution struct {
	ID              int32                   `json:"id"`
	WorkspaceID     int32                   `json:"workspaceId"`
	FinancialYearID int32                   `json:"financialYearId"`
	InvestorID      int32                   `json:"investorId"`
	Calculation     DistributionCalculation `json:"calculation"`
	Rollover        DistributionRollover    `json:"rolloverSettings"`
	Status          FinancialYearStatus     `json:"status"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

// DistributionSummary is the rollup returned by a calculation run. Status is
// filled in by the caller that persists the run; the engine itself leaves it empty.
type DistributionSummary struct {
	Status                FinancialYearStatus `json:"status,omitempty"`
	TotalInvestors        int                 `json:"totalInvestors"`
	TotalDistributed      decimal.Decimal     `json:"totalDistributed"`
	AverageProfit         decimal.Decimal     `json:"averageProfit"`
	TotalDays             int                 `json:"totalDays"`
	ElapsedDays           int                 `json:"elapsedDays"`
	TotalDaysInYear       int                 `json:"totalDaysInYear"`
	Mode                  AllocationMode      `json:"mode"`
	CalculationMessage    string              `json:"calculationMessage"`
	TotalCalculatedProfit decimal.Decimal     `json:"totalCalculatedProfit"`
}

// RolloverApplication is one atomic rollover step for one distribution:
// mark the record rolled over and book the matching deposit.
type RolloverApplication struct {
	DistributionID int32
	Amount         decimal.Decimal
	Deposit        *Transaction
}

type DistributionRepository interface {
	// ReplaceForYear atomically discards all distribution records for the year
	// and inserts the new set.
	ReplaceForYear(workspaceID int32, financialYearID int32, distributions []*Distribution) ([]*Distribution, error)
	GetByYear(workspaceID int32, financialYearID int32) ([]*Distribution, error)
	GetByID(workspaceID int32, id int32) (*Distribution, error)
	CountByYear(workspaceID int32, financialYearID int32) (int64, error)
	CountByInvestor(workspaceID int32, investorID int32) (int64, error)
	UpdateStatusForYear(workspaceID int32, financialYearID int32, status FinancialYearStatus) error
	// ApplyRollover marks distributions rolled over and inserts the rollover
	// deposits in a single database transaction.
	ApplyRollover(workspaceID int32, financialYearID int32, applications []*RolloverApplication) error
}
