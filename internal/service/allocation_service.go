package service

import (
	"fmt"
	"time"

	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/saham-app/saham-backend/internal/util"
	"github.com/shopspring/decimal"
)

// profitPrecision is the fixed rounding applied to computed profit figures so
// downstream display and summation do not accumulate floating-point noise.
const profitPrecision = 3

var oneHundred = decimal.NewFromInt(100)

// AllocationInput selects how a distribution run is performed
type AllocationInput struct {
	Mode AllocationMode
	// AsOf bounds the elapsed-days window; zero means "now". Ignored in
	// full-period mode.
	AsOf time.Time
	// AllowEmpty makes an empty contribution set produce a zeroed result
	// instead of ErrNoApprovedInvestors.
	AllowEmpty bool
}

// AllocationMode aliases the domain enum for caller convenience
type AllocationMode = domain.AllocationMode

// InvestorAllocation is one computed share
type InvestorAllocation struct {
	InvestorID  int32
	Calculation domain.DistributionCalculation
}

// AllocationResult is the full output of one engine run
type AllocationResult struct {
	Allocations []*InvestorAllocation
	Summary     domain.DistributionSummary
}

// AllocationService is the profit-distribution engine. It is pure: given a
// financial year, a contribution snapshot and a mode it computes each
// investor's share without touching persistence. Callers own the destructive
// replacement of prior distribution records.
type AllocationService struct{}

// NewAllocationService creates a new AllocationService
func NewAllocationService() *AllocationService {
	return &AllocationService{}
}

// Calculate runs the allocation for one financial year.
//
// Full-period mode: profit = contribution/total × totalProfit.
// Elapsed-days mode: profit = contribution × days × dailyRate, where
// dailyRate = totalProfit / (total × totalDaysInYear) and days is the
// inclusive window between the investor's effective start (later of join date
// and period start) and the effective end (earlier of asOf and period end).
//
// A late entrant (start after period end) gets zero under elapsed-days mode
// but keeps their ownership-weighted share under full-period mode. Both
// behaviors are intentional; do not "fix" either.
func (s *AllocationService) Calculate(year *domain.FinancialYear, contributions []domain.ContributionRecord, input AllocationInput) (*AllocationResult, error) {
	if year.TotalProfit.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidTotalProfit
	}
	if !year.StartDate.Before(year.EndDate) {
		return nil, domain.ErrInvalidPeriod
	}

	if len(contributions) == 0 {
		if !input.AllowEmpty {
			return nil, domain.ErrNoApprovedInvestors
		}
		return s.emptyResult(year, input.Mode), nil
	}

	totalContributions := decimal.Zero
	for _, c := range contributions {
		if c.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidContribution
		}
		totalContributions = totalContributions.Add(c.Amount)
	}

	asOf := input.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	totalDaysInYear := year.TotalDaysInPeriod()
	effectiveEnd := util.EarlierOf(asOf, year.EndDate)
	elapsedDays := util.DaysInclusive(year.StartDate, effectiveEnd)
	if elapsedDays > totalDaysInYear {
		elapsedDays = totalDaysInYear
	}

	// The daily rate is a property of the year, identical for every investor.
	dailyRate := decimal.Zero
	if totalDaysInYear > 0 && totalContributions.IsPositive() {
		dailyRate = year.TotalProfit.Div(totalContributions.Mul(decimal.NewFromInt(int64(totalDaysInYear))))
	}

	allocations := make([]*InvestorAllocation, 0, len(contributions))
	totalProfit := decimal.Zero
	sumDays := 0
	for _, c := range contributions {
		share := c.Amount.Div(totalContributions).Mul(oneHundred)

		effectiveStart := util.LaterOf(c.StartDate, year.StartDate)
		days := util.DaysInclusive(effectiveStart, effectiveEnd)

		var profit decimal.Decimal
		switch input.Mode {
		case domain.ModeActualElapsedDays:
			profit = c.Amount.Mul(decimal.NewFromInt(int64(days))).Mul(dailyRate)
		default:
			profit = share.Div(oneHundred).Mul(year.TotalProfit)
		}
		profit = profit.Round(profitPrecision)

		allocations = append(allocations, &InvestorAllocation{
			InvestorID: c.InvestorID,
			Calculation: domain.DistributionCalculation{
				InvestmentAmount: c.Amount,
				SharePercentage:  share.Round(profitPrecision),
				TotalDays:        days,
				DailyProfitRate:  dailyRate,
				CalculatedProfit: profit,
			},
		})
		totalProfit = totalProfit.Add(profit)
		sumDays += days
	}

	// Rounding across many investors can overshoot the declared pool; cap the
	// distributed total at the pool so the summary never exceeds it.
	totalDistributed := totalProfit
	if totalDistributed.GreaterThan(year.TotalProfit) {
		totalDistributed = year.TotalProfit
	}

	averageProfit := decimal.Zero
	if len(allocations) > 0 {
		averageProfit = totalDistributed.Div(decimal.NewFromInt(int64(len(allocations)))).Round(profitPrecision)
	}

	summary := domain.DistributionSummary{
		TotalInvestors:        len(allocations),
		TotalDistributed:      totalDistributed,
		AverageProfit:         averageProfit,
		TotalDays:             sumDays,
		ElapsedDays:           elapsedDays,
		TotalDaysInYear:       totalDaysInYear,
		Mode:                  input.Mode,
		TotalCalculatedProfit: totalProfit.Round(profitPrecision),
	}
	summary.CalculationMessage = calculationMessage(input.Mode, &summary)

	return &AllocationResult{Allocations: allocations, Summary: summary}, nil
}

func (s *AllocationService) emptyResult(year *domain.FinancialYear, mode domain.AllocationMode) *AllocationResult {
	summary := domain.DistributionSummary{
		TotalInvestors:        0,
		TotalDistributed:      decimal.Zero,
		AverageProfit:         decimal.Zero,
		TotalDaysInYear:       year.TotalDaysInPeriod(),
		Mode:                  mode,
		TotalCalculatedProfit: decimal.Zero,
		CalculationMessage:    "No investor contributions; nothing was distributed",
	}
	return &AllocationResult{Allocations: []*InvestorAllocation{}, Summary: summary}
}

func calculationMessage(mode domain.AllocationMode, s *domain.DistributionSummary) string {
	if mode == domain.ModeActualElapsedDays {
		return fmt.Sprintf("Distributed %s across %d investors over %d of %d elapsed days",
			s.TotalDistributed.StringFixed(profitPrecision), s.TotalInvestors, s.ElapsedDays, s.TotalDaysInYear)
	}
	return fmt.Sprintf("Distributed %s across %d investors for the full %d-day period",
		s.TotalDistributed.StringFixed(profitPrecision), s.TotalInvestors, s.TotalDaysInYear)
}
