package service

import (
	"testing"
	"time"

	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testYear(totalProfit int64) *domain.FinancialYear {
	return &domain.FinancialYear{
		ID:          1,
		WorkspaceID: 1,
		Year:        2023,
		PeriodName:  "FY 2023",
		StartDate:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		TotalProfit: decimal.NewFromInt(totalProfit),
		Currency:    domain.CurrencyUSD,
		Status:      domain.StatusDraft,
	}
}

func contribution(id int32, amount int64, start time.Time) domain.ContributionRecord {
	return domain.ContributionRecord{InvestorID: id, Amount: decimal.NewFromInt(amount), StartDate: start}
}

func TestAllocation_ConcreteScenario_FullPeriod(t *testing.T) {
	// 365-day year, 365000 profit, two equal contributions, B joins July 1.
	// Full-period mode ignores time of entry: both get 50% = 182500.
	svc := NewAllocationService()
	year := testYear(365000)
	contributions := []domain.ContributionRecord{
		contribution(1, 1000, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
		contribution(2, 1000, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)),
	}

	result, err := svc.Calculate(year, contributions, AllocationInput{Mode: domain.ModeFullPeriod})
	require.NoError(t, err)
	require.Len(t, result.Allocations, 2)

	for _, a := range result.Allocations {
		assert.Equal(t, "50", a.Calculation.SharePercentage.String())
		assert.Equal(t, "182500", a.Calculation.CalculatedProfit.String())
	}
	assert.Equal(t, "365000", result.Summary.TotalDistributed.String())
}

func TestAllocation_ConcreteScenario_ActualElapsedDays(t *testing.T) {
	svc := NewAllocationService()
	year := testYear(365000)
	asOf := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	contributions := []domain.ContributionRecord{
		contribution(1, 1000, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
		contribution(2, 1000, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)),
	}

	result, err := svc.Calculate(year, contributions, AllocationInput{Mode: domain.ModeActualElapsedDays, AsOf: asOf})
	require.NoError(t, err)
	require.Len(t, result.Allocations, 2)

	a, b := result.Allocations[0], result.Allocations[1]

	// dailyProfitRate = 365000 / (2000 × 365) = 0.5, same for both
	assert.True(t, a.Calculation.DailyProfitRate.Equal(decimal.NewFromFloat(0.5)),
		"rate = %s", a.Calculation.DailyProfitRate)
	assert.True(t, a.Calculation.DailyProfitRate.Equal(b.Calculation.DailyProfitRate))

	assert.Equal(t, 365, a.Calculation.TotalDays)
	assert.Equal(t, "182500", a.Calculation.CalculatedProfit.String())

	// B: July 1 through December 31 inclusive = 184 days
	assert.Equal(t, 184, b.Calculation.TotalDays)
	assert.Equal(t, "92000", b.Calculation.CalculatedProfit.String())

	assert.Equal(t, 365, result.Summary.TotalDaysInYear)
	assert.Equal(t, 365, result.Summary.ElapsedDays)
}

func TestAllocation_SharePercentagesSumTo100(t *testing.T) {
	svc := NewAllocationService()
	year := testYear(100000)
	contributions := []domain.ContributionRecord{
		contribution(1, 333, year.StartDate),
		contribution(2, 721, year.StartDate),
		contribution(3, 1009, year.StartDate),
		contribution(4, 57, year.StartDate),
	}

	result, err := svc.Calculate(year, contributions, AllocationInput{Mode: domain.ModeFullPeriod})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, a := range result.Allocations {
		sum = sum.Add(a.Calculation.SharePercentage)
	}
	diff := sum.Sub(decimal.NewFromInt(100)).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromFloat(0.01)), "share sum = %s", sum)
}

func TestAllocation_FullPeriodTotalEqualsTotalProfit(t *testing.T) {
	svc := NewAllocationService()
	year := testYear(777777)
	contributions := []domain.ContributionRecord{
		contribution(1, 123, year.StartDate),
		contribution(2, 456, time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)),
		contribution(3, 789, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)), // after period end
	}

	result, err := svc.Calculate(year, contributions, AllocationInput{Mode: domain.ModeFullPeriod})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, a := range result.Allocations {
		sum = sum.Add(a.Calculation.CalculatedProfit)
	}
	diff := sum.Sub(year.TotalProfit).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromFloat(0.01)), "distributed sum = %s", sum)
}

func TestAllocation_ElapsedDaysMonotonicity(t *testing.T) {
	// Same contribution, earlier start → strictly more accrued profit
	svc := NewAllocationService()
	year := testYear(365000)
	asOf := year.EndDate
	contributions := []domain.ContributionRecord{
		contribution(1, 1000, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)),
		contribution(2, 1000, time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC)),
	}

	result, err := svc.Calculate(year, contributions, AllocationInput{Mode: domain.ModeActualElapsedDays, AsOf: asOf})
	require.NoError(t, err)

	earlier, later := result.Allocations[0], result.Allocations[1]
	assert.Equal(t, earlier.Calculation.TotalDays, later.Calculation.TotalDays+1)
	assert.True(t, earlier.Calculation.CalculatedProfit.GreaterThan(later.Calculation.CalculatedProfit))
}

func TestAllocation_LateEntrant(t *testing.T) {
	// Start after the period end: zero under elapsed-days mode, but a
	// non-zero ownership-weighted share under full-period mode.
	svc := NewAllocationService()
	year := testYear(365000)
	late := contribution(2, 1000, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	contributions := []domain.ContributionRecord{
		contribution(1, 1000, year.StartDate),
		late,
	}

	elapsed, err := svc.Calculate(year, contributions, AllocationInput{Mode: domain.ModeActualElapsedDays, AsOf: year.EndDate})
	require.NoError(t, err)
	assert.Equal(t, 0, elapsed.Allocations[1].Calculation.TotalDays)
	assert.True(t, elapsed.Allocations[1].Calculation.CalculatedProfit.IsZero())

	full, err := svc.Calculate(year, contributions, AllocationInput{Mode: domain.ModeFullPeriod})
	require.NoError(t, err)
	assert.Equal(t, "182500", full.Allocations[1].Calculation.CalculatedProfit.String())
}

func TestAllocation_EmptyInvestors_Refused(t *testing.T) {
	svc := NewAllocationService()
	_, err := svc.Calculate(testYear(1000), nil, AllocationInput{Mode: domain.ModeFullPeriod})
	assert.ErrorIs(t, err, domain.ErrNoApprovedInvestors)
}

func TestAllocation_EmptyInvestors_AllowEmpty(t *testing.T) {
	svc := NewAllocationService()
	result, err := svc.Calculate(testYear(1000), nil, AllocationInput{Mode: domain.ModeFullPeriod, AllowEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.TotalInvestors)
	assert.True(t, result.Summary.TotalDistributed.IsZero())
	assert.True(t, result.Summary.AverageProfit.IsZero())
}

func TestAllocation_DistributedTotalCapped(t *testing.T) {
	// Many thirds round up; the summary total must never exceed the pool
	svc := NewAllocationService()
	year := testYear(100)
	contributions := make([]domain.ContributionRecord, 3)
	for i := range contributions {
		contributions[i] = contribution(int32(i+1), 1, year.StartDate)
	}

	result, err := svc.Calculate(year, contributions, AllocationInput{Mode: domain.ModeFullPeriod})
	require.NoError(t, err)
	assert.True(t, result.Summary.TotalDistributed.LessThanOrEqual(year.TotalProfit),
		"distributed %s > pool %s", result.Summary.TotalDistributed, year.TotalProfit)
}

func TestAllocation_InvalidInputs(t *testing.T) {
	svc := NewAllocationService()
	contributions := []domain.ContributionRecord{contribution(1, 1000, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))}

	badProfit := testYear(365000)
	badProfit.TotalProfit = decimal.Zero
	_, err := svc.Calculate(badProfit, contributions, AllocationInput{Mode: domain.ModeFullPeriod})
	assert.ErrorIs(t, err, domain.ErrInvalidTotalProfit)

	inverted := testYear(365000)
	inverted.StartDate, inverted.EndDate = inverted.EndDate, inverted.StartDate
	_, err = svc.Calculate(inverted, contributions, AllocationInput{Mode: domain.ModeFullPeriod})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	zeroContribution := []domain.ContributionRecord{contribution(1, 0, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))}
	_, err = svc.Calculate(testYear(365000), zeroContribution, AllocationInput{Mode: domain.ModeFullPeriod})
	assert.ErrorIs(t, err, domain.ErrInvalidContribution)
}

func TestAllocation_AsOfMidPeriod(t *testing.T) {
	// asOf in the middle of the period bounds every window
	svc := NewAllocationService()
	year := testYear(365000)
	asOf := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	contributions := []domain.ContributionRecord{contribution(1, 2000, year.StartDate)}

	result, err := svc.Calculate(year, contributions, AllocationInput{Mode: domain.ModeActualElapsedDays, AsOf: asOf})
	require.NoError(t, err)

	assert.Equal(t, 31, result.Allocations[0].Calculation.TotalDays)
	assert.Equal(t, 31, result.Summary.ElapsedDays)
	// 2000 × 31 × (365000 / (2000 × 365)) = 31000
	assert.Equal(t, "31000", result.Allocations[0].Calculation.CalculatedProfit.String())
}
