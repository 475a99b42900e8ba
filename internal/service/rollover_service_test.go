package service

import (
	"testing"
	"time"

	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/saham-app/saham-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rolloverFixture struct {
	svc          *RolloverService
	years        *testutil.MockFinancialYearRepository
	distribs     *testutil.MockDistributionRepository
	transactions *testutil.MockTransactionRepository
}

func newRolloverFixture() *rolloverFixture {
	years := testutil.NewMockFinancialYearRepository()
	distribs := testutil.NewMockDistributionRepository()
	transactions := testutil.NewMockTransactionRepository()
	distribs.TransactionRepo = transactions
	return &rolloverFixture{
		svc:          NewRolloverService(distribs, years),
		years:        years,
		distribs:     distribs,
		transactions: transactions,
	}
}

func (f *rolloverFixture) seedApprovedYear() *domain.FinancialYear {
	year := &domain.FinancialYear{
		WorkspaceID: 1,
		Year:        2023,
		PeriodName:  "FY 2023",
		StartDate:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		TotalProfit: decimal.NewFromInt(365000),
		Currency:    domain.CurrencyUSD,
		Status:      domain.StatusApproved,
	}
	f.years.AddYear(year)
	return year
}

func (f *rolloverFixture) seedDistribution(yearID int32, investorID int32, profit int64) *domain.Distribution {
	d := &domain.Distribution{
		WorkspaceID:     1,
		FinancialYearID: yearID,
		InvestorID:      investorID,
		Calculation: domain.DistributionCalculation{
			CalculatedProfit: decimal.NewFromInt(profit),
		},
		Status: domain.StatusApproved,
	}
	f.distribs.AddDistribution(d)
	return d
}

func TestRolloverService_Apply_SplitsProfitIntoCapitalAndPayable(t *testing.T) {
	f := newRolloverFixture()
	year := f.seedApprovedYear()
	d := f.seedDistribution(year.ID, 1, 100000)

	result, err := f.svc.Apply(1, year.ID, RolloverInput{Percentage: decimal.NewFromInt(30)})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RolledCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Equal(t, "30000", result.TotalRolled.String())

	updated, err := f.distribs.GetByID(1, d.ID)
	require.NoError(t, err)
	assert.True(t, updated.Rollover.IsRolledOver)
	assert.Equal(t, "30000", updated.Rollover.RolloverAmount.String())
	assert.Equal(t, "70000", updated.Rollover.PayableAmount(updated.Calculation.CalculatedProfit).String())
}

func TestRolloverService_Apply_BooksRolloverDeposit(t *testing.T) {
	f := newRolloverFixture()
	year := f.seedApprovedYear()
	f.seedDistribution(year.ID, 1, 100000)

	_, err := f.svc.Apply(1, year.ID, RolloverInput{Percentage: decimal.NewFromInt(30)})
	require.NoError(t, err)

	page, err := f.transactions.GetByWorkspace(1, &domain.TransactionFilters{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	deposit := page.Data[0]
	assert.Equal(t, domain.TransactionTypeDeposit, deposit.Type)
	assert.Equal(t, domain.SourceRollover, deposit.Source)
	assert.Equal(t, "30000", deposit.Amount.String())
	assert.True(t, deposit.IsSystemGenerated())
	require.NotNil(t, deposit.FinancialYearID)
	assert.Equal(t, year.ID, *deposit.FinancialYearID)
}

func TestRolloverService_Apply_SkipsAlreadyRolled(t *testing.T) {
	f := newRolloverFixture()
	year := f.seedApprovedYear()
	rolled := f.seedDistribution(year.ID, 1, 100000)
	rolled.Rollover = domain.DistributionRollover{IsRolledOver: true, RolloverAmount: decimal.NewFromInt(50000)}
	f.seedDistribution(year.ID, 2, 40000)

	result, err := f.svc.Apply(1, year.ID, RolloverInput{Percentage: decimal.NewFromInt(25)})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RolledCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, "10000", result.TotalRolled.String())

	// The earlier rollover keeps its original amount
	kept, err := f.distribs.GetByID(1, rolled.ID)
	require.NoError(t, err)
	assert.Equal(t, "50000", kept.Rollover.RolloverAmount.String())
}

func TestRolloverService_Apply_StatusGuards(t *testing.T) {
	f := newRolloverFixture()
	year := f.seedApprovedYear()
	f.seedDistribution(year.ID, 1, 100000)

	for _, status := range []domain.FinancialYearStatus{domain.StatusDraft, domain.StatusCalculated, domain.StatusClosed} {
		year.Status = status
		_, err := f.svc.Apply(1, year.ID, RolloverInput{Percentage: decimal.NewFromInt(30)})
		assert.ErrorIs(t, err, domain.ErrNoApprovedDistributions, "status %s", status)
	}

	year.Status = domain.StatusDistributed
	_, err := f.svc.Apply(1, year.ID, RolloverInput{Percentage: decimal.NewFromInt(30)})
	assert.NoError(t, err)
}

func TestRolloverService_Apply_PercentageBounds(t *testing.T) {
	f := newRolloverFixture()
	year := f.seedApprovedYear()
	f.seedDistribution(year.ID, 1, 100000)

	for _, pct := range []int64{0, -5, 101} {
		_, err := f.svc.Apply(1, year.ID, RolloverInput{Percentage: decimal.NewFromInt(pct)})
		assert.ErrorIs(t, err, domain.ErrInvalidRolloverPercentage, "percentage %d", pct)
	}

	result, err := f.svc.Apply(1, year.ID, RolloverInput{Percentage: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, "100000", result.TotalRolled.String())
}

func TestRolloverService_Apply_NoDistributions(t *testing.T) {
	f := newRolloverFixture()
	year := f.seedApprovedYear()

	_, err := f.svc.Apply(1, year.ID, RolloverInput{Percentage: decimal.NewFromInt(30)})
	assert.ErrorIs(t, err, domain.ErrNoApprovedDistributions)
}

func TestRolloverService_Apply_PersistsSettings(t *testing.T) {
	f := newRolloverFixture()
	year := f.seedApprovedYear()
	f.seedDistribution(year.ID, 1, 100000)

	autoDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.Apply(1, year.ID, RolloverInput{
		Percentage:       decimal.NewFromInt(30),
		AutoRollover:     true,
		AutoRolloverDate: &autoDate,
	})
	require.NoError(t, err)

	updated, err := f.years.GetByID(1, year.ID)
	require.NoError(t, err)
	assert.Equal(t, "30", updated.Rollover.RolloverPercentage.String())
	assert.True(t, updated.Rollover.AutoRollover)
	require.NotNil(t, updated.Rollover.AutoRolloverDate)
	assert.True(t, updated.Rollover.AutoRolloverDate.Equal(autoDate))
}
