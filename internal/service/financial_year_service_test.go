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

type yearFixture struct {
	svc          *FinancialYearService
	years        *testutil.MockFinancialYearRepository
	distribs     *testutil.MockDistributionRepository
	investors    *testutil.MockInvestorRepository
	transactions *testutil.MockTransactionRepository
}

func newYearFixture() *yearFixture {
	years := testutil.NewMockFinancialYearRepository()
	distribs := testutil.NewMockDistributionRepository()
	investors := testutil.NewMockInvestorRepository()
	transactions := testutil.NewMockTransactionRepository()
	distribs.TransactionRepo = transactions

	rollover := NewRolloverService(distribs, years)
	svc := NewFinancialYearService(years, distribs, investors, transactions, NewAllocationService(), rollover)
	return &yearFixture{
		svc:          svc,
		years:        years,
		distribs:     distribs,
		investors:    investors,
		transactions: transactions,
	}
}

// seedYear adds a 2023 calendar-year period with the given profit and status
func (f *yearFixture) seedYear(status domain.FinancialYearStatus, totalProfit int64) *domain.FinancialYear {
	year := &domain.FinancialYear{
		WorkspaceID: 1,
		Year:        2023,
		PeriodName:  "FY 2023",
		StartDate:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		TotalProfit: decimal.NewFromInt(totalProfit),
		Currency:    domain.CurrencyUSD,
		Status:      status,
	}
	f.years.AddYear(year)
	return year
}

// seedInvestor adds an active investor with a single deposit of the given amount
func (f *yearFixture) seedInvestor(id int32, deposit int64, joinDate time.Time) *domain.Investor {
	inv := &domain.Investor{
		ID:          id,
		WorkspaceID: 1,
		Name:        "Investor",
		Currency:    domain.CurrencyUSD,
		JoinDate:    joinDate,
		IsActive:    true,
	}
	f.investors.AddInvestor(inv)
	f.transactions.AddTransaction(&domain.Transaction{
		WorkspaceID:     1,
		InvestorID:      id,
		Type:            domain.TransactionTypeDeposit,
		Amount:          decimal.NewFromInt(deposit),
		Currency:        domain.CurrencyUSD,
		TransactionDate: joinDate,
		Source:          domain.SourceManual,
	})
	return inv
}

func TestFinancialYearService_Create_StartsDraft(t *testing.T) {
	f := newYearFixture()
	year, err := f.svc.Create(1, &domain.FinancialYear{
		Year:        2023,
		PeriodName:  "FY 2023",
		StartDate:   time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		TotalProfit: decimal.NewFromInt(100000),
		Currency:    domain.CurrencyUSD,
		Status:      domain.StatusApproved, // client cannot pick the status
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, year.Status)
	assert.Equal(t, int32(1), year.WorkspaceID)
}

func TestFinancialYearService_Create_RejectsInvertedPeriod(t *testing.T) {
	f := newYearFixture()
	_, err := f.svc.Create(1, &domain.FinancialYear{
		Year:        2023,
		PeriodName:  "FY 2023",
		StartDate:   time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalProfit: decimal.NewFromInt(100000),
		Currency:    domain.CurrencyUSD,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestFinancialYearService_Update_OnlyDraft(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusCalculated, 100000)

	_, err := f.svc.Update(1, year.ID, year)
	assert.ErrorIs(t, err, domain.ErrYearNotEditable)
}

func TestFinancialYearService_Delete_RefusesWithDistributions(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusCalculated, 100000)
	f.distribs.AddDistribution(&domain.Distribution{
		WorkspaceID:     1,
		FinancialYearID: year.ID,
		InvestorID:      1,
		Status:          domain.StatusCalculated,
	})

	err := f.svc.Delete(1, year.ID)
	assert.ErrorIs(t, err, domain.ErrYearHasDistributions)

	// Without distributions the delete goes through
	empty := f.seedYear(domain.StatusDraft, 50000)
	require.NoError(t, f.svc.Delete(1, empty.ID))
	_, err = f.svc.Get(1, empty.ID)
	assert.ErrorIs(t, err, domain.ErrFinancialYearNotFound)
}

func TestFinancialYearService_CalculateDistributions_FullPeriod(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusDraft, 365000)
	f.seedInvestor(1, 1000, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	f.seedInvestor(2, 1000, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC))

	summary, err := f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{ForceFullPeriod: true})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalInvestors)
	assert.Equal(t, "365000", summary.TotalDistributed.String())
	assert.Equal(t, domain.ModeFullPeriod, summary.Mode)

	updated, err := f.svc.Get(1, year.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCalculated, updated.Status)

	distributions, err := f.svc.GetDistributions(1, year.ID)
	require.NoError(t, err)
	require.Len(t, distributions, 2)
	for _, d := range distributions {
		assert.Equal(t, "182500", d.Calculation.CalculatedProfit.String())
		assert.Equal(t, domain.StatusCalculated, d.Status)
	}
}

func TestFinancialYearService_CalculateDistributions_SkipsOtherCurrencyAndInactive(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusDraft, 100000)
	f.seedInvestor(1, 1000, year.StartDate)

	iqd := f.seedInvestor(2, 1000, year.StartDate)
	iqd.Currency = domain.CurrencyIQD

	inactive := f.seedInvestor(3, 1000, year.StartDate)
	inactive.IsActive = false

	summary, err := f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{ForceFullPeriod: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalInvestors)
	assert.Equal(t, "100000", summary.TotalDistributed.String())
}

func TestFinancialYearService_CalculateDistributions_EmptyRefusedByDefault(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusDraft, 100000)

	_, err := f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{})
	assert.ErrorIs(t, err, domain.ErrNoApprovedInvestors)

	summary, err := f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{AllowEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalInvestors)
	assert.True(t, summary.TotalDistributed.IsZero())
}

func TestFinancialYearService_CalculateDistributions_ClosedYearRefused(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusClosed, 100000)
	f.seedInvestor(1, 1000, year.StartDate)

	_, err := f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{})
	assert.ErrorIs(t, err, domain.ErrYearClosed)
}

func TestFinancialYearService_Recalculate_PreservesAppliedRollover(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusDraft, 100000)
	f.seedInvestor(1, 1000, year.StartDate)

	_, err := f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{ForceFullPeriod: true})
	require.NoError(t, err)

	// Approve and roll over 30%
	year.Status = domain.StatusApproved
	rolloverSvc := NewRolloverService(f.distribs, f.years)
	_, err = rolloverSvc.Apply(1, year.ID, RolloverInput{Percentage: decimal.NewFromInt(30)})
	require.NoError(t, err)

	before, err := f.svc.GetDistributions(1, year.ID)
	require.NoError(t, err)
	require.True(t, before[0].Rollover.IsRolledOver)
	rolledAmount := before[0].Rollover.RolloverAmount

	// Destructive recompute replaces every row but keeps the applied rollover
	_, err = f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{ForceFullPeriod: true})
	require.NoError(t, err)

	after, err := f.svc.GetDistributions(1, year.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.True(t, after[0].Rollover.IsRolledOver)
	assert.True(t, after[0].Rollover.RolloverAmount.Equal(rolledAmount))
}

func TestFinancialYearService_CalculateDistributions_SingleFlight(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusDraft, 100000)
	f.seedInvestor(1, 1000, year.StartDate)

	require.True(t, f.svc.lockYear(year.ID))
	_, err := f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{})
	assert.ErrorIs(t, err, domain.ErrCalculationInProgress)

	f.svc.unlockYear(year.ID)
	_, err = f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{ForceFullPeriod: true})
	assert.NoError(t, err)
}

func TestFinancialYearService_ApproveDistributions(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusDraft, 100000)
	f.seedInvestor(1, 1000, year.StartDate)

	// Draft cannot be approved before a calculation exists
	_, err := f.svc.ApproveDistributions(1, year.ID)
	assert.ErrorIs(t, err, domain.ErrYearNotCalculated)

	_, err = f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{ForceFullPeriod: true})
	require.NoError(t, err)

	approved, err := f.svc.ApproveDistributions(1, year.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)

	distributions, err := f.svc.GetDistributions(1, year.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, distributions[0].Status)

	// Approving twice is refused
	_, err = f.svc.ApproveDistributions(1, year.ID)
	assert.ErrorIs(t, err, domain.ErrYearNotCalculated)
}

func TestFinancialYearService_Approve_AppliesConfiguredRollover(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusDraft, 100000)
	year.Rollover = domain.RolloverSettings{RolloverPercentage: decimal.NewFromInt(30)}
	f.seedInvestor(1, 1000, year.StartDate)

	_, err := f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{ForceFullPeriod: true})
	require.NoError(t, err)
	_, err = f.svc.ApproveDistributions(1, year.ID)
	require.NoError(t, err)

	distributions, err := f.svc.GetDistributions(1, year.ID)
	require.NoError(t, err)
	require.True(t, distributions[0].Rollover.IsRolledOver)
	assert.Equal(t, "30000", distributions[0].Rollover.RolloverAmount.String())

	// The rollover booked a system deposit raising the contribution balance
	summary, err := f.transactions.GetContributionSummary(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "31000", summary.Balance().String())
}

func TestFinancialYearService_RecordPayouts(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusDraft, 100000)
	f.seedInvestor(1, 1000, year.StartDate)

	_, err := f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{ForceFullPeriod: true})
	require.NoError(t, err)

	// Not yet approved
	_, err = f.svc.RecordPayouts(1, year.ID)
	assert.ErrorIs(t, err, domain.ErrYearNotApproved)

	_, err = f.svc.ApproveDistributions(1, year.ID)
	require.NoError(t, err)

	distributed, err := f.svc.RecordPayouts(1, year.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDistributed, distributed.Status)

	profitType := domain.TransactionTypeProfit
	page, err := f.transactions.GetByWorkspace(1, &domain.TransactionFilters{Type: &profitType, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "100000", page.Data[0].Amount.String())
	assert.Equal(t, domain.SourceDistribution, page.Data[0].Source)
	assert.True(t, page.Data[0].IsSystemGenerated())
}

func TestFinancialYearService_RecordPayouts_FullyRolledOver(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusDraft, 100000)
	f.seedInvestor(1, 1000, year.StartDate)

	_, err := f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{ForceFullPeriod: true})
	require.NoError(t, err)
	_, err = f.svc.ApproveDistributions(1, year.ID)
	require.NoError(t, err)

	rolloverSvc := NewRolloverService(f.distribs, f.years)
	_, err = rolloverSvc.Apply(1, year.ID, RolloverInput{Percentage: decimal.NewFromInt(100)})
	require.NoError(t, err)

	// Everything went back into capital, nothing left to pay out
	_, err = f.svc.RecordPayouts(1, year.ID)
	assert.ErrorIs(t, err, domain.ErrNothingToDistribute)
}

func TestFinancialYearService_Close(t *testing.T) {
	f := newYearFixture()
	year := f.seedYear(domain.StatusDraft, 100000)
	f.seedInvestor(1, 1000, year.StartDate)

	// Calculated is not enough
	_, err := f.svc.CalculateDistributions(1, year.ID, CalculateDistributionsInput{ForceFullPeriod: true})
	require.NoError(t, err)
	_, err = f.svc.Close(1, year.ID)
	assert.ErrorIs(t, err, domain.ErrYearNotApproved)

	_, err = f.svc.ApproveDistributions(1, year.ID)
	require.NoError(t, err)

	closed, err := f.svc.Close(1, year.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, closed.Status)

	// Closing twice is refused
	_, err = f.svc.Close(1, year.ID)
	assert.ErrorIs(t, err, domain.ErrYearClosed)
}

func TestFinancialYearService_Close_RefusesActivePeriod(t *testing.T) {
	f := newYearFixture()
	now := time.Now().UTC()
	year := &domain.FinancialYear{
		WorkspaceID: 1,
		Year:        int32(now.Year()),
		PeriodName:  "Current",
		StartDate:   now.AddDate(0, -1, 0),
		EndDate:     now.AddDate(0, 11, 0),
		TotalProfit: decimal.NewFromInt(100000),
		Currency:    domain.CurrencyUSD,
		Status:      domain.StatusApproved,
	}
	f.years.AddYear(year)

	_, err := f.svc.Close(1, year.ID)
	assert.ErrorIs(t, err, domain.ErrYearNotExpired)
}
