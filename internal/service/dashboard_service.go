package service

import (
	"time"

	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const recentTransactionCount = 5

// DashboardService assembles the summary the dashboard polls for
type DashboardService struct {
	investorRepo     domain.InvestorRepository
	transactionRepo  domain.TransactionRepository
	yearRepo         domain.FinancialYearRepository
	distributionRepo domain.DistributionRepository
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	investorRepo domain.InvestorRepository,
	transactionRepo domain.TransactionRepository,
	yearRepo domain.FinancialYearRepository,
	distributionRepo domain.DistributionRepository,
) *DashboardService {
	return &DashboardService{
		investorRepo:     investorRepo,
		transactionRepo:  transactionRepo,
		yearRepo:         yearRepo,
		distributionRepo: distributionRepo,
	}
}

// GetSummary builds the dashboard payload
func (s *DashboardService) GetSummary(workspaceID int32) (*domain.DashboardSummary, error) {
	total, active, err := s.investorRepo.CountByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	contributions, err := s.totalContributions(workspaceID)
	if err != nil {
		return nil, err
	}

	currentYear, err := s.currentYearOverview(workspaceID)
	if err != nil {
		return nil, err
	}

	recent, err := s.transactionRepo.GetRecent(workspaceID, recentTransactionCount)
	if err != nil {
		return nil, err
	}

	return &domain.DashboardSummary{
		TotalInvestors:     total,
		ActiveInvestors:    active,
		TotalContributions: contributions,
		CurrentYear:        currentYear,
		RecentTransactions: recent,
	}, nil
}

func (s *DashboardService) totalContributions(workspaceID int32) ([]domain.CurrencyAmount, error) {
	investors, err := s.investorRepo.GetAllByWorkspace(workspaceID, false)
	if err != nil {
		return nil, err
	}
	summaries, err := s.transactionRepo.GetContributionSummaries(workspaceID)
	if err != nil {
		return nil, err
	}

	currencyByInvestor := make(map[int32]domain.Currency, len(investors))
	for _, inv := range investors {
		currencyByInvestor[inv.ID] = inv.Currency
	}

	totals := map[domain.Currency]decimal.Decimal{
		domain.CurrencyIQD: decimal.Zero,
		domain.CurrencyUSD: decimal.Zero,
	}
	for _, sum := range summaries {
		currency, ok := currencyByInvestor[sum.InvestorID]
		if !ok {
			continue
		}
		totals[currency] = totals[currency].Add(sum.Balance())
	}

	return []domain.CurrencyAmount{
		{Currency: domain.CurrencyIQD, Amount: totals[domain.CurrencyIQD]},
		{Currency: domain.CurrencyUSD, Amount: totals[domain.CurrencyUSD]},
	}, nil
}

// currentYearOverview picks the most relevant year: the latest non-closed
// year whose period is active, falling back to the latest non-closed year.
func (s *DashboardService) currentYearOverview(workspaceID int32) (*domain.YearOverview, error) {
	years, err := s.yearRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var current *domain.FinancialYear
	for _, y := range years {
		if y.Status == domain.StatusClosed {
			continue
		}
		if y.PeriodStatusAt(now) == domain.PeriodActive {
			current = y
			break
		}
		if current == nil {
			current = y
		}
	}
	if current == nil {
		return nil, nil
	}

	distributions, err := s.distributionRepo.GetByYear(workspaceID, current.ID)
	if err != nil {
		return nil, err
	}
	totalDistributed := decimal.Zero
	for _, d := range distributions {
		totalDistributed = totalDistributed.Add(d.Calculation.CalculatedProfit)
	}
	if totalDistributed.GreaterThan(current.TotalProfit) {
		totalDistributed = current.TotalProfit
	}

	return &domain.YearOverview{
		Year:             current,
		PeriodStatus:     current.PeriodStatusAt(now),
		TotalDistributed: totalDistributed,
		InvestorCount:    len(distributions),
	}, nil
}
