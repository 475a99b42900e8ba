package service

import (
	"github.com/rs/zerolog/log"
	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// InvestorService manages investor records and their derived contribution
// balances
type InvestorService struct {
	investorRepo     domain.InvestorRepository
	transactionRepo  domain.TransactionRepository
	distributionRepo domain.DistributionRepository
}

// NewInvestorService creates a new InvestorService
func NewInvestorService(investorRepo domain.InvestorRepository, transactionRepo domain.TransactionRepository, distributionRepo domain.DistributionRepository) *InvestorService {
	return &InvestorService{
		investorRepo:     investorRepo,
		transactionRepo:  transactionRepo,
		distributionRepo: distributionRepo,
	}
}

// Create registers an investor. A positive initial contribution is booked as
// the opening deposit so the ledger stays the single source of the balance.
func (s *InvestorService) Create(workspaceID int32, investor *domain.Investor, initialContribution decimal.Decimal) (*domain.InvestorWithBalance, error) {
	investor.WorkspaceID = workspaceID
	investor.IsActive = true
	if err := investor.Validate(); err != nil {
		return nil, err
	}
	if initialContribution.IsNegative() {
		return nil, domain.ErrTransactionAmountInvalid
	}

	created, err := s.investorRepo.Create(investor)
	if err != nil {
		return nil, err
	}

	balance := decimal.Zero
	if initialContribution.IsPositive() {
		note := "Initial contribution"
		_, err := s.transactionRepo.Create(&domain.Transaction{
			WorkspaceID:     workspaceID,
			InvestorID:      created.ID,
			Type:            domain.TransactionTypeDeposit,
			Amount:          initialContribution,
			Currency:        created.Currency,
			TransactionDate: created.JoinDate,
			Source:          domain.SourceManual,
			Notes:           &note,
		})
		if err != nil {
			log.Error().Err(err).Int32("investor_id", created.ID).Msg("Failed to book initial contribution")
			return nil, err
		}
		balance = initialContribution
	}

	log.Info().Int32("investor_id", created.ID).Int32("workspace_id", workspaceID).Msg("Investor created")
	return &domain.InvestorWithBalance{Investor: *created, ContributionBalance: balance}, nil
}

// Get returns one investor with their current contribution balance
func (s *InvestorService) Get(workspaceID int32, id int32) (*domain.InvestorWithBalance, error) {
	investor, err := s.investorRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.transactionRepo.GetContributionSummary(workspaceID, id)
	if err != nil {
		return nil, err
	}
	return &domain.InvestorWithBalance{Investor: *investor, ContributionBalance: summary.Balance()}, nil
}

// List returns all investors with balances
func (s *InvestorService) List(workspaceID int32, includeInactive bool) ([]*domain.InvestorWithBalance, error) {
	investors, err := s.investorRepo.GetAllByWorkspace(workspaceID, includeInactive)
	if err != nil {
		return nil, err
	}
	summaries, err := s.transactionRepo.GetContributionSummaries(workspaceID)
	if err != nil {
		return nil, err
	}
	balances := make(map[int32]decimal.Decimal, len(summaries))
	for _, sum := range summaries {
		balances[sum.InvestorID] = sum.Balance()
	}

	result := make([]*domain.InvestorWithBalance, len(investors))
	for i, inv := range investors {
		result[i] = &domain.InvestorWithBalance{Investor: *inv, ContributionBalance: balances[inv.ID]}
	}
	return result, nil
}

// Update edits investor details. The balance is ledger-owned and not editable
// here.
func (s *InvestorService) Update(workspaceID int32, id int32, updated *domain.Investor) (*domain.Investor, error) {
	existing, err := s.investorRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	updated.ID = existing.ID
	updated.WorkspaceID = workspaceID
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return s.investorRepo.Update(updated)
}

// Delete soft-deletes an investor without distribution history
func (s *InvestorService) Delete(workspaceID int32, id int32) error {
	if _, err := s.investorRepo.GetByID(workspaceID, id); err != nil {
		return err
	}
	count, err := s.distributionRepo.CountByInvestor(workspaceID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrInvestorHasDistributions
	}
	if err := s.investorRepo.SoftDelete(workspaceID, id); err != nil {
		return err
	}
	log.Info().Int32("investor_id", id).Int32("workspace_id", workspaceID).Msg("Investor deleted")
	return nil
}
