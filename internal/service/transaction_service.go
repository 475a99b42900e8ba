package service

import (
	"github.com/rs/zerolog/log"
	"github.com/saham-app/saham-backend/internal/domain"
)

// TransactionService manages the investor ledger. Deposits and withdrawals
// move contributed capital; withdrawals are refused when they would push the
// contribution balance negative.
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	investorRepo    domain.InvestorRepository
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, investorRepo domain.InvestorRepository) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		investorRepo:    investorRepo,
	}
}

// Create books a manual ledger entry
func (s *TransactionService) Create(workspaceID int32, tx *domain.Transaction) (*domain.Transaction, error) {
	tx.WorkspaceID = workspaceID
	tx.Source = domain.SourceManual
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	investor, err := s.investorRepo.GetByID(workspaceID, tx.InvestorID)
	if err != nil {
		return nil, err
	}
	if !investor.IsActive {
		return nil, domain.ErrInvestorInactive
	}
	if tx.Currency != investor.Currency {
		return nil, domain.ErrInvalidCurrency
	}

	if tx.Type == domain.TransactionTypeWithdrawal {
		if err := s.checkBalance(workspaceID, tx.InvestorID, tx); err != nil {
			return nil, err
		}
	}

	created, err := s.transactionRepo.Create(tx)
	if err != nil {
		log.Error().Err(err).Int32("investor_id", tx.InvestorID).Msg("Failed to create transaction")
		return nil, err
	}
	return created, nil
}

// Get returns one ledger entry
func (s *TransactionService) Get(workspaceID int32, id int32) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(workspaceID, id)
}

// List returns ledger entries, newest first, paginated
func (s *TransactionService) List(workspaceID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if filters == nil {
		filters = &domain.TransactionFilters{}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = domain.DefaultPageSize
	}
	if filters.PageSize > domain.MaxPageSize {
		filters.PageSize = domain.MaxPageSize
	}
	return s.transactionRepo.GetByWorkspace(workspaceID, filters)
}

// Update edits a manual ledger entry. System-generated rows (rollover
// deposits, payout records) are immutable.
func (s *TransactionService) Update(workspaceID int32, id int32, updated *domain.Transaction) (*domain.Transaction, error) {
	existing, err := s.transactionRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	if existing.IsSystemGenerated() {
		return nil, domain.ErrSystemTransactionImmutable
	}

	updated.ID = existing.ID
	updated.WorkspaceID = workspaceID
	updated.InvestorID = existing.InvestorID
	updated.Source = existing.Source
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if updated.Type == domain.TransactionTypeWithdrawal {
		if err := s.checkBalance(workspaceID, existing.InvestorID, updated); err != nil {
			return nil, err
		}
	}
	return s.transactionRepo.Update(updated)
}

// Delete removes a manual ledger entry
func (s *TransactionService) Delete(workspaceID int32, id int32) error {
	existing, err := s.transactionRepo.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	if existing.IsSystemGenerated() {
		return domain.ErrSystemTransactionImmutable
	}
	return s.transactionRepo.SoftDelete(workspaceID, id)
}

// checkBalance verifies a withdrawal stays within the contribution balance.
// When editing an existing withdrawal, the row's previous amount is already
// part of the summary, so the net change is what gets checked.
func (s *TransactionService) checkBalance(workspaceID int32, investorID int32, tx *domain.Transaction) error {
	summary, err := s.transactionRepo.GetContributionSummary(workspaceID, investorID)
	if err != nil {
		return err
	}
	balance := summary.Balance()
	if tx.ID != 0 {
		prior, err := s.transactionRepo.GetByID(workspaceID, tx.ID)
		if err != nil {
			return err
		}
		if prior.Type == domain.TransactionTypeWithdrawal {
			balance = balance.Add(prior.Amount)
		}
	}
	if tx.Amount.GreaterThan(balance) {
		return domain.ErrInsufficientBalance
	}
	return nil
}
