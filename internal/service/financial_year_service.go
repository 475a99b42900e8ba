package service

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// CalculateDistributionsInput is the request side of one engine invocation
type CalculateDistributionsInput struct {
	ForceFullPeriod bool
	AsOf            *time.Time
	AllowEmpty      bool
}

// FinancialYearService owns the financial-year lifecycle: CRUD while draft,
// running the allocation engine, approval, payout recording, and closing.
type FinancialYearService struct {
	yearRepo         domain.FinancialYearRepository
	distributionRepo domain.DistributionRepository
	investorRepo     domain.InvestorRepository
	transactionRepo  domain.TransactionRepository
	allocation       *AllocationService
	rollover         *RolloverService

	// At most one in-flight engine invocation per financial year. Client-side
	// button disabling cannot stop two sessions racing, so the guard lives
	// here too.
	mu        sync.Mutex
	yearLocks map[int32]bool
}

// NewFinancialYearService creates a new FinancialYearService
func NewFinancialYearService(
	yearRepo domain.FinancialYearRepository,
	distributionRepo domain.DistributionRepository,
	investorRepo domain.InvestorRepository,
	transactionRepo domain.TransactionRepository,
	allocation *AllocationService,
	rollover *RolloverService,
) *FinancialYearService {
	return &FinancialYearService{
		yearRepo:         yearRepo,
		distributionRepo: distributionRepo,
		investorRepo:     investorRepo,
		transactionRepo:  transactionRepo,
		allocation:       allocation,
		rollover:         rollover,
		yearLocks:        make(map[int32]bool),
	}
}

func (s *FinancialYearService) lockYear(id int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.yearLocks[id] {
		return false
	}
	s.yearLocks[id] = true
	return true
}

func (s *FinancialYearService) unlockYear(id int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.yearLocks, id)
}

// Create registers a new financial year in draft status
func (s *FinancialYearService) Create(workspaceID int32, year *domain.FinancialYear) (*domain.FinancialYear, error) {
	year.WorkspaceID = workspaceID
	year.Status = domain.StatusDraft
	if err := year.Validate(); err != nil {
		return nil, err
	}
	return s.yearRepo.Create(year)
}

// Get returns one financial year
func (s *FinancialYearService) Get(workspaceID int32, id int32) (*domain.FinancialYear, error) {
	return s.yearRepo.GetByID(workspaceID, id)
}

// List returns all financial years for the workspace
func (s *FinancialYearService) List(workspaceID int32) ([]*domain.FinancialYear, error) {
	return s.yearRepo.GetAllByWorkspace(workspaceID)
}

// Update edits a year definition. Only draft years are editable.
func (s *FinancialYearService) Update(workspaceID int32, id int32, updated *domain.FinancialYear) (*domain.FinancialYear, error) {
	existing, err := s.yearRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsEditable() {
		return nil, domain.ErrYearNotEditable
	}

	updated.ID = existing.ID
	updated.WorkspaceID = workspaceID
	updated.Status = existing.Status
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return s.yearRepo.Update(updated)
}

// Delete removes a year that has no distribution records
func (s *FinancialYearService) Delete(workspaceID int32, id int32) error {
	if _, err := s.yearRepo.GetByID(workspaceID, id); err != nil {
		return err
	}
	count, err := s.distributionRepo.CountByYear(workspaceID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrYearHasDistributions
	}
	return s.yearRepo.Delete(workspaceID, id)
}

// CalculateDistributions runs the allocation engine for a year and replaces
// its distribution set. Prior records are discarded in full, except that
// rollover flags already applied are carried over, never recomputed.
func (s *FinancialYearService) CalculateDistributions(workspaceID int32, yearID int32, input CalculateDistributionsInput) (*domain.DistributionSummary, error) {
	if !s.lockYear(yearID) {
		return nil, domain.ErrCalculationInProgress
	}
	defer s.unlockYear(yearID)

	year, err := s.yearRepo.GetByID(workspaceID, yearID)
	if err != nil {
		return nil, err
	}
	if year.Status == domain.StatusClosed {
		return nil, domain.ErrYearClosed
	}

	contributions, err := s.contributionSnapshot(workspaceID, year)
	if err != nil {
		return nil, err
	}

	mode := domain.ModeActualElapsedDays
	if input.ForceFullPeriod {
		mode = domain.ModeFullPeriod
	}
	allocInput := AllocationInput{Mode: mode, AllowEmpty: input.AllowEmpty}
	if input.AsOf != nil {
		allocInput.AsOf = *input.AsOf
	}

	result, err := s.allocation.Calculate(year, contributions, allocInput)
	if err != nil {
		return nil, err
	}

	// Carry applied rollovers across the destructive replace
	existing, err := s.distributionRepo.GetByYear(workspaceID, yearID)
	if err != nil {
		return nil, err
	}
	priorRollover := make(map[int32]domain.DistributionRollover, len(existing))
	for _, d := range existing {
		if d.Rollover.IsRolledOver {
			priorRollover[d.InvestorID] = d.Rollover
		}
	}

	newStatus := year.Status
	if newStatus == domain.StatusDraft {
		newStatus = domain.StatusCalculated
	}

	distributions := make([]*domain.Distribution, len(result.Allocations))
	for i, a := range result.Allocations {
		d := &domain.Distribution{
			WorkspaceID:     workspaceID,
			FinancialYearID: yearID,
			InvestorID:      a.InvestorID,
			Calculation:     a.Calculation,
			Status:          newStatus,
		}
		if prior, ok := priorRollover[a.InvestorID]; ok {
			d.Rollover = prior
		}
		distributions[i] = d
	}

	if _, err := s.distributionRepo.ReplaceForYear(workspaceID, yearID, distributions); err != nil {
		log.Error().Err(err).Int32("financial_year_id", yearID).Msg("Failed to replace distributions")
		return nil, err
	}
	if newStatus != year.Status {
		if err := s.yearRepo.UpdateStatus(workspaceID, yearID, newStatus); err != nil {
			return nil, err
		}
	}

	log.Info().
		Int32("financial_year_id", yearID).
		Str("mode", string(mode)).
		Int("investors", result.Summary.TotalInvestors).
		Str("total_distributed", result.Summary.TotalDistributed.StringFixed(profitPrecision)).
		Msg("Distributions calculated")

	summary := result.Summary
	summary.Status = newStatus
	return &summary, nil
}

// contributionSnapshot derives the engine input from the current ledger:
// active investors in the year's currency with a positive contribution balance.
func (s *FinancialYearService) contributionSnapshot(workspaceID int32, year *domain.FinancialYear) ([]domain.ContributionRecord, error) {
	investors, err := s.investorRepo.GetAllByWorkspace(workspaceID, false)
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

	records := make([]domain.ContributionRecord, 0, len(investors))
	for _, inv := range investors {
		if inv.Currency != year.Currency {
			continue
		}
		balance, ok := balances[inv.ID]
		if !ok || !balance.IsPositive() {
			continue
		}
		records = append(records, domain.ContributionRecord{
			InvestorID: inv.ID,
			Amount:     balance,
			StartDate:  inv.JoinDate,
		})
	}
	return records, nil
}

// GetDistributions returns the current distribution set for a year
func (s *FinancialYearService) GetDistributions(workspaceID int32, yearID int32) ([]*domain.Distribution, error) {
	if _, err := s.yearRepo.GetByID(workspaceID, yearID); err != nil {
		return nil, err
	}
	return s.distributionRepo.GetByYear(workspaceID, yearID)
}

// ApproveDistributions confirms a calculated year. When the year was created
// with a rollover percentage, the rollover is applied as part of approval.
func (s *FinancialYearService) ApproveDistributions(workspaceID int32, yearID int32) (*domain.FinancialYear, error) {
	if !s.lockYear(yearID) {
		return nil, domain.ErrCalculationInProgress
	}
	defer s.unlockYear(yearID)

	year, err := s.yearRepo.GetByID(workspaceID, yearID)
	if err != nil {
		return nil, err
	}
	if year.Status != domain.StatusCalculated {
		return nil, domain.ErrYearNotCalculated
	}

	if err := s.yearRepo.UpdateStatus(workspaceID, yearID, domain.StatusApproved); err != nil {
		return nil, err
	}
	if err := s.distributionRepo.UpdateStatusForYear(workspaceID, yearID, domain.StatusApproved); err != nil {
		return nil, err
	}
	year.Status = domain.StatusApproved

	if year.Rollover.RolloverPercentage.IsPositive() {
		if _, err := s.rollover.Apply(workspaceID, yearID, RolloverInput{
			Percentage:       year.Rollover.RolloverPercentage,
			AutoRollover:     year.Rollover.AutoRollover,
			AutoRolloverDate: year.Rollover.AutoRolloverDate,
		}); err != nil {
			log.Error().Err(err).Int32("financial_year_id", yearID).Msg("Auto-rollover at approval failed")
			return nil, err
		}
	}

	log.Info().Int32("financial_year_id", yearID).Msg("Distributions approved")
	return year, nil
}

// RecordPayouts marks an approved year distributed, booking a profit ledger
// row for each investor's payable remainder (calculated profit minus any
// rolled-over amount).
func (s *FinancialYearService) RecordPayouts(workspaceID int32, yearID int32) (*domain.FinancialYear, error) {
	if !s.lockYear(yearID) {
		return nil, domain.ErrCalculationInProgress
	}
	defer s.unlockYear(yearID)

	year, err := s.yearRepo.GetByID(workspaceID, yearID)
	if err != nil {
		return nil, err
	}
	if year.Status != domain.StatusApproved {
		return nil, domain.ErrYearNotApproved
	}

	distributions, err := s.distributionRepo.GetByYear(workspaceID, yearID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	note := "Profit payout for " + year.PeriodName
	paid := 0
	for _, d := range distributions {
		payable := d.Rollover.PayableAmount(d.Calculation.CalculatedProfit)
		if !payable.IsPositive() {
			continue
		}
		yid := d.FinancialYearID
		if _, err := s.transactionRepo.Create(&domain.Transaction{
			WorkspaceID:     workspaceID,
			InvestorID:      d.InvestorID,
			FinancialYearID: &yid,
			Type:            domain.TransactionTypeProfit,
			Amount:          payable,
			Currency:        year.Currency,
			TransactionDate: now,
			Source:          domain.SourceDistribution,
			Notes:           &note,
		}); err != nil {
			return nil, err
		}
		paid++
	}
	if paid == 0 {
		return nil, domain.ErrNothingToDistribute
	}

	if err := s.yearRepo.UpdateStatus(workspaceID, yearID, domain.StatusDistributed); err != nil {
		return nil, err
	}
	if err := s.distributionRepo.UpdateStatusForYear(workspaceID, yearID, domain.StatusDistributed); err != nil {
		return nil, err
	}
	year.Status = domain.StatusDistributed

	log.Info().Int32("financial_year_id", yearID).Int("payouts", paid).Msg("Payouts recorded")
	return year, nil
}

// Close finalizes a year whose period has fully elapsed
func (s *FinancialYearService) Close(workspaceID int32, yearID int32) (*domain.FinancialYear, error) {
	year, err := s.yearRepo.GetByID(workspaceID, yearID)
	if err != nil {
		return nil, err
	}
	if year.Status == domain.StatusClosed {
		return nil, domain.ErrYearClosed
	}
	if !year.IsApprovedOrLater() {
		return nil, domain.ErrYearNotApproved
	}
	if year.PeriodStatusAt(time.Now().UTC()) != domain.PeriodExpired {
		return nil, domain.ErrYearNotExpired
	}

	if err := s.yearRepo.UpdateStatus(workspaceID, yearID, domain.StatusClosed); err != nil {
		return nil, err
	}
	if err := s.distributionRepo.UpdateStatusForYear(workspaceID, yearID, domain.StatusClosed); err != nil {
		return nil, err
	}
	year.Status = domain.StatusClosed

	log.Info().Int32("financial_year_id", yearID).Msg("Financial year closed")
	return year, nil
}
