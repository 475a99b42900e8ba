package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// RolloverInput controls one rollover application. Percentage is independent
// of whatever was configured when the financial year was created.
type RolloverInput struct {
	Percentage       decimal.Decimal
	AutoRollover     bool
	AutoRolloverDate *time.Time
}

// RolloverResult summarizes an applied rollover batch
type RolloverResult struct {
	BatchID       uuid.UUID       `json:"batchId"`
	RolledCount   int             `json:"rolledCount"`
	SkippedCount  int             `json:"skippedCount"`
	TotalRolled   decimal.Decimal `json:"totalRolled"`
	AppliedAt     time.Time       `json:"appliedAt"`
	FinancialYear int32           `json:"financialYearId"`
}

// RolloverService converts computed profit shares into new contributed
// capital: it marks distributions rolled over and books matching deposit
// transactions in one database transaction.
type RolloverService struct {
	distributionRepo domain.DistributionRepository
	yearRepo         domain.FinancialYearRepository
}

// NewRolloverService creates a new RolloverService
func NewRolloverService(distributionRepo domain.DistributionRepository, yearRepo domain.FinancialYearRepository) *RolloverService {
	return &RolloverService{
		distributionRepo: distributionRepo,
		yearRepo:         yearRepo,
	}
}

// Apply rolls over the given percentage of each not-yet-rolled distribution of
// the year. Distributions already rolled over keep their original
// rolloverAmount untouched; engine re-runs never recompute it either.
func (s *RolloverService) Apply(workspaceID int32, yearID int32, input RolloverInput) (*RolloverResult, error) {
	year, err := s.yearRepo.GetByID(workspaceID, yearID)
	if err != nil {
		return nil, err
	}

	// Rollover is a post-approval action. Draft or merely calculated years
	// have nothing confirmed to roll over.
	if year.Status != domain.StatusApproved && year.Status != domain.StatusDistributed {
		return nil, domain.ErrNoApprovedDistributions
	}

	if input.Percentage.LessThanOrEqual(decimal.Zero) || input.Percentage.GreaterThan(oneHundred) {
		return nil, domain.ErrInvalidRolloverPercentage
	}

	distributions, err := s.distributionRepo.GetByYear(workspaceID, yearID)
	if err != nil {
		return nil, err
	}
	if len(distributions) == 0 {
		return nil, domain.ErrNoApprovedDistributions
	}

	now := time.Now().UTC()
	batchID := uuid.New()
	note := fmt.Sprintf("Profit rollover for %s", year.PeriodName)

	applications := make([]*domain.RolloverApplication, 0, len(distributions))
	totalRolled := decimal.Zero
	skipped := 0
	for _, d := range distributions {
		if d.Rollover.IsRolledOver || !d.Calculation.CalculatedProfit.IsPositive() {
			skipped++
			continue
		}
		amount := d.Calculation.CalculatedProfit.Mul(input.Percentage).Div(oneHundred).Round(profitPrecision)
		if !amount.IsPositive() {
			skipped++
			continue
		}

		yearID := d.FinancialYearID
		applications = append(applications, &domain.RolloverApplication{
			DistributionID: d.ID,
			Amount:         amount,
			Deposit: &domain.Transaction{
				WorkspaceID:     workspaceID,
				InvestorID:      d.InvestorID,
				FinancialYearID: &yearID,
				Type:            domain.TransactionTypeDeposit,
				Amount:          amount,
				Currency:        year.Currency,
				TransactionDate: now,
				Source:          domain.SourceRollover,
				Notes:           &note,
			},
		})
		totalRolled = totalRolled.Add(amount)
	}

	if len(applications) > 0 {
		if err := s.distributionRepo.ApplyRollover(workspaceID, yearID, applications); err != nil {
			log.Error().Err(err).Int32("financial_year_id", yearID).Msg("Failed to apply rollover")
			return nil, err
		}
	}

	// Persist the settings used so the year reflects the last applied rollover
	settings := domain.RolloverSettings{
		RolloverPercentage: input.Percentage,
		AutoRollover:       input.AutoRollover,
		AutoRolloverDate:   input.AutoRolloverDate,
	}
	if err := s.yearRepo.UpdateRolloverSettings(workspaceID, yearID, settings); err != nil {
		return nil, err
	}

	log.Info().
		Str("batch_id", batchID.String()).
		Int32("financial_year_id", yearID).
		Int("rolled", len(applications)).
		Int("skipped", skipped).
		Str("total_rolled", totalRolled.StringFixed(profitPrecision)).
		Msg("Rollover applied")

	return &RolloverResult{
		BatchID:       batchID,
		RolledCount:   len(applications),
		SkippedCount:  skipped,
		TotalRolled:   totalRolled,
		AppliedAt:     now,
		FinancialYear: yearID,
	}, nil
}
