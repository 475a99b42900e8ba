package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvestorNotFound         = errors.New("investor not found")
	ErrInvestorNameEmpty        = errors.New("investor name is required")
	ErrInvestorNameTooLong      = errors.New("investor name must be 200 characters or less")
	ErrInvestorInactive         = errors.New("investor is inactive")
	ErrInvestorHasDistributions = errors.New("investor has distribution records and cannot be deleted")
	ErrInvalidCurrency          = errors.New("currency must be IQD or USD")
	ErrInvalidJoinDate          = errors.New("join date is required")
)

// Currency is an ISO-like currency code
type Currency string

const (
	CurrencyIQD Currency = "IQD"
	CurrencyUSD Currency = "USD"
)

// IsValid reports whether the currency is one of the supported codes
func (c Currency) IsValid() bool {
	return c == CurrencyIQD || c == CurrencyUSD
}

// Investor represents a capital contributor. The contribution balance is not
// stored on the investor; it is derived from the transaction ledger
// (deposits + rollover deposits - withdrawals).
type Investor struct {
	ID          int32      `json:"id"`
	WorkspaceID int32      `json:"workspaceId"`
	Name        string     `json:"name"`
	Phone       *string    `json:"phone,omitempty"`
	Email       *string    `json:"email,omitempty"`
	NationalID  *string    `json:"nationalId,omitempty"`
	Currency    Currency   `json:"currency"`
	JoinDate    time.Time  `json:"joinDate"`
	IsActive    bool       `json:"isActive"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

func (i *Investor) Validate() error {
	if i.Name == "" {
		return ErrInvestorNameEmpty
	}
	if len(i.Name) > MaxNameLength {
		return ErrInvestorNameTooLong
	}
	if !i.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	if i.JoinDate.IsZero() {
		return ErrInvalidJoinDate
	}
	return nil
}

// InvestorWithBalance pairs an investor with their derived contribution balance
type InvestorWithBalance struct {
	Investor
	ContributionBalance decimal.Decimal `json:"contributionBalance"`
}

type InvestorRepository interface {
	Create(investor *Investor) (*Investor, error)
	GetByID(workspaceID int32, id int32) (*Investor, error)
	GetAllByWorkspace(workspaceID int32, includeInactive bool) ([]*Investor, error)
	Update(investor *Investor) (*Investor, error)
	SoftDelete(workspaceID int32, id int32) error
	CountByWorkspace(workspaceID int32) (total int64, active int64, err error)
}
