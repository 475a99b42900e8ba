package domain

import "github.com/shopspring/decimal"

// CurrencyAmount is an amount tagged with its currency for per-currency rollups
type CurrencyAmount struct {
	Currency Currency        `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// YearOverview summarizes one financial year for the dashboard
type YearOverview struct {
	Year             *FinancialYear  `json:"year"`
	PeriodStatus     PeriodStatus    `json:"periodStatus"`
	TotalDistributed decimal.Decimal `json:"totalDistributed"`
	InvestorCount    int             `json:"investorCount"`
}

// DashboardSummary is the payload behind the dashboard's polling refresh
type DashboardSummary struct {
	TotalInvestors     int64            `json:"totalInvestors"`
	ActiveInvestors    int64            `json:"activeInvestors"`
	TotalContributions []CurrencyAmount `json:"totalContributions"`
	CurrentYear        *YearOverview    `json:"currentYear,omitempty"`
	RecentTransactions []*Transaction   `json:"recentTransactions"`
}
