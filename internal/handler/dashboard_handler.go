package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/saham-app/saham-backend/internal/middleware"
	"github.com/saham-app/saham-backend/internal/service"
)

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// CurrencyAmountResponse represents a per-currency total
type CurrencyAmountResponse struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

// YearOverviewResponse summarizes the most recent financial year
type YearOverviewResponse struct {
	Year             FinancialYearResponse `json:"year"`
	PeriodStatus     string                `json:"periodStatus"`
	TotalDistributed string                `json:"totalDistributed"`
	InvestorCount    int                   `json:"investorCount"`
}

// DashboardSummaryResponse represents the dashboard summary API response.
// Clients poll this endpoint for refreshes.
type DashboardSummaryResponse struct {
	TotalInvestors     int64                    `json:"totalInvestors"`
	ActiveInvestors    int64                    `json:"activeInvestors"`
	TotalContributions []CurrencyAmountResponse `json:"totalContributions"`
	CurrentYear        *YearOverviewResponse    `json:"currentYear,omitempty"`
	RecentTransactions []TransactionResponse    `json:"recentTransactions"`
}

// GetSummary godoc
// @Summary Get the dashboard summary
// @Description Investor counts, per-currency contribution totals, the latest financial year and recent ledger activity
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DashboardSummaryResponse
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	summary, err := h.dashboardService.GetSummary(workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get dashboard summary")
		return NewInternalError(c, "Failed to get dashboard summary")
	}

	contributions := make([]CurrencyAmountResponse, len(summary.TotalContributions))
	for i, total := range summary.TotalContributions {
		contributions[i] = CurrencyAmountResponse{
			Currency: string(total.Currency),
			Amount:   total.Amount.StringFixed(2),
		}
	}

	recent := make([]TransactionResponse, len(summary.RecentTransactions))
	for i, tx := range summary.RecentTransactions {
		recent[i] = toTransactionResponse(tx)
	}

	response := DashboardSummaryResponse{
		TotalInvestors:     summary.TotalInvestors,
		ActiveInvestors:    summary.ActiveInvestors,
		TotalContributions: contributions,
		RecentTransactions: recent,
	}
	if summary.CurrentYear != nil {
		response.CurrentYear = &YearOverviewResponse{
			Year:             toFinancialYearResponse(summary.CurrentYear.Year),
			PeriodStatus:     string(summary.CurrentYear.PeriodStatus),
			TotalDistributed: summary.CurrentYear.TotalDistributed.StringFixed(2),
			InvestorCount:    summary.CurrentYear.InvestorCount,
		}
	}

	return c.JSON(http.StatusOK, response)
}
