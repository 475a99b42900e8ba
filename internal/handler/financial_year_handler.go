package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/saham-app/saham-backend/internal/middleware"
	"github.com/saham-app/saham-backend/internal/service"
	"github.com/shopspring/decimal"
)

// FinancialYearHandler handles financial-year HTTP requests: definition CRUD,
// the allocation engine, approval, payout recording, rollover and closing.
type FinancialYearHandler struct {
	yearService     *service.FinancialYearService
	rolloverService *service.RolloverService
}

// NewFinancialYearHandler creates a new FinancialYearHandler
func NewFinancialYearHandler(yearService *service.FinancialYearService, rolloverService *service.RolloverService) *FinancialYearHandler {
	return &FinancialYearHandler{
		yearService:     yearService,
		rolloverService: rolloverService,
	}
}

// FinancialYearRequest represents the create/update financial year request body
type FinancialYearRequest struct {
	Year               int32   `json:"year"`
	PeriodName         string  `json:"periodName"`
	StartDate          string  `json:"startDate"`
	EndDate            string  `json:"endDate"`
	TotalProfit        string  `json:"totalProfit"`
	Currency           string  `json:"currency"`
	RolloverPercentage *string `json:"rolloverPercentage,omitempty"`
	AutoRollover       bool    `json:"autoRollover"`
	AutoRolloverDate   *string `json:"autoRolloverDate,omitempty"`
}

// CalculateDistributionsRequest represents the calculation request body
type CalculateDistributionsRequest struct {
	ForceFullPeriod bool    `json:"forceFullPeriod"`
	AsOf            *string `json:"asOfDate,omitempty"`
	AllowEmpty      bool    `json:"allowEmpty"`
}

// CalculateDistributionsResponse wraps the calculation summary
type CalculateDistributionsResponse struct {
	Success bool                       `json:"success"`
	Data    CalculateDistributionsData `json:"data"`
}

// CalculateDistributionsData holds the calculation payload
type CalculateDistributionsData struct {
	Summary *domain.DistributionSummary `json:"summary"`
}

// RolloverRequest represents the rollover request body
type RolloverRequest struct {
	Percentage       string  `json:"percentage"`
	AutoRollover     bool    `json:"autoRollover"`
	AutoRolloverDate *string `json:"autoRolloverDate,omitempty"`
}

// FinancialYearResponse represents a financial year in API responses
type FinancialYearResponse struct {
	ID                 int32   `json:"id"`
	WorkspaceID        int32   `json:"workspaceId"`
	Year               int32   `json:"year"`
	PeriodName         string  `json:"periodName"`
	StartDate          string  `json:"startDate"`
	EndDate            string  `json:"endDate"`
	TotalProfit        string  `json:"totalProfit"`
	Currency           string  `json:"currency"`
	Status             string  `json:"status"`
	PeriodStatus       string  `json:"periodStatus"`
	TotalDays          int     `json:"totalDays"`
	RolloverPercentage string  `json:"rolloverPercentage"`
	AutoRollover       bool    `json:"autoRollover"`
	AutoRolloverDate   *string `json:"autoRolloverDate,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// DistributionResponse represents one investor's profit share in API responses
type DistributionResponse struct {
	ID               int32  `json:"id"`
	FinancialYearID  int32  `json:"financialYearId"`
	InvestorID       int32  `json:"investorId"`
	InvestmentAmount string `json:"investmentAmount"`
	SharePercentage  string `json:"sharePercentage"`
	TotalDays        int    `json:"totalDays"`
	DailyProfitRate  string `json:"dailyProfitRate"`
	CalculatedProfit string `json:"calculatedProfit"`
	IsRolledOver     bool   `json:"isRolledOver"`
	RolloverAmount   string `json:"rolloverAmount"`
	PayableAmount    string `json:"payableAmount"`
	Status           string `json:"status"`
}

// CreateFinancialYear godoc
// @Summary Create a financial year
// @Description Register a new financial year in draft status
// @Tags financial-years
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FinancialYearRequest true "Financial year creation request"
// @Success 201 {object} FinancialYearResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /financial-years [post]
func (h *FinancialYearHandler) CreateFinancialYear(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	year, resp := h.bindYearRequest(c)
	if year == nil {
		return resp
	}

	created, err := h.yearService.Create(workspaceID, year)
	if err != nil {
		if resp, handled := yearValidationResponse(c, err); handled {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create financial year")
		return NewInternalError(c, "Failed to create financial year")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("financial_year_id", created.ID).Str("period", created.PeriodName).Msg("Financial year created")
	return c.JSON(http.StatusCreated, toFinancialYearResponse(created))
}

// GetFinancialYears godoc
// @Summary List financial years
// @Description Get all financial years for the workspace, newest period first
// @Tags financial-years
// @Produce json
// @Security BearerAuth
// @Success 200 {array} FinancialYearResponse
// @Failure 401 {object} ProblemDetails
// @Router /financial-years [get]
func (h *FinancialYearHandler) GetFinancialYears(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	years, err := h.yearService.List(workspaceID)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get financial years")
		return NewInternalError(c, "Failed to get financial years")
	}

	response := make([]FinancialYearResponse, len(years))
	for i, year := range years {
		response[i] = toFinancialYearResponse(year)
	}
	return c.JSON(http.StatusOK, response)
}

// GetFinancialYear godoc
// @Summary Get a financial year
// @Tags financial-years
// @Produce json
// @Security BearerAuth
// @Param id path int true "Financial year ID"
// @Success 200 {object} FinancialYearResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /financial-years/{id} [get]
func (h *FinancialYearHandler) GetFinancialYear(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid financial year ID", nil)
	}

	year, err := h.yearService.Get(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrFinancialYearNotFound) {
			return NewNotFoundError(c, "Financial year not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("financial_year_id", id).Msg("Failed to get financial year")
		return NewInternalError(c, "Failed to get financial year")
	}

	return c.JSON(http.StatusOK, toFinancialYearResponse(year))
}

// UpdateFinancialYear godoc
// @Summary Update a financial year
// @Description Edit a year definition. Only draft years are editable.
// @Tags financial-years
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Financial year ID"
// @Param request body FinancialYearRequest true "Financial year update request"
// @Success 200 {object} FinancialYearResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /financial-years/{id} [put]
func (h *FinancialYearHandler) UpdateFinancialYear(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid financial year ID", nil)
	}

	year, resp := h.bindYearRequest(c)
	if year == nil {
		return resp
	}

	updated, err := h.yearService.Update(workspaceID, int32(id), year)
	if err != nil {
		if errors.Is(err, domain.ErrFinancialYearNotFound) {
			return NewNotFoundError(c, "Financial year not found")
		}
		if errors.Is(err, domain.ErrYearNotEditable) {
			return NewConflictError(c, "Only draft financial years can be edited")
		}
		if resp, handled := yearValidationResponse(c, err); handled {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("financial_year_id", id).Msg("Failed to update financial year")
		return NewInternalError(c, "Failed to update financial year")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("financial_year_id", updated.ID).Msg("Financial year updated")
	return c.JSON(http.StatusOK, toFinancialYearResponse(updated))
}

// DeleteFinancialYear godoc
// @Summary Delete a financial year
// @Description Delete a year that has no distribution records
// @Tags financial-years
// @Produce json
// @Security BearerAuth
// @Param id path int true "Financial year ID"
// @Success 204 "No Content"
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /financial-years/{id} [delete]
func (h *FinancialYearHandler) DeleteFinancialYear(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid financial year ID", nil)
	}

	if err := h.yearService.Delete(workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrFinancialYearNotFound) {
			return NewNotFoundError(c, "Financial year not found")
		}
		if errors.Is(err, domain.ErrYearHasDistributions) {
			return NewConflictError(c, "Financial year has distribution records and cannot be deleted")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("financial_year_id", id).Msg("Failed to delete financial year")
		return NewInternalError(c, "Failed to delete financial year")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("financial_year_id", id).Msg("Financial year deleted")
	return c.NoContent(http.StatusNoContent)
}

// CalculateDistributions godoc
// @Summary Calculate profit distributions
// @Description Run the allocation engine for a year, replacing its distribution set
// @Tags financial-years
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Financial year ID"
// @Param request body CalculateDistributionsRequest false "Calculation options"
// @Success 200 {object} CalculateDistributionsResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /financial-years/{id}/calculate-distributions [post]
func (h *FinancialYearHandler) CalculateDistributions(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid financial year ID", nil)
	}

	var req CalculateDistributionsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.CalculateDistributionsInput{
		ForceFullPeriod: req.ForceFullPeriod,
		AllowEmpty:      req.AllowEmpty,
	}
	if req.AsOf != nil && *req.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", *req.AsOf)
		if err != nil {
			return NewValidationError(c, "Invalid as-of date", []ValidationError{
				{Field: "asOfDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.AsOf = &parsed
	}

	summary, err := h.yearService.CalculateDistributions(workspaceID, int32(id), input)
	if err != nil {
		if errors.Is(err, domain.ErrFinancialYearNotFound) {
			return NewNotFoundError(c, "Financial year not found")
		}
		if errors.Is(err, domain.ErrYearClosed) {
			return NewConflictError(c, "Financial year is closed")
		}
		if errors.Is(err, domain.ErrCalculationInProgress) {
			return NewConflictError(c, "A calculation is already in progress for this financial year")
		}
		if errors.Is(err, domain.ErrNoApprovedInvestors) {
			return NewValidationError(c, "No investors with positive contributions to distribute to", nil)
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("financial_year_id", id).Msg("Failed to calculate distributions")
		return NewInternalError(c, "Failed to calculate distributions")
	}

	return c.JSON(http.StatusOK, CalculateDistributionsResponse{
		Success: true,
		Data:    CalculateDistributionsData{Summary: summary},
	})
}

// GetDistributions godoc
// @Summary List distributions
// @Description Get the current distribution set for a year
// @Tags financial-years
// @Produce json
// @Security BearerAuth
// @Param id path int true "Financial year ID"
// @Success 200 {array} DistributionResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /financial-years/{id}/distributions [get]
func (h *FinancialYearHandler) GetDistributions(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid financial year ID", nil)
	}

	distributions, err := h.yearService.GetDistributions(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrFinancialYearNotFound) {
			return NewNotFoundError(c, "Financial year not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("financial_year_id", id).Msg("Failed to get distributions")
		return NewInternalError(c, "Failed to get distributions")
	}

	response := make([]DistributionResponse, len(distributions))
	for i, d := range distributions {
		response[i] = toDistributionResponse(d)
	}
	return c.JSON(http.StatusOK, response)
}

// ApproveDistributions godoc
// @Summary Approve distributions
// @Description Confirm a calculated year. A configured rollover percentage is applied as part of approval.
// @Tags financial-years
// @Produce json
// @Security BearerAuth
// @Param id path int true "Financial year ID"
// @Success 200 {object} FinancialYearResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /financial-years/{id}/approve-distributions [put]
func (h *FinancialYearHandler) ApproveDistributions(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid financial year ID", nil)
	}

	year, err := h.yearService.ApproveDistributions(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrFinancialYearNotFound) {
			return NewNotFoundError(c, "Financial year not found")
		}
		if errors.Is(err, domain.ErrYearNotCalculated) {
			return NewConflictError(c, "Distributions have not been calculated for this financial year")
		}
		if errors.Is(err, domain.ErrCalculationInProgress) {
			return NewConflictError(c, "A calculation is already in progress for this financial year")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("financial_year_id", id).Msg("Failed to approve distributions")
		return NewInternalError(c, "Failed to approve distributions")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("financial_year_id", year.ID).Msg("Distributions approved")
	return c.JSON(http.StatusOK, toFinancialYearResponse(year))
}

// RolloverProfits godoc
// @Summary Roll over profits
// @Description Convert a percentage of each approved profit share into new contributed capital
// @Tags financial-years
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Financial year ID"
// @Param request body RolloverRequest true "Rollover request"
// @Success 200 {object} service.RolloverResult
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /financial-years/{id}/rollover-profits [post]
func (h *FinancialYearHandler) RolloverProfits(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid financial year ID", nil)
	}

	var req RolloverRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	percentage, err := decimal.NewFromString(req.Percentage)
	if err != nil {
		return NewValidationError(c, "Invalid percentage", []ValidationError{
			{Field: "percentage", Message: "Must be a valid decimal number"},
		})
	}

	input := service.RolloverInput{
		Percentage:   percentage,
		AutoRollover: req.AutoRollover,
	}
	if req.AutoRolloverDate != nil && *req.AutoRolloverDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.AutoRolloverDate)
		if err != nil {
			return NewValidationError(c, "Invalid auto-rollover date", []ValidationError{
				{Field: "autoRolloverDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.AutoRolloverDate = &parsed
	}

	result, err := h.rolloverService.Apply(workspaceID, int32(id), input)
	if err != nil {
		if errors.Is(err, domain.ErrFinancialYearNotFound) {
			return NewNotFoundError(c, "Financial year not found")
		}
		if errors.Is(err, domain.ErrNoApprovedDistributions) {
			return NewConflictError(c, "No approved distributions to roll over")
		}
		if errors.Is(err, domain.ErrInvalidRolloverPercentage) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "percentage", Message: "Percentage must be greater than 0 and at most 100"},
			})
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("financial_year_id", id).Msg("Failed to roll over profits")
		return NewInternalError(c, "Failed to roll over profits")
	}

	return c.JSON(http.StatusOK, result)
}

// DistributeProfits godoc
// @Summary Record payouts
// @Description Mark an approved year distributed, booking a profit ledger row for each payable remainder
// @Tags financial-years
// @Produce json
// @Security BearerAuth
// @Param id path int true "Financial year ID"
// @Success 200 {object} FinancialYearResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /financial-years/{id}/distribute [put]
func (h *FinancialYearHandler) DistributeProfits(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid financial year ID", nil)
	}

	year, err := h.yearService.RecordPayouts(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrFinancialYearNotFound) {
			return NewNotFoundError(c, "Financial year not found")
		}
		if errors.Is(err, domain.ErrYearNotApproved) {
			return NewConflictError(c, "Financial year distributions are not approved")
		}
		if errors.Is(err, domain.ErrNothingToDistribute) {
			return NewConflictError(c, "No payable amounts to distribute")
		}
		if errors.Is(err, domain.ErrCalculationInProgress) {
			return NewConflictError(c, "A calculation is already in progress for this financial year")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("financial_year_id", id).Msg("Failed to record payouts")
		return NewInternalError(c, "Failed to record payouts")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("financial_year_id", year.ID).Msg("Payouts recorded")
	return c.JSON(http.StatusOK, toFinancialYearResponse(year))
}

// CloseFinancialYear godoc
// @Summary Close a financial year
// @Description Finalize a year whose period has fully elapsed
// @Tags financial-years
// @Produce json
// @Security BearerAuth
// @Param id path int true "Financial year ID"
// @Success 200 {object} FinancialYearResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /financial-years/{id}/close [put]
func (h *FinancialYearHandler) CloseFinancialYear(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid financial year ID", nil)
	}

	year, err := h.yearService.Close(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrFinancialYearNotFound) {
			return NewNotFoundError(c, "Financial year not found")
		}
		if errors.Is(err, domain.ErrYearClosed) {
			return NewConflictError(c, "Financial year is already closed")
		}
		if errors.Is(err, domain.ErrYearNotApproved) {
			return NewConflictError(c, "Financial year distributions are not approved")
		}
		if errors.Is(err, domain.ErrYearNotExpired) {
			return NewConflictError(c, "Financial year period has not elapsed yet")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("financial_year_id", id).Msg("Failed to close financial year")
		return NewInternalError(c, "Failed to close financial year")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("financial_year_id", year.ID).Msg("Financial year closed")
	return c.JSON(http.StatusOK, toFinancialYearResponse(year))
}

// bindYearRequest parses and validates the shared create/update body. On
// failure the 400 response has already been written and the returned year is
// nil; callers must guard on the year, not the response value, because c.JSON
// returns nil after a successful write.
func (h *FinancialYearHandler) bindYearRequest(c echo.Context) (*domain.FinancialYear, error) {
	var req FinancialYearRequest
	if err := c.Bind(&req); err != nil {
		return nil, NewValidationError(c, "Invalid request body", nil)
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, NewValidationError(c, "Invalid start date", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, NewValidationError(c, "Invalid end date", []ValidationError{
			{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	totalProfit, err := decimal.NewFromString(req.TotalProfit)
	if err != nil {
		return nil, NewValidationError(c, "Invalid total profit", []ValidationError{
			{Field: "totalProfit", Message: "Must be a valid decimal number"},
		})
	}

	rollover := domain.RolloverSettings{AutoRollover: req.AutoRollover}
	if req.RolloverPercentage != nil && *req.RolloverPercentage != "" {
		pct, err := decimal.NewFromString(*req.RolloverPercentage)
		if err != nil {
			return nil, NewValidationError(c, "Invalid rollover percentage", []ValidationError{
				{Field: "rolloverPercentage", Message: "Must be a valid decimal number"},
			})
		}
		rollover.RolloverPercentage = pct
	}
	if req.AutoRolloverDate != nil && *req.AutoRolloverDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.AutoRolloverDate)
		if err != nil {
			return nil, NewValidationError(c, "Invalid auto-rollover date", []ValidationError{
				{Field: "autoRolloverDate", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		rollover.AutoRolloverDate = &parsed
	}

	return &domain.FinancialYear{
		Year:        req.Year,
		PeriodName:  req.PeriodName,
		StartDate:   startDate,
		EndDate:     endDate,
		TotalProfit: totalProfit,
		Currency:    domain.Currency(req.Currency),
		Rollover:    rollover,
	}, nil
}

// yearValidationResponse maps financial-year validation errors to 400
// responses. The second return reports whether the error was handled; c.JSON
// returns nil on a successful write, so the written response itself cannot
// signal that.
func yearValidationResponse(c echo.Context, err error) (error, bool) {
	switch {
	case errors.Is(err, domain.ErrPeriodNameEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "periodName", Message: "Period name is required"},
		}), true
	case errors.Is(err, domain.ErrInvalidPeriod):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "startDate", Message: "Start date must be before end date"},
		}), true
	case errors.Is(err, domain.ErrInvalidTotalProfit):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "totalProfit", Message: "Total profit must be positive"},
		}), true
	case errors.Is(err, domain.ErrInvalidCurrency):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "currency", Message: "Currency must be one of: IQD, USD"},
		}), true
	case errors.Is(err, domain.ErrInvalidRolloverPercentage):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "rolloverPercentage", Message: "Rollover percentage must be between 0 and 100"},
		}), true
	}
	return nil, false
}

func toFinancialYearResponse(year *domain.FinancialYear) FinancialYearResponse {
	resp := FinancialYearResponse{
		ID:                 year.ID,
		WorkspaceID:        year.WorkspaceID,
		Year:               year.Year,
		PeriodName:         year.PeriodName,
		StartDate:          year.StartDate.Format("2006-01-02"),
		EndDate:            year.EndDate.Format("2006-01-02"),
		TotalProfit:        year.TotalProfit.StringFixed(2),
		Currency:           string(year.Currency),
		Status:             string(year.Status),
		PeriodStatus:       string(year.PeriodStatusAt(time.Now().UTC())),
		TotalDays:          year.TotalDaysInPeriod(),
		RolloverPercentage: year.Rollover.RolloverPercentage.StringFixed(2),
		AutoRollover:       year.Rollover.AutoRollover,
		CreatedAt:          year.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          year.UpdatedAt.Format(time.RFC3339),
	}
	if year.Rollover.AutoRolloverDate != nil {
		date := year.Rollover.AutoRolloverDate.Format("2006-01-02")
		resp.AutoRolloverDate = &date
	}
	return resp
}

func toDistributionResponse(d *domain.Distribution) DistributionResponse {
	return DistributionResponse{
		ID:               d.ID,
		FinancialYearID:  d.FinancialYearID,
		InvestorID:       d.InvestorID,
		InvestmentAmount: d.Calculation.InvestmentAmount.StringFixed(2),
		SharePercentage:  d.Calculation.SharePercentage.StringFixed(3),
		TotalDays:        d.Calculation.TotalDays,
		DailyProfitRate:  d.Calculation.DailyProfitRate.String(),
		CalculatedProfit: d.Calculation.CalculatedProfit.StringFixed(3),
		IsRolledOver:     d.Rollover.IsRolledOver,
		RolloverAmount:   d.Rollover.RolloverAmount.StringFixed(3),
		PayableAmount:    d.Rollover.PayableAmount(d.Calculation.CalculatedProfit).StringFixed(3),
		Status:           string(d.Status),
	}
}
