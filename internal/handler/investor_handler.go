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

// InvestorHandler handles investor-related HTTP requests
type InvestorHandler struct {
	investorService *service.InvestorService
}

// NewInvestorHandler creates a new InvestorHandler
func NewInvestorHandler(investorService *service.InvestorService) *InvestorHandler {
	return &InvestorHandler{investorService: investorService}
}

// CreateInvestorRequest represents the create investor request body
type CreateInvestorRequest struct {
	Name                string  `json:"name"`
	Phone               *string `json:"phone,omitempty"`
	Email               *string `json:"email,omitempty"`
	NationalID          *string `json:"nationalId,omitempty"`
	Currency            string  `json:"currency"`
	JoinDate            string  `json:"joinDate"`
	InitialContribution string  `json:"initialContribution,omitempty"`
	Notes               *string `json:"notes,omitempty"`
}

// UpdateInvestorRequest represents the update investor request body
type UpdateInvestorRequest struct {
	Name       string  `json:"name"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
	NationalID *string `json:"nationalId,omitempty"`
	Currency   string  `json:"currency"`
	JoinDate   string  `json:"joinDate"`
	IsActive   bool    `json:"isActive"`
	Notes      *string `json:"notes,omitempty"`
}

// InvestorResponse represents an investor in API responses
type InvestorResponse struct {
	ID                  int32   `json:"id"`
	WorkspaceID         int32   `json:"workspaceId"`
	Name                string  `json:"name"`
	Phone               *string `json:"phone,omitempty"`
	Email               *string `json:"email,omitempty"`
	NationalID          *string `json:"nationalId,omitempty"`
	Currency            string  `json:"currency"`
	JoinDate            string  `json:"joinDate"`
	IsActive            bool    `json:"isActive"`
	ContributionBalance string  `json:"contributionBalance"`
	Notes               *string `json:"notes,omitempty"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

// CreateInvestor godoc
// @Summary Create an investor
// @Description Register a new investor, optionally booking an opening contribution
// @Tags investors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateInvestorRequest true "Investor creation request"
// @Success 201 {object} InvestorResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /investors [post]
func (h *InvestorHandler) CreateInvestor(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateInvestorRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	joinDate, err := time.Parse("2006-01-02", req.JoinDate)
	if err != nil {
		return NewValidationError(c, "Invalid join date", []ValidationError{
			{Field: "joinDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	// Parse initial contribution (default to 0)
	initialContribution := decimal.Zero
	if req.InitialContribution != "" {
		initialContribution, err = decimal.NewFromString(req.InitialContribution)
		if err != nil {
			return NewValidationError(c, "Invalid initial contribution", []ValidationError{
				{Field: "initialContribution", Message: "Must be a valid decimal number"},
			})
		}
	}

	investor := &domain.Investor{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		NationalID: req.NationalID,
		Currency:   domain.Currency(req.Currency),
		JoinDate:   joinDate,
		Notes:      req.Notes,
	}

	created, err := h.investorService.Create(workspaceID, investor, initialContribution)
	if err != nil {
		if resp, handled := investorValidationResponse(c, err); handled {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create investor")
		return NewInternalError(c, "Failed to create investor")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("investor_id", created.ID).Str("name", created.Name).Msg("Investor created")

	return c.JSON(http.StatusCreated, toInvestorResponse(created))
}

// GetInvestors godoc
// @Summary List investors
// @Description Get all investors with their derived contribution balances
// @Tags investors
// @Produce json
// @Security BearerAuth
// @Param includeInactive query bool false "Include inactive investors"
// @Success 200 {array} InvestorResponse
// @Failure 401 {object} ProblemDetails
// @Router /investors [get]
func (h *InvestorHandler) GetInvestors(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	includeInactive := c.QueryParam("includeInactive") == "true"

	investors, err := h.investorService.List(workspaceID, includeInactive)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get investors")
		return NewInternalError(c, "Failed to get investors")
	}

	response := make([]InvestorResponse, len(investors))
	for i, inv := range investors {
		response[i] = toInvestorResponse(inv)
	}
	return c.JSON(http.StatusOK, response)
}

// GetInvestor godoc
// @Summary Get an investor
// @Description Get one investor with their current contribution balance
// @Tags investors
// @Produce json
// @Security BearerAuth
// @Param id path int true "Investor ID"
// @Success 200 {object} InvestorResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /investors/{id} [get]
func (h *InvestorHandler) GetInvestor(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid investor ID", nil)
	}

	investor, err := h.investorService.Get(workspaceID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrInvestorNotFound) {
			return NewNotFoundError(c, "Investor not found")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("investor_id", id).Msg("Failed to get investor")
		return NewInternalError(c, "Failed to get investor")
	}

	return c.JSON(http.StatusOK, toInvestorResponse(investor))
}

// UpdateInvestor godoc
// @Summary Update an investor
// @Description Edit investor details. The contribution balance is ledger-derived and not editable.
// @Tags investors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Investor ID"
// @Param request body UpdateInvestorRequest true "Investor update request"
// @Success 200 {object} InvestorResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /investors/{id} [put]
func (h *InvestorHandler) UpdateInvestor(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid investor ID", nil)
	}

	var req UpdateInvestorRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	joinDate, err := time.Parse("2006-01-02", req.JoinDate)
	if err != nil {
		return NewValidationError(c, "Invalid join date", []ValidationError{
			{Field: "joinDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	updated := &domain.Investor{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		NationalID: req.NationalID,
		Currency:   domain.Currency(req.Currency),
		JoinDate:   joinDate,
		IsActive:   req.IsActive,
		Notes:      req.Notes,
	}

	investor, err := h.investorService.Update(workspaceID, int32(id), updated)
	if err != nil {
		if errors.Is(err, domain.ErrInvestorNotFound) {
			return NewNotFoundError(c, "Investor not found")
		}
		if resp, handled := investorValidationResponse(c, err); handled {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("investor_id", id).Msg("Failed to update investor")
		return NewInternalError(c, "Failed to update investor")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("investor_id", investor.ID).Msg("Investor updated")

	balance, err := h.investorService.Get(workspaceID, investor.ID)
	if err != nil {
		log.Error().Err(err).Int32("investor_id", investor.ID).Msg("Failed to reload investor balance")
		return NewInternalError(c, "Failed to update investor")
	}
	return c.JSON(http.StatusOK, toInvestorResponse(balance))
}

// DeleteInvestor godoc
// @Summary Delete an investor
// @Description Soft-delete an investor without distribution history
// @Tags investors
// @Produce json
// @Security BearerAuth
// @Param id path int true "Investor ID"
// @Success 204 "No Content"
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /investors/{id} [delete]
func (h *InvestorHandler) DeleteInvestor(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid investor ID", nil)
	}

	if err := h.investorService.Delete(workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrInvestorNotFound) {
			return NewNotFoundError(c, "Investor not found")
		}
		if errors.Is(err, domain.ErrInvestorHasDistributions) {
			return NewConflictError(c, "Investor has distribution records and cannot be deleted")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("investor_id", id).Msg("Failed to delete investor")
		return NewInternalError(c, "Failed to delete investor")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("investor_id", id).Msg("Investor deleted (soft)")
	return c.NoContent(http.StatusNoContent)
}

// investorValidationResponse maps investor validation errors to 400 responses.
// The second return reports whether the error was handled; c.JSON returns nil
// on a successful write, so the written response itself cannot signal that.
func investorValidationResponse(c echo.Context, err error) (error, bool) {
	switch {
	case errors.Is(err, domain.ErrInvestorNameEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		}), true
	case errors.Is(err, domain.ErrInvestorNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 200 characters or less"},
		}), true
	case errors.Is(err, domain.ErrInvalidCurrency):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "currency", Message: "Currency must be one of: IQD, USD"},
		}), true
	case errors.Is(err, domain.ErrInvalidJoinDate):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "joinDate", Message: "Join date is required"},
		}), true
	case errors.Is(err, domain.ErrTransactionAmountInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "initialContribution", Message: "Initial contribution cannot be negative"},
		}), true
	}
	return nil, false
}

func toInvestorResponse(investor *domain.InvestorWithBalance) InvestorResponse {
	return InvestorResponse{
		ID:                  investor.ID,
		WorkspaceID:         investor.WorkspaceID,
		Name:                investor.Name,
		Phone:               investor.Phone,
		Email:               investor.Email,
		NationalID:          investor.NationalID,
		Currency:            string(investor.Currency),
		JoinDate:            investor.JoinDate.Format("2006-01-02"),
		IsActive:            investor.IsActive,
		ContributionBalance: investor.ContributionBalance.StringFixed(2),
		Notes:               investor.Notes,
		CreatedAt:           investor.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           investor.UpdatedAt.Format(time.RFC3339),
	}
}
