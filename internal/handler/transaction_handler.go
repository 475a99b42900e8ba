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

// TransactionHandler handles ledger-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	InvestorID      int32   `json:"investorId"`
	FinancialYearID *int32  `json:"financialYearId,omitempty"`
	Type            string  `json:"type"`
	Amount          string  `json:"amount"`
	Currency        string  `json:"currency"`
	Date            string  `json:"date"`
	Notes           *string `json:"notes,omitempty"`
}

// UpdateTransactionRequest represents the update transaction request body
type UpdateTransactionRequest struct {
	Type   string  `json:"type"`
	Amount string  `json:"amount"`
	Date   string  `json:"date"`
	Notes  *string `json:"notes,omitempty"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID              int32   `json:"id"`
	WorkspaceID     int32   `json:"workspaceId"`
	InvestorID      int32   `json:"investorId"`
	FinancialYearID *int32  `json:"financialYearId,omitempty"`
	Type            string  `json:"type"`
	Amount          string  `json:"amount"`
	Currency        string  `json:"currency"`
	Date            string  `json:"date"`
	Source          string  `json:"source"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// PaginatedTransactionsResponse represents a page of ledger entries
type PaginatedTransactionsResponse struct {
	Data       []TransactionResponse `json:"data"`
	Page       int32                 `json:"page"`
	PageSize   int32                 `json:"pageSize"`
	TotalItems int64                 `json:"totalItems"`
	TotalPages int32                 `json:"totalPages"`
}

// CreateTransaction godoc
// @Summary Create a transaction
// @Description Record a deposit, withdrawal or profit entry in the ledger
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "Transaction creation request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	transactionDate := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return NewValidationError(c, "Invalid date", []ValidationError{
				{Field: "date", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		transactionDate = parsed
	}

	tx := &domain.Transaction{
		InvestorID:      req.InvestorID,
		FinancialYearID: req.FinancialYearID,
		Type:            domain.TransactionType(req.Type),
		Amount:          amount,
		Currency:        domain.Currency(req.Currency),
		TransactionDate: transactionDate,
		Source:          domain.SourceManual,
		Notes:           req.Notes,
	}

	created, err := h.transactionService.Create(workspaceID, tx)
	if err != nil {
		if errors.Is(err, domain.ErrInvestorNotFound) {
			return NewNotFoundError(c, "Investor not found")
		}
		if resp, handled := transactionValidationResponse(c, err); handled {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create transaction")
		return NewInternalError(c, "Failed to create transaction")
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("transaction_id", created.ID).
		Str("type", string(created.Type)).
		Str("amount", created.Amount.StringFixed(2)).
		Msg("Transaction created")

	return c.JSON(http.StatusCreated, toTransactionResponse(created))
}

// GetTransactions godoc
// @Summary List transactions
// @Description Get a filtered, paginated page of the ledger
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param investorId query int false "Filter by investor"
// @Param financialYearId query int false "Filter by financial year"
// @Param type query string false "Filter by type (deposit, withdrawal, profit)"
// @Param startDate query string false "Filter from date (YYYY-MM-DD)"
// @Param endDate query string false "Filter to date (YYYY-MM-DD)"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 100)"
// @Success 200 {object} PaginatedTransactionsResponse
// @Failure 401 {object} ProblemDetails
// @Router /transactions [get]
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	filters := &domain.TransactionFilters{}

	if v := c.QueryParam("investorId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return NewValidationError(c, "Invalid investorId", nil)
		}
		investorID := int32(id)
		filters.InvestorID = &investorID
	}
	if v := c.QueryParam("financialYearId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return NewValidationError(c, "Invalid financialYearId", nil)
		}
		yearID := int32(id)
		filters.FinancialYearID = &yearID
	}
	if v := c.QueryParam("type"); v != "" {
		txType := domain.TransactionType(v)
		switch txType {
		case domain.TransactionTypeDeposit, domain.TransactionTypeWithdrawal, domain.TransactionTypeProfit:
		default:
			return NewValidationError(c, "Invalid type (use deposit, withdrawal or profit)", nil)
		}
		filters.Type = &txType
	}
	if v := c.QueryParam("startDate"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return NewValidationError(c, "Invalid startDate format (use YYYY-MM-DD)", nil)
		}
		filters.StartDate = &parsed
	}
	if v := c.QueryParam("endDate"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return NewValidationError(c, "Invalid endDate format (use YYYY-MM-DD)", nil)
		}
		filters.EndDate = &parsed
	}
	if v := c.QueryParam("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return NewValidationError(c, "Invalid page", nil)
		}
		filters.Page = int32(page)
	}
	if v := c.QueryParam("pageSize"); v != "" {
		pageSize, err := strconv.Atoi(v)
		if err != nil {
			return NewValidationError(c, "Invalid pageSize", nil)
		}
		filters.PageSize = int32(pageSize)
	}

	page, err := h.transactionService.List(workspaceID, filters)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to get transactions")
		return NewInternalError(c, "Failed to get transactions")
	}

	data := make([]TransactionResponse, len(page.Data))
	for i, tx := range page.Data {
		data[i] = toTransactionResponse(tx)
	}

	return c.JSON(http.StatusOK, PaginatedTransactionsResponse{
		Data:       data,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

// UpdateTransaction godoc
// @Summary Update a transaction
// @Description Edit a manual ledger entry. System-generated entries are immutable.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Param request body UpdateTransactionRequest true "Transaction update request"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	transactionDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	updated := &domain.Transaction{
		Type:            domain.TransactionType(req.Type),
		Amount:          amount,
		TransactionDate: transactionDate,
		Notes:           req.Notes,
	}

	tx, err := h.transactionService.Update(workspaceID, int32(id), updated)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		if errors.Is(err, domain.ErrSystemTransactionImmutable) {
			return NewConflictError(c, "System-generated transactions cannot be modified")
		}
		if resp, handled := transactionValidationResponse(c, err); handled {
			return resp
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Failed to update transaction")
		return NewInternalError(c, "Failed to update transaction")
	}

	log.Info().Int32("workspace_id", workspaceID).Int32("transaction_id", tx.ID).Msg("Transaction updated")
	return c.JSON(http.StatusOK, toTransactionResponse(tx))
}

// DeleteTransaction godoc
// @Summary Delete a transaction
// @Description Soft-delete a manual ledger entry. System-generated entries are immutable.
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 204 "No Content"
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.Delete(workspaceID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		if errors.Is(err, domain.ErrSystemTransactionImmutable) {
			return NewConflictError(c, "System-generated transactions cannot be deleted")
		}
		log.Error().Err(err).Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Failed to delete transaction")
		return NewInternalError(c, "Failed to delete transaction")
	}

	log.Info().Int32("workspace_id", workspaceID).Int("transaction_id", id).Msg("Transaction deleted (soft)")
	return c.NoContent(http.StatusNoContent)
}

// transactionValidationResponse maps transaction validation errors to 400
// responses. The second return reports whether the error was handled; c.JSON
// returns nil on a successful write, so the written response itself cannot
// signal that.
func transactionValidationResponse(c echo.Context, err error) (error, bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidTransactionType):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be one of: deposit, withdrawal, profit"},
		}), true
	case errors.Is(err, domain.ErrTransactionAmountInvalid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		}), true
	case errors.Is(err, domain.ErrInvalidCurrency):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "currency", Message: "Currency must match the investor's currency"},
		}), true
	case errors.Is(err, domain.ErrInvestorInactive):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "investorId", Message: "Investor is inactive"},
		}), true
	case errors.Is(err, domain.ErrInsufficientBalance):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Withdrawal exceeds the investor's contribution balance"},
		}), true
	}
	return nil, false
}

func toTransactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		WorkspaceID:     tx.WorkspaceID,
		InvestorID:      tx.InvestorID,
		FinancialYearID: tx.FinancialYearID,
		Type:            string(tx.Type),
		Amount:          tx.Amount.StringFixed(2),
		Currency:        string(tx.Currency),
		Date:            tx.TransactionDate.Format("2006-01-02"),
		Source:          string(tx.Source),
		Notes:           tx.Notes,
		CreatedAt:       tx.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       tx.UpdatedAt.Format(time.RFC3339),
	}
}
