package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/saham-app/saham-backend/internal/service"
	"github.com/saham-app/saham-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func newTransactionHandler() (*TransactionHandler, *testutil.MockInvestorRepository, *testutil.MockTransactionRepository) {
	investorRepo := testutil.NewMockInvestorRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	transactionService := service.NewTransactionService(transactionRepo, investorRepo)
	return NewTransactionHandler(transactionService), investorRepo, transactionRepo
}

func seedInvestorForLedger(investorRepo *testutil.MockInvestorRepository) {
	investorRepo.AddInvestor(&domain.Investor{
		ID:          1,
		WorkspaceID: 1,
		Name:        "Ahmed Ali",
		Currency:    domain.CurrencyUSD,
		JoinDate:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	})
}

func TestCreateTransaction_Deposit(t *testing.T) {
	e := echo.New()
	handler, investorRepo, _ := newTransactionHandler()
	seedInvestorForLedger(investorRepo)

	body := `{"investorId":1,"type":"deposit","amount":"25000","currency":"USD","date":"2023-03-15"}`
	req := jsonRequest(http.MethodPost, "/api/v1/transactions", body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Type != "deposit" {
		t.Errorf("Expected type 'deposit', got %s", response.Type)
	}
	if response.Amount != "25000.00" {
		t.Errorf("Expected amount '25000.00', got %s", response.Amount)
	}
	if response.Source != "manual" {
		t.Errorf("Expected source 'manual', got %s", response.Source)
	}
}

func TestCreateTransaction_WithdrawalExceedsBalance(t *testing.T) {
	e := echo.New()
	handler, investorRepo, transactionRepo := newTransactionHandler()
	seedInvestorForLedger(investorRepo)

	transactionRepo.AddTransaction(&domain.Transaction{
		WorkspaceID:     1,
		InvestorID:      1,
		Type:            domain.TransactionTypeDeposit,
		Amount:          decimal.NewFromInt(1000),
		Currency:        domain.CurrencyUSD,
		TransactionDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Source:          domain.SourceManual,
	})

	body := `{"investorId":1,"type":"withdrawal","amount":"5000","currency":"USD","date":"2023-03-15"}`
	req := jsonRequest(http.MethodPost, "/api/v1/transactions", body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Expected a single problem document, got %q: %v", rec.Body.String(), err)
	}
	if problem.Type != ErrorTypeValidation {
		t.Errorf("Expected validation error type, got %s", problem.Type)
	}
}

func TestCreateTransaction_UnknownInvestor(t *testing.T) {
	e := echo.New()
	handler, _, _ := newTransactionHandler()

	body := `{"investorId":42,"type":"deposit","amount":"1000","currency":"USD","date":"2023-03-15"}`
	req := jsonRequest(http.MethodPost, "/api/v1/transactions", body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetTransactions_FiltersAndPagination(t *testing.T) {
	e := echo.New()
	handler, investorRepo, transactionRepo := newTransactionHandler()
	seedInvestorForLedger(investorRepo)

	for i := 0; i < 3; i++ {
		transactionRepo.AddTransaction(&domain.Transaction{
			WorkspaceID:     1,
			InvestorID:      1,
			Type:            domain.TransactionTypeDeposit,
			Amount:          decimal.NewFromInt(int64(1000 * (i + 1))),
			Currency:        domain.CurrencyUSD,
			TransactionDate: time.Date(2023, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
			Source:          domain.SourceManual,
		})
	}
	transactionRepo.AddTransaction(&domain.Transaction{
		WorkspaceID:     1,
		InvestorID:      1,
		Type:            domain.TransactionTypeWithdrawal,
		Amount:          decimal.NewFromInt(500),
		Currency:        domain.CurrencyUSD,
		TransactionDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Source:          domain.SourceManual,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?type=deposit", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.GetTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response PaginatedTransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.TotalItems != 3 {
		t.Errorf("Expected 3 deposits, got %d", response.TotalItems)
	}
	for _, tx := range response.Data {
		if tx.Type != "deposit" {
			t.Errorf("Expected only deposits, got %s", tx.Type)
		}
	}
}

func TestGetTransactions_InvalidType(t *testing.T) {
	e := echo.New()
	handler, _, _ := newTransactionHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?type=transfer", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.GetTransactions(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUpdateTransaction_SystemGenerated(t *testing.T) {
	e := echo.New()
	handler, investorRepo, transactionRepo := newTransactionHandler()
	seedInvestorForLedger(investorRepo)

	transactionRepo.AddTransaction(&domain.Transaction{
		ID:              1,
		WorkspaceID:     1,
		InvestorID:      1,
		Type:            domain.TransactionTypeDeposit,
		Amount:          decimal.NewFromInt(3000),
		Currency:        domain.CurrencyUSD,
		TransactionDate: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		Source:          domain.SourceRollover,
	})

	body := `{"type":"deposit","amount":"4000","date":"2023-12-31"}`
	req := jsonRequest(http.MethodPut, "/api/v1/transactions/1", body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.UpdateTransaction(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestDeleteTransaction_Manual(t *testing.T) {
	e := echo.New()
	handler, investorRepo, transactionRepo := newTransactionHandler()
	seedInvestorForLedger(investorRepo)

	transactionRepo.AddTransaction(&domain.Transaction{
		ID:              1,
		WorkspaceID:     1,
		InvestorID:      1,
		Type:            domain.TransactionTypeDeposit,
		Amount:          decimal.NewFromInt(3000),
		Currency:        domain.CurrencyUSD,
		TransactionDate: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		Source:          domain.SourceManual,
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/transactions/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.DeleteTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
}
