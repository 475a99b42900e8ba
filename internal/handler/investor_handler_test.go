package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/saham-app/saham-backend/internal/service"
	"github.com/saham-app/saham-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func newInvestorHandler() (*InvestorHandler, *testutil.MockInvestorRepository, *testutil.MockTransactionRepository) {
	investorRepo := testutil.NewMockInvestorRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	distributionRepo := testutil.NewMockDistributionRepository()
	investorService := service.NewInvestorService(investorRepo, transactionRepo, distributionRepo)
	return NewInvestorHandler(investorService), investorRepo, transactionRepo
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestCreateInvestor_Success(t *testing.T) {
	e := echo.New()
	handler, _, _ := newInvestorHandler()

	body := `{"name":"Ahmed Ali","currency":"USD","joinDate":"2023-01-01","initialContribution":"50000"}`
	req := jsonRequest(http.MethodPost, "/api/v1/investors", body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.CreateInvestor(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response InvestorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Name != "Ahmed Ali" {
		t.Errorf("Expected name 'Ahmed Ali', got %s", response.Name)
	}
	if response.ContributionBalance != "50000.00" {
		t.Errorf("Expected contribution balance '50000.00', got %s", response.ContributionBalance)
	}
	if !response.IsActive {
		t.Error("Expected new investor to be active")
	}
}

func TestCreateInvestor_InvalidJoinDate(t *testing.T) {
	e := echo.New()
	handler, _, _ := newInvestorHandler()

	body := `{"name":"Ahmed Ali","currency":"USD","joinDate":"01/01/2023"}`
	req := jsonRequest(http.MethodPost, "/api/v1/investors", body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.CreateInvestor(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestCreateInvestor_InvalidCurrency(t *testing.T) {
	e := echo.New()
	handler, _, _ := newInvestorHandler()

	body := `{"name":"Ahmed Ali","currency":"EUR","joinDate":"2023-01-01"}`
	req := jsonRequest(http.MethodPost, "/api/v1/investors", body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.CreateInvestor(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v", err)
	}
	if problem.Type != ErrorTypeValidation {
		t.Errorf("Expected validation error type, got %s", problem.Type)
	}
}

func TestCreateInvestor_MissingWorkspace(t *testing.T) {
	e := echo.New()
	handler, _, _ := newInvestorHandler()

	body := `{"name":"Ahmed Ali","currency":"USD","joinDate":"2023-01-01"}`
	req := jsonRequest(http.MethodPost, "/api/v1/investors", body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContext(c, "auth0|test", "test@example.com", "Test User", "")

	if err := handler.CreateInvestor(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetInvestors_BalancesFromLedger(t *testing.T) {
	e := echo.New()
	handler, investorRepo, transactionRepo := newInvestorHandler()

	investorRepo.AddInvestor(&domain.Investor{
		ID:          1,
		WorkspaceID: 1,
		Name:        "Ahmed Ali",
		Currency:    domain.CurrencyUSD,
		JoinDate:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	})
	transactionRepo.AddTransaction(&domain.Transaction{
		WorkspaceID:     1,
		InvestorID:      1,
		Type:            domain.TransactionTypeDeposit,
		Amount:          decimal.NewFromInt(10000),
		Currency:        domain.CurrencyUSD,
		TransactionDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Source:          domain.SourceManual,
	})
	transactionRepo.AddTransaction(&domain.Transaction{
		WorkspaceID:     1,
		InvestorID:      1,
		Type:            domain.TransactionTypeWithdrawal,
		Amount:          decimal.NewFromInt(4000),
		Currency:        domain.CurrencyUSD,
		TransactionDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Source:          domain.SourceManual,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/investors", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.GetInvestors(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response []InvestorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response) != 1 {
		t.Fatalf("Expected 1 investor, got %d", len(response))
	}
	if response[0].ContributionBalance != "6000.00" {
		t.Errorf("Expected balance '6000.00', got %s", response[0].ContributionBalance)
	}
}

func TestGetInvestor_NotFound(t *testing.T) {
	e := echo.New()
	handler, _, _ := newInvestorHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/investors/99", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.GetInvestor(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestDeleteInvestor_WithDistributions(t *testing.T) {
	e := echo.New()
	investorRepo := testutil.NewMockInvestorRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	distributionRepo := testutil.NewMockDistributionRepository()
	investorService := service.NewInvestorService(investorRepo, transactionRepo, distributionRepo)
	handler := NewInvestorHandler(investorService)

	investorRepo.AddInvestor(&domain.Investor{
		ID:          1,
		WorkspaceID: 1,
		Name:        "Ahmed Ali",
		Currency:    domain.CurrencyUSD,
		JoinDate:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	})
	distributionRepo.AddDistribution(&domain.Distribution{
		WorkspaceID:     1,
		FinancialYearID: 1,
		InvestorID:      1,
		Status:          domain.StatusApproved,
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/investors/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.DeleteInvestor(c); err != nil {
		t.Fatalf("Expected JSON response, got error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestDeleteInvestor_Success(t *testing.T) {
	e := echo.New()
	handler, investorRepo, _ := newInvestorHandler()

	investorRepo.AddInvestor(&domain.Investor{
		ID:          1,
		WorkspaceID: 1,
		Name:        "Ahmed Ali",
		Currency:    domain.CurrencyUSD,
		JoinDate:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/investors/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	setupAuthContextWithWorkspace(c, "auth0|test", "test@example.com", "Test User", "", 1)

	if err := handler.DeleteInvestor(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
}
