package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/saham-app/saham-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockInvestorRepository is an in-memory domain.InvestorRepository
type MockInvestorRepository struct {
	Investors map[int32]*domain.Investor
	nextID    int32
}

// NewMockInvestorRepository creates a new MockInvestorRepository
func NewMockInvestorRepository() *MockInvestorRepository {
	return &MockInvestorRepository{Investors: make(map[int32]*domain.Investor), nextID: 1}
}

// AddInvestor adds an investor to the mock repository (helper for tests)
func (m *MockInvestorRepository) AddInvestor(investor *domain.Investor) {
	if investor.ID == 0 {
		investor.ID = m.nextID
	}
	if investor.ID >= m.nextID {
		m.nextID = investor.ID + 1
	}
	m.Investors[investor.ID] = investor
}

func (m *MockInvestorRepository) Create(investor *domain.Investor) (*domain.Investor, error) {
	investor.ID = m.nextID
	m.nextID++
	investor.CreatedAt = time.Now()
	investor.UpdatedAt = investor.CreatedAt
	m.Investors[investor.ID] = investor
	return investor, nil
}

func (m *MockInvestorRepository) GetByID(workspaceID int32, id int32) (*domain.Investor, error) {
	inv, ok := m.Investors[id]
	if !ok || inv.WorkspaceID != workspaceID || inv.DeletedAt != nil {
		return nil, domain.ErrInvestorNotFound
	}
	return inv, nil
}

func (m *MockInvestorRepository) GetAllByWorkspace(workspaceID int32, includeInactive bool) ([]*domain.Investor, error) {
	var result []*domain.Investor
	for _, inv := range m.Investors {
		if inv.WorkspaceID != workspaceID || inv.DeletedAt != nil {
			continue
		}
		if !includeInactive && !inv.IsActive {
			continue
		}
		result = append(result, inv)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockInvestorRepository) Update(investor *domain.Investor) (*domain.Investor, error) {
	if _, ok := m.Investors[investor.ID]; !ok {
		return nil, domain.ErrInvestorNotFound
	}
	investor.UpdatedAt = time.Now()
	m.Investors[investor.ID] = investor
	return investor, nil
}

func (m *MockInvestorRepository) SoftDelete(workspaceID int32, id int32) error {
	inv, ok := m.Investors[id]
	if !ok || inv.WorkspaceID != workspaceID {
		return domain.ErrInvestorNotFound
	}
	now := time.Now()
	inv.DeletedAt = &now
	return nil
}

func (m *MockInvestorRepository) CountByWorkspace(workspaceID int32) (int64, int64, error) {
	var total, active int64
	for _, inv := range m.Investors {
		if inv.WorkspaceID != workspaceID || inv.DeletedAt != nil {
			continue
		}
		total++
		if inv.IsActive {
			active++
		}
	}
	return total, active, nil
}

// MockTransactionRepository is an in-memory domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	nextID       int32
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{Transactions: make(map[int32]*domain.Transaction), nextID: 1}
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(tx *domain.Transaction) {
	if tx.ID == 0 {
		tx.ID = m.nextID
	}
	if tx.ID >= m.nextID {
		m.nextID = tx.ID + 1
	}
	m.Transactions[tx.ID] = tx
}

func (m *MockTransactionRepository) Create(tx *domain.Transaction) (*domain.Transaction, error) {
	tx.ID = m.nextID
	m.nextID++
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	m.Transactions[tx.ID] = tx
	return tx, nil
}

func (m *MockTransactionRepository) GetByID(workspaceID int32, id int32) (*domain.Transaction, error) {
	tx, ok := m.Transactions[id]
	if !ok || tx.WorkspaceID != workspaceID || tx.DeletedAt != nil {
		return nil, domain.ErrTransactionNotFound
	}
	return tx, nil
}

func (m *MockTransactionRepository) GetByWorkspace(workspaceID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	var all []*domain.Transaction
	for _, tx := range m.Transactions {
		if tx.WorkspaceID != workspaceID || tx.DeletedAt != nil {
			continue
		}
		if filters.InvestorID != nil && tx.InvestorID != *filters.InvestorID {
			continue
		}
		if filters.FinancialYearID != nil && (tx.FinancialYearID == nil || *tx.FinancialYearID != *filters.FinancialYearID) {
			continue
		}
		if filters.Type != nil && tx.Type != *filters.Type {
			continue
		}
		all = append(all, tx)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 {
		pageSize = domain.DefaultPageSize
	}
	start := int((page - 1) * pageSize)
	if start > len(all) {
		start = len(all)
	}
	end := start + int(pageSize)
	if end > len(all) {
		end = len(all)
	}
	totalPages := int32((int64(len(all)) + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedTransactions{
		Data:       all[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: int64(len(all)),
		TotalPages: totalPages,
	}, nil
}

func (m *MockTransactionRepository) GetRecent(workspaceID int32, limit int32) ([]*domain.Transaction, error) {
	result, err := m.GetByWorkspace(workspaceID, &domain.TransactionFilters{Page: 1, PageSize: limit})
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

func (m *MockTransactionRepository) Update(tx *domain.Transaction) (*domain.Transaction, error) {
	if _, ok := m.Transactions[tx.ID]; !ok {
		return nil, domain.ErrTransactionNotFound
	}
	tx.UpdatedAt = time.Now()
	m.Transactions[tx.ID] = tx
	return tx, nil
}

func (m *MockTransactionRepository) SoftDelete(workspaceID int32, id int32) error {
	tx, ok := m.Transactions[id]
	if !ok || tx.WorkspaceID != workspaceID {
		return domain.ErrTransactionNotFound
	}
	now := time.Now()
	tx.DeletedAt = &now
	return nil
}

func (m *MockTransactionRepository) GetContributionSummaries(workspaceID int32) ([]*domain.ContributionSummary, error) {
	byInvestor := make(map[int32]*domain.ContributionSummary)
	for _, tx := range m.Transactions {
		if tx.WorkspaceID != workspaceID || tx.DeletedAt != nil {
			continue
		}
		sum, ok := byInvestor[tx.InvestorID]
		if !ok {
			sum = &domain.ContributionSummary{
				InvestorID:     tx.InvestorID,
				SumDeposits:    decimal.Zero,
				SumWithdrawals: decimal.Zero,
				SumProfit:      decimal.Zero,
			}
			byInvestor[tx.InvestorID] = sum
		}
		switch tx.Type {
		case domain.TransactionTypeDeposit:
			sum.SumDeposits = sum.SumDeposits.Add(tx.Amount)
		case domain.TransactionTypeWithdrawal:
			sum.SumWithdrawals = sum.SumWithdrawals.Add(tx.Amount)
		case domain.TransactionTypeProfit:
			sum.SumProfit = sum.SumProfit.Add(tx.Amount)
		}
	}
	result := make([]*domain.ContributionSummary, 0, len(byInvestor))
	for _, sum := range byInvestor {
		result = append(result, sum)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InvestorID < result[j].InvestorID })
	return result, nil
}

func (m *MockTransactionRepository) GetContributionSummary(workspaceID int32, investorID int32) (*domain.ContributionSummary, error) {
	summaries, err := m.GetContributionSummaries(workspaceID)
	if err != nil {
		return nil, err
	}
	for _, sum := range summaries {
		if sum.InvestorID == investorID {
			return sum, nil
		}
	}
	return &domain.ContributionSummary{
		InvestorID:     investorID,
		SumDeposits:    decimal.Zero,
		SumWithdrawals: decimal.Zero,
		SumProfit:      decimal.Zero,
	}, nil
}

// MockFinancialYearRepository is an in-memory domain.FinancialYearRepository
type MockFinancialYearRepository struct {
	Years  map[int32]*domain.FinancialYear
	nextID int32
}

// NewMockFinancialYearRepository creates a new MockFinancialYearRepository
func NewMockFinancialYearRepository() *MockFinancialYearRepository {
	return &MockFinancialYearRepository{Years: make(map[int32]*domain.FinancialYear), nextID: 1}
}

// AddYear adds a financial year to the mock repository (helper for tests)
func (m *MockFinancialYearRepository) AddYear(year *domain.FinancialYear) {
	if year.ID == 0 {
		year.ID = m.nextID
	}
	if year.ID >= m.nextID {
		m.nextID = year.ID + 1
	}
	m.Years[year.ID] = year
}

func (m *MockFinancialYearRepository) Create(year *domain.FinancialYear) (*domain.FinancialYear, error) {
	year.ID = m.nextID
	m.nextID++
	year.CreatedAt = time.Now()
	year.UpdatedAt = year.CreatedAt
	m.Years[year.ID] = year
	return year, nil
}

func (m *MockFinancialYearRepository) GetByID(workspaceID int32, id int32) (*domain.FinancialYear, error) {
	year, ok := m.Years[id]
	if !ok || year.WorkspaceID != workspaceID {
		return nil, domain.ErrFinancialYearNotFound
	}
	return year, nil
}

func (m *MockFinancialYearRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.FinancialYear, error) {
	var result []*domain.FinancialYear
	for _, year := range m.Years {
		if year.WorkspaceID == workspaceID {
			result = append(result, year)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

func (m *MockFinancialYearRepository) Update(year *domain.FinancialYear) (*domain.FinancialYear, error) {
	if _, ok := m.Years[year.ID]; !ok {
		return nil, domain.ErrFinancialYearNotFound
	}
	year.UpdatedAt = time.Now()
	m.Years[year.ID] = year
	return year, nil
}

func (m *MockFinancialYearRepository) UpdateStatus(workspaceID int32, id int32, status domain.FinancialYearStatus) error {
	year, err := m.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	year.Status = status
	return nil
}

func (m *MockFinancialYearRepository) UpdateRolloverSettings(workspaceID int32, id int32, settings domain.RolloverSettings) error {
	year, err := m.GetByID(workspaceID, id)
	if err != nil {
		return err
	}
	year.Rollover = settings
	return nil
}

func (m *MockFinancialYearRepository) Delete(workspaceID int32, id int32) error {
	year, ok := m.Years[id]
	if !ok || year.WorkspaceID != workspaceID {
		return domain.ErrFinancialYearNotFound
	}
	delete(m.Years, id)
	return nil
}

func (m *MockFinancialYearRepository) GetDueAutoRollover(now time.Time) ([]*domain.FinancialYear, error) {
	var result []*domain.FinancialYear
	for _, year := range m.Years {
		if year.Status != domain.StatusApproved && year.Status != domain.StatusDistributed {
			continue
		}
		if !year.Rollover.AutoRollover || year.Rollover.AutoRolloverDate == nil {
			continue
		}
		if year.Rollover.AutoRolloverDate.After(now) {
			continue
		}
		result = append(result, year)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// MockDistributionRepository is an in-memory domain.DistributionRepository
type MockDistributionRepository struct {
	Distributions map[int32]*domain.Distribution
	// TransactionRepo receives rollover deposits from ApplyRollover when set
	TransactionRepo *MockTransactionRepository
	nextID          int32
}

// NewMockDistributionRepository creates a new MockDistributionRepository
func NewMockDistributionRepository() *MockDistributionRepository {
	return &MockDistributionRepository{Distributions: make(map[int32]*domain.Distribution), nextID: 1}
}

// AddDistribution adds a distribution to the mock repository (helper for tests)
func (m *MockDistributionRepository) AddDistribution(d *domain.Distribution) {
	if d.ID == 0 {
		d.ID = m.nextID
	}
	if d.ID >= m.nextID {
		m.nextID = d.ID + 1
	}
	m.Distributions[d.ID] = d
}

func (m *MockDistributionRepository) ReplaceForYear(workspaceID int32, financialYearID int32, distributions []*domain.Distribution) ([]*domain.Distribution, error) {
	for id, d := range m.Distributions {
		if d.WorkspaceID == workspaceID && d.FinancialYearID == financialYearID {
			delete(m.Distributions, id)
		}
	}
	now := time.Now()
	for _, d := range distributions {
		d.ID = m.nextID
		m.nextID++
		d.CreatedAt = now
		d.UpdatedAt = now
		m.Distributions[d.ID] = d
	}
	return distributions, nil
}

func (m *MockDistributionRepository) GetByYear(workspaceID int32, financialYearID int32) ([]*domain.Distribution, error) {
	var result []*domain.Distribution
	for _, d := range m.Distributions {
		if d.WorkspaceID == workspaceID && d.FinancialYearID == financialYearID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InvestorID < result[j].InvestorID })
	return result, nil
}

func (m *MockDistributionRepository) GetByID(workspaceID int32, id int32) (*domain.Distribution, error) {
	d, ok := m.Distributions[id]
	if !ok || d.WorkspaceID != workspaceID {
		return nil, domain.ErrDistributionNotFound
	}
	return d, nil
}

func (m *MockDistributionRepository) CountByYear(workspaceID int32, financialYearID int32) (int64, error) {
	var count int64
	for _, d := range m.Distributions {
		if d.WorkspaceID == workspaceID && d.FinancialYearID == financialYearID {
			count++
		}
	}
	return count, nil
}

func (m *MockDistributionRepository) CountByInvestor(workspaceID int32, investorID int32) (int64, error) {
	var count int64
	for _, d := range m.Distributions {
		if d.WorkspaceID == workspaceID && d.InvestorID == investorID {
			count++
		}
	}
	return count, nil
}

func (m *MockDistributionRepository) UpdateStatusForYear(workspaceID int32, financialYearID int32, status domain.FinancialYearStatus) error {
	for _, d := range m.Distributions {
		if d.WorkspaceID == workspaceID && d.FinancialYearID == financialYearID {
			d.Status = status
		}
	}
	return nil
}

func (m *MockDistributionRepository) ApplyRollover(workspaceID int32, financialYearID int32, applications []*domain.RolloverApplication) error {
	for _, app := range applications {
		d, ok := m.Distributions[app.DistributionID]
		if !ok || d.WorkspaceID != workspaceID {
			return domain.ErrDistributionNotFound
		}
		d.Rollover = domain.DistributionRollover{IsRolledOver: true, RolloverAmount: app.Amount}
		if m.TransactionRepo != nil && app.Deposit != nil {
			if _, err := m.TransactionRepo.Create(app.Deposit); err != nil {
				return err
			}
		}
	}
	return nil
}

// MockUserRepository is an in-memory domain.UserRepository
type MockUserRepository struct {
	Users map[string]*domain.User
	ByID  map[uuid.UUID]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Create(user *domain.User) (*domain.User, error) {
	user.ID = uuid.New()
	m.AddUser(user)
	return user, nil
}

func (m *MockUserRepository) UpdateName(auth0ID string, name string) (*domain.User, error) {
	user, ok := m.Users[auth0ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Name = &name
	return user, nil
}

func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:         uuid.New(),
		Auth0ID:    auth0ID,
		Email:      email,
		Name:       name,
		PictureURL: pictureURL,
	}
	m.AddUser(user)
	return user, nil
}

// MockWorkspaceRepository is an in-memory domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	Workspaces map[int32]*domain.Workspace
	ByUserID   map[uuid.UUID]*domain.Workspace
	ByAuth0ID  map[string]*domain.Workspace
	nextID     int32
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		Workspaces: make(map[int32]*domain.Workspace),
		ByUserID:   make(map[uuid.UUID]*domain.Workspace),
		ByAuth0ID:  make(map[string]*domain.Workspace),
		nextID:     1,
	}
}

// AddWorkspace adds a workspace with an Auth0 mapping (helper for tests)
func (m *MockWorkspaceRepository) AddWorkspace(workspace *domain.Workspace, auth0ID string) {
	if workspace.ID == 0 {
		workspace.ID = m.nextID
	}
	if workspace.ID >= m.nextID {
		m.nextID = workspace.ID + 1
	}
	m.Workspaces[workspace.ID] = workspace
	m.ByUserID[workspace.UserID] = workspace
	if auth0ID != "" {
		m.ByAuth0ID[auth0ID] = workspace
	}
}

func (m *MockWorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	if workspace, ok := m.Workspaces[id]; ok {
		return workspace, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (m *MockWorkspaceRepository) GetByUserID(userID uuid.UUID) (*domain.Workspace, error) {
	if workspace, ok := m.ByUserID[userID]; ok {
		return workspace, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (m *MockWorkspaceRepository) GetByUserAuth0ID(auth0ID string) (*domain.Workspace, error) {
	if workspace, ok := m.ByAuth0ID[auth0ID]; ok {
		return workspace, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (m *MockWorkspaceRepository) Create(workspace *domain.Workspace) (*domain.Workspace, error) {
	workspace.ID = m.nextID
	m.nextID++
	workspace.CreatedAt = time.Now()
	workspace.UpdatedAt = workspace.CreatedAt
	m.Workspaces[workspace.ID] = workspace
	m.ByUserID[workspace.UserID] = workspace
	return workspace, nil
}

// MockAPITokenRepository is an in-memory domain.APITokenRepository
type MockAPITokenRepository struct {
	Tokens map[uuid.UUID]*domain.APIToken
}

// NewMockAPITokenRepository creates a new MockAPITokenRepository
func NewMockAPITokenRepository() *MockAPITokenRepository {
	return &MockAPITokenRepository{Tokens: make(map[uuid.UUID]*domain.APIToken)}
}

func (m *MockAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	m.Tokens[token.ID] = token
	return nil
}

func (m *MockAPITokenRepository) GetByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.APIToken, error) {
	var result []*domain.APIToken
	for _, t := range m.Tokens {
		if t.WorkspaceID == workspaceID && t.RevokedAt == nil {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MockAPITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	for _, t := range m.Tokens {
		if t.TokenHash == hash {
			return t, nil
		}
	}
	return nil, domain.ErrAPITokenNotFound
}

func (m *MockAPITokenRepository) Revoke(ctx context.Context, workspaceID int32, id uuid.UUID) error {
	t, ok := m.Tokens[id]
	if !ok || t.WorkspaceID != workspaceID {
		return domain.ErrAPITokenNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	return nil
}

func (m *MockAPITokenRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	t, ok := m.Tokens[id]
	if !ok {
		return domain.ErrAPITokenNotFound
	}
	now := time.Now()
	t.LastUsedAt = &now
	return nil
}
