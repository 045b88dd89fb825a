package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/usecases"
)

type mockQuoteRepo struct{ mock.Mock }

func (m *mockQuoteRepo) Create(ctx context.Context, quote *entities.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *mockQuoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Quote), args.Error(1)
}

func (m *mockQuoteRepo) GetByNonce(ctx context.Context, nonce string) (*entities.Quote, error) {
	args := m.Called(ctx, nonce)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Quote), args.Error(1)
}

func (m *mockQuoteRepo) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to entities.QuoteStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuoteRepo) ExpireDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// passthroughUoW executes fn directly against the caller's context rather
// than opening a real transaction, since these tests exercise usecase
// logic, not GORM.
type passthroughUoW struct{ mock.Mock }

func (u *passthroughUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	u.Called(ctx)
	return fn(ctx)
}

func (u *passthroughUoW) WithLock(ctx context.Context) context.Context {
	u.Called(ctx)
	return ctx
}

func newTestQuoteEngine(quoteRepo *mockQuoteRepo, auditRepo *mockAuditLogRepo, uow *passthroughUoW) *usecases.QuoteEngine {
	return usecases.NewQuoteEngine(quoteRepo, auditRepo, uow, usecases.DefaultQuoteEngineConfig())
}

func validQuoteInput() *entities.CreateQuoteInput {
	cu := uint64(200_000)
	return &entities.CreateQuoteInput{
		UserID:               uuid.New(),
		FundingChain:         entities.ChainEthereum,
		ExecutionChain:       entities.ChainSolana,
		FundingAssetSymbol:   "USDC",
		ExecutionAssetSymbol: "USDC",
		Instructions:         []byte(`{"transfer":true}`),
		EstimatedComputeUnits: &cu,
	}
}

func TestQuoteEngine_GenerateQuote_SameChainRejected(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)

	input := validQuoteInput()
	input.ExecutionChain = input.FundingChain

	_, err := engine.GenerateQuote(context.Background(), input)

	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.CodeSameChainFunding, appErr.Code)
}

func TestQuoteEngine_GenerateQuote_UnsupportedPairRejected(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)

	input := validQuoteInput()
	input.FundingChain = entities.ChainSolana
	input.ExecutionChain = entities.ChainBase

	_, err := engine.GenerateQuote(context.Background(), input)

	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.CodeUnsupportedChainPair, appErr.Code)
}

func TestQuoteEngine_GenerateQuote_EmptyInstructionsRejected(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)

	input := validQuoteInput()
	input.Instructions = nil

	_, err := engine.GenerateQuote(context.Background(), input)

	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.CodeInvalidParameters, appErr.Code)
}

func TestQuoteEngine_GenerateQuote_ComputeUnitsOutOfRange(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)

	input := validQuoteInput()
	tooMany := uint64(2_000_000)
	input.EstimatedComputeUnits = &tooMany

	_, err := engine.GenerateQuote(context.Background(), input)

	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.CodeInvalidParameters, appErr.Code)
}

func TestQuoteEngine_GenerateQuote_ComputeUnitsMissingForComputeModel(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)

	input := validQuoteInput()
	input.EstimatedComputeUnits = nil

	_, err := engine.GenerateQuote(context.Background(), input)

	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.CodeInvalidParameters, appErr.Code)
}

func TestQuoteEngine_GenerateQuote_Success(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	uow.On("Do", mock.Anything).Return()
	quoteRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Quote")).Return(nil)
	auditRepo.On("Log", mock.Anything, mock.MatchedBy(func(l *entities.AuditLog) bool {
		return l.EventType == entities.AuditEventQuoteCreated
	})).Return(nil)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	quote, err := engine.GenerateQuote(context.Background(), validQuoteInput())

	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Equal(t, entities.QuoteStatusPending, quote.Status)
	assert.True(t, quote.MaxFundingAmount.Equal(quote.ExecutionCost.Add(quote.ServiceFee)))
	assert.NotEmpty(t, quote.PaymentAddress)
	assert.NotEmpty(t, quote.Nonce)
	quoteRepo.AssertExpectations(t)
	auditRepo.AssertExpectations(t)
}

func TestQuoteEngine_GenerateQuote_GasPricingChain(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	uow.On("Do", mock.Anything).Return()
	quoteRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Quote")).Return(nil)
	auditRepo.On("Log", mock.Anything, mock.Anything).Return(nil)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	input := &entities.CreateQuoteInput{
		UserID:               uuid.New(),
		FundingChain:         entities.ChainSolana,
		ExecutionChain:       entities.ChainEthereum,
		FundingAssetSymbol:   "USDC",
		ExecutionAssetSymbol: "USDC",
		Instructions:         []byte(`{"transfer":true}`),
	}

	quote, err := engine.GenerateQuote(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, quote.ExecutionCost.Equal(decimal.NewFromFloat(5.0)))
}

func TestQuoteEngine_GenerateQuote_CreateFails(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	uow.On("Do", mock.Anything).Return()
	quoteRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Quote")).Return(assert.AnError)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	_, err := engine.GenerateQuote(context.Background(), validQuoteInput())

	require.Error(t, err)
	auditRepo.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestQuoteEngine_CommitQuote_Success(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	uow.On("Do", mock.Anything).Return()
	uow.On("WithLock", mock.Anything).Return()

	id := uuid.New()
	userID := uuid.New()
	pending := &entities.Quote{
		ID: id, UserID: userID, Status: entities.QuoteStatusPending,
		FundingChain: entities.ChainEthereum, ExecutionChain: entities.ChainSolana,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	committed := *pending
	committed.Status = entities.QuoteStatusCommitted

	quoteRepo.On("GetByID", mock.Anything, id).Return(pending, nil).Once()
	quoteRepo.On("UpdateStatusCAS", mock.Anything, id, entities.QuoteStatusPending, entities.QuoteStatusCommitted).Return(true, nil)
	auditRepo.On("Log", mock.Anything, mock.MatchedBy(func(l *entities.AuditLog) bool {
		return l.EventType == entities.AuditEventQuoteCommitted
	})).Return(nil)
	quoteRepo.On("GetByID", mock.Anything, id).Return(&committed, nil).Once()

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	result, err := engine.CommitQuote(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, entities.QuoteStatusCommitted, result.Status)
}

func TestQuoteEngine_CommitQuote_WrongStatus(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	uow.On("Do", mock.Anything).Return()
	uow.On("WithLock", mock.Anything).Return()

	id := uuid.New()
	quote := &entities.Quote{ID: id, Status: entities.QuoteStatusExecuted, ExpiresAt: time.Now().Add(time.Hour)}
	quoteRepo.On("GetByID", mock.Anything, id).Return(quote, nil)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	_, err := engine.CommitQuote(context.Background(), id)

	require.Error(t, err)
	var stateErr *domainerrors.ErrInvalidState
	assert.ErrorAs(t, err, &stateErr)
	quoteRepo.AssertNotCalled(t, "UpdateStatusCAS", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuoteEngine_CommitQuote_Expired(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	uow.On("Do", mock.Anything).Return()
	uow.On("WithLock", mock.Anything).Return()

	id := uuid.New()
	quote := &entities.Quote{ID: id, Status: entities.QuoteStatusPending, ExpiresAt: time.Now().Add(-time.Minute)}
	quoteRepo.On("GetByID", mock.Anything, id).Return(quote, nil)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	_, err := engine.CommitQuote(context.Background(), id)

	require.Error(t, err)
	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.CodeQuoteExpired, appErr.Code)
}

func TestQuoteEngine_CommitQuote_CASLostRace(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}
	uow.On("Do", mock.Anything).Return()
	uow.On("WithLock", mock.Anything).Return()

	id := uuid.New()
	quote := &entities.Quote{
		ID: id, Status: entities.QuoteStatusPending,
		FundingChain: entities.ChainEthereum, ExecutionChain: entities.ChainSolana,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	quoteRepo.On("GetByID", mock.Anything, id).Return(quote, nil)
	quoteRepo.On("UpdateStatusCAS", mock.Anything, id, entities.QuoteStatusPending, entities.QuoteStatusCommitted).Return(false, nil)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	_, err := engine.CommitQuote(context.Background(), id)

	require.Error(t, err)
	var stateErr *domainerrors.ErrInvalidState
	assert.ErrorAs(t, err, &stateErr)
	auditRepo.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestQuoteEngine_ValidateForExecution_Success(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}

	id := uuid.New()
	quote := &entities.Quote{
		ID: id, Status: entities.QuoteStatusCommitted,
		FundingChain: entities.ChainEthereum, ExecutionChain: entities.ChainSolana,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	quoteRepo.On("GetByID", mock.Anything, id).Return(quote, nil)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	result, err := engine.ValidateForExecution(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, quote, result)
}

func TestQuoteEngine_ValidateForExecution_NotCommitted(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}

	id := uuid.New()
	quote := &entities.Quote{ID: id, Status: entities.QuoteStatusPending, ExpiresAt: time.Now().Add(time.Hour)}
	quoteRepo.On("GetByID", mock.Anything, id).Return(quote, nil)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	_, err := engine.ValidateForExecution(context.Background(), id)

	require.Error(t, err)
	var stateErr *domainerrors.ErrInvalidState
	assert.ErrorAs(t, err, &stateErr)
}

func TestQuoteEngine_MarkExecuted_Success(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}

	id := uuid.New()
	quoteRepo.On("UpdateStatusCAS", mock.Anything, id, entities.QuoteStatusCommitted, entities.QuoteStatusExecuted).Return(true, nil)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	err := engine.MarkExecuted(context.Background(), id)

	assert.NoError(t, err)
}

func TestQuoteEngine_MarkExecuted_CASFails(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}

	id := uuid.New()
	quoteRepo.On("UpdateStatusCAS", mock.Anything, id, entities.QuoteStatusCommitted, entities.QuoteStatusExecuted).Return(false, nil)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	err := engine.MarkExecuted(context.Background(), id)

	require.Error(t, err)
	var stateErr *domainerrors.ErrInvalidState
	assert.ErrorAs(t, err, &stateErr)
}

func TestQuoteEngine_MarkFailed_Success(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}

	id := uuid.New()
	quoteRepo.On("UpdateStatusCAS", mock.Anything, id, entities.QuoteStatusCommitted, entities.QuoteStatusFailed).Return(true, nil)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	err := engine.MarkFailed(context.Background(), id)

	assert.NoError(t, err)
}

func TestQuoteEngine_ExpireDue(t *testing.T) {
	quoteRepo := &mockQuoteRepo{}
	auditRepo := &mockAuditLogRepo{}
	uow := &passthroughUoW{}

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	quoteRepo.On("ExpireDue", mock.Anything, mock.AnythingOfType("time.Time")).Return(ids, nil)

	engine := newTestQuoteEngine(quoteRepo, auditRepo, uow)
	result, err := engine.ExpireDue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ids, result)
}
