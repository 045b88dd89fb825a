package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"pay-chain.backend/internal/domain/entities"
	"pay-chain.backend/internal/usecases"
)

type quoteExpiryRepoStub struct {
	expired   []uuid.UUID
	expireErr error
	calls     int
}

func (s *quoteExpiryRepoStub) Create(context.Context, *entities.Quote) error { return nil }
func (s *quoteExpiryRepoStub) GetByID(context.Context, uuid.UUID) (*entities.Quote, error) {
	return nil, nil
}
func (s *quoteExpiryRepoStub) GetByNonce(context.Context, string) (*entities.Quote, error) {
	return nil, nil
}
func (s *quoteExpiryRepoStub) UpdateStatusCAS(context.Context, uuid.UUID, entities.QuoteStatus, entities.QuoteStatus) (bool, error) {
	return false, nil
}
func (s *quoteExpiryRepoStub) ExpireDue(context.Context, time.Time) ([]uuid.UUID, error) {
	s.calls++
	if s.expireErr != nil {
		return nil, s.expireErr
	}
	return s.expired, nil
}

type noopAuditRepo struct{}

func (noopAuditRepo) Log(context.Context, *entities.AuditLog) error { return nil }

type passthroughUnitOfWork struct{}

func (passthroughUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (passthroughUnitOfWork) WithLock(ctx context.Context) context.Context { return ctx }

func newTestQuoteExpiryJob(repo *quoteExpiryRepoStub) *QuoteExpiryJob {
	engine := usecases.NewQuoteEngine(repo, noopAuditRepo{}, passthroughUnitOfWork{}, usecases.DefaultQuoteEngineConfig())
	return NewQuoteExpiryJob(engine, time.Millisecond)
}

func TestExpireDue_NoItems(t *testing.T) {
	repo := &quoteExpiryRepoStub{}
	job := newTestQuoteExpiryJob(repo)

	job.expireDue(context.Background())
	require.Equal(t, 1, repo.calls)
}

func TestExpireDue_Success(t *testing.T) {
	repo := &quoteExpiryRepoStub{expired: []uuid.UUID{uuid.New(), uuid.New()}}
	job := newTestQuoteExpiryJob(repo)

	job.expireDue(context.Background())
	require.Equal(t, 1, repo.calls)
}

func TestExpireDue_Error(t *testing.T) {
	repo := &quoteExpiryRepoStub{expireErr: errors.New("db down")}
	job := newTestQuoteExpiryJob(repo)

	job.expireDue(context.Background())
	require.Equal(t, 1, repo.calls)
}

func TestQuoteExpiryJob_StartStop_StopsByContext(t *testing.T) {
	job := newTestQuoteExpiryJob(&quoteExpiryRepoStub{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("job did not stop on context cancel")
	}
}

func TestQuoteExpiryJob_StartStop_StopsByStopChannel(t *testing.T) {
	job := newTestQuoteExpiryJob(&quoteExpiryRepoStub{})

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()
	job.Stop()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("job did not stop on Stop()")
	}
}
