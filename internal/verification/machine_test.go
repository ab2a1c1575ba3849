package verification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/ports"
	"github.com/MrSnakeDoc/minichannels/internal/store/memory"
)

type mockWallet struct {
	mock.Mock
}

func (w *mockWallet) IsConnected() bool {
	return w.Called().Bool(0)
}

func (w *mockWallet) SendVerificationTransfer(ctx context.Context, amount float64) (string, error) {
	args := w.Called(ctx, amount)
	return args.String(0), args.Error(1)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	vibrated int
}

func (n *recordingNotifier) Notify(message string, _ domain.Severity) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) Vibrate(...time.Duration) {
	n.mu.Lock()
	n.vibrated++
	n.mu.Unlock()
}

type pendingBackend struct{}

func (pendingBackend) CheckTransfer(context.Context, string) (CheckResult, error) {
	return CheckPending, nil
}

// flakyStorage fails writes while broken is set.
type flakyStorage struct {
	ports.Storage
	mu     sync.Mutex
	broken bool
}

func (s *flakyStorage) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	broken := s.broken
	s.mu.Unlock()
	if broken {
		return fmt.Errorf("%w: disk full", domain.ErrStorage)
	}
	return s.Storage.Set(ctx, key, value)
}

const testDelay = 20 * time.Millisecond

func newMachine(t *testing.T, wallet ports.Wallet, storage ports.Storage, backend Backend) (*Machine, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	m := New(Config{Amount: 0.01, Delay: testDelay, MaxChecks: 2}, Deps{
		Storage:  storage,
		Wallet:   wallet,
		Notifier: n,
		Backend:  backend,
	})
	return m, n
}

func connectedWallet() *mockWallet {
	w := &mockWallet{}
	w.On("IsConnected").Return(true)
	return w
}

func persisted(t *testing.T, s ports.Storage) domain.Verification {
	t.Helper()
	var rec domain.Verification
	found, err := s.Get(context.Background(), ports.KeyVerification, &rec)
	require.NoError(t, err)
	require.True(t, found)
	return rec
}

func TestStartRequiresWallet(t *testing.T) {
	w := &mockWallet{}
	w.On("IsConnected").Return(false)
	store := memory.NewStore()
	m, n := newMachine(t, w, store, nil)

	err := m.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrWalletNotConnected)
	assert.Equal(t, domain.VerificationNone, m.Status())
	assert.Len(t, n.messages, 1)

	found, err := store.Get(context.Background(), ports.KeyVerification, &domain.Verification{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDemoHappyPath(t *testing.T) {
	store := memory.NewStore()
	m, n := newMachine(t, connectedWallet(), store, nil)
	ctx := context.Background()

	var observed []domain.VerificationStatus
	var mu sync.Mutex
	m.SetObserver(func(v domain.Verification) {
		mu.Lock()
		observed = append(observed, v.Status)
		mu.Unlock()
	})

	require.NoError(t, m.Start(ctx))
	assert.Equal(t, domain.VerificationPending, persisted(t, store).Status)

	require.NoError(t, m.Process(ctx, true))
	assert.ErrorIs(t, m.Process(ctx, true), domain.ErrInvalidTransition)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(observed) == 2
	}, time.Second, 5*time.Millisecond)

	snap := m.Snapshot()
	require.NotNil(t, snap.TransactionHash)
	assert.Regexp(t, regexp.MustCompile(`^demo_transaction_\d+$`), *snap.TransactionHash)
	assert.True(t, snap.Verified)
	assert.True(t, snap.IsDemo)
	assert.NotNil(t, snap.Date)
	assert.Equal(t, 0.01, snap.Amount)
	assert.False(t, m.InFlight())

	rec := persisted(t, store)
	assert.Equal(t, domain.VerificationVerified, rec.Status)
	assert.Equal(t, *snap.TransactionHash, *rec.TransactionHash)

	mu.Lock()
	assert.Equal(t, []domain.VerificationStatus{domain.VerificationPending, domain.VerificationVerified}, observed)
	mu.Unlock()

	n.mu.Lock()
	assert.Equal(t, 1, n.vibrated)
	n.mu.Unlock()
}

func TestRealTransferConfirmedByBackend(t *testing.T) {
	w := connectedWallet()
	w.On("SendVerificationTransfer", mock.Anything, 0.01).Return("tx_abc", nil)
	store := memory.NewStore()
	m, _ := newMachine(t, w, store, SimulatedBackend{})
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Process(ctx, false))
	assert.Equal(t, domain.VerificationPending, m.Status())

	require.Eventually(t, func() bool {
		return m.Status() == domain.VerificationVerified
	}, time.Second, 5*time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, "tx_abc", *snap.TransactionHash)
	assert.False(t, snap.IsDemo)
	w.AssertExpectations(t)
}

func TestTransferFailureFailsImmediately(t *testing.T) {
	w := connectedWallet()
	w.On("SendVerificationTransfer", mock.Anything, 0.01).Return("", errors.New("rejected by user"))
	m, n := newMachine(t, w, memory.NewStore(), nil)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	err := m.Process(ctx, false)
	assert.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.Equal(t, domain.VerificationFailed, m.Status())
	assert.False(t, m.InFlight())
	assert.Equal(t, 1, n.vibrated)

	require.NoError(t, m.Retry(ctx))
	assert.Equal(t, domain.VerificationNone, m.Status())
}

func TestUnconfirmedTransferFailsAfterMaxChecks(t *testing.T) {
	w := connectedWallet()
	w.On("SendVerificationTransfer", mock.Anything, 0.01).Return("tx_slow", nil)
	m, _ := newMachine(t, w, memory.NewStore(), pendingBackend{})
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Process(ctx, false))

	require.Eventually(t, func() bool {
		return m.Status() == domain.VerificationFailed
	}, time.Second, 5*time.Millisecond)
}

func TestCancelBeforeCheckIsNoop(t *testing.T) {
	store := memory.NewStore()
	m, _ := newMachine(t, connectedWallet(), store, nil)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Process(ctx, true))
	require.NoError(t, m.Cancel(ctx))

	time.Sleep(4 * testDelay)
	assert.Equal(t, domain.VerificationNone, m.Status())
	assert.Equal(t, domain.VerificationNone, persisted(t, store).Status)
	assert.Nil(t, m.Snapshot().TransactionHash)
}

func TestResetFromVerified(t *testing.T) {
	store := memory.NewStore()
	m, _ := newMachine(t, connectedWallet(), store, nil)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Process(ctx, true))
	require.Eventually(t, func() bool {
		return m.Status() == domain.VerificationVerified
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Reset(ctx))
	snap := m.Snapshot()
	assert.Equal(t, domain.VerificationNone, snap.Status)
	assert.Nil(t, snap.TransactionHash)
	assert.Nil(t, snap.Date)
	assert.False(t, snap.Verified)
	assert.Nil(t, persisted(t, store).TransactionHash)
}

func TestInvalidTransitions(t *testing.T) {
	m, _ := newMachine(t, connectedWallet(), memory.NewStore(), nil)
	ctx := context.Background()

	assert.ErrorIs(t, m.Process(ctx, true), domain.ErrInvalidTransition)
	assert.ErrorIs(t, m.Cancel(ctx), domain.ErrInvalidTransition)
	assert.ErrorIs(t, m.Retry(ctx), domain.ErrInvalidTransition)
	assert.ErrorIs(t, m.Reset(ctx), domain.ErrInvalidTransition)

	require.NoError(t, m.Start(ctx))
	assert.ErrorIs(t, m.Start(ctx), domain.ErrInvalidTransition)
}

func TestStorageFailureKeepsRecord(t *testing.T) {
	store := &flakyStorage{Storage: memory.NewStore(), broken: true}
	m, _ := newMachine(t, connectedWallet(), store, nil)

	err := m.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, domain.VerificationNone, m.Status())

	store.mu.Lock()
	store.broken = false
	store.mu.Unlock()
	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, domain.VerificationPending, m.Status())
}

func TestLoadDemotesStalePending(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, ports.KeyVerification, domain.Verification{
		Status: domain.VerificationPending,
		Amount: 0.01,
	}))

	m, _ := newMachine(t, connectedWallet(), store, nil)
	require.NoError(t, m.Load(ctx))
	assert.Equal(t, domain.VerificationNone, m.Status())
	assert.Equal(t, domain.VerificationNone, persisted(t, store).Status)
}

func TestLoadKeepsVerified(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	hash := "tx_1"
	require.NoError(t, store.Set(ctx, ports.KeyVerification, domain.Verification{
		Verified:        true,
		Status:          domain.VerificationVerified,
		TransactionHash: &hash,
	}))

	m, _ := newMachine(t, connectedWallet(), store, nil)
	require.NoError(t, m.Load(ctx))
	snap := m.Snapshot()
	assert.Equal(t, domain.VerificationVerified, snap.Status)
	assert.Equal(t, "tx_1", *snap.TransactionHash)
}
