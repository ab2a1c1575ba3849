// Package verification implements the per-user verification flow:
//
//	none -> pending -> verified | failed
//	pending -> none (cancel), failed -> none (retry), verified|failed -> none (reset)
//
// Every transition is persisted before it becomes visible. Delayed status
// checks are cancellable; a check that fires after the flow moved on is
// dropped.
package verification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
	"github.com/MrSnakeDoc/minichannels/internal/logger"
	"github.com/MrSnakeDoc/minichannels/internal/metrics"
	"github.com/MrSnakeDoc/minichannels/internal/ports"
	"github.com/MrSnakeDoc/minichannels/internal/scheduler"
)

const (
	DemoHashPrefix = "demo_transaction_"

	checkTimeout = 10 * time.Second
)

var (
	vibrateSuccess = []time.Duration{100 * time.Millisecond, 50 * time.Millisecond, 100 * time.Millisecond}
	vibrateError   = []time.Duration{200 * time.Millisecond}
)

type Config struct {
	// Amount of the verification transfer.
	Amount float64
	// Delay before a status check runs.
	Delay time.Duration
	// MaxChecks bounds how many times a still-pending transfer is
	// re-checked before the flow fails.
	MaxChecks int
}

// Deps are the collaborators of one user's machine. Backend, Metrics and
// Logger default to the simulated backend, no-op metrics and a no-op logger.
type Deps struct {
	Storage  ports.Storage
	Wallet   ports.Wallet
	Notifier ports.Notifier
	Backend  Backend
	Metrics  metrics.Provider
	Logger   logger.Logger
}

type Machine struct {
	cfg      Config
	storage  ports.Storage
	wallet   ports.Wallet
	notifier ports.Notifier
	backend  Backend
	metrics  metrics.Provider
	log      logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	record   domain.Verification
	flow     uint64
	checks   int
	inFlight bool
	timer    scheduler.Deferred
	observer func(domain.Verification)
}

func New(cfg Config, deps Deps) *Machine {
	if cfg.MaxChecks < 1 {
		cfg.MaxChecks = 1
	}
	if deps.Backend == nil {
		deps.Backend = SimulatedBackend{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	return &Machine{
		cfg:      cfg,
		storage:  deps.Storage,
		wallet:   deps.Wallet,
		notifier: deps.Notifier,
		backend:  deps.Backend,
		metrics:  deps.Metrics,
		log:      deps.Logger,
		now:      time.Now,
		record:   domain.NewVerification(),
	}
}

// SetObserver registers fn to run after every transition, outside the
// machine's lock.
func (m *Machine) SetObserver(fn func(domain.Verification)) {
	m.mu.Lock()
	m.observer = fn
	m.mu.Unlock()
}

// Snapshot returns a copy of the current record.
func (m *Machine) Snapshot() domain.Verification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record.Clone()
}

// Status returns the current state.
func (m *Machine) Status() domain.VerificationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record.Status
}

// InFlight reports whether a transfer or status check is outstanding.
func (m *Machine) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// Load reads the persisted record. A record left pending by a previous run
// is demoted to none since its scheduled check did not survive.
func (m *Machine) Load(ctx context.Context) error {
	rec := domain.NewVerification()
	found, err := m.storage.Get(ctx, ports.KeyVerification, &rec)
	if err != nil {
		m.metrics.IncStorageErrors("verification_load")
		return fmt.Errorf("load verification: %w", err)
	}
	if !found || rec.Status == "" {
		rec = domain.NewVerification()
	}
	rec.Verified = rec.Status == domain.VerificationVerified

	return m.run(func() (bool, error) {
		m.record = rec
		if rec.Status != domain.VerificationPending {
			return false, nil
		}
		m.log.Info("demoting stale pending verification")
		return true, m.commit(ctx, domain.NewVerification())
	})
}

// Start moves none to pending. It needs a connected wallet.
func (m *Machine) Start(ctx context.Context) error {
	return m.run(func() (bool, error) {
		if m.record.Status != domain.VerificationNone {
			return false, m.invalid("start")
		}
		if m.wallet == nil || !m.wallet.IsConnected() {
			m.notify("Connect a wallet to verify your account", domain.SeverityWarning)
			return false, domain.ErrWalletNotConnected
		}

		next := domain.NewVerification()
		next.Status = domain.VerificationPending
		next.Amount = m.cfg.Amount
		if err := m.commit(ctx, next); err != nil {
			return false, err
		}
		m.flow++
		m.checks = 0
		m.inFlight = false
		return true, nil
	})
}

// Process runs the pending verification. The demo variant completes after
// the configured delay without touching the wallet. Otherwise the transfer
// is sent and its status checked through the backend after the delay.
func (m *Machine) Process(ctx context.Context, demo bool) error {
	m.mu.Lock()
	if m.record.Status != domain.VerificationPending || m.inFlight {
		err := m.invalid("process")
		m.mu.Unlock()
		return err
	}
	if !demo && (m.wallet == nil || !m.wallet.IsConnected()) {
		m.mu.Unlock()
		m.notify("Connect a wallet to verify your account", domain.SeverityWarning)
		return domain.ErrWalletNotConnected
	}
	m.inFlight = true
	flow := m.flow

	if demo {
		m.timer.Schedule(m.cfg.Delay, func() {
			hash := fmt.Sprintf("%s%d", DemoHashPrefix, m.now().UnixMilli())
			m.complete(flow, hash, true)
		})
		m.mu.Unlock()
		m.notify("Demo verification in progress", domain.SeverityInfo)
		return nil
	}
	m.mu.Unlock()

	hash, sendErr := m.wallet.SendVerificationTransfer(ctx, m.cfg.Amount)

	return m.run(func() (bool, error) {
		if m.flow != flow || m.record.Status != domain.VerificationPending {
			return false, m.invalid("process")
		}
		if sendErr != nil {
			m.inFlight = false
			m.log.Warn("verification transfer failed", logger.Error(sendErr))
			if err := m.fail(ctx); err != nil {
				return false, err
			}
			return true, fmt.Errorf("%w: %v", domain.ErrTransferFailed, sendErr)
		}
		m.notify("Transfer sent, waiting for confirmation", domain.SeverityInfo)
		m.scheduleCheck(flow, hash)
		return false, nil
	})
}

// Cancel abandons a pending verification.
func (m *Machine) Cancel(ctx context.Context) error {
	return m.run(func() (bool, error) {
		if m.record.Status != domain.VerificationPending {
			return false, m.invalid("cancel")
		}
		return m.resetLocked(ctx)
	})
}

// Retry clears a failed verification so it can be started again.
func (m *Machine) Retry(ctx context.Context) error {
	return m.run(func() (bool, error) {
		if m.record.Status != domain.VerificationFailed {
			return false, m.invalid("retry")
		}
		return m.resetLocked(ctx)
	})
}

// Reset returns a verified or failed account to none.
func (m *Machine) Reset(ctx context.Context) error {
	return m.run(func() (bool, error) {
		switch m.record.Status {
		case domain.VerificationVerified, domain.VerificationFailed:
		default:
			return false, m.invalid("reset")
		}
		changed, err := m.resetLocked(ctx)
		if err == nil {
			m.notify("Verification reset", domain.SeverityInfo)
		}
		return changed, err
	})
}

func (m *Machine) resetLocked(ctx context.Context) (bool, error) {
	if err := m.commit(ctx, domain.NewVerification()); err != nil {
		return false, err
	}
	m.flow++
	m.checks = 0
	m.inFlight = false
	m.timer.Cancel()
	return true, nil
}

func (m *Machine) scheduleCheck(flow uint64, hash string) {
	m.timer.Schedule(m.cfg.Delay, func() { m.check(flow, hash) })
}

func (m *Machine) check(flow uint64, hash string) {
	m.mu.Lock()
	stale := m.flow != flow || m.record.Status != domain.VerificationPending
	m.mu.Unlock()
	if stale {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	result, err := m.backend.CheckTransfer(ctx, hash)
	if err != nil {
		m.log.Warn("verification check failed", logger.String("tx", hash), logger.Error(err))
		result = CheckFailed
	}

	switch result {
	case CheckConfirmed:
		m.complete(flow, hash, false)
	case CheckPending:
		_ = m.run(func() (bool, error) {
			if m.flow != flow || m.record.Status != domain.VerificationPending {
				return false, nil
			}
			m.checks++
			if m.checks < m.cfg.MaxChecks {
				m.scheduleCheck(flow, hash)
				return false, nil
			}
			m.inFlight = false
			m.log.Warn("verification still unconfirmed", logger.String("tx", hash), logger.Int("checks", m.checks))
			return true, m.fail(ctx)
		})
	default:
		_ = m.run(func() (bool, error) {
			if m.flow != flow || m.record.Status != domain.VerificationPending {
				return false, nil
			}
			m.inFlight = false
			return true, m.fail(ctx)
		})
	}
}

func (m *Machine) complete(flow uint64, hash string, demo bool) {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	err := m.run(func() (bool, error) {
		if m.flow != flow || m.record.Status != domain.VerificationPending {
			return false, nil
		}
		m.inFlight = false

		at := m.now()
		next := domain.Verification{
			Verified:        true,
			Status:          domain.VerificationVerified,
			TransactionHash: &hash,
			Amount:          m.cfg.Amount,
			Date:            &at,
			IsDemo:          demo,
		}
		if err := m.commit(ctx, next); err != nil {
			m.notify("Could not save your verification", domain.SeverityError)
			return false, err
		}
		if demo {
			m.notify("Demo verification complete", domain.SeveritySuccess)
		} else {
			m.notify("Account verified", domain.SeveritySuccess)
		}
		m.vibrate(vibrateSuccess...)
		return true, nil
	})
	if err != nil {
		m.log.Error("verification completion not persisted", logger.Error(err))
	}
}

// fail moves pending to failed. Called with m.mu held.
func (m *Machine) fail(ctx context.Context) error {
	next := m.record.Clone()
	next.Status = domain.VerificationFailed
	next.Verified = false
	if err := m.commit(ctx, next); err != nil {
		return err
	}
	m.notify("Verification failed, you can retry", domain.SeverityError)
	m.vibrate(vibrateError...)
	return nil
}

// commit persists next and only then swaps it in. Called with m.mu held.
func (m *Machine) commit(ctx context.Context, next domain.Verification) error {
	if err := m.storage.Set(ctx, ports.KeyVerification, next); err != nil {
		m.metrics.IncStorageErrors("verification")
		return fmt.Errorf("save verification: %w", err)
	}
	from := m.record.Status
	m.record = next
	m.metrics.IncVerificationTransition(from, next.Status)
	m.log.Debug("verification transition",
		logger.String("from", string(from)),
		logger.String("to", string(next.Status)),
	)
	return nil
}

// run executes fn under the lock and calls the observer afterwards when fn
// reports a transition.
func (m *Machine) run(fn func() (bool, error)) error {
	m.mu.Lock()
	changed, err := fn()
	snap := m.record.Clone()
	obs := m.observer
	m.mu.Unlock()

	if changed && obs != nil {
		obs(snap)
	}
	return err
}

func (m *Machine) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s from %s", domain.ErrInvalidTransition, op, m.record.Status)
}

func (m *Machine) notify(msg string, sev domain.Severity) {
	if m.notifier != nil {
		m.notifier.Notify(msg, sev)
	}
}

func (m *Machine) vibrate(pattern ...time.Duration) {
	if m.notifier != nil {
		m.notifier.Vibrate(pattern...)
	}
}
