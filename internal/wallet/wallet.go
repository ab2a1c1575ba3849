// Package wallet provides a simulated wallet per user. Transfers never leave
// the process; they only produce a transaction hash.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
)

var ErrInvalidAddress = errors.New("invalid wallet address")

// Status is the public view of a wallet.
type Status struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
}

// SimulatedWallet implements ports.Wallet.
type SimulatedWallet struct {
	mu      sync.Mutex
	address string
	// failNext makes the next transfer fail once.
	failNext bool
}

func (w *SimulatedWallet) Connect(address string) error {
	address = strings.TrimSpace(address)
	if len(address) < 8 {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	w.mu.Lock()
	w.address = address
	w.mu.Unlock()
	return nil
}

func (w *SimulatedWallet) Disconnect() {
	w.mu.Lock()
	w.address = ""
	w.mu.Unlock()
}

func (w *SimulatedWallet) IsConnected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.address != ""
}

func (w *SimulatedWallet) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{Connected: w.address != "", Address: w.address}
}

// FailNextTransfer makes the next SendVerificationTransfer call fail.
func (w *SimulatedWallet) FailNextTransfer() {
	w.mu.Lock()
	w.failNext = true
	w.mu.Unlock()
}

func (w *SimulatedWallet) SendVerificationTransfer(ctx context.Context, amount float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.address == "" {
		return "", domain.ErrWalletNotConnected
	}
	if w.failNext {
		w.failNext = false
		return "", fmt.Errorf("%w: transfer rejected", domain.ErrTransferFailed)
	}
	if amount <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", domain.ErrTransferFailed)
	}
	return "tx_" + uuid.NewString(), nil
}

// Registry hands out one wallet per user.
type Registry struct {
	mu      sync.Mutex
	wallets map[string]*SimulatedWallet
}

func NewRegistry() *Registry {
	return &Registry{wallets: make(map[string]*SimulatedWallet)}
}

// For returns the user's wallet, creating a disconnected one on first use.
func (r *Registry) For(userID string) *SimulatedWallet {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.wallets[userID]
	if !ok {
		w = &SimulatedWallet{}
		r.wallets[userID] = w
	}
	return w
}
