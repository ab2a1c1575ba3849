package verification

import "context"

// CheckResult is the outcome of looking up a verification transfer.
type CheckResult int

const (
	CheckPending CheckResult = iota
	CheckConfirmed
	CheckFailed
)

func (r CheckResult) String() string {
	switch r {
	case CheckConfirmed:
		return "confirmed"
	case CheckFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Backend confirms that a verification transfer landed.
type Backend interface {
	CheckTransfer(ctx context.Context, txHash string) (CheckResult, error)
}

// SimulatedBackend confirms every transfer. There is no chain to look at.
type SimulatedBackend struct{}

func (SimulatedBackend) CheckTransfer(context.Context, string) (CheckResult, error) {
	return CheckConfirmed, nil
}
