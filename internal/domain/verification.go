package domain

import "time"

// VerificationStatus is a state of the account verification flow.
type VerificationStatus string

const (
	VerificationNone     VerificationStatus = "none"
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "failed"
)

// Verification is the per-user verification record. It only changes through
// the verification state machine and is persisted on every transition.
type Verification struct {
	Verified        bool               `json:"verified"`
	Status          VerificationStatus `json:"status"`
	TransactionHash *string            `json:"transactionHash"`
	Amount          float64            `json:"amount"`
	Date            *time.Time         `json:"date"`
	IsDemo          bool               `json:"isDemo"`
}

// NewVerification returns the initial record.
func NewVerification() Verification {
	return Verification{Status: VerificationNone}
}

// Clone returns a copy that shares no pointers with v.
func (v Verification) Clone() Verification {
	if v.TransactionHash != nil {
		h := *v.TransactionHash
		v.TransactionHash = &h
	}
	if v.Date != nil {
		d := *v.Date
		v.Date = &d
	}
	return v
}
