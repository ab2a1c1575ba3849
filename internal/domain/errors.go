package domain

import "errors"

var (
	// ErrNotVerified is returned when a rating is attempted before the
	// account is verified. Callers redirect to the verification flow.
	ErrNotVerified = errors.New("account is not verified")

	// ErrInvalidRating is returned for star values outside [1,5].
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrWalletNotConnected is returned when verification starts without a
	// connected wallet. Callers redirect to the wallet connect flow.
	ErrWalletNotConnected = errors.New("wallet is not connected")

	// ErrTransferFailed is returned when the verification transfer could not
	// be sent. The verification state is then failed.
	ErrTransferFailed = errors.New("verification transfer failed")

	// ErrStorage wraps any durable storage failure.
	ErrStorage = errors.New("storage failure")

	ErrCategoryLimit      = errors.New("category filter limit reached")
	ErrChannelNotFound    = errors.New("channel not found")
	ErrInvalidTransition  = errors.New("invalid verification transition")
	ErrInvalidSort        = errors.New("invalid sort key")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidSubmission  = errors.New("invalid submission")
	ErrPixelNotFound      = errors.New("pixel not found")
	ErrPixelTaken         = errors.New("pixel already owned")
	ErrInvalidCategory    = errors.New("invalid category")
)
