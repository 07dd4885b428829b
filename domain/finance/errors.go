package finance

import "errors"

// Domain errors for financial instruments.
var (
	// ErrInvalidTerm indicates a non-positive loan term.
	ErrInvalidTerm = errors.New("invalid loan term")

	// ErrInvalidRate indicates a negative interest rate.
	ErrInvalidRate = errors.New("invalid interest rate")

	// ErrNegativePayment indicates an amortization that produced a negative payment.
	ErrNegativePayment = errors.New("negative loan payment")

	// ErrInvalidSubsidy indicates a malformed subsidy rule.
	ErrInvalidSubsidy = errors.New("invalid subsidy")
)
