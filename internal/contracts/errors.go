package contracts

import "fmt"

// InsufficientDataError indicates that no usable free-cash-flow years
// remained after filtering incomplete periods.
type InsufficientDataError struct {
	Ticker string
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %s", e.Ticker, e.Reason)
}

// InvalidSpreadError indicates a discount rate at or below terminal growth.
// The estimators guard against this; the valuation core re-validates and
// rejects rather than producing a divide-by-near-zero artifact.
type InvalidSpreadError struct {
	Ticker         string
	WACC           float64
	TerminalGrowth float64
}

func (e *InvalidSpreadError) Error() string {
	return fmt.Sprintf("invalid spread for %s: wacc %.4f <= terminal growth %.4f",
		e.Ticker, e.WACC, e.TerminalGrowth)
}

// PersistenceError wraps a store/transaction fault. The transaction is
// rolled back before this error reaches the caller.
type PersistenceError struct {
	Op  string // e.g. "save calculation", "save price series"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// AcquisitionError wraps an upstream market data fetch fault.
type AcquisitionError struct {
	Ticker string
	Source string // e.g. "quote", "cashflow", "prices"
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition failed for %s (%s): %v", e.Ticker, e.Source, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}
