package core

// CheckStatus is the outcome of one property check in a verification pass
type CheckStatus int

const (
	CheckPending CheckStatus = iota // Not evaluated yet
	CheckPassed                     // Observed value matched
	CheckFailed                     // Observed value did not match; queued
	CheckMissing                    // Element absent; queued as a failure
)

// String returns the string representation of CheckStatus
func (s CheckStatus) String() string {
	switch s {
	case CheckPending:
		return "pending"
	case CheckPassed:
		return "passed"
	case CheckFailed:
		return "failed"
	case CheckMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// IsFailure returns true for statuses that end up in the assertion queue
func (s CheckStatus) IsFailure() bool {
	return s == CheckFailed || s == CheckMissing
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Observed UI state did not match
	ErrCategoryNotFound                        // Element absent after the strategy ladder
	ErrCategoryTimeout                         // Wait condition never held
	ErrCategoryConnection                      // Browser/driver connection lost
	ErrCategoryConfig                          // Caller programming error: bad operator, missing locator
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryNotFound:
		return "not_found"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// IsDeferrable reports whether errors of this category belong in the
// assertion queue rather than aborting a verification pass.
func (c ErrorCategory) IsDeferrable() bool {
	return c == ErrCategoryAssertion || c == ErrCategoryNotFound
}
