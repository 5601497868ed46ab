package fees

// ValidationError reports malformed fee input, detected before any
// persistence call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// FeeOutOfRangeError reports an amount outside [0, MaxMinor].
type FeeOutOfRangeError struct {
	AmountMinor int64
	MaxMinor    int64
	reason      string
}

func (e *FeeOutOfRangeError) Error() string {
	return e.reason
}
