package varcomp

import "fmt"

// MissingFactorError is returned when a grouping factor has fewer than two
// distinct levels, so no variance can be attributed to it.
type MissingFactorError struct {
	Factor string
	Levels int
}

func (e *MissingFactorError) Error() string {
	return fmt.Sprintf("factor %s has %d distinct level(s); need at least 2", e.Factor, e.Levels)
}

// ModelFitError is returned when the variance components cannot be estimated.
type ModelFitError struct {
	Reason string
	Err    error
}

func (e *ModelFitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mixed model fit failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("mixed model fit failed: %s", e.Reason)
}

func (e *ModelFitError) Unwrap() error {
	return e.Err
}
