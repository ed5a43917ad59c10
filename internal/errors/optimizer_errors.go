package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the different failure classes of the optimizer
type ErrorCategory string

const (
	// Recoverable: the caller picks a fallback
	ErrorCategorySamplingExhausted ErrorCategory = "SAMPLING_EXHAUSTED"
	ErrorCategoryDuplicateIdentity ErrorCategory = "DUPLICATE_IDENTITY"

	// Fatal: the run must stop
	ErrorCategoryInconsistentTopology ErrorCategory = "INCONSISTENT_TOPOLOGY"
	ErrorCategoryEmptyPool            ErrorCategory = "EMPTY_POOL"
	ErrorCategoryConfiguration        ErrorCategory = "CONFIG"

	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	ErrorCategoryIO         ErrorCategory = "IO"
)

// OptimizerError represents a categorized error with context
type OptimizerError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *OptimizerError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *OptimizerError) Unwrap() error {
	return e.Underlying
}

// IsFatal returns whether this error should terminate a run
func (e *OptimizerError) IsFatal() bool {
	switch e.Category {
	case ErrorCategoryInconsistentTopology, ErrorCategoryEmptyPool, ErrorCategoryConfiguration:
		return true
	default:
		return false
	}
}

// WithContext adds context information to the error
func (e *OptimizerError) WithContext(key string, value interface{}) *OptimizerError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewOptimizerError creates a new categorized error
func NewOptimizerError(category ErrorCategory, component, operation, message string) *OptimizerError {
	return &OptimizerError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with optimizer context
func WrapError(err error, category ErrorCategory, component, operation string) *OptimizerError {
	if err == nil {
		return nil
	}

	return &OptimizerError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// IsCategory reports whether any error in err's chain is an OptimizerError of the given category
func IsCategory(err error, category ErrorCategory) bool {
	var optErr *OptimizerError
	if stderrors.As(err, &optErr) {
		return optErr.Category == category
	}
	return false
}

// IsFatal reports whether err carries a fatal optimizer category
func IsFatal(err error) bool {
	var optErr *OptimizerError
	if stderrors.As(err, &optErr) {
		return optErr.IsFatal()
	}
	return false
}

// Common error constructors
func NewSamplingExhaustedError(component, operation string, attempts int) *OptimizerError {
	return NewOptimizerError(ErrorCategorySamplingExhausted, component, operation,
		fmt.Sprintf("no compatible pair found after %d attempts", attempts)).WithContext("attempts", attempts)
}

func NewInconsistentTopologyError(component, operation, message string) *OptimizerError {
	return NewOptimizerError(ErrorCategoryInconsistentTopology, component, operation, message)
}

func NewDuplicateIdentityError(component, operation, message string) *OptimizerError {
	return NewOptimizerError(ErrorCategoryDuplicateIdentity, component, operation, message)
}

func NewEmptyPoolError(component, operation string) *OptimizerError {
	return NewOptimizerError(ErrorCategoryEmptyPool, component, operation, "cannot select parents from an empty elite pool")
}

func NewConfigurationError(component, operation, message string) *OptimizerError {
	return NewOptimizerError(ErrorCategoryConfiguration, component, operation, message)
}

func NewValidationError(component, operation, message string) *OptimizerError {
	return NewOptimizerError(ErrorCategoryValidation, component, operation, message)
}

func NewIOError(component, operation string, err error) *OptimizerError {
	return WrapError(err, ErrorCategoryIO, component, operation)
}

// RecoveryAction is what a caller should do with an error
type RecoveryAction string

const (
	RecoveryActionRetry    RecoveryAction = "RETRY"
	RecoveryActionSkip     RecoveryAction = "SKIP"
	RecoveryActionStop     RecoveryAction = "STOP"
	RecoveryActionFallback RecoveryAction = "FALLBACK"
)

// GetRecoveryAction suggests a recovery action based on error category
func (e *OptimizerError) GetRecoveryAction() RecoveryAction {
	switch e.Category {
	case ErrorCategorySamplingExhausted:
		return RecoveryActionFallback
	case ErrorCategoryDuplicateIdentity:
		return RecoveryActionSkip
	case ErrorCategoryIO:
		return RecoveryActionRetry
	default:
		return RecoveryActionStop
	}
}

// ErrorStats tracks error statistics
type ErrorStats struct {
	TotalErrors      int
	ErrorsByCategory map[ErrorCategory]int
	RecentErrors     []*OptimizerError
	MaxRecentErrors  int
}

// NewErrorStats creates a new error statistics tracker
func NewErrorStats(maxRecentErrors int) *ErrorStats {
	return &ErrorStats{
		ErrorsByCategory: make(map[ErrorCategory]int),
		RecentErrors:     make([]*OptimizerError, 0, maxRecentErrors),
		MaxRecentErrors:  maxRecentErrors,
	}
}

// RecordError records an error in the statistics
func (es *ErrorStats) RecordError(err *OptimizerError) {
	if err == nil {
		return
	}
	es.TotalErrors++
	es.ErrorsByCategory[err.Category]++

	es.RecentErrors = append(es.RecentErrors, err)
	if len(es.RecentErrors) > es.MaxRecentErrors {
		es.RecentErrors = es.RecentErrors[1:]
	}
}

// Count returns the number of recorded errors of a category
func (es *ErrorStats) Count(category ErrorCategory) int {
	return es.ErrorsByCategory[category]
}

// GetErrorRate returns the error rate for a specific category
func (es *ErrorStats) GetErrorRate(category ErrorCategory) float64 {
	if es.TotalErrors == 0 {
		return 0.0
	}
	return float64(es.ErrorsByCategory[category]) / float64(es.TotalErrors)
}
