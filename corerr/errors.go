// Package corerr defines the error taxonomy shared across the agent
// execution core: a structured error type plus the sentinel categories
// tools and run-level failures are classified into.
package corerr

import (
	"errors"
	"fmt"
	"time"
)

// Category is one of the error taxonomy entries.
type Category string

const (
	AccessDenied         Category = "access-denied"
	CommandBlocked       Category = "command-blocked"
	InteractiveUnsupported Category = "interactive-not-supported"
	ValidationFailed     Category = "validation-failed"
	ExecutionFailed      Category = "execution-failed"
	Timeout              Category = "timeout"
	NotFound             Category = "not-found"
	ProviderError        Category = "provider-error"
	ProviderRateLimited  Category = "provider-rate-limited"
	UsageLimitExceeded   Category = "usage-limit-exceeded"
	BrowserCLIMissing    Category = "browser-cli-missing"
	Cancelled            Category = "cancelled"
)

// CoreError is the structured error carried by the team coordinator,
// workflow builders and tool-loop driver. It wraps an underlying cause and
// classifies it so callers can branch with errors.Is/errors.As.
type CoreError struct {
	Component string
	Operation string
	Category  Category
	Message   string
	Err       error
	Timestamp time.Time
}

func New(component, operation string, category Category, message string, err error) *CoreError {
	return &CoreError{
		Component: component,
		Operation: operation,
		Category:  category,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s [%s]: %s: %v", e.Component, e.Operation, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s [%s]: %s", e.Component, e.Operation, e.Category, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

// Is supports errors.Is(err, corerr.Category) style checks by comparing
// categories when the target is itself a *CoreError carrying only a
// category marker.
func (e *CoreError) Is(target error) bool {
	var other *CoreError
	if errors.As(target, &other) {
		return e.Category == other.Category
	}
	return false
}

// Sentinel markers usable with errors.Is(err, corerr.ErrAccessDenied), one
// per taxonomy category.
var (
	ErrAccessDenied           = &CoreError{Category: AccessDenied}
	ErrCommandBlocked         = &CoreError{Category: CommandBlocked}
	ErrInteractiveUnsupported = &CoreError{Category: InteractiveUnsupported}
	ErrValidationFailed       = &CoreError{Category: ValidationFailed}
	ErrExecutionFailed        = &CoreError{Category: ExecutionFailed}
	ErrTimeout                = &CoreError{Category: Timeout}
	ErrNotFound               = &CoreError{Category: NotFound}
	ErrProvider               = &CoreError{Category: ProviderError}
	ErrProviderRateLimited    = &CoreError{Category: ProviderRateLimited}
	ErrUsageLimitExceeded     = &CoreError{Category: UsageLimitExceeded}
	ErrBrowserCLIMissing      = &CoreError{Category: BrowserCLIMissing}
	ErrCancelled              = &CoreError{Category: Cancelled}
)
