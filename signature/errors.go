package signature

import (
	"errors"
	"fmt"
)

// RuleErrorType represents different reasons a rule can be rejected
type RuleErrorType string

const (
	ErrorTypePattern  RuleErrorType = "pattern"
	ErrorTypeOffset   RuleErrorType = "offset"
	ErrorTypeTypeName RuleErrorType = "type_name"
	ErrorTypeExternal RuleErrorType = "external"
)

// RuleError is returned when a registry or classifier cannot be built.
// It carries the failing rule's position for programmatic handling.
type RuleError struct {
	// Type categorizes the failure (pattern, offset, type_name, external).
	Type RuleErrorType

	// Index is the position of the offending rule, or -1 when not rule specific.
	Index int

	// Message is the human-readable error description.
	Message string
}

// Error implements the error interface
func (e *RuleError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s error: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s error in rule %d: %s", e.Type, e.Index, e.Message)
}

// NewRuleError creates a new RuleError
func NewRuleError(errType RuleErrorType, index int, message string) *RuleError {
	return &RuleError{
		Type:    errType,
		Index:   index,
		Message: message,
	}
}

// IsRuleError checks if an error is a RuleError
func IsRuleError(err error) bool {
	var ruleErr *RuleError
	return errors.As(err, &ruleErr)
}

// IsErrorOfType checks if an error is a RuleError of the specified type
func IsErrorOfType(err error, errType RuleErrorType) bool {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.Type == errType
	}
	return false
}

// GetErrorType returns the type of a RuleError, or empty string otherwise
func GetErrorType(err error) RuleErrorType {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.Type
	}
	return ""
}
