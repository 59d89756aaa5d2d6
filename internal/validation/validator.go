// =============================================================================
// Sales Journal Converter - Validation Engine
// =============================================================================
//
// This module checks journal lines before they are written. It enforces the
// rules the ledger import relies on:
//   - Exactly one of debit and credit is set on every line
//   - Amounts are not negative
//   - Journal code and account number are present
//   - Dates are in DD/MM/YYYY form (the unknown-date marker is a warning)
//   - Optionally, a batch balances debit against credit
//
// ERROR HANDLING:
//   - Errors are collected, not returned one by one
//   - Each error carries the line index, field and value
//   - Errors are warnings (continue processing) or fatal (reject the file)
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-journal-converter/internal/normalize"
	"github.com/ginjaninja78/sales-journal-converter/internal/types"
)

// Severity levels of a ValidationError.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation error.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Field is the name of the journal field that failed validation.
	Field string

	// Value is the actual value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable error message.
	Message string

	// LineIndex is the 0-based position of the line in the batch, or -1 for
	// batch-level errors.
	LineIndex int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.LineIndex < 0 {
		return fmt.Sprintf("[%s] batch: %s", strings.ToUpper(e.Severity), e.Message)
	}
	return fmt.Sprintf("[%s] Line %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.LineIndex+1,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all validation errors (including warnings).
	Errors []*ValidationError

	// ErrorCount is the number of fatal errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// LinesValidated is the total number of lines validated.
	LinesValidated int

	// Debit and Credit are the totals of each side.
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator performs validation on journal lines.
type Validator struct {
	options ValidationOptions
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors treats warnings as fatal errors.
	// Default: false
	TreatWarningsAsErrors bool

	// BalanceTolerance is the largest debit/credit difference accepted when
	// balance is checked.
	// Default: 0.01
	BalanceTolerance decimal.Decimal
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		BalanceTolerance: decimal.New(1, -2),
	}
}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a new Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateAll validates a batch of lines.
//
// PARAMETERS:
//   - lines: The journal lines of one file.
//   - checkBalance: Report a warning when total debit and total credit
//     differ by more than the tolerance.
//
// RETURNS:
//   - A detailed ValidationResult.
func (v *Validator) ValidateAll(lines []types.JournalLine, checkBalance bool) *ValidationResult {
	result := &ValidationResult{
		IsValid:        true,
		Errors:         make([]*ValidationError, 0),
		LinesValidated: len(lines),
	}

	for i, line := range lines {
		for _, err := range v.ValidateLine(i, line) {
			v.record(result, err)
		}
	}

	result.Debit, result.Credit = types.Totals(lines)

	if checkBalance {
		diff := result.Debit.Sub(result.Credit).Abs()
		if diff.GreaterThan(v.options.BalanceTolerance) {
			v.record(result, &ValidationError{
				Severity:  SeverityWarning,
				Rule:      "balance",
				Message:   fmt.Sprintf("debit %s and credit %s differ by %s", result.Debit.StringFixed(2), result.Credit.StringFixed(2), diff.StringFixed(2)),
				LineIndex: -1,
			})
		}
	}

	return result
}

func (v *Validator) record(result *ValidationResult, err *ValidationError) {
	result.Errors = append(result.Errors, err)

	if err.Severity == SeverityError {
		result.ErrorCount++
		result.IsValid = false
		return
	}

	result.WarningCount++
	if v.options.TreatWarningsAsErrors {
		result.IsValid = false
	}
}

// ValidateLine validates a single line.
func (v *Validator) ValidateLine(index int, line types.JournalLine) []*ValidationError {
	var errors []*ValidationError

	fail := func(severity, field, value, rule, message string) {
		errors = append(errors, &ValidationError{
			Severity:  severity,
			Field:     field,
			Value:     value,
			Rule:      rule,
			Message:   message,
			LineIndex: index,
		})
	}

	switch {
	case line.Debit.Valid && line.Credit.Valid:
		fail(SeverityError, "amount", line.Debit.Decimal.String()+"/"+line.Credit.Decimal.String(), "one_side", "line has both a debit and a credit")
	case !line.Debit.Valid && !line.Credit.Valid:
		fail(SeverityError, "amount", "", "one_side", "line has neither a debit nor a credit")
	case line.Amount().IsNegative():
		fail(SeverityError, "amount", line.Amount().String(), "non_negative", "amount is negative")
	}

	if strings.TrimSpace(line.JournalCode) == "" {
		fail(SeverityError, "journal_code", line.JournalCode, "required", "journal code is missing")
	}
	if strings.TrimSpace(line.AccountNumber) == "" {
		fail(SeverityError, "account_number", line.AccountNumber, "required", "account number is missing")
	}

	dates := []struct{ field, value string }{
		{"entry_date", line.EntryDate},
		{"due_date", line.DueDate},
	}
	for _, d := range dates {
		field, value := d.field, d.value
		if msg := validateDate(value); msg != "" {
			severity := SeverityError
			if value == types.UnknownDate {
				severity = SeverityWarning
			}
			fail(severity, field, value, "date", msg)
		}
	}

	return errors
}

// validateDate returns an error message, or "" if the date is valid.
func validateDate(value string) string {
	if value == types.UnknownDate {
		return "file date unknown, line needs manual review"
	}
	if _, err := normalize.ParseDisplayDate(value); err != nil {
		return "date is not in DD/MM/YYYY form"
	}
	return ""
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
