// =============================================================================
// Trader Config Editor - Validation Module
// =============================================================================
//
// This module inspects a loaded document and reports everything the editor
// will silently work around. It never changes the document and never blocks
// an operation; it makes skipped and lossy records visible.
//
// RULES:
//   - malformed       : record has fewer than 6 fields; hidden from the grid
//                       and ignored by bulk operations (warning)
//   - extra_fields    : record has more than 6 fields; the extras are lost
//                       the first time the record is rewritten (warning)
//   - price           : buy/sell price is neither "-1" nor a number; bulk
//                       price changes leave it as it is (error)
//   - duplicate_name  : two categories share a CategoryName, so selecting
//                       the name affects both (warning)
//   - missing_key     : a passthrough flag is absent (info)
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/trader-config-editor/internal/document"
	"github.com/ginjaninja78/trader-config-editor/internal/pricing"
	"github.com/ginjaninja78/trader-config-editor/internal/record"
	"github.com/ginjaninja78/trader-config-editor/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Rule names.
const (
	RuleMalformed     = "malformed"
	RuleExtraFields   = "extra_fields"
	RulePrice         = "price"
	RuleDuplicateName = "duplicate_name"
	RuleMissingKey    = "missing_key"
)

// =============================================================================
// VALIDATION ERROR STRUCTURE
// =============================================================================

// ValidationError is one finding about the document.
type ValidationError struct {
	// Severity is "error", "warning" or "info".
	Severity string `json:"severity"`

	// Rule is the name of the rule that produced the finding.
	Rule string `json:"rule"`

	// Field is the record column or document key concerned, if any.
	Field string `json:"field,omitempty"`

	// Value is the offending value, if any.
	Value string `json:"value,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Ref locates the record for record-level findings.
	Ref *types.RecordRef `json:"ref,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Ref != nil {
		return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), e.Ref, e.Message)
	}
	return fmt.Sprintf("[%s] %s", strings.ToUpper(e.Severity), e.Message)
}

// ValidationResult contains the findings and counters of one inspection.
type ValidationResult struct {
	// IsValid is false when any error (or, optionally, warning) was found.
	IsValid bool `json:"is_valid"`

	Errors []*ValidationError `json:"errors"`

	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	InfoCount    int `json:"info_count"`

	CategoriesValidated int `json:"categories_validated"`
	RecordsValidated    int `json:"records_validated"`
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator inspects documents.
type Validator struct {
	options ValidationOptions
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors makes warnings clear IsValid.
	TreatWarningsAsErrors bool

	// SkipPassthroughChecks disables the missing_key rule.
	SkipPassthroughChecks bool
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{}
}

// NewValidator creates a Validator with default options.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// ValidateAll inspects the whole document.
func (v *Validator) ValidateAll(doc *document.Document) *ValidationResult {
	result := &ValidationResult{
		IsValid: true,
		Errors:  make([]*ValidationError, 0),
	}

	if !v.options.SkipPassthroughChecks {
		for _, key := range []string{
			document.KeyVersion,
			document.KeyAutoCalculation,
			document.KeyAutoDestockAtRestart,
			document.KeyDefaultTraderStock,
			document.KeyCategories,
		} {
			if _, ok := doc.Passthrough(key); !ok {
				v.add(result, &ValidationError{
					Severity: SeverityInfo,
					Rule:     RuleMissingKey,
					Field:    key,
					Message:  fmt.Sprintf("key %q is missing", key),
				})
			}
		}
	}

	seen := make(map[string]int)
	for _, cat := range doc.Categories() {
		result.CategoriesValidated++

		if first, dup := seen[cat.Name()]; dup {
			v.add(result, &ValidationError{
				Severity: SeverityWarning,
				Rule:     RuleDuplicateName,
				Field:    document.KeyCategoryName,
				Value:    cat.Name(),
				Message:  fmt.Sprintf("categories %d and %d share the name %q", first, cat.Index(), cat.Name()),
			})
		} else {
			seen[cat.Name()] = cat.Index()
		}

		for i, raw := range cat.Products() {
			result.RecordsValidated++
			ref := types.RecordRef{
				CategoryIndex: cat.Index(),
				CategoryName:  cat.Name(),
				ProductIndex:  i,
				Raw:           raw,
			}
			for _, e := range v.ValidateRecord(ref) {
				v.add(result, e)
			}
		}
	}

	return result
}

// ValidateRecord inspects a single raw record.
func (v *Validator) ValidateRecord(ref types.RecordRef) []*ValidationError {
	var errors []*ValidationError

	f, ok := record.Decode(ref.Raw)
	if !ok {
		r := ref
		return append(errors, &ValidationError{
			Severity: SeverityWarning,
			Rule:     RuleMalformed,
			Value:    ref.Raw,
			Message:  fmt.Sprintf("record has fewer than %d fields and is not editable", record.FieldCount),
			Ref:      &r,
		})
	}

	if extra := record.ExtraFields(ref.Raw); extra > 0 {
		r := ref
		errors = append(errors, &ValidationError{
			Severity: SeverityWarning,
			Rule:     RuleExtraFields,
			Value:    ref.Raw,
			Message:  fmt.Sprintf("%d trailing field(s) will be dropped when the record is rewritten", extra),
			Ref:      &r,
		})
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"buy_price", f.BuyPrice},
		{"sell_price", f.SellPrice},
	} {
		if _, err := pricing.Parse(field.value); err != nil {
			r := ref
			errors = append(errors, &ValidationError{
				Severity: SeverityError,
				Rule:     RulePrice,
				Field:    field.name,
				Value:    field.value,
				Message:  err.Error(),
				Ref:      &r,
			})
		}
	}

	return errors
}

func (v *Validator) add(result *ValidationResult, e *ValidationError) {
	result.Errors = append(result.Errors, e)

	switch e.Severity {
	case SeverityError:
		result.ErrorCount++
		result.IsValid = false
	case SeverityWarning:
		result.WarningCount++
		if v.options.TreatWarningsAsErrors {
			result.IsValid = false
		}
	default:
		result.InfoCount++
	}
}
