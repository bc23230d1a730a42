// Package validation provides input validation for template slots.
//
// Every caller-supplied slot value is validated here before it is substituted
// into a template and dispatched: required text slots must be non-empty,
// enumerated slots (language, formality) must come from their declared value
// set, and integer slots (variant_count) must fall inside their bounds.
// Schemas are derived from the template's own slot declarations, so a
// template edit is automatically reflected in what the validator rejects.
//
// INTEGRATION POINTS:
// - internal/service: Render() validates inputs and refuses to dispatch
// - internal/api: render/verify endpoints validate request bodies
// - internal/cli: --var flags are validated through the same path
// - internal/errors: ValidationResult.ToAppError() bridges into AppError
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dbod-pe/promptpack/internal/errors"
	"github.com/dbod-pe/promptpack/internal/models"
)

// FieldValidator provides validation rules for individual fields
type FieldValidator struct {
	Name      string
	Required  bool
	Type      string // "string", "int", "bool"
	MinLength int
	MaxLength int
	Min       int // int bounds, inclusive; used when HasRange is true
	Max       int
	HasRange  bool
	Pattern   *regexp.Regexp
	Options   []string
	Default   string
	Custom    func(interface{}) error
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid    bool                   `json:"valid"`
	Errors   []ValidationError      `json:"errors,omitempty"`
	Warnings []ValidationWarning    `json:"warnings,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationWarning represents a field validation warning
type ValidationWarning struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Schema represents a validation schema
type Schema struct {
	Name   string
	Fields map[string]FieldValidator
	Order  []string // slot declaration order, for stable error reporting
	Rules  []func(map[string]interface{}) error
}

// Validator validates slot values against template-derived schemas
type Validator struct {
	schemas map[string]*Schema
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{schemas: make(map[string]*Schema)}
}

// RegisterSchema registers a validation schema
func (v *Validator) RegisterSchema(schema *Schema) {
	v.schemas[schema.Name] = schema
}

// SchemaForTemplate derives a validation schema from a template's slots
func SchemaForTemplate(t *models.Template) *Schema {
	schema := &Schema{
		Name:   t.ID,
		Fields: make(map[string]FieldValidator),
	}

	for _, slot := range t.Slots {
		fv := FieldValidator{
			Name:     slot.Name,
			Required: slot.Required,
			Default:  slot.Default,
		}

		switch slot.EffectiveType() {
		case models.SlotInt:
			fv.Type = "int"
			if slot.Min != 0 || slot.Max != 0 {
				fv.Min = slot.Min
				fv.Max = slot.Max
				fv.HasRange = true
			}
		case models.SlotEnum:
			fv.Type = "string"
			fv.Options = slot.Options
		default:
			fv.Type = "string"
		}

		schema.Fields[slot.Name] = fv
		schema.Order = append(schema.Order, slot.Name)
	}

	return schema
}

// ValidateTemplate validates slot values for a template, registering its
// derived schema on first use
func (v *Validator) ValidateTemplate(t *models.Template, data map[string]interface{}) *ValidationResult {
	schema, exists := v.schemas[t.ID]
	if !exists {
		schema = SchemaForTemplate(t)
		v.RegisterSchema(schema)
	}
	return v.validate(schema, data)
}

// Validate validates data against a registered schema
func (v *Validator) Validate(schemaName string, data map[string]interface{}) *ValidationResult {
	schema, exists := v.schemas[schemaName]
	if !exists {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "schema",
				Code:    "SCHEMA_NOT_FOUND",
				Message: fmt.Sprintf("Validation schema '%s' not found", schemaName),
			}},
		}
	}
	return v.validate(schema, data)
}

func (v *Validator) validate(schema *Schema, data map[string]interface{}) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
		Data:     make(map[string]interface{}),
	}

	for _, fieldName := range schema.Order {
		v.validateField(fieldName, schema.Fields[fieldName], data, result)
	}

	// Reject values that do not correspond to any declared slot
	for key := range data {
		if _, known := schema.Fields[key]; !known {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   key,
				Code:    "UNKNOWN_FIELD",
				Message: fmt.Sprintf("Field '%s' is not a declared slot", key),
				Value:   data[key],
			})
		}
	}

	for _, rule := range schema.Rules {
		if err := rule(data); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   "schema",
				Code:    "SCHEMA_RULE_VIOLATION",
				Message: err.Error(),
			})
		}
	}

	return result
}

// validateField validates a single field
func (v *Validator) validateField(fieldName string, validator FieldValidator, data map[string]interface{}, result *ValidationResult) {
	value, exists := data[fieldName]

	// Check required fields; an empty string is treated as absent
	if validator.Required && (!exists || value == nil || value == "") {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   fieldName,
			Code:    "REQUIRED_FIELD_MISSING",
			Message: fmt.Sprintf("Field '%s' is required", fieldName),
		})
		return
	}

	// Fall back to the declared default for absent optional fields
	if !exists || value == nil || value == "" {
		if validator.Default != "" {
			value = validator.Default
			exists = true
		} else {
			return
		}
	}

	convertedValue, err := v.validateAndConvertType(fieldName, validator.Type, value)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   fieldName,
			Code:    "INVALID_TYPE",
			Message: err.Error(),
			Value:   value,
		})
		return
	}

	result.Data[fieldName] = convertedValue

	switch validator.Type {
	case "string":
		strValue, ok := convertedValue.(string)
		if !ok {
			return
		}

		if validator.MinLength > 0 && len(strValue) < validator.MinLength {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   fieldName,
				Code:    "MIN_LENGTH_VIOLATION",
				Message: fmt.Sprintf("Field '%s' must be at least %d characters long", fieldName, validator.MinLength),
				Value:   strValue,
			})
		}

		if validator.MaxLength > 0 && len(strValue) > validator.MaxLength {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   fieldName,
				Code:    "MAX_LENGTH_VIOLATION",
				Message: fmt.Sprintf("Field '%s' must be at most %d characters long", fieldName, validator.MaxLength),
				Value:   strValue,
			})
		}

		if validator.Pattern != nil && !validator.Pattern.MatchString(strValue) {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   fieldName,
				Code:    "PATTERN_MISMATCH",
				Message: fmt.Sprintf("Field '%s' does not match required pattern", fieldName),
				Value:   strValue,
			})
		}

		if len(validator.Options) > 0 {
			validOption := false
			for _, option := range validator.Options {
				if strValue == option {
					validOption = true
					break
				}
			}
			if !validOption {
				result.Valid = false
				result.Errors = append(result.Errors, ValidationError{
					Field:   fieldName,
					Code:    "INVALID_OPTION",
					Message: fmt.Sprintf("Field '%s' must be one of: %s", fieldName, strings.Join(validator.Options, ", ")),
					Value:   strValue,
				})
			}
		}

	case "int":
		intValue, ok := convertedValue.(int)
		if !ok {
			return
		}

		if validator.HasRange && (intValue < validator.Min || intValue > validator.Max) {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   fieldName,
				Code:    "OUT_OF_RANGE",
				Message: fmt.Sprintf("Field '%s' must be between %d and %d", fieldName, validator.Min, validator.Max),
				Value:   intValue,
			})
		}
	}

	if validator.Custom != nil {
		if err := validator.Custom(convertedValue); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   fieldName,
				Code:    "CUSTOM_VALIDATION_FAILED",
				Message: fmt.Sprintf("Field '%s': %s", fieldName, err.Error()),
				Value:   convertedValue,
			})
		}
	}
}

// validateAndConvertType validates and converts value to the specified type
func (v *Validator) validateAndConvertType(fieldName, expectedType string, value interface{}) (interface{}, error) {
	switch expectedType {
	case "string":
		if str, ok := value.(string); ok {
			return str, nil
		}
		return fmt.Sprintf("%v", value), nil

	case "int":
		switch val := value.(type) {
		case int:
			return val, nil
		case float64:
			return int(val), nil
		case string:
			if intVal, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
				return intVal, nil
			}
		}
		return nil, fmt.Errorf("field '%s' must be an integer", fieldName)

	case "bool":
		switch val := value.(type) {
		case bool:
			return val, nil
		case string:
			if boolVal, err := strconv.ParseBool(val); err == nil {
				return boolVal, nil
			}
		}
		return nil, fmt.Errorf("field '%s' must be a boolean", fieldName)

	default:
		return value, nil
	}
}

// ToAppError converts validation result to AppError
func (result *ValidationResult) ToAppError() *errors.AppError {
	if result.Valid {
		return nil
	}

	if len(result.Errors) == 0 {
		return errors.ValidationError("Validation failed")
	}

	firstError := result.Errors[0]
	appErr := errors.ValidationError(firstError.Message)

	var details []string
	for _, validationErr := range result.Errors {
		details = append(details, fmt.Sprintf("%s: %s", validationErr.Field, validationErr.Message))
	}
	appErr.WithDetails(strings.Join(details, "; "))
	appErr.WithContext("validation_errors", result.Errors)

	return appErr
}

// GetValidatedData returns the validated and converted data
func (result *ValidationResult) GetValidatedData() map[string]interface{} {
	if !result.Valid {
		return nil
	}
	return result.Data
}
