// Package schema declares the closed set of configuration categories and a
// pure validator for each. Validators accept arbitrary candidate JSON and
// return either a normalized value (optional fields default-filled, unknown
// fields dropped) or a ValidationError listing every field-level violation.
package schema

import (
	"encoding/json"
	"fmt"
)

// Category identifies one configuration domain. The set is closed: both the
// validation schema and the storage row are keyed by it.
type Category string

const (
	CategoryChecklist Category = "checklist"
	CategoryRhythm    Category = "rhythm"
	CategoryActions   Category = "actions"
	CategoryScoring   Category = "scoring"
)

// Categories lists every valid category in a stable order.
var Categories = []Category{
	CategoryChecklist,
	CategoryRhythm,
	CategoryActions,
	CategoryScoring,
}

// IsValid reports whether c is a member of the closed category set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryChecklist, CategoryRhythm, CategoryActions, CategoryScoring:
		return true
	}
	return false
}

// UnknownCategoryError is returned when a category tag is not in the closed
// set. It is raised before any storage access.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown config category %q", e.Category)
}

// Validate checks a candidate value against the category's schema and returns
// the normalized JSON actually suitable for storage. It has no side effects.
func Validate(cat Category, raw json.RawMessage) (json.RawMessage, error) {
	switch cat {
	case CategoryChecklist:
		return validateChecklist(raw)
	case CategoryRhythm:
		return validateRhythm(raw)
	case CategoryActions:
		return validateActions(raw)
	case CategoryScoring:
		return validateScoring(raw)
	default:
		return nil, &UnknownCategoryError{Category: string(cat)}
	}
}

// decode unmarshals raw into v, reporting malformed JSON as a single-field
// ValidationError rather than a bare decoding error.
func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &ValidationError{Errors: []FieldError{
			{Field: "$", Message: "invalid JSON: " + err.Error()},
		}}
	}
	return nil
}

// marshal re-encodes a validated value. These structs contain no types that
// can fail to marshal, so an error here is a bug.
func marshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("schema: marshal normalized value: %v", err))
	}
	return data
}
