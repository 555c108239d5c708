// Package validation checks raw extraction candidates against the schema
// contract. It rejects malformed candidates with a classified error and never
// attempts semantic repair; the only repairs in the system are the well-defined
// currency-split and classification-correction steps of the normalizer.
package validation

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mikael/pricebook/internal/schemas"
	"github.com/mikael/pricebook/internal/types"
)

// ValidateCandidate checks raw candidate JSON from the extraction collaborator
// and decodes it into a typed ExtractionResult. On failure it returns a
// *Error classifying the first violation in check order: missing fields, then
// numeric/type violations, then enum violations, then emptiness.
func ValidateCandidate(raw []byte) (*types.ExtractionResult, error) {
	if len(raw) == 0 {
		return nil, &Error{Kind: KindEmptyResult, Message: "extraction collaborator returned no data"}
	}

	result, err := schemas.Validate(raw)
	if err != nil {
		// The candidate could not be parsed as JSON at all.
		return nil, &Error{Kind: KindTypeMismatch, Message: fmt.Sprintf("candidate is not valid JSON: %v", err)}
	}

	if !result.Valid() {
		return nil, classify(result.Errors())
	}

	var decoded types.ExtractionResult
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &Error{Kind: KindTypeMismatch, Message: fmt.Sprintf("candidate does not decode: %v", err)}
	}

	if decoded.TotalResorts() == 0 {
		return nil, &Error{Kind: KindEmptyResult, Message: "candidate contains no locations with resorts"}
	}

	return &decoded, nil
}

// classify maps schema violations onto the error taxonomy. When a candidate
// has several violations the highest-priority kind wins, matching the
// documented check order.
func classify(descs []gojsonschema.ResultError) *Error {
	var firstType, firstEnum *Error

	for _, desc := range descs {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		switch desc.Type() {
		case "required":
			return &Error{Kind: KindMissingField, Field: field, Message: desc.Description()}
		case "string_gte":
			// An empty required token (e.g. currency: "") is treated as missing.
			return &Error{Kind: KindMissingField, Field: field, Message: desc.Description()}
		case "enum":
			if firstEnum == nil {
				firstEnum = &Error{Kind: KindInvalidEnum, Field: field, Message: desc.Description()}
			}
		case "invalid_type":
			// A non-boolean where a flag belongs is an invalid literal, not a
			// structural mismatch.
			if expected, _ := desc.Details()["expected"].(string); expected == "boolean" {
				if firstEnum == nil {
					firstEnum = &Error{Kind: KindInvalidEnum, Field: field, Message: desc.Description()}
				}
			} else if firstType == nil {
				firstType = &Error{Kind: KindTypeMismatch, Field: field, Message: desc.Description()}
			}
		default:
			if firstType == nil {
				firstType = &Error{Kind: KindTypeMismatch, Field: field, Message: desc.Description()}
			}
		}
	}

	if firstType != nil {
		return firstType
	}
	return firstEnum
}
