package domain

import (
	"github.com/shopspring/decimal"
)

// Parameter types published by the Backoffice.
const (
	ParameterTypeSanction = "SANCION"
)

// Parameter is a Backoffice definition such as a sanction and its amount.
// Only active parameters ever reach the domain.
type Parameter struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Type         string              `json:"type"`
	NumericValue decimal.NullDecimal `json:"numeric_value"`
	TextValue    *string             `json:"text_value,omitempty"`
	Active       bool                `json:"active"`
}

// Amount returns the numeric value, or zero when the parameter has none.
func (p *Parameter) Amount() decimal.Decimal {
	if !p.NumericValue.Valid {
		return decimal.Zero
	}
	return p.NumericValue.Decimal
}
