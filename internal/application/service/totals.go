package service

import (
	"fmt"
	"strings"

	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/shopspring/decimal"
)

// amountTolerance is the largest difference accepted between a stored amount
// and the value derived from its parts.
var amountTolerance = decimal.New(1, -6)

// Totals are the monetary fields of a document
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// Rounded rounds the parts to cents and derives the total from the rounded
// parts, so total = subtotal + tax - discount holds exactly once stored.
func (t Totals) Rounded() Totals {
	r := Totals{
		Subtotal:       t.Subtotal.Round(2),
		TaxAmount:      t.TaxAmount.Round(2),
		DiscountAmount: t.DiscountAmount.Round(2),
	}
	r.TotalAmount = r.Subtotal.Add(r.TaxAmount).Sub(r.DiscountAmount)
	return r
}

// Reconciles reports whether the total matches its parts within tolerance.
func (t Totals) Reconciles() bool {
	return withinTolerance(t.Subtotal.Add(t.TaxAmount).Sub(t.DiscountAmount), t.TotalAmount)
}

// Apply writes the totals onto doc.
func (t Totals) Apply(doc *entity.Document) {
	doc.Subtotal = t.Subtotal
	doc.TaxAmount = t.TaxAmount
	doc.DiscountAmount = t.DiscountAmount
	doc.TotalAmount = t.TotalAmount
}

// CalculateTotals validates the line items and derives the document totals.
// No rounding is applied.
func CalculateTotals(items []entity.LineItem, tax, discount decimal.Decimal) (Totals, error) {
	fieldErrors := lineItemErrors(items)
	if tax.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "tax_amount", Message: "must be greater than or equal to 0"})
	}
	if discount.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "discount_amount", Message: "must be greater than or equal to 0"})
	}
	if len(fieldErrors) > 0 {
		return Totals{}, apperror.NewValidationError(fieldErrors)
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice)
	}

	totals := Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		TotalAmount:    subtotal.Add(tax).Sub(discount),
	}
	if totals.TotalAmount.IsNegative() {
		return Totals{}, apperror.NewFieldError("discount_amount", "must not exceed subtotal plus tax")
	}
	return totals, nil
}

// ValidateLineItems checks each item's arithmetic and required fields.
func ValidateLineItems(items []entity.LineItem) error {
	if errs := lineItemErrors(items); len(errs) > 0 {
		return apperror.NewValidationError(errs)
	}
	return nil
}

func lineItemErrors(items []entity.LineItem) []apperror.FieldError {
	if len(items) == 0 {
		return []apperror.FieldError{{Field: "line_items", Message: "must contain at least 1 item(s)"}}
	}

	var errs []apperror.FieldError
	for i, item := range items {
		field := func(name string) string {
			return fmt.Sprintf("line_items[%d].%s", i, name)
		}

		if strings.TrimSpace(item.Name) == "" {
			errs = append(errs, apperror.FieldError{Field: field("name"), Message: "is required"})
		}
		if item.Quantity < 1 {
			errs = append(errs, apperror.FieldError{Field: field("quantity"), Message: "must be greater than or equal to 1"})
			continue
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: field("unit_price"), Message: "must be greater than or equal to 0"})
			continue
		}
		if item.TaxRate.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: field("tax_rate"), Message: "must be greater than or equal to 0"})
		}

		expected := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !withinTolerance(expected, item.TotalPrice) {
			errs = append(errs, apperror.FieldError{
				Field:   field("total_price"),
				Message: fmt.Sprintf("must equal quantity x unit price (%s)", expected.String()),
			})
		}
	}
	return errs
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(amountTolerance)
}
