package enum

import "strings"

// DocumentKind distinguishes the two financial document types a tenant issues.
// Each kind has its own numbering space.
type DocumentKind string

const (
	DocumentKindInvoice DocumentKind = "invoice"
	DocumentKindReceipt DocumentKind = "receipt"
)

// ParseDocumentKind accepts the singular or plural form ("receipts" from a route).
func ParseDocumentKind(s string) (DocumentKind, bool) {
	k := DocumentKind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	return k, k.IsValid()
}

func (k DocumentKind) IsValid() bool {
	return k == DocumentKindInvoice || k == DocumentKindReceipt
}

// DefaultPrefix is used when the tenant has not configured a number prefix.
func (k DocumentKind) DefaultPrefix() string {
	if k == DocumentKindInvoice {
		return "INV"
	}
	return "REC"
}

// Title returns the human readable name, e.g. "Receipt".
func (k DocumentKind) Title() string {
	if k == DocumentKindInvoice {
		return "Invoice"
	}
	return "Receipt"
}

func (k DocumentKind) String() string {
	return string(k)
}
