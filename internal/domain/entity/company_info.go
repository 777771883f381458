package entity

import (
	"maps"
	"strings"
)

// CompanyInfo is the issuer header printed on a document. It is resolved from
// several configuration layers and copied onto the document at generation time.
type CompanyInfo struct {
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Address      string            `json:"address"`
	Website      string            `json:"website"`
	Logo         string            `json:"logo"`
	LogoPosition string            `json:"logo_position"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// Clone returns a copy that shares no memory with c.
func (c CompanyInfo) Clone() CompanyInfo {
	out := c
	if c.CustomFields != nil {
		out.CustomFields = maps.Clone(c.CustomFields)
	}
	return out
}

// IsEmpty reports whether every header field is blank. An empty header is a
// valid result and renders as a document without issuer details.
func (c CompanyInfo) IsEmpty() bool {
	return strings.TrimSpace(c.Name+c.Email+c.Phone+c.Address+c.Website+c.Logo+c.LogoPosition) == "" &&
		len(c.CustomFields) == 0
}

// Design controls the visual styling of a rendered document
type Design struct {
	Theme          string `json:"theme,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	FontFamily     string `json:"font_family,omitempty"`
}

// Layout controls which blocks appear on a rendered document. Nil flags are
// unset and inherit from the next configuration layer.
type Layout struct {
	PaperSize           string `json:"paper_size,omitempty"`
	HeaderText          string `json:"header_text,omitempty"`
	FooterText          string `json:"footer_text,omitempty"`
	ShowLogo            *bool  `json:"show_logo,omitempty"`
	ShowCustomerAddress *bool  `json:"show_customer_address,omitempty"`
	ShowTaxBreakdown    *bool  `json:"show_tax_breakdown,omitempty"`
}

// TemplateSnapshot is the design and layout frozen onto a document.
type TemplateSnapshot struct {
	Design Design `json:"design"`
	Layout Layout `json:"layout"`
}

// PostalAddress is a structured customer address
type PostalAddress struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// String renders the non-empty parts separated by commas.
func (a PostalAddress) String() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
