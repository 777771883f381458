package request

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/investify-docs/internal/application/service"
	"github.com/sangkips/investify-docs/internal/domain/entity"
	"github.com/sangkips/investify-docs/internal/domain/enum"
	"github.com/sangkips/investify-docs/pkg/apperror"
	"github.com/shopspring/decimal"
)

// CompanyInfoRequest overrides the issuer block of a single document
type CompanyInfoRequest struct {
	Name         string            `json:"name" binding:"omitempty,max=255"`
	Email        string            `json:"email" binding:"omitempty,email"`
	Phone        string            `json:"phone" binding:"omitempty,max=50"`
	Address      string            `json:"address" binding:"omitempty,max=500"`
	Website      string            `json:"website" binding:"omitempty,url"`
	Logo         string            `json:"logo" binding:"omitempty,url"`
	LogoPosition string            `json:"logo_position" binding:"omitempty,oneof=left center right"`
	CustomFields map[string]string `json:"custom_fields"`
}

// DesignRequest overrides document styling
type DesignRequest struct {
	Theme          string `json:"theme" binding:"omitempty,max=50"`
	PrimaryColor   string `json:"primary_color" binding:"omitempty,hexcolor"`
	SecondaryColor string `json:"secondary_color" binding:"omitempty,hexcolor"`
	FontFamily     string `json:"font_family" binding:"omitempty,max=100"`
}

// LayoutRequest overrides document layout. Omitted flags inherit.
type LayoutRequest struct {
	PaperSize           string `json:"paper_size" binding:"omitempty,oneof=A4 A5 letter thermal"`
	HeaderText          string `json:"header_text" binding:"omitempty,max=500"`
	FooterText          string `json:"footer_text" binding:"omitempty,max=500"`
	ShowLogo            *bool  `json:"show_logo"`
	ShowCustomerAddress *bool  `json:"show_customer_address"`
	ShowTaxBreakdown    *bool  `json:"show_tax_breakdown"`
}

// SourceRequest identifies the transaction a document is generated from
type SourceRequest struct {
	Scenario       string     `json:"scenario" binding:"required,oneof=order subscription"`
	OrderID        *uuid.UUID `json:"order_id"`
	SubscriptionID *uuid.UUID `json:"subscription_id"`
	PaymentID      *uuid.UUID `json:"payment_id"`
	StoreID        *uuid.UUID `json:"store_id"`
}

// GenerateDocumentRequest represents a single generation request
type GenerateDocumentRequest struct {
	SourceRequest
	CompanyInfo *CompanyInfoRequest `json:"company_info"`
	Design      *DesignRequest      `json:"design"`
	Layout      *LayoutRequest      `json:"layout"`
	Notes       string              `json:"notes" binding:"omitempty,max=2000"`
}

// BulkGenerateRequest represents a bulk generation request
type BulkGenerateRequest struct {
	Items []GenerateDocumentRequest `json:"items" binding:"required,min=1,dive"`
}

// LineItemRequest is one line of an edited document
type LineItemRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Description string          `json:"description" binding:"omitempty,max=1000"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// UpdateLineItemsRequest replaces the line items of an active document
type UpdateLineItemsRequest struct {
	Items          []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	TaxAmount      *decimal.Decimal  `json:"tax_amount"`
	DiscountAmount *decimal.Decimal  `json:"discount_amount"`
}

// CancelDocumentRequest represents a cancellation
type CancelDocumentRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// RefundDocumentRequest represents a refund. A missing amount refunds the total.
type RefundDocumentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" binding:"omitempty,max=500"`
}

// TemplateRequest replaces the template of one document kind
type TemplateRequest struct {
	NumberPrefix string            `json:"number_prefix" binding:"omitempty,max=20,printascii,excludesall= /"`
	StoreInfo    StoreInfoRequest  `json:"store_info"`
	Email        string            `json:"email" binding:"omitempty,email"`
	Phone        string            `json:"phone" binding:"omitempty,max=50"`
	Address      string            `json:"address" binding:"omitempty,max=500"`
	CustomFields map[string]string `json:"custom_fields"`
	Design       DesignRequest     `json:"design"`
	Layout       LayoutRequest     `json:"layout"`
}

// StoreInfoRequest is the issuer identity configured for a document kind
type StoreInfoRequest struct {
	Name         string `json:"name" binding:"omitempty,max=255"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone" binding:"omitempty,max=50"`
	Address      string `json:"address" binding:"omitempty,max=500"`
	Website      string `json:"website" binding:"omitempty,url"`
	Logo         string `json:"logo" binding:"omitempty,url"`
	LogoPosition string `json:"logo_position" binding:"omitempty,oneof=left center right"`
}

// SourceRef converts the request into a typed source reference.
func (r *SourceRequest) SourceRef() (service.SourceRef, error) {
	switch enum.Scenario(r.Scenario) {
	case enum.ScenarioOrder:
		if r.OrderID == nil || *r.OrderID == uuid.Nil {
			return nil, apperror.NewFieldError("order_id", "is required")
		}
		return service.OrderRef{OrderID: *r.OrderID}, nil
	case enum.ScenarioSubscription:
		var fieldErrors []apperror.FieldError
		if r.SubscriptionID == nil || *r.SubscriptionID == uuid.Nil {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "subscription_id", Message: "is required"})
		}
		if r.PaymentID == nil || *r.PaymentID == uuid.Nil {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "payment_id", Message: "is required"})
		}
		if len(fieldErrors) > 0 {
			return nil, apperror.NewValidationError(fieldErrors)
		}
		return service.SubscriptionPaymentRef{SubscriptionID: *r.SubscriptionID, PaymentID: *r.PaymentID}, nil
	}
	return nil, apperror.NewFieldError("scenario", "must be one of [order subscription]")
}

// Override returns the per-request template layer.
func (r *GenerateDocumentRequest) Override() *service.TemplateOverride {
	o := &service.TemplateOverride{}
	if ci := r.CompanyInfo; ci != nil {
		o.CompanyInfo = entity.CompanyInfo{
			Name:         ci.Name,
			Email:        ci.Email,
			Phone:        ci.Phone,
			Address:      ci.Address,
			Website:      ci.Website,
			Logo:         ci.Logo,
			LogoPosition: ci.LogoPosition,
			CustomFields: ci.CustomFields,
		}
	}
	if r.Design != nil {
		o.Design = r.Design.toEntity()
	}
	if r.Layout != nil {
		o.Layout = r.Layout.toEntity()
	}
	return o
}

// ToInput converts the request into a generation input.
func (r *GenerateDocumentRequest) ToInput(kind enum.DocumentKind, actorID *uuid.UUID) (*service.GenerateInput, error) {
	ref, err := r.SourceRef()
	if err != nil {
		return nil, err
	}
	return &service.GenerateInput{
		Kind:     kind,
		Source:   ref,
		StoreID:  r.StoreID,
		Template: r.Override(),
		Notes:    r.Notes,
		ActorID:  actorID,
	}, nil
}

// ToInput converts the request into a bulk input. A malformed source
// rejects the whole request with the item index in the field name.
func (r *BulkGenerateRequest) ToInput(kind enum.DocumentKind, actorID *uuid.UUID) (*service.BulkGenerateInput, error) {
	items := make([]service.BulkItem, len(r.Items))
	var fieldErrors []apperror.FieldError
	for i := range r.Items {
		ref, err := r.Items[i].SourceRef()
		if err != nil {
			for _, fe := range apperror.GetAppError(err).Errors {
				fe.Field = fmt.Sprintf("items[%d].%s", i, fe.Field)
				fieldErrors = append(fieldErrors, fe)
			}
			continue
		}
		items[i] = service.BulkItem{
			Source:   ref,
			StoreID:  r.Items[i].StoreID,
			Template: r.Items[i].Override(),
			Notes:    r.Items[i].Notes,
		}
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}
	return &service.BulkGenerateInput{Kind: kind, Items: items, ActorID: actorID}, nil
}

// ToInput converts the request into a line item update.
func (r *UpdateLineItemsRequest) ToInput(actorID *uuid.UUID) *service.UpdateLineItemsInput {
	items := make([]entity.LineItem, len(r.Items))
	for i, li := range r.Items {
		items[i] = entity.LineItem{
			Name:        li.Name,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			TotalPrice:  li.TotalPrice,
			TaxRate:     li.TaxRate,
		}
	}
	return &service.UpdateLineItemsInput{
		ActorID:        actorID,
		Items:          items,
		TaxAmount:      r.TaxAmount,
		DiscountAmount: r.DiscountAmount,
	}
}

// ToEntity converts the request into a stored template.
func (r *TemplateRequest) ToEntity() entity.DocumentTemplate {
	return entity.DocumentTemplate{
		NumberPrefix: r.NumberPrefix,
		StoreInfo: entity.StoreInfo{
			Name:         r.StoreInfo.Name,
			Email:        r.StoreInfo.Email,
			Phone:        r.StoreInfo.Phone,
			Address:      r.StoreInfo.Address,
			Website:      r.StoreInfo.Website,
			Logo:         r.StoreInfo.Logo,
			LogoPosition: r.StoreInfo.LogoPosition,
		},
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		CustomFields: r.CustomFields,
		Design:       r.Design.toEntity(),
		Layout:       r.Layout.toEntity(),
	}
}

func (d DesignRequest) toEntity() entity.Design {
	return entity.Design{
		Theme:          d.Theme,
		PrimaryColor:   d.PrimaryColor,
		SecondaryColor: d.SecondaryColor,
		FontFamily:     d.FontFamily,
	}
}

func (l LayoutRequest) toEntity() entity.Layout {
	return entity.Layout{
		PaperSize:           l.PaperSize,
		HeaderText:          l.HeaderText,
		FooterText:          l.FooterText,
		ShowLogo:            l.ShowLogo,
		ShowCustomerAddress: l.ShowCustomerAddress,
		ShowTaxBreakdown:    l.ShowTaxBreakdown,
	}
}
