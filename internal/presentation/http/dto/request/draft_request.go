package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/application/service"
	"github.com/lop-gin/factory-finance-pal/internal/domain/document"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	"github.com/shopspring/decimal"
)

type OpenDraftRequest struct {
	Type enum.DocumentType `json:"type" binding:"required"`
}

// UpdateDocumentRequest patches header fields; omitted fields are left alone
type UpdateDocumentRequest struct {
	Number             *string    `json:"number" binding:"omitempty,min=1,max=100"`
	Date               *time.Time `json:"date"`
	SecondaryDate      *time.Time `json:"secondary_date"`
	MessageOnInvoice   *string    `json:"message_on_invoice"`
	MessageOnStatement *string    `json:"message_on_statement"`
	SalesRep           *string    `json:"sales_rep" binding:"omitempty,max=255"`
	Tags               *[]string  `json:"tags" binding:"omitempty,dive,max=50"`
	RefundMethod       *string    `json:"refund_method" binding:"omitempty,max=50"`
}

func (r *UpdateDocumentRequest) ToPatch() document.DocumentPatch {
	return document.DocumentPatch{
		Number:             r.Number,
		Date:               r.Date,
		SecondaryDate:      r.SecondaryDate,
		MessageOnInvoice:   r.MessageOnInvoice,
		MessageOnStatement: r.MessageOnStatement,
		SalesRep:           r.SalesRep,
		Tags:               r.Tags,
		RefundMethod:       r.RefundMethod,
	}
}

type AddressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// SetCustomerRequest picks a saved customer by id or carries a hand typed one
type SetCustomerRequest struct {
	CustomerID     *uuid.UUID     `json:"customer_id"`
	Name           string         `json:"name" binding:"max=255"`
	Email          string         `json:"email" binding:"omitempty,email"`
	Company        string         `json:"company" binding:"max=255"`
	BillingAddress AddressRequest `json:"billing_address"`
}

func (r *SetCustomerRequest) ToSelection() service.CustomerSelection {
	return service.CustomerSelection{
		CustomerID: r.CustomerID,
		Customer: document.Customer{
			Name:    r.Name,
			Email:   r.Email,
			Company: r.Company,
			BillingAddress: document.Address{
				Street:  r.BillingAddress.Street,
				City:    r.BillingAddress.City,
				State:   r.BillingAddress.State,
				ZipCode: r.BillingAddress.ZipCode,
				Country: r.BillingAddress.Country,
			},
		},
	}
}

// ItemRequest patches one row; omitted fields are left alone
type ItemRequest struct {
	ServiceDate *time.Time           `json:"service_date"`
	Category    *string              `json:"category" binding:"omitempty,max=100"`
	Product     *string              `json:"product" binding:"omitempty,max=255"`
	Description *string              `json:"description"`
	Quantity    *decimal.NullDecimal `json:"quantity" binding:"omitempty,gte=0"`
	Unit        *string              `json:"unit" binding:"omitempty,max=50"`
	UnitPrice   *decimal.NullDecimal `json:"unit_price" binding:"omitempty,gte=0"`
	TaxPercent  *decimal.NullDecimal `json:"tax_percent" binding:"omitempty,gte=0,lte=100"`
}

func (r *ItemRequest) ToPatch() document.ItemPatch {
	return document.ItemPatch{
		ServiceDate: r.ServiceDate,
		Category:    r.Category,
		Product:     r.Product,
		Description: r.Description,
		Quantity:    r.Quantity,
		Unit:        r.Unit,
		UnitPrice:   r.UnitPrice,
		TaxPercent:  r.TaxPercent,
	}
}

// LineItemRequest is one row of a batch add
type LineItemRequest struct {
	ServiceDate *time.Time          `json:"service_date"`
	Category    string              `json:"category" binding:"max=100"`
	Product     string              `json:"product" binding:"max=255"`
	Description string              `json:"description"`
	Quantity    decimal.NullDecimal `json:"quantity" binding:"omitempty,gte=0"`
	Unit        string              `json:"unit" binding:"max=50"`
	UnitPrice   decimal.NullDecimal `json:"unit_price" binding:"omitempty,gte=0"`
	TaxPercent  decimal.NullDecimal `json:"tax_percent" binding:"omitempty,gte=0,lte=100"`
}

type AddItemsRequest struct {
	Items []LineItemRequest `json:"items" binding:"required,min=1,max=500,dive"`
}

func (r *AddItemsRequest) ToItems() []document.LineItem {
	items := make([]document.LineItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, document.LineItem{
			ServiceDate: it.ServiceDate,
			Category:    it.Category,
			Product:     it.Product,
			Description: it.Description,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			UnitPrice:   it.UnitPrice,
			TaxPercent:  it.TaxPercent,
		})
	}
	return items
}

type OtherFeesRequest struct {
	Description *string              `json:"description" binding:"omitempty,max=255"`
	Amount      *decimal.NullDecimal `json:"amount" binding:"omitempty,gte=0"`
}

func (r *OtherFeesRequest) ToPatch() document.OtherFeesPatch {
	return document.OtherFeesPatch{Description: r.Description, Amount: r.Amount}
}

// InvoicePaymentRequest selects an outstanding invoice. Without an amount a
// selected invoice is paid in full.
type InvoicePaymentRequest struct {
	Selected bool             `json:"selected"`
	Amount   *decimal.Decimal `json:"amount" binding:"omitempty,gte=0"`
}

func (r *InvoicePaymentRequest) ToInput() service.InvoicePaymentInput {
	return service.InvoicePaymentInput{Selected: r.Selected, Amount: r.Amount}
}

type AmountReceivedRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"gte=0"`
}
