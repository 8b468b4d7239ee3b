package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BillingAddress is stored as a jsonb snapshot on each document
type BillingAddress struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country,omitempty"`
}

// Document is a saved sales document of any type
type Document struct {
	ID                 uuid.UUID                          `gorm:"type:uuid;primary_key" json:"id"`
	UserID             uuid.UUID                          `gorm:"type:uuid;not null;index" json:"user_id"`
	DocumentType       enum.DocumentType                  `gorm:"size:32;not null;uniqueIndex:idx_documents_type_number" json:"document_type"`
	Number             string                             `gorm:"size:100;not null;uniqueIndex:idx_documents_type_number" json:"number"`
	CustomerID         *uuid.UUID                         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerName       string                             `gorm:"size:255;not null;index" json:"customer_name"`
	CustomerEmail      *string                            `gorm:"size:255" json:"customer_email,omitempty"`
	CustomerCompany    *string                            `gorm:"size:255" json:"customer_company,omitempty"`
	BillingAddress     datatypes.JSONType[BillingAddress] `gorm:"type:jsonb" json:"billing_address"`
	Date               time.Time                          `gorm:"type:date;not null" json:"date"`
	DueDate            *time.Time                         `gorm:"type:date" json:"due_date,omitempty"`
	ExpirationDate     *time.Time                         `gorm:"type:date" json:"expiration_date,omitempty"`
	MessageOnInvoice   *string                            `gorm:"type:text" json:"message_on_invoice,omitempty"`
	MessageOnStatement *string                            `gorm:"type:text" json:"message_on_statement,omitempty"`
	SalesRep           *string                            `gorm:"size:255" json:"sales_rep,omitempty"`
	Tags               datatypes.JSONSlice[string]        `gorm:"type:jsonb" json:"tags"`
	SubTotal           decimal.Decimal                    `gorm:"type:decimal(15,2);not null;default:0" json:"sub_total"`
	Total              decimal.Decimal                    `gorm:"type:decimal(15,2);not null;default:0" json:"total"`
	BalanceDue         decimal.Decimal                    `gorm:"type:decimal(15,2);not null;default:0" json:"balance_due"`
	AmountReceived     decimal.NullDecimal                `gorm:"type:decimal(15,2)" json:"amount_received,omitempty"`
	AmountToCredit     decimal.NullDecimal                `gorm:"type:decimal(15,2)" json:"amount_to_credit,omitempty"`
	Status             enum.DocumentStatus                `gorm:"size:20;not null;default:open;index" json:"status"`
	CreatedAt          time.Time                          `json:"created_at"`
	UpdatedAt          time.Time                          `json:"updated_at"`
	DeletedAt          gorm.DeletedAt                     `gorm:"index" json:"-"`

	// Relationships
	Customer      *Customer            `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items         []DocumentItem       `gorm:"foreignKey:DocumentID" json:"items,omitempty"`
	OtherFee      *OtherFee            `gorm:"foreignKey:DocumentID" json:"other_fee,omitempty"`
	RefundReceipt *RefundReceipt       `gorm:"foreignKey:DocumentID" json:"refund_receipt,omitempty"`
	References    []DocumentReference  `gorm:"foreignKey:DocumentID" json:"references,omitempty"`
	Applications  []PaymentApplication `gorm:"foreignKey:PaymentID" json:"applications,omitempty"`
}

// BeforeCreate generates a UUID before creating a new document
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Document model
func (Document) TableName() string {
	return "documents"
}

// DocumentItem is one persisted line of a document
type DocumentItem struct {
	ID          uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	DocumentID  uuid.UUID           `gorm:"type:uuid;not null;index" json:"document_id"`
	LineID      string              `gorm:"size:64" json:"line_id"`
	Position    int                 `gorm:"not null;default:0" json:"position"`
	ServiceDate *time.Time          `gorm:"type:date" json:"service_date,omitempty"`
	Category    *string             `gorm:"size:100" json:"category,omitempty"`
	Product     string              `gorm:"size:255" json:"product"`
	Description *string             `gorm:"type:text" json:"description,omitempty"`
	Quantity    decimal.NullDecimal `gorm:"type:decimal(15,4)" json:"quantity"`
	Unit        *string             `gorm:"size:50" json:"unit,omitempty"`
	UnitPrice   decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"unit_price"`
	TaxPercent  decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"tax_percent"`
	Amount      decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0" json:"amount"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new document item
func (i *DocumentItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the DocumentItem model
func (DocumentItem) TableName() string {
	return "document_items"
}

// OtherFee is the single extra charge of a document
type OtherFee struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	DocumentID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"document_id"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (f *OtherFee) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (OtherFee) TableName() string {
	return "other_fees"
}

// DocumentReference links a document to an earlier one it was built from
type DocumentReference struct {
	ID                   uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	DocumentID           uuid.UUID          `gorm:"type:uuid;not null;index" json:"document_id"`
	ReferencedDocumentID uuid.UUID          `gorm:"type:uuid;not null;index" json:"referenced_document_id"`
	ReferenceType        enum.ReferenceType `gorm:"size:20;not null" json:"reference_type"`
	CreatedAt            time.Time          `json:"created_at"`
}

func (r *DocumentReference) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (DocumentReference) TableName() string {
	return "document_references"
}

// RefundReceipt holds the refund specific columns of a refund receipt
type RefundReceipt struct {
	DocumentID   uuid.UUID `gorm:"type:uuid;primary_key" json:"document_id"`
	RefundDate   time.Time `gorm:"type:date;not null" json:"refund_date"`
	RefundMethod *string   `gorm:"size:50" json:"refund_method,omitempty"`
}

func (RefundReceipt) TableName() string {
	return "refund_receipts"
}

// PaymentApplication records the part of a payment applied to one invoice
type PaymentApplication struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func (a *PaymentApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (PaymentApplication) TableName() string {
	return "payment_applications"
}
