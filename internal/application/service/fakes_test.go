package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lop-gin/factory-finance-pal/internal/domain/document"
	"github.com/lop-gin/factory-finance-pal/internal/domain/entity"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	"github.com/lop-gin/factory-finance-pal/internal/domain/repository"
	"github.com/lop-gin/factory-finance-pal/pkg/pagination"
)

// ============================================================================
// FAKES
// ============================================================================

type fakeDocumentRepo struct {
	mu        sync.Mutex
	docs      []*entity.Document
	createErr error
	creates   int
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	for _, d := range r.docs {
		if d.DocumentType == doc.DocumentType && d.Number == doc.Number {
			return fmt.Errorf("%w: %s %s", repository.ErrDuplicateNumber, doc.DocumentType, doc.Number)
		}
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	for _, app := range doc.Applications {
		for _, inv := range r.docs {
			if inv.ID == app.InvoiceID {
				inv.BalanceDue = decimal.Max(inv.BalanceDue.Sub(app.Amount), decimal.Zero)
				if inv.BalanceDue.IsZero() {
					inv.Status = enum.DocumentStatusPaid
				}
			}
		}
	}
	r.docs = append(r.docs, doc)
	return nil
}

func (r *fakeDocumentRepo) find(id uuid.UUID) *entity.Document {
	for _, d := range r.docs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (r *fakeDocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(id), nil
}

func (r *fakeDocumentRepo) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeDocumentRepo) List(ctx context.Context, params *repository.DocumentFilterParams) ([]entity.Document, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Document
	for _, d := range r.docs {
		if params.DocumentType != nil && d.DocumentType != *params.DocumentType {
			continue
		}
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

func (r *fakeDocumentRepo) ListItems(ctx context.Context, documentID uuid.UUID) ([]entity.DocumentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.find(documentID)
	if d == nil {
		return []entity.DocumentItem{}, nil
	}
	return d.Items, nil
}

func (r *fakeDocumentRepo) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Document
	for _, d := range r.docs {
		if !typeIn(d.DocumentType, filter.Types) {
			continue
		}
		if filter.CustomerID != nil {
			if d.CustomerID == nil || *d.CustomerID != *filter.CustomerID {
				continue
			}
		} else if d.CustomerName != filter.CustomerName {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeDocumentRepo) ListOutstandingInvoices(ctx context.Context, customerID uuid.UUID) ([]entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Document
	for _, d := range r.docs {
		if d.DocumentType == enum.DocumentTypeInvoice && d.CustomerID != nil && *d.CustomerID == customerID && d.BalanceDue.IsPositive() {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) CountByType(ctx context.Context, documentType enum.DocumentType) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.docs {
		if d.DocumentType == documentType {
			n++
		}
	}
	return n, nil
}

func typeIn(t enum.DocumentType, types []enum.DocumentType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*entity.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*entity.Customer)}
}

func (r *fakeCustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.customers[id], nil
}

func (r *fakeCustomerRepo) Update(ctx context.Context, c *entity.Customer) error {
	return r.Create(ctx, c)
}

func (r *fakeCustomerRepo) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCustomerRepo) ListWithCursor(ctx context.Context, params *pagination.CursorParams, search string) ([]entity.Customer, error) {
	out, _, err := r.List(ctx, nil, search)
	return out, err
}

type fakeSequence struct {
	mu   sync.Mutex
	next map[enum.DocumentType]int64
	err  error
}

func (s *fakeSequence) Next(ctx context.Context, t enum.DocumentType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	if s.next == nil {
		s.next = make(map[enum.DocumentType]int64)
	}
	s.next[t]++
	return s.next[t], nil
}

var errDatabaseDown = errors.New("database is down")

// ============================================================================
// HELPERS
// ============================================================================

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ndp(s string) *decimal.NullDecimal {
	v := decimal.NewNullDecimal(dec(s))
	return &v
}

func strp(s string) *string {
	return &s
}

type draftFixture struct {
	svc       *DraftService
	docs      *fakeDocumentRepo
	customers *fakeCustomerRepo
	seq       *fakeSequence
	clock     *time.Time
}

func newDraftFixture(t *testing.T) *draftFixture {
	t.Helper()
	fx := &draftFixture{
		docs:      &fakeDocumentRepo{},
		customers: newFakeCustomerRepo(),
		seq:       &fakeSequence{},
	}
	now := fixedNow
	fx.clock = &now
	fx.svc = NewDraftService(DraftConfig{
		Numbers:     NewNumberingService(fx.seq, 6),
		Store:       NewDocumentStore(fx.docs),
		Lookup:      NewTransactionService(fx.docs),
		Customers:   fx.customers,
		TTL:         time.Hour,
		FormOptions: []document.Option{document.WithClock(func() time.Time { return *fx.clock })},
	})
	fx.svc.now = func() time.Time { return *fx.clock }
	return fx
}

func (fx *draftFixture) advance(d time.Duration) {
	*fx.clock = fx.clock.Add(d)
}

func (fx *draftFixture) addCustomer(t *testing.T, owner uuid.UUID, name string) *entity.Customer {
	t.Helper()
	c := &entity.Customer{UserID: owner, Name: name, Email: strp("billing@" + name + ".test")}
	require.NoError(t, fx.customers.Create(context.Background(), c))
	return c
}

// addInvoice stores a saved invoice for the customer with one line per amount
func (fx *draftFixture) addInvoice(t *testing.T, c *entity.Customer, number string, amounts ...string) *entity.Document {
	t.Helper()
	inv := &entity.Document{
		ID:           uuid.New(),
		UserID:       c.UserID,
		DocumentType: enum.DocumentTypeInvoice,
		Number:       number,
		CustomerID:   &c.ID,
		CustomerName: c.Name,
		Date:         fixedNow.AddDate(0, 0, -10),
		Status:       enum.DocumentStatusOpen,
	}
	total := decimal.Zero
	for i, a := range amounts {
		amount := dec(a)
		total = total.Add(amount)
		inv.Items = append(inv.Items, entity.DocumentItem{
			DocumentID: inv.ID,
			LineID:     uuid.NewString(),
			Position:   i,
			Product:    "Widget",
			Quantity:   decimal.NewNullDecimal(decimal.NewFromInt(1)),
			UnitPrice:  decimal.NewNullDecimal(amount),
			TaxPercent: decimal.NewNullDecimal(decimal.Zero),
			Amount:     amount,
		})
	}
	inv.SubTotal, inv.Total, inv.BalanceDue = total, total, total
	require.NoError(t, fx.docs.Create(context.Background(), inv))
	return inv
}
