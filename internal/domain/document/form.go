package document

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	"github.com/lop-gin/factory-finance-pal/pkg/utils"
)

// defaultTermDays is added to the document date for due and expiration dates
const defaultTermDays = 30

// numberAttempts bounds how often Save re-mints a number another document took
const numberAttempts = 3

// Form owns one Document being edited and keeps its totals consistent with
// its items after every mutation. All methods are safe for concurrent use.
type Form struct {
	mu   sync.Mutex
	info KindInfo
	doc  Document
	// minted is the last number handed out by the Numberer. A number typed
	// by the user differs from it and is never replaced.
	minted string

	numbers  Numberer
	store    Store
	notifier Notifier
	log      *zap.Logger
	newID    func() string
	now      func() time.Time
}

type Option func(*Form)

// WithIDGenerator replaces the line item id source
func WithIDGenerator(fn func() string) Option {
	return func(f *Form) { f.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(f *Form) { f.now = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Form) { f.log = l }
}

func WithNotifier(n Notifier) Option {
	return func(f *Form) { f.notifier = n }
}

// newItemID returns a time ordered id with a random suffix
func newItemID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewForm opens a blank document of type t with a freshly minted number and
// a single empty starter row.
func NewForm(ctx context.Context, t enum.DocumentType, numbers Numberer, store Store, opts ...Option) (*Form, error) {
	info, err := LookupKind(t)
	if err != nil {
		return nil, err
	}

	f := &Form{
		info:     info,
		numbers:  numbers,
		store:    store,
		notifier: nopNotifier{},
		log:      zap.NewNop(),
		newID:    newItemID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.doc = f.blank(ctx)
	return f, nil
}

func (f *Form) Kind() KindInfo {
	return f.info
}

// Document returns a snapshot of the current aggregate
func (f *Form) Document() Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Clone()
}

func (f *Form) blank(ctx context.Context) Document {
	today := f.now().UTC().Truncate(24 * time.Hour)
	doc := Document{
		Type:                   f.info.Type,
		Number:                 f.mintNumber(ctx),
		Date:                   today,
		Items:                  []LineItem{},
		Tags:                   []string{},
		ReferencedTransactions: []string{},
	}
	if f.info.HasSecondaryDate() {
		due := today.AddDate(0, 0, defaultTermDays)
		doc.SecondaryDate = &due
	}
	if f.info.AppliesPayments() {
		// payments are made of invoice applications, not rows
		doc.Payment = &PaymentDetails{Invoices: []OutstandingInvoice{}}
	} else {
		doc.Items = append(doc.Items, newStarterItem(f.newID()))
	}
	doc.Totals = documentTotals(doc)
	return doc
}

func documentTotals(doc Document) Totals {
	if doc.Payment != nil {
		return PaymentTotals(doc.Payment)
	}
	return CalculateTotals(doc.Items, doc.OtherFees)
}

// mintNumber asks the Numberer for the next number and falls back to a
// random suffix when the sequence is unavailable.
func (f *Form) mintNumber(ctx context.Context) string {
	n := utils.RandomReference(f.info.Prefix)
	if f.numbers != nil {
		next, err := f.numbers.Next(ctx, f.info.Type)
		if err == nil {
			n = next
		} else {
			f.log.Warn("document number sequence unavailable, using random number",
				zap.String("type", f.info.Type.String()),
				zap.Error(err),
			)
		}
	}
	f.minted = n
	return n
}

func (f *Form) recompute() {
	if f.doc.Payment != nil {
		f.doc.Payment.recompute()
	}
	f.doc.Totals = documentTotals(f.doc)
}

// UpdateDocument merges header fields into the document. Fields that do not
// apply to the document type are ignored.
func (f *Form) UpdateDocument(p DocumentPatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.apply(p, f.info)
	f.recompute()
}

// UpdateCustomer replaces the customer. A payment drops the outstanding
// invoices of the previous customer.
func (f *Form) UpdateCustomer(c Customer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc.Payment != nil && f.doc.Customer.ID != c.ID {
		f.doc.Payment.Invoices = []OutstandingInvoice{}
	}
	f.doc.Customer = c
	f.recompute()
}

// AddItem appends a row with quantity 1 and price 0 and returns it
func (f *Form) AddItem() LineItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := newBlankItem(f.newID())
	f.doc.Items = append(f.doc.Items, it)
	f.recompute()
	return it
}

// UpdateItem merges the patch into the row with the given id. It reports
// false and changes nothing when no such row exists.
func (f *Form) UpdateItem(id string, p ItemPatch) (LineItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.indexOf(id)
	if idx < 0 {
		return LineItem{}, false
	}
	f.doc.Items[idx].apply(p)
	f.recompute()
	return f.doc.Items[idx], true
}

func (f *Form) RemoveItem(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.indexOf(id)
	if idx < 0 {
		return false
	}
	f.doc.Items = slices.Delete(f.doc.Items, idx, idx+1)
	f.recompute()
	return true
}

func (f *Form) ClearAllItems() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.Items = []LineItem{}
	f.recompute()
}

// UpdateOtherFees creates the fee record on first use and merges the patch
func (f *Form) UpdateOtherFees(p OtherFeesPatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc.OtherFees == nil {
		f.doc.OtherFees = &OtherFees{}
	}
	if p.Description != nil {
		f.doc.OtherFees.Description = *p.Description
	}
	if p.Amount != nil {
		f.doc.OtherFees.Amount = *p.Amount
	}
	f.recompute()
}

// AddItems appends externally sourced rows. Each row gets a fresh id,
// missing numbers default to zero and the amount is re-derived.
func (f *Form) AddItems(items []LineItem) []LineItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addItemsLocked(items)
}

func (f *Form) addItemsLocked(items []LineItem) []LineItem {
	added := make([]LineItem, 0, len(items))
	for _, it := range items {
		added = append(added, normalizeImported(it, f.newID()))
	}
	f.doc.Items = append(f.doc.Items, added...)
	f.recompute()
	return added
}

func (f *Form) indexOf(id string) int {
	return slices.IndexFunc(f.doc.Items, func(it LineItem) bool { return it.ID == id })
}

func (f *Form) setReferences(ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.ReferencedTransactions = append([]string{}, ids...)
}

// resetForCustomer swaps the customer and drops every item and reference
func (f *Form) resetForCustomer(c Customer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc.Customer = c
	f.doc.Items = []LineItem{}
	f.doc.ReferencedTransactions = []string{}
	f.recompute()
}

// LoadOutstandingInvoices replaces the invoices a payment can be applied to
func (f *Form) LoadOutstandingInvoices(invoices []OutstandingInvoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc.Payment == nil {
		return ErrPaymentsDisabled
	}
	loaded := make([]OutstandingInvoice, 0, len(invoices))
	for _, inv := range invoices {
		inv.Selected = false
		inv.Payment = decimal.Zero
		loaded = append(loaded, inv)
	}
	f.doc.Payment.Invoices = loaded
	f.recompute()
	return nil
}

// SetInvoicePayment selects or deselects an outstanding invoice. A selected
// invoice without an explicit amount is paid in full; amounts are clamped
// to the open balance.
func (f *Form) SetInvoicePayment(invoiceID string, selected bool, amount *decimal.Decimal) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc.Payment == nil {
		return false, ErrPaymentsDisabled
	}
	idx := slices.IndexFunc(f.doc.Payment.Invoices, func(inv OutstandingInvoice) bool {
		return inv.ID == invoiceID
	})
	if idx < 0 {
		return false, nil
	}

	inv := &f.doc.Payment.Invoices[idx]
	inv.Selected = selected
	switch {
	case !selected:
		inv.Payment = decimal.Zero
	case amount == nil:
		inv.Payment = inv.OpenBalance
	default:
		inv.Payment = clampPayment(*amount, inv.OpenBalance)
	}
	f.recompute()
	return true, nil
}

func (f *Form) SetAmountReceived(amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc.Payment == nil {
		return ErrPaymentsDisabled
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	f.doc.Payment.AmountReceived = amount
	f.recompute()
	return nil
}

// Saved identifies a document accepted by the Store
type Saved struct {
	ID     string          `json:"id"`
	Number string          `json:"number"`
	Total  decimal.Decimal `json:"total"`
}

type saveConfig struct {
	closing bool
}

type SaveOption func(*saveConfig)

// Closing marks the save as the form's last one: no next number is minted,
// so a sequence does not skip a number for a form nobody reuses.
func Closing() SaveOption {
	return func(c *saveConfig) { c.closing = true }
}

// Save validates the document and hands it to the Store. On success the
// form keeps its contents and takes the next number; save-and-new callers
// follow up with ClearAllItems. When the Store reports that the minted
// number is taken, Save mints another one and retries. On any other failure
// the document is left untouched.
func (f *Form) Save(ctx context.Context, opts ...SaveOption) (Saved, error) {
	var cfg saveConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.recompute()
	if err := f.validate(); err != nil {
		f.notifier.Notify(ctx, Notice{Level: NoticeError, Type: f.info.Type, Number: f.doc.Number, Message: capitalize(err.Error())})
		return Saved{}, err
	}

	snapshot := f.doc.Clone()
	id, err := f.store.SaveDocument(ctx, snapshot)
	for attempt := 1; attempt < numberAttempts && errors.Is(err, ErrNumberTaken) && f.doc.Number == f.minted; attempt++ {
		taken := f.doc.Number
		f.doc.Number = f.mintNumber(ctx)
		f.log.Warn("document number already in use, renumbering",
			zap.String("type", f.info.Type.String()),
			zap.String("taken", taken),
			zap.String("number", f.doc.Number),
		)
		snapshot = f.doc.Clone()
		id, err = f.store.SaveDocument(ctx, snapshot)
	}
	if err != nil {
		f.log.Error("failed to save document",
			zap.String("type", f.info.Type.String()),
			zap.String("number", snapshot.Number),
			zap.Error(err),
		)
		f.notifier.Notify(ctx, Notice{
			Level:   NoticeError,
			Type:    f.info.Type,
			Number:  snapshot.Number,
			Message: fmt.Sprintf("Failed to save %s", strings.ToLower(f.info.Type.Label())),
		})
		return Saved{}, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	f.log.Info("document saved",
		zap.String("type", f.info.Type.String()),
		zap.String("number", snapshot.Number),
		zap.String("id", id),
		zap.String("total", snapshot.Total.StringFixed(2)),
	)
	f.notifier.Notify(ctx, Notice{
		Level:   NoticeSuccess,
		Type:    f.info.Type,
		Number:  snapshot.Number,
		Message: fmt.Sprintf("%s %s saved", f.info.Type.Label(), snapshot.Number),
	})

	if !cfg.closing {
		f.doc.Number = f.mintNumber(ctx)
	}
	return Saved{ID: id, Number: snapshot.Number, Total: snapshot.Total}, nil
}

func (f *Form) validate() error {
	if strings.TrimSpace(f.doc.Customer.Name) == "" {
		return ErrMissingCustomer
	}
	if f.doc.Payment != nil {
		if !f.doc.Total.IsPositive() {
			return ErrNoPayment
		}
		return nil
	}
	if len(f.doc.Items) == 0 {
		return ErrNoItems
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
