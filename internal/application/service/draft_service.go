package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/domain/document"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	"github.com/lop-gin/factory-finance-pal/internal/domain/repository"
	infraRepo "github.com/lop-gin/factory-finance-pal/internal/infrastructure/repository"
	"github.com/lop-gin/factory-finance-pal/pkg/apperror"
	"github.com/lop-gin/factory-finance-pal/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultDraftTTL = 2 * time.Hour

// DraftService hosts in-progress document forms between requests. Each
// draft belongs to the user that opened it and is evicted after sitting
// idle for the configured TTL.
type DraftService struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*draftSession

	numbers   document.Numberer
	store     document.Store
	lookup    document.TransactionLookup
	customers repository.CustomerRepository
	log       *zap.Logger
	ttl       time.Duration
	now       func() time.Time
	formOpts  []document.Option

	stop chan struct{}
	once sync.Once
}

type draftSession struct {
	id       uuid.UUID
	ownerID  uuid.UUID
	form     *document.Form
	resolver *document.Resolver

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *draftSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *draftSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// DraftConfig wires the collaborators of a DraftService
type DraftConfig struct {
	Numbers   document.Numberer
	Store     document.Store
	Lookup    document.TransactionLookup
	Customers repository.CustomerRepository
	Logger    *zap.Logger
	TTL       time.Duration
	// FormOptions are passed to every form the service opens
	FormOptions []document.Option
}

// NewDraftService creates a new draft service
func NewDraftService(cfg DraftConfig) *DraftService {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultDraftTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &DraftService{
		sessions:  make(map[uuid.UUID]*draftSession),
		numbers:   cfg.Numbers,
		store:     cfg.Store,
		lookup:    cfg.Lookup,
		customers: cfg.Customers,
		log:       cfg.Logger,
		ttl:       cfg.TTL,
		now:       time.Now,
		formOpts:  cfg.FormOptions,
		stop:      make(chan struct{}),
	}
}

// DraftView is the client facing state of a draft
type DraftView struct {
	ID         uuid.UUID                          `json:"id"`
	Document   document.Document                  `json:"document"`
	Selections map[string]document.SelectionState `json:"selections,omitempty"`
	ExpiresAt  time.Time                          `json:"expires_at"`
}

// SaveResult reports a stored document and, for save-and-new, the fresh draft
type SaveResult struct {
	Document document.Saved `json:"document"`
	Draft    *DraftView     `json:"draft,omitempty"`
}

// CustomerSelection picks a saved customer by id or describes one by hand
type CustomerSelection struct {
	CustomerID *uuid.UUID
	Customer   document.Customer
}

// InvoicePaymentInput selects an outstanding invoice; a nil Amount pays it in full
type InvoicePaymentInput struct {
	Selected bool
	Amount   *decimal.Decimal
}

// StartCleanup evicts idle drafts every interval until Stop is called
func (s *DraftService) StartCleanup(interval time.Duration) {
	go s.cleanupLoop(interval)
}

func (s *DraftService) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *DraftService) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

// cleanup removes drafts that have not been touched within the TTL
func (s *DraftService) cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for id, session := range s.sessions {
		if session.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.log.Info("evicted idle drafts", zap.Int("count", evicted), zap.Int("remaining", len(s.sessions)))
	}
	return evicted
}

// Stats returns counters about the live drafts
func (s *DraftService) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"active_drafts": len(s.sessions),
		"ttl_seconds":   int(s.ttl.Seconds()),
	}
}

func (s *DraftService) view(session *draftSession) *DraftView {
	v := &DraftView{
		ID:        session.id,
		Document:  session.form.Document(),
		ExpiresAt: session.idleSince().Add(s.ttl),
	}
	if session.resolver != nil {
		v.Selections = session.resolver.States()
	}
	return v
}

func (s *DraftService) session(userID, draftID uuid.UUID) (*draftSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[draftID]
	s.mu.RUnlock()

	if !ok || s.now().Sub(session.idleSince()) > s.ttl {
		return nil, apperror.NewNotFoundError("Draft")
	}
	if session.ownerID != userID {
		return nil, apperror.NewNotFoundError("Draft")
	}
	session.touch(s.now())
	return session, nil
}

// noticeLogger writes form notices to the request scoped logger
type noticeLogger struct{}

func (noticeLogger) Notify(ctx context.Context, n document.Notice) {
	logger.FromContext(ctx).Info(n.Message,
		zap.String("notice", string(n.Level)),
		zap.String("type", n.Type.String()),
		zap.String("number", n.Number),
	)
}

// Open starts a blank draft of the given type
func (s *DraftService) Open(ctx context.Context, userID uuid.UUID, docType enum.DocumentType) (*DraftView, error) {
	opts := append([]document.Option{document.WithLogger(s.log), document.WithNotifier(noticeLogger{})}, s.formOpts...)
	form, err := document.NewForm(ctx, docType, s.numbers, s.store, opts...)
	if errors.Is(err, document.ErrUnknownKind) {
		return nil, apperror.NewBadRequestError("Unknown document type")
	}
	if err != nil {
		return nil, err
	}

	session := &draftSession{
		id:       uuid.New(),
		ownerID:  userID,
		form:     form,
		lastSeen: s.now(),
	}
	if form.Kind().ImportsReferences() {
		session.resolver, err = document.NewResolver(form, s.lookup)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()

	s.log.Debug("draft opened",
		zap.String("draft_id", session.id.String()),
		zap.String("type", docType.String()),
		zap.String("number", form.Document().Number),
	)
	return s.view(session), nil
}

// Get returns the current state of a draft
func (s *DraftService) Get(ctx context.Context, userID, draftID uuid.UUID) (*DraftView, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// Discard drops a draft without saving it
func (s *DraftService) Discard(ctx context.Context, userID, draftID uuid.UUID) error {
	if _, err := s.session(userID, draftID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, draftID)
	s.mu.Unlock()
	return nil
}

// UpdateDocument merges header fields into the draft
func (s *DraftService) UpdateDocument(ctx context.Context, userID, draftID uuid.UUID, patch document.DocumentPatch) (*DraftView, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}
	session.form.UpdateDocument(patch)
	return s.view(session), nil
}

// SetCustomer replaces the draft's customer. Drafts that import earlier
// transactions start over with no items when the customer changes.
func (s *DraftService) SetCustomer(ctx context.Context, userID, draftID uuid.UUID, sel CustomerSelection) (*DraftView, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}

	customer := sel.Customer
	if sel.CustomerID != nil {
		rec, err := s.customers.GetByID(ctx, *sel.CustomerID)
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.UserID != userID {
			return nil, apperror.NewNotFoundError("Customer")
		}
		customer = ToDocumentCustomer(rec)
	}

	if session.resolver != nil {
		session.resolver.SwitchCustomer(customer)
	} else {
		session.form.UpdateCustomer(customer)
	}
	return s.view(session), nil
}

// AddItem appends a blank row
func (s *DraftService) AddItem(ctx context.Context, userID, draftID uuid.UUID) (*DraftView, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}
	session.form.AddItem()
	return s.view(session), nil
}

// AddItems appends rows supplied by the client
func (s *DraftService) AddItems(ctx context.Context, userID, draftID uuid.UUID, items []document.LineItem) (*DraftView, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}
	session.form.AddItems(items)
	return s.view(session), nil
}

// UpdateItem patches one row. An unknown item id leaves the draft unchanged.
func (s *DraftService) UpdateItem(ctx context.Context, userID, draftID uuid.UUID, itemID string, patch document.ItemPatch) (*DraftView, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}
	session.form.UpdateItem(itemID, patch)
	return s.view(session), nil
}

// RemoveItem deletes one row. An unknown item id leaves the draft unchanged.
func (s *DraftService) RemoveItem(ctx context.Context, userID, draftID uuid.UUID, itemID string) (*DraftView, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}
	session.form.RemoveItem(itemID)
	return s.view(session), nil
}

func (s *DraftService) ClearItems(ctx context.Context, userID, draftID uuid.UUID) (*DraftView, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}
	session.form.ClearAllItems()
	return s.view(session), nil
}

func (s *DraftService) UpdateOtherFees(ctx context.Context, userID, draftID uuid.UUID, patch document.OtherFeesPatch) (*DraftView, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}
	session.form.UpdateOtherFees(patch)
	return s.view(session), nil
}

func (s *DraftService) resolverFor(userID, draftID uuid.UUID) (*draftSession, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}
	if session.resolver == nil {
		return nil, apperror.NewBadRequestError("This document type does not import transactions")
	}
	return session, nil
}

// ListTransactions lists the customer's transactions that can be imported
func (s *DraftService) ListTransactions(ctx context.Context, userID, draftID uuid.UUID) ([]document.Transaction, map[string]document.SelectionState, error) {
	session, err := s.resolverFor(userID, draftID)
	if err != nil {
		return nil, nil, err
	}
	txs, err := session.resolver.Transactions(ctx)
	if err != nil {
		return nil, nil, err
	}
	return txs, session.resolver.States(), nil
}

// SelectTransaction imports the items of an earlier transaction
func (s *DraftService) SelectTransaction(ctx context.Context, userID, draftID uuid.UUID, transactionID string) (*DraftView, error) {
	session, err := s.resolverFor(userID, draftID)
	if err != nil {
		return nil, err
	}
	if err := session.resolver.Select(ctx, transactionID); err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.Wrap(http.StatusBadGateway, "Failed to load transaction items", err)
	}
	return s.view(session), nil
}

// DeselectTransaction drops a transaction from the references. Its imported
// items stay on the draft.
func (s *DraftService) DeselectTransaction(ctx context.Context, userID, draftID uuid.UUID, transactionID string) (*DraftView, error) {
	session, err := s.resolverFor(userID, draftID)
	if err != nil {
		return nil, err
	}
	session.resolver.Deselect(transactionID)
	return s.view(session), nil
}

func (s *DraftService) paymentFor(userID, draftID uuid.UUID) (*draftSession, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}
	if !session.form.Kind().AppliesPayments() {
		return nil, apperror.NewBadRequestError("This document type does not apply payments")
	}
	return session, nil
}

// LoadOutstandingInvoices fills a payment draft with the customer's open invoices
func (s *DraftService) LoadOutstandingInvoices(ctx context.Context, userID, draftID uuid.UUID) (*DraftView, error) {
	session, err := s.paymentFor(userID, draftID)
	if err != nil {
		return nil, err
	}
	invoices, err := s.lookup.ListOutstandingInvoices(ctx, session.form.Document().Customer)
	if err != nil {
		return nil, err
	}
	if err := session.form.LoadOutstandingInvoices(invoices); err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// SetInvoicePayment selects or deselects one outstanding invoice
func (s *DraftService) SetInvoicePayment(ctx context.Context, userID, draftID uuid.UUID, invoiceID string, in InvoicePaymentInput) (*DraftView, error) {
	session, err := s.paymentFor(userID, draftID)
	if err != nil {
		return nil, err
	}
	found, err := session.form.SetInvoicePayment(invoiceID, in.Selected, in.Amount)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return s.view(session), nil
}

func (s *DraftService) SetAmountReceived(ctx context.Context, userID, draftID uuid.UUID, amount decimal.Decimal) (*DraftView, error) {
	session, err := s.paymentFor(userID, draftID)
	if err != nil {
		return nil, err
	}
	if err := session.form.SetAmountReceived(amount); err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// Save stores the draft's document. With keepOpen the draft stays open
// under the next number with its items cleared, otherwise it is closed
// without taking another number.
func (s *DraftService) Save(ctx context.Context, userID, draftID uuid.UUID, keepOpen bool) (*SaveResult, error) {
	session, err := s.session(userID, draftID)
	if err != nil {
		return nil, err
	}

	var opts []document.SaveOption
	if !keepOpen {
		opts = append(opts, document.Closing())
	}
	saved, err := session.form.Save(infraRepo.WithUser(ctx, userID), opts...)
	if err != nil {
		return nil, saveError(session.form.Kind(), err)
	}
	if session.resolver != nil {
		session.resolver.Reset()
	}

	result := &SaveResult{Document: saved}
	if keepOpen {
		session.form.ClearAllItems()
		result.Draft = s.view(session)
	} else {
		s.mu.Lock()
		delete(s.sessions, draftID)
		s.mu.Unlock()
	}
	return result, nil
}

func saveError(info document.KindInfo, err error) error {
	switch {
	case errors.Is(err, document.ErrMissingCustomer):
		return apperror.NewUnprocessableError("Please enter customer information", err)
	case errors.Is(err, document.ErrNoItems):
		return apperror.NewUnprocessableError("Please add at least one item", err)
	case errors.Is(err, document.ErrNoPayment):
		return apperror.NewUnprocessableError("Please enter the amount received", err)
	case errors.Is(err, document.ErrNumberTaken):
		return apperror.Wrap(http.StatusConflict, info.Type.Label()+" number already in use", err)
	case errors.Is(err, document.ErrPersistenceFailure):
		return apperror.Wrap(http.StatusBadGateway, "Failed to save "+lower(info.Type.Label()), err)
	}
	return err
}
