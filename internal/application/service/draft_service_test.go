package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lop-gin/factory-finance-pal/internal/domain/document"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	infraRepo "github.com/lop-gin/factory-finance-pal/internal/infrastructure/repository"
	"github.com/lop-gin/factory-finance-pal/pkg/apperror"
)

func requireAppError(t *testing.T, err error, code int) *apperror.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	require.Equal(t, code, appErr.Code, "unexpected error: %v", err)
	return appErr
}

func TestDraftService_OpenMintsNumberAndStarterItem(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypeInvoice)
	require.NoError(t, err)

	assert.Equal(t, "INV-000001", view.Document.Number)
	assert.Len(t, view.Document.Items, 1)
	assert.Equal(t, fixedNow.Add(time.Hour), view.ExpiresAt)
	require.NotNil(t, view.Document.SecondaryDate)
	assert.Equal(t, "2024-04-14", view.Document.SecondaryDate.Format("2006-01-02"))
	assert.Nil(t, view.Selections, "invoices do not import transactions")

	estimate, err := fx.svc.Open(ctx, user, enum.DocumentTypeEstimate)
	require.NoError(t, err)
	assert.Equal(t, "EST-000001", estimate.Document.Number)
}

func TestDraftService_OpenUnknownType(t *testing.T) {
	fx := newDraftFixture(t)

	_, err := fx.svc.Open(context.Background(), uuid.New(), enum.DocumentType("purchase_order"))
	requireAppError(t, err, http.StatusBadRequest)
}

func TestDraftService_Ownership(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	view, err := fx.svc.Open(ctx, owner, enum.DocumentTypeReceipt)
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, other, view.ID)
	requireAppError(t, err, http.StatusNotFound)

	_, err = fx.svc.Get(ctx, owner, uuid.New())
	requireAppError(t, err, http.StatusNotFound)

	require.NoError(t, fx.svc.Discard(ctx, owner, view.ID))
	_, err = fx.svc.Get(ctx, owner, view.ID)
	requireAppError(t, err, http.StatusNotFound)
}

func TestDraftService_EditAndSave(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()
	acme := fx.addCustomer(t, user, "acme")

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypeInvoice)
	require.NoError(t, err)
	itemID := view.Document.Items[0].ID

	view, err = fx.svc.SetCustomer(ctx, user, view.ID, CustomerSelection{CustomerID: &acme.ID})
	require.NoError(t, err)
	assert.Equal(t, "acme", view.Document.Customer.Name)
	assert.Equal(t, "billing@acme.test", view.Document.Customer.Email)

	view, err = fx.svc.UpdateItem(ctx, user, view.ID, itemID, document.ItemPatch{
		Product:   strp("Steel bracket"),
		Quantity:  ndp("4"),
		UnitPrice: ndp("12.50"),
	})
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(view.Document.Items[0].Amount))

	view, err = fx.svc.UpdateOtherFees(ctx, user, view.ID, document.OtherFeesPatch{
		Description: strp("Delivery"),
		Amount:      ndp("7.5"),
	})
	require.NoError(t, err)
	assert.True(t, dec("57.5").Equal(view.Document.Total))

	result, err := fx.svc.Save(ctx, user, view.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", result.Document.Number)
	assert.True(t, dec("57.5").Equal(result.Document.Total))
	assert.Nil(t, result.Draft)

	require.Len(t, fx.docs.docs, 1)
	stored := fx.docs.docs[0]
	assert.Equal(t, user, stored.UserID)
	assert.Equal(t, result.Document.ID, stored.ID.String())
	require.NotNil(t, stored.CustomerID)
	assert.Equal(t, acme.ID, *stored.CustomerID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Steel bracket", stored.Items[0].Product)
	require.NotNil(t, stored.OtherFee)
	assert.Equal(t, "Delivery", stored.OtherFee.Description)
	assert.Equal(t, enum.DocumentStatusOpen, stored.Status)

	_, err = fx.svc.Get(ctx, user, view.ID)
	requireAppError(t, err, http.StatusNotFound)
}

func TestDraftService_SaveAndNewKeepsDraftOpen(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypeReceipt)
	require.NoError(t, err)
	_, err = fx.svc.SetCustomer(ctx, user, view.ID, CustomerSelection{Customer: document.Customer{Name: "Walk-in"}})
	require.NoError(t, err)

	result, err := fx.svc.Save(ctx, user, view.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "SR-000001", result.Document.Number)
	require.NotNil(t, result.Draft)
	assert.Equal(t, view.ID, result.Draft.ID)
	assert.Equal(t, "SR-000002", result.Draft.Document.Number)
	assert.Equal(t, "Walk-in", result.Draft.Document.Customer.Name)
	assert.Empty(t, result.Draft.Document.Items)

	require.Len(t, fx.docs.docs, 1)
	assert.Equal(t, enum.DocumentStatusPaid, fx.docs.docs[0].Status)
	assert.Nil(t, fx.docs.docs[0].CustomerID)
}

func TestDraftService_SaveValidation(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypeInvoice)
	require.NoError(t, err)

	_, err = fx.svc.Save(ctx, user, view.ID, false)
	appErr := requireAppError(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Please enter customer information", appErr.Message)
	assert.ErrorIs(t, err, document.ErrMissingCustomer)

	_, err = fx.svc.SetCustomer(ctx, user, view.ID, CustomerSelection{Customer: document.Customer{Name: "Acme"}})
	require.NoError(t, err)
	_, err = fx.svc.ClearItems(ctx, user, view.ID)
	require.NoError(t, err)

	_, err = fx.svc.Save(ctx, user, view.ID, false)
	appErr = requireAppError(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Please add at least one item", appErr.Message)

	assert.Zero(t, fx.docs.creates)
	_, err = fx.svc.Get(ctx, user, view.ID)
	assert.NoError(t, err, "draft survives a rejected save")
}

func TestDraftService_SavePersistenceFailure(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()
	fx.docs.createErr = errDatabaseDown

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypeCreditNote)
	require.NoError(t, err)
	view, err = fx.svc.SetCustomer(ctx, user, view.ID, CustomerSelection{Customer: document.Customer{Name: "Acme"}})
	require.NoError(t, err)
	view, err = fx.svc.AddItem(ctx, user, view.ID)
	require.NoError(t, err)
	before := view.Document

	_, err = fx.svc.Save(ctx, user, view.ID, false)
	appErr := requireAppError(t, err, http.StatusBadGateway)
	assert.Equal(t, "Failed to save credit note", appErr.Message)
	assert.ErrorIs(t, err, document.ErrPersistenceFailure)
	assert.ErrorIs(t, err, errDatabaseDown)

	after, err := fx.svc.Get(ctx, user, view.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after.Document)
}

func TestDraftService_NumberFallbackWhenSequenceFails(t *testing.T) {
	fx := newDraftFixture(t)
	fx.seq.err = errDatabaseDown

	view, err := fx.svc.Open(context.Background(), uuid.New(), enum.DocumentTypeRefundReceipt)
	require.NoError(t, err)
	assert.Regexp(t, `^RR-\d+$`, view.Document.Number)
}

func TestDraftService_UnknownItemIsNoop(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypeInvoice)
	require.NoError(t, err)

	after, err := fx.svc.UpdateItem(ctx, user, view.ID, "missing", document.ItemPatch{Quantity: ndp("3")})
	require.NoError(t, err)
	assert.Equal(t, view.Document, after.Document)

	after, err = fx.svc.RemoveItem(ctx, user, view.ID, "missing")
	require.NoError(t, err)
	assert.Equal(t, view.Document, after.Document)
}

func TestDraftService_CreditNoteImportsInvoiceItems(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()
	acme := fx.addCustomer(t, user, "acme")
	inv := fx.addInvoice(t, acme, "INV-000010", "100", "50")

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypeCreditNote)
	require.NoError(t, err)
	require.NotNil(t, view.Selections)

	view, err = fx.svc.SetCustomer(ctx, user, view.ID, CustomerSelection{CustomerID: &acme.ID})
	require.NoError(t, err)
	assert.Empty(t, view.Document.Items, "switching customer starts over")

	txs, states, err := fx.svc.ListTransactions(ctx, user, view.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "INV-000010", txs[0].Number)
	assert.Empty(t, states)

	view, err = fx.svc.SelectTransaction(ctx, user, view.ID, inv.ID.String())
	require.NoError(t, err)
	assert.Len(t, view.Document.Items, 2)
	assert.True(t, dec("150").Equal(view.Document.SubTotal))
	assert.Equal(t, []string{inv.ID.String()}, view.Document.ReferencedTransactions)
	assert.Equal(t, document.Imported, view.Selections[inv.ID.String()])

	_, err = fx.svc.Save(ctx, user, view.ID, false)
	require.NoError(t, err)

	stored := fx.docs.docs[len(fx.docs.docs)-1]
	assert.Equal(t, enum.DocumentTypeCreditNote, stored.DocumentType)
	require.Len(t, stored.References, 1)
	assert.Equal(t, inv.ID, stored.References[0].ReferencedDocumentID)
	assert.Equal(t, enum.ReferenceTypeCredit, stored.References[0].ReferenceType)
}

func TestDraftService_DeselectKeepsImportedItems(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()
	acme := fx.addCustomer(t, user, "acme")
	inv := fx.addInvoice(t, acme, "INV-000011", "20")

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypeRefundReceipt)
	require.NoError(t, err)
	_, err = fx.svc.SetCustomer(ctx, user, view.ID, CustomerSelection{CustomerID: &acme.ID})
	require.NoError(t, err)
	_, err = fx.svc.SelectTransaction(ctx, user, view.ID, inv.ID.String())
	require.NoError(t, err)

	view, err = fx.svc.DeselectTransaction(ctx, user, view.ID, inv.ID.String())
	require.NoError(t, err)
	assert.Len(t, view.Document.Items, 1)
	assert.Empty(t, view.Document.ReferencedTransactions)
	assert.Equal(t, document.Unselected, view.Selections[inv.ID.String()])
}

func TestDraftService_TransactionsRequireImportingType(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypeInvoice)
	require.NoError(t, err)

	_, _, err = fx.svc.ListTransactions(ctx, user, view.ID)
	requireAppError(t, err, http.StatusBadRequest)
	_, err = fx.svc.LoadOutstandingInvoices(ctx, user, view.ID)
	requireAppError(t, err, http.StatusBadRequest)
}

func TestDraftService_PaymentSettlesInvoice(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()
	acme := fx.addCustomer(t, user, "acme")
	inv := fx.addInvoice(t, acme, "INV-000012", "300")

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypePayment)
	require.NoError(t, err)
	assert.Equal(t, "PMT-000001", view.Document.Number)

	_, err = fx.svc.SetCustomer(ctx, user, view.ID, CustomerSelection{CustomerID: &acme.ID})
	require.NoError(t, err)
	view, err = fx.svc.LoadOutstandingInvoices(ctx, user, view.ID)
	require.NoError(t, err)
	require.Len(t, view.Document.Payment.Invoices, 1)

	_, err = fx.svc.SetAmountReceived(ctx, user, view.ID, dec("500"))
	require.NoError(t, err)
	view, err = fx.svc.SetInvoicePayment(ctx, user, view.ID, inv.ID.String(), InvoicePaymentInput{Selected: true})
	require.NoError(t, err)
	assert.True(t, dec("300").Equal(view.Document.Payment.AmountToApply))
	assert.True(t, dec("200").Equal(view.Document.Payment.AmountToCredit))

	_, err = fx.svc.SetInvoicePayment(ctx, user, view.ID, uuid.NewString(), InvoicePaymentInput{Selected: true})
	requireAppError(t, err, http.StatusNotFound)

	_, err = fx.svc.Save(ctx, user, view.ID, false)
	require.NoError(t, err)

	payment := fx.docs.docs[len(fx.docs.docs)-1]
	require.Len(t, payment.Applications, 1)
	assert.Equal(t, inv.ID, payment.Applications[0].InvoiceID)
	assert.True(t, dec("300").Equal(payment.Applications[0].Amount))
	assert.True(t, dec("200").Equal(payment.AmountToCredit.Decimal))
	assert.True(t, inv.BalanceDue.IsZero())
	assert.Equal(t, enum.DocumentStatusPaid, inv.Status)
}

func TestDraftService_SetCustomerOfAnotherUser(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()
	foreign := fx.addCustomer(t, uuid.New(), "globex")

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypeInvoice)
	require.NoError(t, err)

	_, err = fx.svc.SetCustomer(ctx, user, view.ID, CustomerSelection{CustomerID: &foreign.ID})
	requireAppError(t, err, http.StatusNotFound)
}

func TestDraftService_CleanupEvictsIdleDrafts(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()

	stale, err := fx.svc.Open(ctx, user, enum.DocumentTypeInvoice)
	require.NoError(t, err)
	fx.advance(40 * time.Minute)
	fresh, err := fx.svc.Open(ctx, user, enum.DocumentTypeInvoice)
	require.NoError(t, err)
	fx.advance(30 * time.Minute)

	assert.Equal(t, 1, fx.svc.cleanup())
	_, err = fx.svc.Get(ctx, user, stale.ID)
	requireAppError(t, err, http.StatusNotFound)
	_, err = fx.svc.Get(ctx, user, fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, fx.svc.Stats()["active_drafts"])
}

func TestDraftService_StopIsIdempotent(t *testing.T) {
	fx := newDraftFixture(t)
	fx.svc.StartCleanup(time.Millisecond)
	fx.svc.Stop()
	fx.svc.Stop()
}

func TestDraftService_SaveAndCloseDoesNotSkipNumbers(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()

	for _, want := range []string{"SR-000001", "SR-000002"} {
		view, err := fx.svc.Open(ctx, user, enum.DocumentTypeReceipt)
		require.NoError(t, err)
		assert.Equal(t, want, view.Document.Number)
		_, err = fx.svc.SetCustomer(ctx, user, view.ID, CustomerSelection{Customer: document.Customer{Name: "Walk-in"}})
		require.NoError(t, err)

		result, err := fx.svc.Save(ctx, user, view.ID, false)
		require.NoError(t, err)
		assert.Equal(t, want, result.Document.Number)
	}
	assert.Equal(t, int64(2), fx.seq.next[enum.DocumentTypeReceipt])
}

func TestDraftService_ConcurrentDraftsWithCountedSequence(t *testing.T) {
	fx := newDraftFixture(t)
	svc := NewDraftService(DraftConfig{
		Numbers:   NewNumberingService(infraRepo.NewDocumentSequence(fx.docs), 6),
		Store:     NewDocumentStore(fx.docs),
		Lookup:    NewTransactionService(fx.docs),
		Customers: fx.customers,
	})
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.Open(ctx, user, enum.DocumentTypeInvoice)
	require.NoError(t, err)
	second, err := svc.Open(ctx, user, enum.DocumentTypeInvoice)
	require.NoError(t, err)
	require.Equal(t, "INV-000001", first.Document.Number)
	require.Equal(t, "INV-000001", second.Document.Number)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		_, err = svc.SetCustomer(ctx, user, id, CustomerSelection{Customer: document.Customer{Name: "Acme"}})
		require.NoError(t, err)
	}

	saved, err := svc.Save(ctx, user, first.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", saved.Document.Number)

	saved, err = svc.Save(ctx, user, second.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "INV-000002", saved.Document.Number)
	require.Len(t, fx.docs.docs, 2)
}

func TestDraftService_SaveTypedNumberAlreadyUsed(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()
	acme := fx.addCustomer(t, user, "acme")
	fx.addInvoice(t, acme, "INV-000010", "100")

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypeInvoice)
	require.NoError(t, err)
	_, err = fx.svc.SetCustomer(ctx, user, view.ID, CustomerSelection{CustomerID: &acme.ID})
	require.NoError(t, err)
	_, err = fx.svc.UpdateDocument(ctx, user, view.ID, document.DocumentPatch{Number: strp("INV-000010")})
	require.NoError(t, err)

	_, err = fx.svc.Save(ctx, user, view.ID, false)
	appErr := requireAppError(t, err, http.StatusConflict)
	assert.Equal(t, "Invoice number already in use", appErr.Message)

	view, err = fx.svc.Get(ctx, user, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-000010", view.Document.Number)
}

func TestDraftService_PaymentWithoutMoneyRejected(t *testing.T) {
	fx := newDraftFixture(t)
	ctx := context.Background()
	user := uuid.New()

	view, err := fx.svc.Open(ctx, user, enum.DocumentTypePayment)
	require.NoError(t, err)
	assert.Empty(t, view.Document.Items)
	_, err = fx.svc.SetCustomer(ctx, user, view.ID, CustomerSelection{Customer: document.Customer{Name: "Acme"}})
	require.NoError(t, err)

	_, err = fx.svc.Save(ctx, user, view.ID, false)
	requireAppError(t, err, http.StatusUnprocessableEntity)
	assert.Zero(t, fx.docs.creates)
}
