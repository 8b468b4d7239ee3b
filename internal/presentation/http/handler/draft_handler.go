package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/application/service"
	"github.com/lop-gin/factory-finance-pal/internal/domain/document"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/dto/request"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/dto/response"
)

// DraftHandler exposes the document form operations over HTTP. Every
// mutating endpoint answers with the whole draft, totals included.
type DraftHandler struct {
	drafts *service.DraftService
}

func NewDraftHandler(drafts *service.DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// draftCall resolves the user and draft id shared by every draft route
func draftCall(c *gin.Context) (userID, draftID uuid.UUID, ok bool) {
	if userID, ok = requireUser(c); !ok {
		return
	}
	draftID, ok = uuidParam(c, "id", "draft")
	return
}

func renderDraft(c *gin.Context, view *service.DraftView, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Draft updated", view)
}

// Open starts a new draft
func (h *DraftHandler) Open(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.OpenDraftRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.drafts.Open(c.Request.Context(), userID, req.Type)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Draft created", view)
}

func (h *DraftHandler) Get(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	view, err := h.drafts.Get(c.Request.Context(), userID, draftID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Draft retrieved", view)
}

func (h *DraftHandler) Discard(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	if err := h.drafts.Discard(c.Request.Context(), userID, draftID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Update merges header fields
func (h *DraftHandler) Update(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	var req request.UpdateDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.drafts.UpdateDocument(c.Request.Context(), userID, draftID, req.ToPatch())
	renderDraft(c, view, err)
}

func (h *DraftHandler) SetCustomer(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	var req request.SetCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.drafts.SetCustomer(c.Request.Context(), userID, draftID, req.ToSelection())
	renderDraft(c, view, err)
}

// AddItem appends one blank row
func (h *DraftHandler) AddItem(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	view, err := h.drafts.AddItem(c.Request.Context(), userID, draftID)
	renderDraft(c, view, err)
}

// AddItems appends several rows at once
func (h *DraftHandler) AddItems(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	var req request.AddItemsRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.drafts.AddItems(c.Request.Context(), userID, draftID, req.ToItems())
	renderDraft(c, view, err)
}

// UpdateItem patches one row. Unknown item ids leave the draft unchanged.
func (h *DraftHandler) UpdateItem(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	var req request.ItemRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.drafts.UpdateItem(c.Request.Context(), userID, draftID, c.Param("itemId"), req.ToPatch())
	renderDraft(c, view, err)
}

func (h *DraftHandler) RemoveItem(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	view, err := h.drafts.RemoveItem(c.Request.Context(), userID, draftID, c.Param("itemId"))
	renderDraft(c, view, err)
}

func (h *DraftHandler) ClearItems(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	view, err := h.drafts.ClearItems(c.Request.Context(), userID, draftID)
	renderDraft(c, view, err)
}

func (h *DraftHandler) UpdateOtherFees(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	var req request.OtherFeesRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.drafts.UpdateOtherFees(c.Request.Context(), userID, draftID, req.ToPatch())
	renderDraft(c, view, err)
}

type transactionsView struct {
	Transactions []document.Transaction              `json:"transactions"`
	Selections   map[string]document.SelectionState `json:"selections"`
}

// Transactions lists what the draft can import from
func (h *DraftHandler) Transactions(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	txs, states, err := h.drafts.ListTransactions(c.Request.Context(), userID, draftID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Transactions retrieved successfully", transactionsView{Transactions: txs, Selections: states})
}

func (h *DraftHandler) SelectTransaction(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	view, err := h.drafts.SelectTransaction(c.Request.Context(), userID, draftID, c.Param("txId"))
	renderDraft(c, view, err)
}

func (h *DraftHandler) DeselectTransaction(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	view, err := h.drafts.DeselectTransaction(c.Request.Context(), userID, draftID, c.Param("txId"))
	renderDraft(c, view, err)
}

func (h *DraftHandler) LoadOutstandingInvoices(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	view, err := h.drafts.LoadOutstandingInvoices(c.Request.Context(), userID, draftID)
	renderDraft(c, view, err)
}

func (h *DraftHandler) SetInvoicePayment(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	var req request.InvoicePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.drafts.SetInvoicePayment(c.Request.Context(), userID, draftID, c.Param("invoiceId"), req.ToInput())
	renderDraft(c, view, err)
}

func (h *DraftHandler) SetAmountReceived(c *gin.Context) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	var req request.AmountReceivedRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.drafts.SetAmountReceived(c.Request.Context(), userID, draftID, req.Amount)
	renderDraft(c, view, err)
}

// Save stores the document and closes the draft
func (h *DraftHandler) Save(c *gin.Context) {
	h.save(c, false)
}

// SaveAndNew stores the document and keeps the draft open with its items cleared
func (h *DraftHandler) SaveAndNew(c *gin.Context) {
	h.save(c, true)
}

func (h *DraftHandler) save(c *gin.Context, keepOpen bool) {
	userID, draftID, ok := draftCall(c)
	if !ok {
		return
	}

	result, err := h.drafts.Save(c.Request.Context(), userID, draftID, keepOpen)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result.Document.Number+" saved", result)
}
