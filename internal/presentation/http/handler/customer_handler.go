package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lop-gin/factory-finance-pal/internal/application/service"
	"github.com/lop-gin/factory-finance-pal/internal/domain/document"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/dto/request"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/dto/response"
	"github.com/lop-gin/factory-finance-pal/pkg/apperror"
	"github.com/lop-gin/factory-finance-pal/pkg/pagination"
)

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
	lookup          *service.TransactionService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *service.CustomerService, lookup *service.TransactionService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, lookup: lookup}
}

// List handles listing customers (supports both page-based and cursor-based pagination)
func (h *CustomerHandler) List(c *gin.Context) {
	search := c.Query("search")

	if c.Query("cursor") != "" || c.Query("limit") != "" {
		var params pagination.CursorParams
		if err := c.ShouldBindQuery(&params); err != nil {
			response.Error(c, apperror.FromBindingError(err))
			return
		}
		params.Validate()

		customers, page, err := h.customerService.ListCustomersWithCursor(c.Request.Context(), &params, search)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.CursorPaginated(c, "Customers retrieved successfully", customers, page)
		return
	}

	var params pagination.PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, apperror.FromBindingError(err))
		return
	}
	params.Validate()

	customers, page, err := h.customerService.ListCustomers(c.Request.Context(), &params, search)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, "Customers retrieved successfully", customers, page)
}

// Create handles creating a customer
func (h *CustomerHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), userID, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Customer created successfully", customer)
}

// Get handles getting a single customer
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "customer")
	if !ok {
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer retrieved successfully", customer)
}

// Update handles updating a customer
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id", "customer")
	if !ok {
		return
	}

	var req request.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), id, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer updated successfully", customer)
}

func (h *CustomerHandler) asDocumentCustomer(c *gin.Context) (document.Customer, bool) {
	id, ok := uuidParam(c, "id", "customer")
	if !ok {
		return document.Customer{}, false
	}
	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return document.Customer{}, false
	}
	return service.ToDocumentCustomer(customer), true
}

// Transactions lists the customer's invoices and sales receipts
func (h *CustomerHandler) Transactions(c *gin.Context) {
	customer, ok := h.asDocumentCustomer(c)
	if !ok {
		return
	}

	txs, err := h.lookup.ListTransactions(c.Request.Context(), customer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Transactions retrieved successfully", txs)
}

// OutstandingInvoices lists the customer's invoices with an open balance
func (h *CustomerHandler) OutstandingInvoices(c *gin.Context) {
	customer, ok := h.asDocumentCustomer(c)
	if !ok {
		return
	}

	invoices, err := h.lookup.ListOutstandingInvoices(c.Request.Context(), customer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Outstanding invoices retrieved successfully", invoices)
}
