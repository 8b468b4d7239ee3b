package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lop-gin/factory-finance-pal/internal/config"
	domainRepo "github.com/lop-gin/factory-finance-pal/internal/domain/repository"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/dto/request"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/handler"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/middleware"
	"github.com/lop-gin/factory-finance-pal/pkg/utils"
	"go.uber.org/zap"
)

const (
	permCustomersWrite = "customers:write"
	permDocumentsWrite = "documents:write"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Customer *handler.CustomerHandler
	Document *handler.DocumentHandler
	Draft    *handler.DraftHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	Logger          *zap.Logger
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.UserRateLimiter
	// Stats feeds the health endpoint; optional
	Stats func() map[string]interface{}
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	request.RegisterValidators()

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		}
		if deps.Stats != nil {
			body["stats"] = deps.Stats()
		}
		c.JSON(http.StatusOK, body)
	})

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerCustomerRoutes(protected, h)
		registerDocumentRoutes(protected, h)
		registerDraftRoutes(protected, h, deps)
	}

	return router
}

func registerCustomerRoutes(protected *gin.RouterGroup, h *Handlers) {
	customers := protected.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.GET("/:id", h.Customer.Get)
		customers.GET("/:id/transactions", h.Customer.Transactions)
		customers.GET("/:id/outstanding-invoices", h.Customer.OutstandingInvoices)
		customers.POST("", middleware.RequirePermission(permCustomersWrite), h.Customer.Create)
		customers.PUT("/:id", middleware.RequirePermission(permCustomersWrite), h.Customer.Update)
	}
}

func registerDocumentRoutes(protected *gin.RouterGroup, h *Handlers) {
	documents := protected.Group("/documents")
	{
		documents.GET("", h.Document.List)
		documents.GET("/:id", h.Document.Get)
	}
}

func registerDraftRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	idempotency := middleware.Idempotency(middleware.IdempotencyConfig{
		Repo: deps.IdempotencyRepo,
		TTL:  deps.Cfg.Idempotency.TTL,
	})

	drafts := protected.Group("/drafts")
	drafts.Use(middleware.RequirePermission(permDocumentsWrite))
	{
		drafts.POST("", h.Draft.Open)
		drafts.GET("/:id", h.Draft.Get)
		drafts.DELETE("/:id", h.Draft.Discard)
		drafts.PATCH("/:id", h.Draft.Update)
		drafts.PUT("/:id/customer", h.Draft.SetCustomer)

		drafts.POST("/:id/items", h.Draft.AddItem)
		drafts.POST("/:id/items/batch", h.Draft.AddItems)
		drafts.PATCH("/:id/items/:itemId", h.Draft.UpdateItem)
		drafts.DELETE("/:id/items/:itemId", h.Draft.RemoveItem)
		drafts.DELETE("/:id/items", h.Draft.ClearItems)
		drafts.PATCH("/:id/other-fees", h.Draft.UpdateOtherFees)

		drafts.GET("/:id/transactions", h.Draft.Transactions)
		drafts.POST("/:id/transactions/:txId", h.Draft.SelectTransaction)
		drafts.DELETE("/:id/transactions/:txId", h.Draft.DeselectTransaction)

		drafts.POST("/:id/payments/load", h.Draft.LoadOutstandingInvoices)
		drafts.PUT("/:id/payments/:invoiceId", h.Draft.SetInvoicePayment)
		drafts.PUT("/:id/amount-received", h.Draft.SetAmountReceived)

		drafts.POST("/:id/save", idempotency, h.Draft.Save)
		drafts.POST("/:id/save-and-new", idempotency, h.Draft.SaveAndNew)
	}
}
