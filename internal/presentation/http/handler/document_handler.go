package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/lop-gin/factory-finance-pal/internal/application/service"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/dto/request"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/dto/response"
	"github.com/lop-gin/factory-finance-pal/pkg/apperror"
)

// DocumentHandler serves saved sales documents
type DocumentHandler struct {
	documentService *service.DocumentService
}

func NewDocumentHandler(documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// List handles listing saved documents
func (h *DocumentHandler) List(c *gin.Context) {
	var q request.DocumentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.FromBindingError(err))
		return
	}

	docs, page, err := h.documentService.ListDocuments(c.Request.Context(), q.ToFilter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, "Documents retrieved successfully", docs, page)
}

// Get returns one document with its items, fees and references
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "document")
	if !ok {
		return
	}

	doc, err := h.documentService.GetDocument(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Document retrieved successfully", doc)
}
