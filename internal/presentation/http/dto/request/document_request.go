package request

import (
	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	"github.com/lop-gin/factory-finance-pal/internal/domain/repository"
	"github.com/lop-gin/factory-finance-pal/pkg/pagination"
)

// DocumentListQuery is the query string of GET /documents
type DocumentListQuery struct {
	Type       string `form:"type" binding:"omitempty,oneof=invoice receipt estimate credit_note refund_receipt payment"`
	Status     string `form:"status" binding:"omitempty,oneof=open paid"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Search     string `form:"search" binding:"omitempty,max=100"`
	SortBy     string `form:"sort_by"`
	SortOrder  string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PerPage    int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}

func (q *DocumentListQuery) ToFilter() *repository.DocumentFilterParams {
	params := &repository.DocumentFilterParams{
		Pagination: &pagination.PaginationParams{Page: q.Page, PerPage: q.PerPage},
		Search:     q.Search,
		SortBy:     q.SortBy,
		SortOrder:  q.SortOrder,
	}
	if q.Type != "" {
		t := enum.DocumentType(q.Type)
		params.DocumentType = &t
	}
	if q.Status != "" {
		s := enum.DocumentStatus(q.Status)
		params.Status = &s
	}
	if id, err := uuid.Parse(q.CustomerID); err == nil {
		params.CustomerID = &id
	}
	return params
}
