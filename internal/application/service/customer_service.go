package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/domain/entity"
	"github.com/lop-gin/factory-finance-pal/internal/domain/repository"
	"github.com/lop-gin/factory-finance-pal/pkg/apperror"
	"github.com/lop-gin/factory-finance-pal/pkg/pagination"
)

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo}
}

// CustomerInput carries the editable customer fields
type CustomerInput struct {
	Name    string
	Email   *string
	Phone   *string
	Company *string
	Street  *string
	City    *string
	State   *string
	ZipCode *string
	Country *string
}

func (in *CustomerInput) applyTo(c *entity.Customer) {
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.Company = in.Company
	c.Street = in.Street
	c.City = in.City
	c.State = in.State
	c.ZipCode = in.ZipCode
	c.Country = in.Country
}

// CreateCustomer creates a new customer owned by userID
func (s *CustomerService) CreateCustomer(ctx context.Context, userID uuid.UUID, input *CustomerInput) (*entity.Customer, error) {
	customer := &entity.Customer{UserID: userID}
	input.applyTo(customer)

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// UpdateCustomer replaces the editable fields of a customer
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, input *CustomerInput) (*entity.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	input.applyTo(customer)

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// ListCustomers lists customers with page-based pagination
func (s *CustomerService) ListCustomers(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, *pagination.Pagination, error) {
	customers, total, err := s.customerRepo.List(ctx, params, search)
	if err != nil {
		return nil, nil, err
	}
	return customers, pagination.NewPagination(params.Page, params.PerPage, total), nil
}

// ListCustomersWithCursor lists customers using keyset pagination
func (s *CustomerService) ListCustomersWithCursor(ctx context.Context, params *pagination.CursorParams, search string) ([]entity.Customer, *pagination.CursorPagination, error) {
	customers, err := s.customerRepo.ListWithCursor(ctx, params, search)
	if err != nil {
		return nil, nil, err
	}

	page, items := pagination.NewCursorPagination(customers, params.Limit,
		func(c entity.Customer) (string, time.Time) { return c.ID.String(), c.CreatedAt },
	)
	return items, page, nil
}
