package request

import "github.com/lop-gin/factory-finance-pal/internal/application/service"

// CustomerRequest is the body of customer create and update requests
type CustomerRequest struct {
	Name    string  `json:"name" binding:"required,max=255"`
	Email   *string `json:"email" binding:"omitempty,email,max=255"`
	Phone   *string `json:"phone" binding:"omitempty,max=50"`
	Company *string `json:"company" binding:"omitempty,max=255"`
	Street  *string `json:"street" binding:"omitempty,max=255"`
	City    *string `json:"city" binding:"omitempty,max=100"`
	State   *string `json:"state" binding:"omitempty,max=100"`
	ZipCode *string `json:"zip_code" binding:"omitempty,max=20"`
	Country *string `json:"country" binding:"omitempty,max=100"`
}

func (r *CustomerRequest) ToInput() *service.CustomerInput {
	return &service.CustomerInput{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Company: r.Company,
		Street:  r.Street,
		City:    r.City,
		State:   r.State,
		ZipCode: r.ZipCode,
		Country: r.Country,
	}
}
