package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"egas-delivery/internal/domain"

	"github.com/google/uuid"
)

const MaxProductNameLen = 100

// Product is a catalog entry. Price is in minor units; weight in kilograms.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Weight      float64   `json:"weight"`
	Image       string    `json:"image"`
	Stock       int       `json:"stock"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewProduct(id, name, description string, price int64, weight float64, stock int) (*Product, error) {
	if id == "" {
		id = uuid.NewString()
	}
	p := &Product{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Price:       price,
		Weight:      weight,
		Stock:       stock,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	p.UpdatedAt = p.CreatedAt
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Product) Validate() error {
	if p.Name == "" || utf8.RuneCountInString(p.Name) > MaxProductNameLen {
		return domain.ErrInvalidArgument
	}
	if p.Price < 0 || p.Stock < 0 || p.Weight < 0 {
		return domain.ErrInvalidArgument
	}
	return nil
}

func (p *Product) InStock(qty int) bool { return qty > 0 && p.Stock >= qty }
