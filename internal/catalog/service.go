package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
)

// Service exposes catalog operations. Carts and checkout resolve products
// through it so inactive or deleted products are rejected in one place.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ResolveSellable(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, category string) ([]models.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
}

type service struct {
	repo ProductRepository
}

// NewService builds a catalog service.
func NewService(repo ProductRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// CreateProductInput captures the fields needed to register a product.
type CreateProductInput struct {
	Name               string
	SKU                string
	Category           string
	PriceCents         int
	DiscountPriceCents *int
	InitialStock       int
}

// Get returns the product with its inventory, active or not.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// ResolveSellable returns the product only if it can currently be sold.
func (s *service) ResolveSellable(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	return product, nil
}

// List returns active products, optionally filtered by category.
func (s *service) List(ctx context.Context, category string) ([]models.Product, error) {
	return s.repo.ListActive(ctx, strings.TrimSpace(category))
}

// Create registers a product and its inventory row.
func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	sku := strings.TrimSpace(input.SKU)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product sku is required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
	}
	if input.DiscountPriceCents != nil && (*input.DiscountPriceCents < 0 || *input.DiscountPriceCents >= input.PriceCents) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount price must be below the list price")
	}
	if input.InitialStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial stock cannot be negative")
	}

	product := &models.Product{
		Name:               name,
		SKU:                sku,
		Category:           strings.TrimSpace(input.Category),
		PriceCents:         input.PriceCents,
		DiscountPriceCents: input.DiscountPriceCents,
		IsActive:           true,
		Inventory:          &models.InventoryItem{AvailableQty: input.InitialStock},
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

// EffectiveUnitPriceCents is the price a cart line snapshots at add time:
// the discount price when one is set, otherwise the list price.
func EffectiveUnitPriceCents(product *models.Product) int {
	if product.DiscountPriceCents != nil {
		return *product.DiscountPriceCents
	}
	return product.PriceCents
}
