package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/internal/catalog"
	"github.com/minarilabs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productResolver interface {
	ResolveSellable(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations for signed-in customers, plus the merge of
// a guest session into a durable cart.
type Service interface {
	Get(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	AddLine(ctx context.Context, customerID, productID uuid.UUID, qty int) (*models.Cart, error)
	UpdateLineQuantity(ctx context.Context, customerID, productID uuid.UUID, qty int) (*models.Cart, error)
	RemoveLine(ctx context.Context, customerID, productID uuid.UUID) (*models.Cart, error)
	SelectedLines(ctx context.Context, customerID uuid.UUID, productIDs []uuid.UUID) (*models.Cart, []models.CartLine, error)
	MergeGuest(ctx context.Context, customerID uuid.UUID, sessionID string) (*models.Cart, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productResolver
	guest    *GuestStore
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productResolver, guest *GuestStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product resolver required")
	}
	if guest == nil {
		return nil, fmt.Errorf("guest store required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		guest:    guest,
	}, nil
}

// Get returns the customer's cart. A customer who never added anything gets
// an empty cart view rather than a not-found error.
func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	cart, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Cart{CustomerID: customerID}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// AddLine adds a product to the cart. Adding a product already in the cart
// merges quantities and keeps the original price snapshot.
func (s *service) AddLine(ctx context.Context, customerID, productID uuid.UUID, qty int) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.ResolveSellable(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Inventory != nil && product.Inventory.AvailableQty < qty {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient inventory for product")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.addLineTx(ctx, tx, customerID, product, qty)
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart line")
	}

	return s.Get(ctx, customerID)
}

func (s *service) addLineTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, product *models.Product, qty int) error {
	repo := s.repo.WithTx(tx)

	cart, err := repo.FindByCustomer(ctx, customerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		cart, err = repo.Create(ctx, &models.Cart{CustomerID: customerID})
		if err != nil {
			return err
		}
	}

	line, err := repo.FindLine(ctx, cart.ID, product.ID)
	if err == nil {
		return repo.IncrementLineQuantity(ctx, line.ID, qty)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	createErr := repo.CreateLine(ctx, &models.CartLine{
		CartID:         cart.ID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		ProductSKU:     product.SKU,
		Category:       product.Category,
		UnitPriceCents: catalog.EffectiveUnitPriceCents(product),
		Quantity:       qty,
	})
	if createErr == nil {
		return nil
	}

	// A concurrent add can insert the same product between the lookup and the
	// insert; the unique (cart_id, product_id) index rejects the second row.
	// Fold this add into the line that won.
	if line, err := repo.FindLine(ctx, cart.ID, product.ID); err == nil {
		return repo.IncrementLineQuantity(ctx, line.ID, qty)
	}
	return createErr
}

// UpdateLineQuantity sets a line's quantity. Zero or below removes the line.
func (s *service) UpdateLineQuantity(ctx context.Context, customerID, productID uuid.UUID, qty int) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return s.RemoveLine(ctx, customerID, productID)
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByCustomer(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return err
		}
		line, err := repo.FindLine(ctx, cart.ID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
			}
			return err
		}
		return repo.UpdateLineQuantity(ctx, line.ID, qty)
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}

	return s.Get(ctx, customerID)
}

// RemoveLine deletes a product's line from the cart. Removing a product that
// is not in the cart is a no-op.
func (s *service) RemoveLine(ctx context.Context, customerID, productID uuid.UUID) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cart.ID == uuid.Nil {
		return cart, nil
	}
	if err := s.repo.DeleteLine(ctx, cart.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	return s.Get(ctx, customerID)
}

// SelectedLines returns the cart plus the lines matching the selection.
// An empty selection means the whole cart. Every selected product must have a
// line; checkout never guesses at missing items.
func (s *service) SelectedLines(ctx context.Context, customerID uuid.UUID, productIDs []uuid.UUID) (*models.Cart, []models.CartLine, error) {
	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}
	if cart.ID == uuid.Nil || len(cart.Lines) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	if len(productIDs) == 0 {
		return cart, cart.Lines, nil
	}

	byProduct := make(map[uuid.UUID]models.CartLine, len(cart.Lines))
	for _, line := range cart.Lines {
		byProduct[line.ProductID] = line
	}

	selected := make([]models.CartLine, 0, len(productIDs))
	seen := make(map[uuid.UUID]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		line, ok := byProduct[id]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "selected product is not in the cart")
		}
		selected = append(selected, line)
	}
	return cart, selected, nil
}

// MergeGuest replays a guest session's lines into the customer's durable cart
// and clears the session. Products that disappeared or went inactive since
// the guest added them are skipped. The session is cleared afterwards, so
// replaying the merge is a no-op.
func (s *service) MergeGuest(ctx context.Context, customerID uuid.UUID, sessionID string) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	lines, err := s.guest.Lines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, guestLine := range lines {
		product, err := s.products.ResolveSellable(ctx, guestLine.ProductID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil &&
				(typed.Code() == pkgerrors.CodeNotFound || typed.Code() == pkgerrors.CodeValidation) {
				continue
			}
			return nil, err
		}
		if guestLine.Qty <= 0 {
			continue
		}
		if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.addLineTx(ctx, tx, customerID, product, guestLine.Qty)
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge guest line")
		}
	}

	if err := s.guest.Clear(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.Get(ctx, customerID)
}
