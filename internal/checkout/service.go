package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/internal/cart"
	"github.com/minarilabs/storefront-backend/internal/catalog"
	"github.com/minarilabs/storefront-backend/internal/checkout/reservation"
	"github.com/minarilabs/storefront-backend/internal/orders"
	"github.com/minarilabs/storefront-backend/internal/payments"
	"github.com/minarilabs/storefront-backend/internal/promotions"
	"github.com/minarilabs/storefront-backend/internal/shipments"
	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
	"github.com/minarilabs/storefront-backend/pkg/logger"
	"github.com/minarilabs/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartSelector interface {
	SelectedLines(ctx context.Context, customerID uuid.UUID, productIDs []uuid.UUID) (*models.Cart, []models.CartLine, error)
}

type accountResolver interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type promotionEngine interface {
	EvaluateCode(ctx context.Context, code string, lines []promotions.EligibleLine) (promotions.Evaluation, error)
	BestDiscount(ctx context.Context, lines []promotions.EligibleLine) (*promotions.Evaluation, error)
	Consume(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type settler interface {
	Settle(amountCents int, method enums.PaymentMethod) (payments.SettlementResult, error)
}

type notifier interface {
	NotifyAsync(ctx context.Context, kind enums.NotificationKind, orderID uuid.UUID, recipient string)
}

// Service turns a cart selection into an order in one transaction: stock is
// held, the discount locked in, payment settled, and a shipment opened when
// the payment settles paid.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
}

// ServiceParams wires the checkout orchestrator's collaborators.
type ServiceParams struct {
	Logger    *logger.Logger
	Tx        txRunner
	Carts     cartSelector
	CartRepo  cart.CartRepository
	Catalog   catalog.ProductRepository
	Accounts  accountResolver
	Promos    promotionEngine
	Settler   settler
	Orders    orders.OrderRepository
	Estimator *shipments.Estimator
	Notifier  notifier
}

type service struct {
	logg      *logger.Logger
	tx        txRunner
	carts     cartSelector
	cartRepo  cart.CartRepository
	catalog   catalog.ProductRepository
	accounts  accountResolver
	promos    promotionEngine
	settler   settler
	orders    orders.OrderRepository
	estimator *shipments.Estimator
	notifier  notifier
	validate  *validator.Validate
	now       func() time.Time
}

// NewService builds the checkout orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart selector required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account resolver required")
	}
	if params.Promos == nil {
		return nil, fmt.Errorf("promotion engine required")
	}
	if params.Settler == nil {
		return nil, fmt.Errorf("settler required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Estimator == nil {
		return nil, fmt.Errorf("arrival estimator required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		logg:      params.Logger,
		tx:        params.Tx,
		carts:     params.Carts,
		cartRepo:  params.CartRepo,
		catalog:   params.Catalog,
		accounts:  params.Accounts,
		promos:    params.Promos,
		settler:   params.Settler,
		orders:    params.Orders,
		estimator: params.Estimator,
		notifier:  params.Notifier,
		validate:  validator.New(),
		now:       time.Now,
	}, nil
}

// PlaceOrderInput captures one checkout request. An empty selection means the
// whole cart; an empty shipping address falls back to the account's default.
type PlaceOrderInput struct {
	CustomerID         uuid.UUID
	SelectedProductIDs []uuid.UUID
	PaymentMethod      enums.PaymentMethod
	ShippingMethod     enums.ShippingMethod
	ShippingAddress    *types.Address
	PromoCode          string
}

// PlaceOrder runs the checkout flow. Stock is held with conditional
// decrements and any shortfall aborts the whole attempt; a promotion whose
// usage limit is consumed mid-flight downgrades to no discount instead of
// failing the order.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	shippingMethod := input.ShippingMethod
	if shippingMethod == "" {
		shippingMethod = enums.ShippingMethodStandard
	}

	account, err := s.accounts.Get(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	address, err := s.resolveAddress(input.ShippingAddress, account)
	if err != nil {
		return nil, err
	}

	crt, selected, err := s.carts.SelectedLines(ctx, input.CustomerID, input.SelectedProductIDs)
	if err != nil {
		return nil, err
	}

	evaluation, err := s.chooseDiscount(ctx, input.PromoCode, selected)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err = s.assembleOrder(ctx, tx, assembleInput{
			account:        account,
			cart:           crt,
			lines:          selected,
			address:        address,
			paymentMethod:  input.PaymentMethod,
			shippingMethod: shippingMethod,
			evaluation:     evaluation,
		})
		return err
	}); err != nil {
		return nil, err
	}

	s.notifier.NotifyAsync(ctx, enums.NotificationOrderCreated, order.ID, account.Email)

	logCtx := s.logg.WithOrderID(s.logg.WithCustomerID(ctx, account.ID.String()), order.ID.String())
	s.logg.Info(logCtx, "order placed")
	return order, nil
}

type assembleInput struct {
	account        *models.Account
	cart           *models.Cart
	lines          []models.CartLine
	address        types.Address
	paymentMethod  enums.PaymentMethod
	shippingMethod enums.ShippingMethod
	evaluation     *promotions.Evaluation
}

func (s *service) assembleOrder(ctx context.Context, tx *gorm.DB, input assembleInput) (*models.Order, error) {
	if err := s.recheckProducts(ctx, tx, input.lines); err != nil {
		return nil, err
	}
	if err := s.holdStock(ctx, tx, input.lines); err != nil {
		return nil, err
	}

	discountCents := 0
	var promotionID *uuid.UUID
	var promoCode *string
	if input.evaluation != nil {
		consumed, err := s.promos.Consume(ctx, tx, input.evaluation.Promotion.ID)
		if err != nil {
			return nil, err
		}
		// The last usage went to a concurrent checkout; the order still
		// goes through, just without the discount.
		if consumed {
			discountCents = input.evaluation.DiscountCents
			id := input.evaluation.Promotion.ID
			code := input.evaluation.Promotion.Code
			promotionID = &id
			promoCode = &code
		}
	}

	subtotal := 0
	orderLines := make([]models.OrderLine, 0, len(input.lines))
	for _, line := range input.lines {
		lineTotal := line.SubtotalCents()
		subtotal += lineTotal
		productID := line.ProductID
		orderLines = append(orderLines, models.OrderLine{
			ProductID:      &productID,
			ProductName:    line.ProductName,
			ProductSKU:     line.ProductSKU,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
			LineTotalCents: lineTotal,
		})
	}
	if discountCents > subtotal {
		discountCents = subtotal
	}
	total := subtotal - discountCents

	settlement, err := s.settler.Settle(total, input.paymentMethod)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	customerID := input.account.ID
	order := &models.Order{
		OrderNumber:     NewOrderNumber(),
		CustomerID:      &customerID,
		Status:          enums.OrderStatusPending,
		SubtotalCents:   subtotal,
		DiscountCents:   discountCents,
		TotalCents:      total,
		ShippingAddress: input.address.Clone(),
		PromotionID:     promotionID,
		PromoCode:       promoCode,
		Lines:           orderLines,
		Payment: &models.Payment{
			Method:        input.paymentMethod,
			Status:        settlement.Status,
			AmountCents:   total,
			TransactionID: settlement.TransactionID,
			SettledAt:     settlement.SettledAt,
		},
	}

	if settlement.Status == enums.PaymentStatusPaid {
		order.Status = enums.OrderStatusPaid
		order.AuditLog = []models.OrderAuditEntry{{
			OldStatus: enums.OrderStatusPending,
			NewStatus: enums.OrderStatusPaid,
			Actor:     "system",
			Note:      "payment settled at checkout",
			Timestamp: now,
		}}
	}

	// A shipment exists at creation only when the payment settled. Cash on
	// delivery and failed settlements leave the order without one until ops
	// dispatches it.
	if settlement.Status == enums.PaymentStatusPaid {
		order.Shipment = &models.Shipment{
			TrackingNumber:   shipments.NewTrackingNumber(),
			Method:           input.shippingMethod,
			DeliveryAddress:  input.address.Clone(),
			EstimatedArrival: s.estimator.EstimateArrival(input.shippingMethod, input.address, now),
			Logs: []models.ShipmentLogEntry{{
				Location:    "warehouse",
				Description: "Shipment created",
				Status:      enums.ShipmentStatusAwaitingPickup,
				Timestamp:   now,
			}},
		}
	}

	created, err := s.orders.WithTx(tx).Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	consumed := make([]uuid.UUID, 0, len(input.lines))
	for _, line := range input.lines {
		consumed = append(consumed, line.ProductID)
	}
	if err := s.cartRepo.WithTx(tx).DeleteLines(ctx, input.cart.ID, consumed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume cart lines")
	}

	return created, nil
}

func (s *service) resolveAddress(provided *types.Address, account *models.Account) (types.Address, error) {
	address := provided
	if address == nil || address.IsZero() {
		address = account.DefaultAddress
	}
	if address == nil || address.IsZero() {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeValidation, "a shipping address is required")
	}
	if err := s.validate.Struct(address); err != nil {
		return types.Address{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	return *address, nil
}

func (s *service) chooseDiscount(ctx context.Context, promoCode string, lines []models.CartLine) (*promotions.Evaluation, error) {
	eligible := make([]promotions.EligibleLine, 0, len(lines))
	for _, line := range lines {
		eligible = append(eligible, promotions.EligibleLine{
			Category:      line.Category,
			SubtotalCents: line.SubtotalCents(),
		})
	}

	// A bad code never blocks the purchase; the order goes through at full
	// price and the reason is logged for support.
	if code := strings.TrimSpace(promoCode); code != "" {
		evaluation, err := s.promos.EvaluateCode(ctx, code, eligible)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				s.logg.Info(s.logg.WithField(ctx, "promo_code", code), "unknown promotion code ignored")
				return nil, nil
			}
			return nil, err
		}
		if !evaluation.Eligible {
			s.logg.Info(s.logg.WithField(ctx, "reason", evaluation.Reason), "promotion code not applied")
			return nil, nil
		}
		return &evaluation, nil
	}

	best, err := s.promos.BestDiscount(ctx, eligible)
	if err != nil {
		return nil, err
	}
	return best, nil
}

// recheckProducts re-resolves every selected product inside the transaction.
// A product deactivated or deleted after it entered the cart aborts checkout.
func (s *service) recheckProducts(ctx context.Context, tx *gorm.DB, lines []models.CartLine) error {
	repo := s.catalog.WithTx(tx)
	for _, line := range lines {
		product, err := repo.FindByID(ctx, line.ProductID)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is no longer available", line.ProductName))
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is no longer available", line.ProductName))
		}
	}
	return nil
}

func (s *service) holdStock(ctx context.Context, tx *gorm.DB, lines []models.CartLine) error {
	requests := make([]reservation.InventoryReservationRequest, 0, len(lines))
	for _, line := range lines {
		requests = append(requests, reservation.InventoryReservationRequest{
			LineID:    line.ID,
			ProductID: line.ProductID,
			Qty:       line.Quantity,
		})
	}

	results, err := reservation.ReserveInventory(ctx, tx, requests)
	if err != nil {
		return err
	}

	failed := map[string]any{}
	for i, result := range results {
		if !result.Reserved {
			failed[lines[i].ProductName] = result.Reason
		}
	}
	if len(failed) > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for one or more items").
			WithDetails(failed)
	}
	return nil
}

// NewOrderNumber mints a customer-facing order number. The number carries a
// full uuid, so two numbers collide only if the uuids themselves do.
func NewOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(raw)
}
