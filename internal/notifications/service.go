package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
	"github.com/minarilabs/storefront-backend/pkg/logger"
)

// Service records outbound customer notifications. Recording is best effort:
// checkout and the status flows call Notify after their transaction commits
// and a failure only logs, it never unwinds an order.
type Service interface {
	Notify(ctx context.Context, kind enums.NotificationKind, orderID uuid.UUID, recipient string) error
	NotifyAsync(ctx context.Context, kind enums.NotificationKind, orderID uuid.UUID, recipient string)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Notification, error)
	ExistsForOrder(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind) (bool, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires notifications dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Notify persists one notification record.
func (s *service) Notify(ctx context.Context, kind enums.NotificationKind, orderID uuid.UUID, recipient string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}

	notification := &models.Notification{
		Kind:      kind,
		OrderID:   orderID,
		Recipient: recipient,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record notification")
	}
	return nil
}

// NotifyAsync records the notification without blocking the caller. Errors
// are logged and dropped.
func (s *service) NotifyAsync(ctx context.Context, kind enums.NotificationKind, orderID uuid.UUID, recipient string) {
	logCtx := s.logg.WithOrderID(context.WithoutCancel(ctx), orderID.String())
	go func() {
		if err := s.Notify(logCtx, kind, orderID, recipient); err != nil {
			s.logg.Error(logCtx, "notification delivery failed", err)
		}
	}()
}

// ListForOrder returns the notifications recorded for an order, oldest first.
func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Notification, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

// ExistsForOrder reports whether a notification of the given kind was already
// recorded for an order.
func (s *service) ExistsForOrder(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	exists, err := s.repo.ExistsForOrder(ctx, orderID, kind)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check notification existence")
	}
	return exists, nil
}
