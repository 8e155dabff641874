package shipments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/db/models"
)

// ShipmentRepository exposes persistence for shipments and their logs.
type ShipmentRepository interface {
	WithTx(tx *gorm.DB) ShipmentRepository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindByTracking(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
	Create(ctx context.Context, shipment *models.Shipment) error
	AppendLog(ctx context.Context, entry *models.ShipmentLogEntry) error
}

// Repository is the gorm-backed shipment repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a shipment repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ShipmentRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) withLogs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Logs", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC")
		})
}

// FindByID loads a shipment with its log in append order.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.withLogs(ctx).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// FindByTracking loads a shipment by tracking number.
func (r *Repository) FindByTracking(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.withLogs(ctx).Where("tracking_number = ?", trackingNumber).First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// FindByOrder loads the shipment attached to an order.
func (r *Repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.withLogs(ctx).Where("order_id = ?", orderID).First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// Create inserts a shipment with its initial log entries.
func (r *Repository) Create(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

// AppendLog stores one tracking log entry.
func (r *Repository) AppendLog(ctx context.Context, entry *models.ShipmentLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
