package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	"github.com/minarilabs/storefront-backend/pkg/pagination"
	"github.com/minarilabs/storefront-backend/pkg/types"
)

func setupOrdersRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Order{}, &models.OrderLine{}, &models.Payment{},
		&models.Shipment{}, &models.ShipmentLogEntry{}, &models.OrderAuditEntry{},
	))
	return db
}

func TestRepositoryCreatePersistsFullGraph(t *testing.T) {
	db := setupOrdersRepoDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	customerID := uuid.New()
	productID := uuid.New()

	order := &models.Order{
		OrderNumber:   "ORD-GRAPH0000001",
		CustomerID:    &customerID,
		Status:        enums.OrderStatusPending,
		SubtotalCents: 5000,
		TotalCents:    5000,
		ShippingAddress: types.Address{
			RecipientName: "Rina Wijaya",
			Street:        "Jl. Melati 4",
			City:          "Bandung",
			Province:      "Jawa Barat",
			PostalCode:    "40111",
			Country:       "ID",
		},
		Lines: []models.OrderLine{{
			ProductID:      &productID,
			ProductName:    "Ceramic Mug",
			UnitPriceCents: 2500,
			Quantity:       2,
			LineTotalCents: 5000,
		}},
		Payment: &models.Payment{
			Method:      enums.PaymentMethodBankTransfer,
			Status:      enums.PaymentStatusPending,
			AmountCents: 5000,
		},
	}

	created, err := repo.Create(ctx, order)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	loaded, err := repo.FindByNumber(ctx, "ORD-GRAPH0000001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, "Ceramic Mug", loaded.Lines[0].ProductName)
	require.NotNil(t, loaded.Payment)
	assert.Equal(t, enums.PaymentStatusPending, loaded.Payment.Status)
	assert.Equal(t, "Jawa Barat", loaded.ShippingAddress.Province)
}

func TestRepositoryListByCustomerCursor(t *testing.T) {
	db := setupOrdersRepoDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	customerID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		order := &models.Order{
			OrderNumber: "ORD-CURSOR00000" + string(rune('A'+i)),
			CustomerID:  &customerID,
			Status:      enums.OrderStatusPending,
			TotalCents:  1000,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(order).Error)
	}

	first, err := repo.ListByCustomer(ctx, customerID, 2, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	cursor := &pagination.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID}
	rest, err := repo.ListByCustomer(ctx, customerID, 2, cursor)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.True(t, rest[0].CreatedAt.Before(first[1].CreatedAt))
}

func TestRepositoryFindPendingBefore(t *testing.T) {
	db := setupOrdersRepoDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	customerID := uuid.New()
	now := time.Now().UTC()

	stale := &models.Order{
		OrderNumber: "ORD-STALE0000001",
		CustomerID:  &customerID,
		Status:      enums.OrderStatusPending,
		TotalCents:  1000,
		CreatedAt:   now.Add(-96 * time.Hour),
	}
	fresh := &models.Order{
		OrderNumber: "ORD-FRESH0000001",
		CustomerID:  &customerID,
		Status:      enums.OrderStatusPending,
		TotalCents:  1000,
		CreatedAt:   now.Add(-time.Hour),
	}
	paid := &models.Order{
		OrderNumber: "ORD-PAID00000001",
		CustomerID:  &customerID,
		Status:      enums.OrderStatusPaid,
		TotalCents:  1000,
		CreatedAt:   now.Add(-96 * time.Hour),
	}
	require.NoError(t, db.Create(stale).Error)
	require.NoError(t, db.Create(fresh).Error)
	require.NoError(t, db.Create(paid).Error)

	rows, err := repo.FindPendingBefore(ctx, now.Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stale.ID, rows[0].ID)
}

func TestRepositoryUpdateStatusAndAudit(t *testing.T) {
	db := setupOrdersRepoDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	order := &models.Order{
		OrderNumber: "ORD-AUDIT0000001",
		CustomerID:  &customerID,
		Status:      enums.OrderStatusPending,
		TotalCents:  1000,
	}
	require.NoError(t, db.Create(order).Error)

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid))
	require.NoError(t, repo.AppendAudit(ctx, &models.OrderAuditEntry{
		OrderID:   order.ID,
		OldStatus: enums.OrderStatusPending,
		NewStatus: enums.OrderStatusPaid,
		Actor:     "system",
		Timestamp: time.Now().UTC(),
	}))

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, loaded.Status)
	require.Len(t, loaded.AuditLog, 1)
	assert.Equal(t, "system", loaded.AuditLog[0].Actor)
}
