package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tireshop-service/internal/models"
)

// OrdersRepository persists checkout orders.
type OrdersRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewOrdersRepository(db *gorm.DB, log *logrus.Logger) *OrdersRepository {
	return &OrdersRepository{db: db, log: log}
}

// CreateOrder stores the order with its items and decrements stock, all in
// one transaction. Stock never goes below zero; overselling a line is
// allowed (the shop confirms availability by phone), it just drains the
// counter to zero.
func (r *OrdersRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			var product models.Product
			if err := tx.First(&product, "id = ?", *item.ProductID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					continue
				}
				return err
			}
			remaining := product.StockQuantity - item.Quantity
			if remaining < 0 {
				remaining = 0
			}
			if err := tx.Model(&models.Product{}).
				Where("id = ?", product.ID).
				Update("stock_quantity", remaining).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListOrders returns one page of orders, newest first, optionally filtered
// by status.
func (r *OrdersRepository) ListOrders(ctx context.Context, status models.OrderStatus, page, limit int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

// GetOrder loads one order with its items.
func (r *OrdersRepository) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves an order to a new lifecycle status.
func (r *OrdersRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
