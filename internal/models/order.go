package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCanceled   OrderStatus = "canceled"
)

// ValidOrderStatus reports whether s is one of the known statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusNew, OrderStatusProcessing, OrderStatusShipped, OrderStatusCompleted, OrderStatusCanceled:
		return true
	}
	return false
}

// ShippingType represents how the order is delivered
type ShippingType string

const (
	ShippingPickup     ShippingType = "pickup"
	ShippingNovaPoshta ShippingType = "nova_poshta"
)

// Order is a checkout snapshot. Contact fields are free text from the
// checkout form; totals and per-item prices are frozen at purchase time so
// later price changes never rewrite history.
type Order struct {
	ID               uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	Status           OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'new';index"`
	ShippingType     ShippingType    `json:"shippingType" gorm:"type:varchar(20);not null;default:'pickup'"`
	FullName         string          `json:"fullName"`
	Phone            string          `json:"phone" gorm:"type:varchar(20);index"`
	Email            *string         `json:"email,omitempty"`
	City             string          `json:"city" gorm:"type:varchar(100)"`
	NovaPoshtaBranch string          `json:"novaPoshtaBranch" gorm:"type:varchar(100)"`
	Total            decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null;default:0"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusNew
	}
	if o.ShippingType == "" {
		o.ShippingType = ShippingPickup
	}
	return nil
}

// OrderItem is one cart line frozen at checkout. The product reference is
// SET NULL on product deletion; ProductName keeps the line readable after.
type OrderItem struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID       `json:"orderId" gorm:"type:uuid;not null;index"`
	ProductID       *uuid.UUID      `json:"productId,omitempty" gorm:"type:uuid"`
	Product         *Product        `json:"product,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	ProductName     string          `json:"productName" gorm:"not null"`
	Quantity        int             `json:"quantity" gorm:"not null;default:1"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase" gorm:"type:decimal(10,2);not null"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Cost is quantity times the frozen unit price.
func (i *OrderItem) Cost() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
