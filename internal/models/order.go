package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const OrderStatusPending = "pending"

// SalesOrder references its customer, product and sales rep by id only.
// TotalAmount is always derived from the product price at the time the
// quantity was last set.
type SalesOrder struct {
	ID          uint            `gorm:"primaryKey"`
	Quantity    int             `gorm:"not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Status      string          `gorm:"size:50;not null"`
	CreatedAt   time.Time       `gorm:"not null"`

	CustomerID uint  `gorm:"not null;index"`
	ProductID  uint  `gorm:"not null;index"`
	SalesRepID *uint `gorm:"index"`
}
