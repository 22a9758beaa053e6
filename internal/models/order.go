package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Customer is the ordering profile linked to a user account
type Customer struct {
	gorm.Model
	UserID *uint  `gorm:"unique_index"`
	Name   string `gorm:"size:150"`
	Phone  string `gorm:"size:20"`
	Email  string `gorm:"size:254"`
}

// Address is a delivery destination owned by a customer
type Address struct {
	gorm.Model
	CustomerID uint   `gorm:"index;not null"`
	Line1      string `gorm:"size:255;not null"`
	Line2      string `gorm:"size:255"`
	City       string `gorm:"size:100;not null"`
	State      string `gorm:"size:100"`
	PostalCode string `gorm:"size:20;not null"`
	Country    string `gorm:"size:80;default:'India'"`
	IsDefault  bool
}

// Order represents a placed customer order
type Order struct {
	gorm.Model
	CustomerID        uint   `gorm:"index;not null"`
	OrderType         string `gorm:"size:20;not null"`
	TableNo           string `gorm:"size:10"`
	DeliveryAddressID *uint
	TotalAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status            string          `gorm:"size:30;not null"`
	Items             []OrderItem     `gorm:"foreignkey:OrderID"`
	Payment           *Payment        `gorm:"foreignkey:OrderID"`
}

// OrderItem is one line of an order with the unit price frozen at order time
type OrderItem struct {
	gorm.Model
	OrderID   uint            `gorm:"index;not null"`
	ItemID    uint            `gorm:"not null"`
	Item      Item            `gorm:"association_autoupdate:false;association_autocreate:false;association_save_reference:false"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// Payment tracks verification of an order's payment
type Payment struct {
	gorm.Model
	OrderID    uint            `gorm:"unique_index;not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reference  string          `gorm:"size:100"`
	Status     string          `gorm:"size:20;not null"`
	VerifiedAt *time.Time
}

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusReady          OrderStatus = "READY"
	OrderStatusCompleted      OrderStatus = "COMPLETED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// PaymentStatus represents the verification state of a payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusVerified PaymentStatus = "VERIFIED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)
