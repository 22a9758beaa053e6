package database

import (
	"context"
	"errors"
	"fmt"

	"cafeassist/internal/assistant"
	"cafeassist/internal/models"

	"github.com/jinzhu/gorm"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("record not found")

const defaultCountry = "India"

// Orders persists finished conversations as orders
type Orders struct {
	db *gorm.DB
}

// NewOrders creates an order store backed by db
func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

// CommitOrder writes the customer profile, delivery address, order, line items
// and a pending payment in one transaction.
func (o *Orders) CommitOrder(ctx context.Context, req assistant.CommitRequest) (assistant.CommittedOrder, error) {
	if err := ctx.Err(); err != nil {
		return assistant.CommittedOrder{}, err
	}
	if !req.Actor.Authenticated || req.Actor.UserID == 0 {
		return assistant.CommittedOrder{}, errors.New("order requires an authenticated user")
	}
	if len(req.Lines) == 0 {
		return assistant.CommittedOrder{}, errors.New("order has no line items")
	}

	var committed assistant.CommittedOrder
	err := WithTransaction(o.db, func(tx *gorm.DB) error {
		customer, err := upsertCustomer(tx, req.Actor, req.Details)
		if err != nil {
			return err
		}

		order := models.Order{
			CustomerID:  customer.ID,
			OrderType:   string(req.OrderType),
			TotalAmount: req.Total,
			Status:      string(models.OrderStatusPendingPayment),
		}
		if req.OrderType == assistant.OrderTypeDining {
			order.TableNo = req.Details.TableNumber
		}
		if req.OrderType == assistant.OrderTypeDelivery {
			address := models.Address{
				CustomerID: customer.ID,
				Line1:      req.Details.AddressLine1,
				City:       req.Details.City,
				PostalCode: req.Details.PostalCode,
				Country:    defaultCountry,
			}
			if err := tx.Create(&address).Error; err != nil {
				return fmt.Errorf("create address: %w", err)
			}
			order.DeliveryAddressID = &address.ID
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		lines := make([]assistant.CommittedLine, 0, len(req.Lines))
		for _, line := range req.Lines {
			item := models.OrderItem{
				OrderID:   order.ID,
				ItemID:    line.ItemID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("create order item %d: %w", line.ItemID, err)
			}
			lines = append(lines, assistant.CommittedLine{
				ItemID:               line.ItemID,
				Quantity:             line.Quantity,
				UnitPriceAtOrderTime: line.UnitPrice,
			})
		}

		payment := models.Payment{
			OrderID: order.ID,
			Amount:  req.Total,
			Status:  string(models.PaymentStatusPending),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		committed = assistant.CommittedOrder{
			OrderID:           order.ID,
			CustomerID:        customer.ID,
			OrderType:         req.OrderType,
			TableNumber:       order.TableNo,
			DeliveryAddressID: order.DeliveryAddressID,
			TotalAmount:       order.TotalAmount,
			LineItems:         lines,
			PaymentReference:  payment.Reference,
		}
		return nil
	})
	if err != nil {
		return assistant.CommittedOrder{}, err
	}
	return committed, nil
}

// upsertCustomer finds the customer profile for the user or creates it, then
// applies any name and phone collected during the conversation.
func upsertCustomer(tx *gorm.DB, actor assistant.Actor, details assistant.Details) (models.Customer, error) {
	var customer models.Customer
	err := tx.Where("user_id = ?", actor.UserID).First(&customer).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		userID := actor.UserID
		customer = models.Customer{
			UserID: &userID,
			Name:   actor.FullName,
			Phone:  details.Phone,
			Email:  actor.Email,
		}
		if customer.Name == "" {
			customer.Name = actor.Username
		}
		if details.Name != "" {
			customer.Name = details.Name
		}
		if err := tx.Create(&customer).Error; err != nil {
			return models.Customer{}, fmt.Errorf("create customer: %w", err)
		}
		return customer, nil
	case err != nil:
		return models.Customer{}, fmt.Errorf("find customer: %w", err)
	}

	updates := map[string]interface{}{}
	if details.Name != "" {
		updates["name"] = details.Name
	}
	if details.Phone != "" {
		updates["phone"] = details.Phone
	}
	if len(updates) > 0 {
		if err := tx.Model(&customer).Updates(updates).Error; err != nil {
			return models.Customer{}, fmt.Errorf("update customer: %w", err)
		}
	}
	return customer, nil
}

// GetOrder loads an order with its line items, their menu items and the payment
func (o *Orders) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var order models.Order
	err := o.db.Preload("Items.Item").Preload("Payment").
		Where("id = ?", id).First(&order).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}
	return &order, nil
}

// OrderStatus returns just the status of an order
func (o *Orders) OrderStatus(ctx context.Context, id uint) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var order models.Order
	err := o.db.Select("id, status").Where("id = ?", id).First(&order).Error
	if gorm.IsRecordNotFoundError(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load order %d: %w", id, err)
	}
	return order.Status, nil
}
