package assistant

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CommitRequest is everything needed to persist a finished order
type CommitRequest struct {
	Actor     Actor
	OrderType OrderType
	Details   Details
	Lines     []CartLine
	Total     decimal.Decimal
}

// CommittedLine is a persisted line item with its price at order time
type CommittedLine struct {
	ItemID               uint            `json:"item_id"`
	Quantity             int             `json:"quantity"`
	UnitPriceAtOrderTime decimal.Decimal `json:"unit_price_at_order_time"`
}

// CommittedOrder describes an order after it has been handed to the order subsystem
type CommittedOrder struct {
	OrderID           uint            `json:"order_id"`
	CustomerID        uint            `json:"customer_id"`
	OrderType         OrderType       `json:"order_type"`
	TableNumber       string          `json:"table_number"`
	DeliveryAddressID *uint           `json:"delivery_address_id"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	LineItems         []CommittedLine `json:"line_items"`
	PaymentReference  string          `json:"payment_reference"`
}

// Committer writes customer, address, order, line items and a pending
// payment as one unit. Either everything is stored or nothing is.
type Committer interface {
	CommitOrder(ctx context.Context, req CommitRequest) (CommittedOrder, error)
}

// guessOrderType infers the order type from a message when none was chosen
func guessOrderType(text string) OrderType {
	if containsAny(text, deliveryKeywords...) {
		return OrderTypeDelivery
	}
	return OrderTypeDining
}

// finalize places the order if the cart, identity and checkout details allow it.
// explicit marks a customer "confirm" as opposed to the end of detail collection.
func (e *Engine) finalize(t *turn, explicit bool) (Reply, error) {
	st := t.state
	if len(st.Items) == 0 {
		return text("Add at least one item before confirming your order."), nil
	}
	if !t.actor.Authenticated {
		return Reply{Text: "Please log in so I can place the order for you.", RequireLogin: true}, nil
	}
	if explicit {
		st.Confirmed = true
	}

	orderType := st.OrderType
	if orderType == OrderTypeUnset {
		orderType = guessOrderType(t.text)
	}
	st.OrderType = orderType

	if missing := st.CollectedDetails.Missing(orderType); len(missing) > 0 {
		st.PendingFields = missing
		return textf("I need your %s to continue.", missing[0].Label()), nil
	}

	req := CommitRequest{
		Actor:     t.actor,
		OrderType: orderType,
		Details:   st.CollectedDetails,
		Lines:     append([]CartLine{}, st.Items...),
		Total:     st.Total(),
	}
	order, err := e.committer.CommitOrder(t.ctx, req)
	if err != nil {
		e.recorder.CommitFailed()
		e.logger.Error("order commit failed",
			zap.Uint("user_id", t.actor.UserID),
			zap.String("order_type", string(orderType)),
			zap.String("total", req.Total.String()),
			zap.Error(err),
		)
		return Reply{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	e.recorder.OrderCommitted(orderType, req.Total)
	e.logger.Info("order placed",
		zap.Uint("order_id", order.OrderID),
		zap.Uint("customer_id", order.CustomerID),
		zap.String("order_type", string(orderType)),
		zap.String("total", req.Total.String()),
	)
	st.Reset()
	return Reply{
		Text:    fmt.Sprintf("Order #%d is placed! Thank you for ordering; our team will take care of the rest.", order.OrderID),
		OrderID: order.OrderID,
	}, nil
}
