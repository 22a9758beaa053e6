package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"cafeassist/internal/assistant"
	"cafeassist/internal/auth"
	"cafeassist/internal/database"
	"cafeassist/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const unavailableMessage = "AI assistant is unavailable right now. Please try again."

type chatRequest struct {
	Message string `json:"message"`
}

// Conversation handlers

// Chat runs one assistant turn for the caller's session
func (a *AssistantAPI) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body."})
		return
	}
	message, err := assistant.ValidateMessage(req.Message)
	if err != nil {
		a.fail(c, "validate message", err)
		return
	}

	key := a.sessionKey(c)
	unlock := a.locks.Lock(key)
	defer unlock()

	ctx := c.Request.Context()
	actor := auth.ActorFrom(c)

	st, err := a.sessions.Load(ctx, key)
	if err != nil {
		a.fail(c, "load session", err)
		return
	}
	reply, next, err := a.engine.Handle(ctx, st, actor, message)
	if err != nil {
		a.fail(c, "handle message", err)
		return
	}
	if err := a.sessions.Save(ctx, key, userIDOf(actor), next); err != nil {
		if reply.OrderID == 0 {
			a.fail(c, "save session", err)
			return
		}
		// The order is committed; a stale cart must not be confirmed again.
		a.logger.Error("save session after order",
			zap.Uint("order_id", reply.OrderID), zap.String("session", key), zap.Error(err))
		if err := a.sessions.Reset(ctx, key); err != nil {
			a.logger.Error("reset session after order",
				zap.Uint("order_id", reply.OrderID), zap.String("session", key), zap.Error(err))
		}
	}

	a.logger.Debug("chat turn",
		zap.String("session", key),
		zap.String("intent", string(reply.Intent)),
		zap.Bool("authenticated", actor.Authenticated),
	)
	c.JSON(http.StatusOK, reply)
}

// ResetSession starts the caller's conversation over
func (a *AssistantAPI) ResetSession(c *gin.Context) {
	key := a.sessionKey(c)
	unlock := a.locks.Lock(key)
	defer unlock()

	if err := a.sessions.Reset(c.Request.Context(), key); err != nil {
		a.fail(c, "reset session", err)
		return
	}
	a.monitor.Add("sessions_reset", 1)
	c.JSON(http.StatusOK, gin.H{"message": "Conversation reset"})
}

// GetState returns the caller's current conversation state
func (a *AssistantAPI) GetState(c *gin.Context) {
	key := a.sessionKey(c)
	unlock := a.locks.Lock(key)
	defer unlock()

	st, err := a.sessions.Load(c.Request.Context(), key)
	if err != nil {
		a.fail(c, "load session", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GetStats returns the in-memory activity counters
func (a *AssistantAPI) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.monitor.GetMetrics())
}

// ResetStats clears the in-memory activity counters. Only signed-in
// callers may do this.
func (a *AssistantAPI) ResetStats(c *gin.Context) {
	actor := auth.ActorFrom(c)
	if !actor.Authenticated {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
		return
	}
	a.monitor.Reset()
	a.logger.Info("stats reset", zap.String("user", actor.Username))
	c.JSON(http.StatusOK, gin.H{"message": "Stats reset"})
}

// Storefront handlers

// GetMenu returns the active menu
func (a *AssistantAPI) GetMenu(c *gin.Context) {
	menu, err := a.menu.ActiveItems(c.Request.Context())
	if err != nil {
		a.logger.Error("load menu", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Menu is unavailable right now"})
		return
	}
	c.JSON(http.StatusOK, menu)
}

// GetOrder returns a committed order with its lines and payment
func (a *AssistantAPI) GetOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := a.orders.GetOrder(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		a.logger.Error("load order", zap.Uint("order_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Order lookup failed"})
		return
	}
	c.JSON(http.StatusOK, newOrderView(order))
}

// GetOrderStatus returns only the status of an order
func (a *AssistantAPI) GetOrderStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	status, err := a.orders.OrderStatus(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		a.logger.Error("load order status", zap.Uint("order_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Order lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// Private helper methods

// fail reports a turn failure. Input errors are the client's; anything else
// is logged and hidden behind a generic message.
func (a *AssistantAPI) fail(c *gin.Context, op string, err error) {
	if errors.Is(err, assistant.ErrEmptyMessage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'message'."})
		return
	}
	if errors.Is(err, assistant.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.logger.Error("assistant request failed", zap.String("op", op), zap.Error(err))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": unavailableMessage})
}

func userIDOf(actor assistant.Actor) *uint {
	if !actor.Authenticated {
		return nil
	}
	id := actor.UserID
	return &id
}

func orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return 0, false
	}
	return uint(id), true
}

type orderLineView struct {
	ItemID    uint            `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type paymentView struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
}

type orderView struct {
	ID                uint            `json:"id"`
	CustomerID        uint            `json:"customer_id"`
	OrderType         string          `json:"order_type"`
	TableNumber       string          `json:"table_number"`
	DeliveryAddressID *uint           `json:"delivery_address_id"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	Items             []orderLineView `json:"items"`
	Payment           *paymentView    `json:"payment,omitempty"`
}

func newOrderView(o *models.Order) orderView {
	view := orderView{
		ID:                o.ID,
		CustomerID:        o.CustomerID,
		OrderType:         o.OrderType,
		TableNumber:       o.TableNo,
		DeliveryAddressID: o.DeliveryAddressID,
		TotalAmount:       o.TotalAmount,
		Status:            o.Status,
		CreatedAt:         o.CreatedAt,
		Items:             make([]orderLineView, 0, len(o.Items)),
	}
	for _, line := range o.Items {
		view.Items = append(view.Items, orderLineView{
			ItemID:    line.ItemID,
			Name:      line.Item.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	if o.Payment != nil {
		view.Payment = &paymentView{
			Amount:    o.Payment.Amount,
			Reference: o.Payment.Reference,
			Status:    o.Payment.Status,
		}
	}
	return view
}
