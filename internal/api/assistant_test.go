package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cafeassist/internal/assistant"
	"cafeassist/internal/auth"
	"cafeassist/internal/config"
	"cafeassist/internal/database"
	"cafeassist/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t       *testing.T
	db      *gorm.DB
	api     *AssistantAPI
	auth    *auth.Manager
	monitor *monitoring.Monitor
	cookies []*http.Cookie
}

func newHarness(t *testing.T, engine Conversations) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	_, err = database.Seed(db)
	require.NoError(t, err)

	catalog := database.NewCatalog(db)
	orders := database.NewOrders(db)
	monitor := monitoring.NewMonitor()
	if engine == nil {
		engine = assistant.NewEngine(catalog, orders, assistant.WithRecorder(monitoring.NewCollector(monitor)))
	}
	manager := auth.NewManager(config.AuthConfig{
		JWTSecret: "test-secret-key-for-testing-only",
		Issuer:    "cafeassist",
		TokenTTL:  time.Hour,
	}, database.NewUsers(db))

	return &harness{
		t:       t,
		db:      db,
		auth:    manager,
		monitor: monitor,
		api: NewAssistantAPI(Deps{
			Engine:   engine,
			Sessions: database.NewSessions(db),
			Menu:     catalog,
			Orders:   orders,
			Auth:     manager,
			Monitor:  monitor,
		}),
	}
}

func (h *harness) token(username string) string {
	h.t.Helper()
	user, err := database.NewUsers(h.db).Ensure(context.Background(), username, username+"@example.com", "")
	require.NoError(h.t, err)
	token, err := h.auth.Issue(user)
	require.NoError(h.t, err)
	return token
}

func (h *harness) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	h.api.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		h.cookies = cookies
	}
	return w
}

func (h *harness) chat(message, bearer string) assistant.Reply {
	h.t.Helper()
	body, err := json.Marshal(map[string]string{"message": message})
	require.NoError(h.t, err)
	w := h.do(http.MethodPost, "/api/v1/assistant/chat", string(body), bearer)
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())

	var reply assistant.Reply
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &reply))
	return reply
}

func (h *harness) state() assistant.State {
	h.t.Helper()
	w := h.do(http.MethodGet, "/api/v1/assistant/state", "", "")
	require.Equal(h.t, http.StatusOK, w.Code)
	st, err := assistant.UnmarshalState(w.Body.Bytes())
	require.NoError(h.t, err)
	return st
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

type failingEngine struct {
	err error
}

func (f failingEngine) Handle(_ context.Context, st assistant.State, _ assistant.Actor, _ string) (assistant.Reply, assistant.State, error) {
	return assistant.Reply{}, st, f.err
}

// placingEngine reports a committed order and an emptied cart on every turn
type placingEngine struct {
	orderID uint
}

func (p placingEngine) Handle(_ context.Context, _ assistant.State, _ assistant.Actor, _ string) (assistant.Reply, assistant.State, error) {
	return assistant.Reply{Text: "Order placed", OrderID: p.orderID}, assistant.NewState(), nil
}

// brokenSaves fails every Save while Load and Reset reach the real store
type brokenSaves struct {
	SessionStore
	resets int
}

func (b *brokenSaves) Save(context.Context, string, *uint, assistant.State) error {
	return errors.New("database is locked")
}

func (b *brokenSaves) Reset(ctx context.Context, key string) error {
	b.resets++
	return b.SessionStore.Reset(ctx, key)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestChat_RejectsBadRequests(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", "{message:", "Invalid JSON body."},
		{"empty body", "", "Invalid JSON body."},
		{"wrong type", `{"message": 5}`, "Invalid JSON body."},
		{"missing message", `{}`, "Missing 'message'."},
		{"blank message", `{"message": "   "}`, "Missing 'message'."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/api/v1/assistant/chat", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, errorOf(t, w))
		})
	}
}

func TestChat_BlankMessageSkipsEngine(t *testing.T) {
	h := newHarness(t, failingEngine{err: assistant.ErrPersistence})

	w := h.do(http.MethodPost, "/api/v1/assistant/chat", `{"message":" \t "}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing 'message'.", errorOf(t, w))
}

func TestChat_ReplacesMalformedSessionCookie(t *testing.T) {
	h := newHarness(t, nil)

	for _, bad := range []string{"not-a-session", strings.Repeat("k", 200)} {
		h.cookies = []*http.Cookie{{Name: DefaultSessionCookie, Value: bad}}
		w := h.do(http.MethodPost, "/api/v1/assistant/chat", `{"message":"order 1 samosa"}`, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		require.Len(t, h.cookies, 1)
		assert.NotEqual(t, bad, h.cookies[0].Value)
		_, err := uuid.Parse(h.cookies[0].Value)
		assert.NoError(t, err)
		assert.Len(t, h.state().Items, 1)
	}
}

func TestChat_SaveFailureAfterOrderKeepsOrderID(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	key := uuid.NewString()

	store := database.NewSessions(h.db)
	cart := assistant.NewState()
	cart.AddItem(2, "Samosa", 1, decimal.NewFromInt(30))
	require.NoError(t, store.Save(ctx, key, nil, cart))

	sessions := &brokenSaves{SessionStore: store}
	h.api = NewAssistantAPI(Deps{Engine: placingEngine{orderID: 7}, Sessions: sessions})
	h.cookies = []*http.Cookie{{Name: DefaultSessionCookie, Value: key}}

	reply := h.chat("confirm", "")
	assert.Equal(t, uint(7), reply.OrderID)
	assert.Equal(t, 1, sessions.resets)

	st, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, st.Items)
}

func TestChat_SaveFailureWithoutOrderIsServerError(t *testing.T) {
	h := newHarness(t, nil)
	sessions := &brokenSaves{SessionStore: database.NewSessions(h.db)}
	h.api = NewAssistantAPI(Deps{Engine: placingEngine{}, Sessions: sessions})

	w := h.do(http.MethodPost, "/api/v1/assistant/chat", `{"message":"hello"}`, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, unavailableMessage, errorOf(t, w))
	assert.Zero(t, sessions.resets)
}

func TestChat_AssignsSessionCookie(t *testing.T) {
	h := newHarness(t, nil)
	h.chat("hello", "")

	require.Len(t, h.cookies, 1)
	assert.Equal(t, DefaultSessionCookie, h.cookies[0].Name)
	assert.NotEmpty(t, h.cookies[0].Value)
	assert.True(t, h.cookies[0].HttpOnly)
}

func TestChat_StateFollowsSession(t *testing.T) {
	h := newHarness(t, nil)

	reply := h.chat("order 2 cappuccino", "")
	assert.Contains(t, reply.Text, "Total: ₹160.")

	st := h.state()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Cappuccino", st.Items[0].Name)
	assert.Equal(t, 2, st.Items[0].Quantity)

	// A different client starts with an empty cart.
	other := &harness{t: t, db: h.db, api: h.api, auth: h.auth}
	assert.Empty(t, other.state().Items)
}

func TestChat_AnonymousConfirmRequiresLogin(t *testing.T) {
	h := newHarness(t, nil)
	h.chat("order 1 samosa", "")

	reply := h.chat("confirm", "")
	assert.True(t, reply.RequireLogin)
	assert.Zero(t, reply.OrderID)
	assert.Len(t, h.state().Items, 1)
}

func TestChat_AuthenticatedCheckout(t *testing.T) {
	h := newHarness(t, nil)
	token := h.token("asha")

	h.chat("order 2 cappuccino and 1 samosa", token)
	assert.Equal(t, "I need your name to continue.", h.chat("confirm, we will dine in", token).Text)
	h.chat("Asha", token)
	h.chat("9876543210", token)
	reply := h.chat("table 3", token)
	require.NotZero(t, reply.OrderID)
	assert.Empty(t, h.state().Items)

	w := h.do(http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", reply.OrderID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var order struct {
		OrderType   string          `json:"order_type"`
		TableNumber string          `json:"table_number"`
		TotalAmount decimal.Decimal `json:"total_amount"`
		Status      string          `json:"status"`
		Items       []struct {
			Name     string `json:"name"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
		Payment struct {
			Status string `json:"status"`
		} `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, "DINING", order.OrderType)
	assert.Equal(t, "3", order.TableNumber)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(190)), order.TotalAmount.String())
	assert.Equal(t, "PENDING_PAYMENT", order.Status)
	assert.Equal(t, "PENDING", order.Payment.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Cappuccino", order.Items[0].Name)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/status", reply.OrderID), "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"PENDING_PAYMENT"}`, w.Body.String())

	stats := h.do(http.MethodGet, "/api/v1/assistant/stats", "", "")
	assert.Contains(t, stats.Body.String(), `"orders_DINING":1`)
}

func TestChat_InvalidTokenIsRejected(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(http.MethodPost, "/api/v1/assistant/chat", `{"message":"hi"}`, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChat_EngineFailure(t *testing.T) {
	h := newHarness(t, failingEngine{err: fmt.Errorf("%w: disk full", assistant.ErrPersistence)})

	w := h.do(http.MethodPost, "/api/v1/assistant/chat", `{"message":"confirm"}`, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, unavailableMessage, errorOf(t, w))
	assert.NotContains(t, w.Body.String(), "disk full")
}

func TestChat_InputErrorIsClientError(t *testing.T) {
	h := newHarness(t, failingEngine{err: assistant.ErrInvalidInput})

	w := h.do(http.MethodPost, "/api/v1/assistant/chat", `{"message":"hi"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetSession(t *testing.T) {
	h := newHarness(t, nil)
	h.chat("order 1 samosa", "")
	require.Len(t, h.state().Items, 1)

	w := h.do(http.MethodPost, "/api/v1/assistant/session", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, assistant.NewState(), h.state())

	// Resetting a brand new session also succeeds.
	fresh := &harness{t: t, db: h.db, api: h.api, auth: h.auth}
	assert.Equal(t, http.StatusOK, fresh.do(http.MethodPost, "/api/v1/assistant/session", "", "").Code)
}

func TestGetMenu(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(http.MethodGet, "/api/v1/menu", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var menu []assistant.MenuEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &menu))
	assert.Len(t, menu, 24)
	assert.Equal(t, "Beverages", menu[0].Category())
}

func TestGetOrder_NotFound(t *testing.T) {
	h := newHarness(t, nil)

	for _, path := range []string{"/api/v1/orders/999", "/api/v1/orders/abc", "/api/v1/orders/0/status", "/api/v1/orders/999/status"} {
		w := h.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "Order not found", errorOf(t, w))
	}
}

func TestGetStats(t *testing.T) {
	h := newHarness(t, nil)
	h.chat("hello", "")

	w := h.do(http.MethodGet, "/api/v1/assistant/stats", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Contains(t, stats, "uptime_seconds")
	assert.Equal(t, 1.0, stats["turns_greeting"])
}

func TestResetStats(t *testing.T) {
	h := newHarness(t, nil)
	h.chat("hello", "")
	require.Contains(t, h.monitor.GetMetrics(), "turns_greeting")

	w := h.do(http.MethodDelete, "/api/v1/assistant/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, h.monitor.GetMetrics(), "turns_greeting")

	w = h.do(http.MethodDelete, "/api/v1/assistant/stats", "", h.token("asha"))
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/v1/assistant/stats", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Len(t, stats, 1)
	assert.Contains(t, stats, "uptime_seconds")
}

func TestSessionLocks_Serialize(t *testing.T) {
	locks := newSessionLocks()
	unlock := locks.Lock("s1")

	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("s1")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second turn ran while the first held the session")
	case <-time.After(50 * time.Millisecond):
	}

	// Other sessions are not blocked.
	locks.Lock("s2")()

	unlock()
	<-acquired
	assert.Eventually(t, func() bool { return locks.size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestFail_HidesCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := NewAssistantAPI(Deps{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	api.fail(c, "handle message", errors.New("connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
