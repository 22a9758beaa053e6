package api

import (
	"context"
	"net/http"

	"cafeassist/internal/assistant"
	"cafeassist/internal/auth"
	"cafeassist/internal/models"
	"cafeassist/internal/monitoring"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultSessionCookie names the cookie that carries the conversation key
const DefaultSessionCookie = "cafe_session"

// Conversations processes one chat turn
type Conversations interface {
	Handle(ctx context.Context, st assistant.State, actor assistant.Actor, message string) (assistant.Reply, assistant.State, error)
}

// SessionStore keeps conversation state between turns
type SessionStore interface {
	Load(ctx context.Context, key string) (assistant.State, error)
	Save(ctx context.Context, key string, userID *uint, st assistant.State) error
	Reset(ctx context.Context, key string) error
}

// OrderStore reads committed orders
type OrderStore interface {
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	OrderStatus(ctx context.Context, id uint) (string, error)
}

// Deps are the collaborators the API serves
type Deps struct {
	Engine        Conversations
	Sessions      SessionStore
	Menu          assistant.Catalog
	Orders        OrderStore
	Auth          *auth.Manager
	Monitor       *monitoring.Monitor
	Logger        *zap.Logger
	SessionCookie string
}

// AssistantAPI is the storefront's HTTP surface for the ordering assistant
type AssistantAPI struct {
	Router   *gin.Engine
	engine   Conversations
	sessions SessionStore
	menu     assistant.Catalog
	orders   OrderStore
	auth     *auth.Manager
	monitor  *monitoring.Monitor
	logger   *zap.Logger
	cookie   string
	locks    *sessionLocks
}

// NewAssistantAPI creates the API and registers its routes
func NewAssistantAPI(deps Deps) *AssistantAPI {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cookie := deps.SessionCookie
	if cookie == "" {
		cookie = DefaultSessionCookie
	}
	monitor := deps.Monitor
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}

	router := gin.New()
	router.Use(RequestLogger(logger), gin.Recovery())

	api := &AssistantAPI{
		Router:   router,
		engine:   deps.Engine,
		sessions: deps.Sessions,
		menu:     deps.Menu,
		orders:   deps.Orders,
		auth:     deps.Auth,
		monitor:  monitor,
		logger:   logger,
		cookie:   cookie,
		locks:    newSessionLocks(),
	}

	api.setupRoutes()
	return api
}

// setupRoutes configures all API endpoints
func (a *AssistantAPI) setupRoutes() {
	a.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Cafe assistant API is running"})
	})

	v1 := a.Router.Group("/api/v1")
	if a.auth != nil {
		v1.Use(a.auth.Middleware())
	}
	{
		// Conversation
		v1.POST("/assistant/chat", a.Chat)
		v1.POST("/assistant/session", a.ResetSession)
		v1.GET("/assistant/state", a.GetState)
		v1.GET("/assistant/stats", a.GetStats)
		v1.DELETE("/assistant/stats", a.ResetStats)

		// Storefront reads
		v1.GET("/menu", a.GetMenu)
		v1.GET("/orders/:id", a.GetOrder)
		v1.GET("/orders/:id/status", a.GetOrderStatus)
	}
}

// ServeHTTP lets the API be mounted as a plain handler
func (a *AssistantAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Router.ServeHTTP(w, r)
}
