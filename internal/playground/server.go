package playground

import (
	"context"
	"net/http"

	"cafeassist/internal/assistant"
	"cafeassist/internal/monitoring"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Conversations processes one chat turn
type Conversations interface {
	Handle(ctx context.Context, st assistant.State, actor assistant.Actor, message string) (assistant.Reply, assistant.State, error)
}

// ActorResolver turns a connection's token into the actor behind it
type ActorResolver interface {
	Resolve(ctx context.Context, token string) (assistant.Actor, error)
}

// Server serves the assistant over websockets. Each connection owns one
// conversation for its lifetime.
type Server struct {
	engine   Conversations
	resolver ActorResolver
	monitor  *monitoring.Monitor
	logger   *zap.Logger
}

// NewServer creates a websocket chat server. A nil resolver treats every
// connection as anonymous.
func NewServer(engine Conversations, resolver ActorResolver, monitor *monitoring.Monitor, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}
	return &Server{
		engine:   engine,
		resolver: resolver,
		monitor:  monitor,
		logger:   logger,
	}
}

// Register mounts the chat socket on router
func (s *Server) Register(router gin.IRoutes) {
	router.GET("/ws/assistant", s.handleWebSocket)
}

func (s *Server) resolve(c *gin.Context) (assistant.Actor, bool) {
	if s.resolver == nil {
		return assistant.Actor{}, true
	}
	actor, err := s.resolver.Resolve(c.Request.Context(), c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return assistant.Actor{}, false
	}
	return actor, true
}
