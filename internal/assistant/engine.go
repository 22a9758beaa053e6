package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Actor is the identity behind the current turn, as resolved by the transport
type Actor struct {
	Authenticated bool
	UserID        uint
	Username      string
	Email         string
	FullName      string
}

// Reply is what one turn produces for the customer
type Reply struct {
	Text         string `json:"reply"`
	RequireLogin bool   `json:"require_login,omitempty"`
	OrderID      uint   `json:"order_id,omitempty"`
	Intent       Intent `json:"-"`
}

// Recorder receives turn and order outcomes for metrics
type Recorder interface {
	ObserveTurn(intent Intent, elapsed time.Duration)
	OrderCommitted(orderType OrderType, total decimal.Decimal)
	CommitFailed()
}

type nopRecorder struct{}

func (nopRecorder) ObserveTurn(Intent, time.Duration)         {}
func (nopRecorder) OrderCommitted(OrderType, decimal.Decimal) {}
func (nopRecorder) CommitFailed()                             {}

// Settings tune the assistant's replies and matching
type Settings struct {
	FuzzyCutoff      float64
	TopSellerLimit   int
	BudgetPreview    int
	HighlightPreview int
	Currency         string
}

// DefaultSettings mirrors the storefront's defaults
func DefaultSettings() Settings {
	return Settings{
		FuzzyCutoff:      DefaultCutoff,
		TopSellerLimit:   5,
		BudgetPreview:    6,
		HighlightPreview: 3,
		Currency:         "₹",
	}
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine's logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRecorder sets where turn metrics are reported
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithSimilarity replaces the fuzzy scorer
func WithSimilarity(s Similarity) Option {
	return func(e *Engine) { e.sim = s }
}

// WithSettings overrides the default settings
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// Engine processes conversation turns. It holds no per-session data and is
// safe to share; each State must only be used by one turn at a time.
type Engine struct {
	catalog   Catalog
	committer Committer
	matcher   *Matcher
	sim       Similarity
	rules     []rule
	settings  Settings
	logger    *zap.Logger
	recorder  Recorder
}

// NewEngine creates an engine reading from catalog and committing through committer
func NewEngine(catalog Catalog, committer Committer, opts ...Option) *Engine {
	e := &Engine{
		catalog:   catalog,
		committer: committer,
		settings:  DefaultSettings(),
		logger:    zap.NewNop(),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.matcher = NewMatcher(e.sim, e.settings.FuzzyCutoff)
	e.rules = e.buildRules()
	return e
}

// turn carries everything one message is processed against
type turn struct {
	ctx     context.Context
	message string
	text    string
	actor   Actor
	state   *State
	snap    Snapshot
}

// Handle processes one customer message against st and returns the reply and
// the next state. On error the returned state is st unchanged.
func (e *Engine) Handle(ctx context.Context, st State, actor Actor, message string) (Reply, State, error) {
	start := time.Now()
	msg := strings.TrimSpace(message)
	if msg == "" {
		reply := Reply{Text: "Please type a question about the menu, pricing, or ordering.", Intent: IntentEmpty}
		e.recorder.ObserveTurn(reply.Intent, time.Since(start))
		return reply, st, nil
	}

	snap, err := LoadSnapshot(ctx, e.catalog, e.settings.TopSellerLimit)
	if err != nil {
		e.logger.Error("menu snapshot failed", zap.Error(err))
		return Reply{}, st, err
	}

	next := st.Clone()
	t := &turn{
		ctx:     ctx,
		message: msg,
		text:    strings.ToLower(msg),
		actor:   actor,
		state:   &next,
		snap:    snap,
	}
	detectOrderType(t.text, t.state)

	for _, r := range e.rules {
		if !r.match(t) {
			continue
		}
		reply, handled, err := r.handle(t)
		if err != nil {
			e.logger.Error("assistant turn failed", zap.String("intent", string(r.intent)), zap.Error(err))
			return Reply{}, st, err
		}
		if !handled {
			continue
		}
		if reply.Intent == "" {
			reply.Intent = r.intent
		}
		e.logger.Debug("assistant turn",
			zap.String("intent", string(reply.Intent)),
			zap.Int("cart_lines", len(next.Items)),
			zap.Int("pending_fields", len(next.PendingFields)),
		)
		e.recorder.ObserveTurn(reply.Intent, time.Since(start))
		return reply, next, nil
	}

	// The fallback rule always matches, so this is unreachable with the built-in rules.
	return e.fallback(), next, nil
}
