package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cafeassist/internal/api"
	"cafeassist/internal/assistant"
	"cafeassist/internal/auth"
	"cafeassist/internal/config"
	"cafeassist/internal/database"
	"cafeassist/internal/logging"
	"cafeassist/internal/monitoring"
	"cafeassist/internal/playground"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	seedOnly   = flag.Bool("seed", false, "Seed the default menu and exit")
	issueToken = flag.String("issue-token", "", "Create the named user if absent, print a signed token and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("cafeassist stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if *seedOnly {
		cfg.Database.Seed = true
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.db.Close()

	switch {
	case *seedOnly:
		return nil
	case *issueToken != "":
		token, err := a.issueToken(ctx, *issueToken)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}
	return a.serve(ctx)
}

// app is the wired service
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *gorm.DB
	users     *database.Users
	auth      *auth.Manager
	collector *monitoring.Collector
	api       *api.AssistantAPI
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.Database.Seed {
		created, err := database.Seed(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("menu seeded", zap.Int("items_created", created))
	}

	gin.SetMode(cfg.Server.Mode)

	monitor := monitoring.NewMonitor()
	collector := monitoring.NewCollector(monitor)
	catalog := database.NewCatalog(db)
	orders := database.NewOrders(db)
	users := database.NewUsers(db)
	manager := auth.NewManager(cfg.Auth, users)
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth jwt_secret is empty, every bearer token will be rejected")
	}

	engine := assistant.NewEngine(catalog, orders,
		assistant.WithLogger(logger.Named("assistant")),
		assistant.WithRecorder(collector),
		assistant.WithSettings(assistant.Settings{
			FuzzyCutoff:      cfg.Assistant.FuzzyCutoff,
			TopSellerLimit:   cfg.Assistant.TopSellerLimit,
			BudgetPreview:    cfg.Assistant.BudgetPreview,
			HighlightPreview: cfg.Assistant.HighlightPreview,
			Currency:         cfg.Assistant.Currency,
		}),
	)

	httpAPI := api.NewAssistantAPI(api.Deps{
		Engine:        engine,
		Sessions:      database.NewSessions(db),
		Menu:          catalog,
		Orders:        orders,
		Auth:          manager,
		Monitor:       monitor,
		Logger:        logger.Named("http"),
		SessionCookie: cfg.Server.SessionCookie,
	})
	playground.NewServer(engine, manager, monitor, logger.Named("ws")).Register(httpAPI.Router)

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		users:     users,
		auth:      manager,
		collector: collector,
		api:       httpAPI,
	}, nil
}

// issueToken signs a token for username, creating the user on first use
func (a *app) issueToken(ctx context.Context, username string) (string, error) {
	user, err := a.users.Ensure(ctx, username, "", "")
	if err != nil {
		return "", err
	}
	return a.auth.Issue(user)
}

func (a *app) metricsRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET(a.cfg.Metrics.Path, gin.WrapH(a.collector.Handler()))
	return router
}

// serve runs the API and metrics servers until ctx is done or one of them fails
func (a *app) serve(ctx context.Context) error {
	servers := []*http.Server{{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: a.api.Router,
	}}
	if a.cfg.Metrics.Enabled {
		servers = append(servers, &http.Server{
			Addr:    fmt.Sprintf(":%d", a.cfg.Metrics.Port),
			Handler: a.metricsRouter(),
		})
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			a.logger.Info("starting server", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
