package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"contracts-backend/internal/audit"
	"contracts-backend/internal/clients"
	"contracts-backend/internal/contracts"
	"contracts-backend/internal/dashboard"
	"contracts-backend/internal/documents"
	"contracts-backend/internal/services/health"
	"contracts-backend/internal/shared/config"
	"contracts-backend/internal/shared/metrics"
	"contracts-backend/internal/shared/server"
	"contracts-backend/internal/shared/server/middleware"
	"contracts-backend/internal/shared/storage/db"
	"contracts-backend/internal/shared/storage/object"
	localstore "contracts-backend/internal/shared/storage/object/local"
	s3store "contracts-backend/internal/shared/storage/object/s3"
	"contracts-backend/internal/shared/telemetry"
)

// App holds shared dependencies and the configured router.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Metrics          *prometheus.Registry
	ContractsRepo    contracts.Repo
	DocumentsRepo    documents.Repo
	ClientsRepo      clients.Repo
	AuditStore       audit.Store
	ContractsService *contracts.Service
	DocumentsService *documents.Service
	ClientsService   *clients.Service
	DashboardService *dashboard.Service
	ContractHandler  *contracts.Handler
	DocumentHandler  *documents.Handler
	ClientHandler    *clients.Handler
	DashboardHandler *dashboard.Handler
	Health           *health.Service
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry, err := metrics.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("metrics registry: %w", err)
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Metrics: registry,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		ContractHandler:  app.ContractHandler,
		DocumentHandler:  app.DocumentHandler,
		ClientHandler:    app.ClientHandler,
		DashboardHandler: app.DashboardHandler,
		Health:           app.Health,
		Metrics:          registry,
		RateLimiter:      middleware.NewRateLimiter(nil),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repositories", map[string]any{"reason": "database_url_empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{
				"reason": "database_connect_failed",
				"error":  err.Error(),
			})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var contractRepo contracts.Repo
	var docRepo documents.Repo
	var clientRepo clients.Repo
	var auditStore audit.Store

	if app.DB != nil {
		contractRepo = &contracts.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
		clientRepo = &clients.PGRepo{DB: app.DB}
		auditStore = &audit.PGStore{DB: app.DB}
		app.Health = health.NewService(app.DB)
	} else {
		contractRepo = contracts.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
		clientRepo = clients.NewMemoryRepo()
		auditStore = audit.NewMemoryStore()
		app.Health = health.NewService(nil)
	}

	clientSvc := &clients.Service{Repo: clientRepo}
	contractSvc := &contracts.Service{
		Repo:            contractRepo,
		Directory:       directory{docs: docRepo, clients: clientSvc},
		Audit:           auditStore,
		DefaultCurrency: app.Config.DefaultCurrency,
	}
	docSvc := &documents.Service{
		Store:           app.Store,
		Repo:            docRepo,
		StorageProvider: app.Config.ObjectStoreType,
		Clients:         clientSvc,
		Contracts:       contractSvc,
	}
	dashboardSvc := &dashboard.Service{
		Contracts:  contractSvc,
		WindowDays: app.Config.ExpiringWindowDays,
	}

	app.ContractsRepo = contractRepo
	app.DocumentsRepo = docRepo
	app.ClientsRepo = clientRepo
	app.AuditStore = auditStore
	app.ContractsService = contractSvc
	app.DocumentsService = docSvc
	app.ClientsService = clientSvc
	app.DashboardService = dashboardSvc
	app.ContractHandler = contracts.NewHandler(contractSvc, auditStore)
	app.DocumentHandler = documents.NewHandler(docSvc)
	app.ClientHandler = clients.NewHandler(clientSvc)
	app.DashboardHandler = dashboard.NewHandler(dashboardSvc)

	if app.ContractHandler == nil || app.DocumentHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}

// directory resolves contract listing labels from the document and client
// repositories.
type directory struct {
	docs    documents.Repo
	clients *clients.Service
}

func (d directory) Labels(ctx context.Context, documentIDs []string) (map[string]contracts.DocumentLabel, error) {
	docs, err := d.docs.GetMany(ctx, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	clientIDs := make([]string, 0, len(docs))
	seen := map[string]bool{}
	for _, doc := range docs {
		if doc.ClientID == "" || seen[doc.ClientID] {
			continue
		}
		seen[doc.ClientID] = true
		clientIDs = append(clientIDs, doc.ClientID)
	}

	names := map[string]string{}
	if len(clientIDs) > 0 {
		names, err = d.clients.Names(ctx, clientIDs)
		if err != nil {
			return nil, fmt.Errorf("load clients: %w", err)
		}
	}

	out := make(map[string]contracts.DocumentLabel, len(docs))
	for id, doc := range docs {
		out[id] = contracts.DocumentLabel{
			DocumentName: doc.Name,
			ClientName:   names[doc.ClientID],
		}
	}
	return out, nil
}
