package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/counsel/internal/auth"
	"github.com/markdave123-py/counsel/internal/config"
	"github.com/markdave123-py/counsel/internal/core"
	db "github.com/markdave123-py/counsel/internal/core/database"
	"github.com/markdave123-py/counsel/internal/core/ingestion_engine"
	"github.com/markdave123-py/counsel/internal/core/llm"
	"github.com/markdave123-py/counsel/internal/core/locker"
	objectclient "github.com/markdave123-py/counsel/internal/core/object-client"
	"github.com/markdave123-py/counsel/internal/services"
)

const minRequestTimeout = 60 * time.Second

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	DocProcessor ingestion_engine.Ingestor
	Server       *Server

	gateway core.InferenceGateway
	locks   locker.Locker
	log     *zap.SugaredLogger
	stop    context.CancelFunc
}

// NewApp connects every backing service, seeds the admin account and starts the
// extraction workers. The workers stop when ctx is cancelled or Close is called.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	a := &App{log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	initCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(initCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a.DBClient = dbClient
	log.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(initCtx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	a.ObjectClient = objClient
	log.Infow("object client initialized", "bucket", cfg.BucketName)

	catalog := llm.NewCatalog(cfg.DefaultModel)
	a.gateway, err = llm.NewGateway(initCtx, cfg, catalog)
	if err != nil {
		return nil, fmt.Errorf("inference gateway: %w", err)
	}
	log.Infow("inference gateway ready", "provider", cfg.InferenceProvider, "default_model", catalog.Default().ID)

	if cfg.RedisURL != "" {
		rl, err := locker.NewRedisLocker(initCtx, cfg.RedisURL, cfg.InferenceTimeout+30*time.Second, log)
		if err != nil {
			return nil, fmt.Errorf("redis locker: %w", err)
		}
		a.locks = rl
		log.Info("session locks backed by redis")
	} else {
		a.locks = locker.NewLocalLocker()
	}

	ingestor := ingestion_engine.NewDocumentIngestor(dbClient, objClient, ingestion_engine.NewDocconvExtractor(false), nil, log)
	a.DocProcessor = ingestor
	workerCtx, stop := context.WithCancel(ctx)
	a.stop = stop
	ingestor.Start(workerCtx, cfg.IngestWorkers)

	tokens := auth.NewTokenService(cfg.JWTSecret)
	users := services.NewUserService(dbClient, tokens, log)
	if err := users.SeedAdmin(initCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	requestTimeout := cfg.InferenceTimeout + 30*time.Second
	if requestTimeout < minRequestTimeout {
		requestTimeout = minRequestTimeout
	}

	router := NewRouter(RouterDeps{
		Version:        cfg.AppVersion,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		RequestTimeout: requestTimeout,
		Tokens:         tokens,
		Accounts:       dbClient,
		Catalog:        catalog,
		Users:          users,
		Chat:           services.NewChatService(dbClient, a.gateway, catalog, a.locks, cfg.InferenceTimeout, log),
		Docs:           services.NewDocumentService(dbClient, objClient, ingestor, log),
		Admin:          services.NewAdminService(dbClient),
		Log:            log,
	})
	a.Server = NewServer(cfg.Port, router, log)

	ok = true
	return a, nil
}

// Close stops the extraction workers and releases every connection. Safe on a partially built App.
func (a *App) Close() {
	if a.stop != nil {
		a.stop()
		a.DocProcessor.Wait()
	}
	if c, ok := a.gateway.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warnw("closing inference gateway", "err", err)
		}
	}
	if c, ok := a.locks.(io.Closer); ok {
		_ = c.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
