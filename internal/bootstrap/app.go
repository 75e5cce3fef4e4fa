package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/chat"
	"docchat-backend/internal/chunker"
	"docchat-backend/internal/documents"
	"docchat-backend/internal/ingest"
	"docchat-backend/internal/retrieval"
	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/server"
	"docchat-backend/internal/shared/storage/db"
	"docchat-backend/internal/shared/storage/object"
	localstore "docchat-backend/internal/shared/storage/object/local"
)

// App holds the wired application dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	DocumentsRepo documents.DocumentsRepo
	ChunksRepo    documents.ChunksRepo
	SessionsRepo  chat.SessionsRepo
	MessagesRepo  chat.MessagesRepo

	IngestPool       *ingest.Pool
	DocumentsService *documents.Service
	ChatService      *chat.Service

	DocumentsHandler *documents.Handler
	ChatHandler      *chat.Handler
}

// Build prepares all application dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  localstore.New(cfg.LocalStoreDir),
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		ChatHandler:     app.ChatHandler,
	})

	return app, nil
}

// Close drains the ingestion pool and releases the database pool.
func (a *App) Close() {
	if a.IngestPool != nil {
		a.IngestPool.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildServices(app *App) {
	var docRepo documents.DocumentsRepo
	var chunksRepo documents.ChunksRepo
	var sessionsRepo chat.SessionsRepo
	var messagesRepo chat.MessagesRepo

	if app.DB != nil {
		pgDocs := &documents.PGRepo{DB: app.DB}
		pgChat := &chat.PGRepo{DB: app.DB}
		docRepo = pgDocs
		chunksRepo = pgDocs
		sessionsRepo = pgChat
		messagesRepo = pgChat
	} else {
		memDocs := documents.NewMemoryRepo()
		memChat := chat.NewMemoryRepo()
		docRepo = memDocs
		chunksRepo = memDocs
		sessionsRepo = memChat
		messagesRepo = memChat
	}

	pipeline := &ingest.Pipeline{
		Docs:     docRepo,
		Chunks:   chunksRepo,
		Store:    app.Store,
		Splitter: chunker.New(app.Config.ChunkSize, app.Config.ChunkOverlap),
	}
	pool := ingest.NewPool(pipeline, app.Config.IngestWorkers, app.Config.IngestQueueSize)

	docSvc := &documents.Service{
		Store:  app.Store,
		Repo:   docRepo,
		Chunks: chunksRepo,
		Ingest: pool,
	}
	chatSvc := &chat.Service{
		Sessions:      sessionsRepo,
		Messages:      messagesRepo,
		Docs:          docRepo,
		Chunks:        chunksRepo,
		Scorer:        retrieval.NewScorer(app.Config.TopKSources, app.Config.MinRelevance),
		ExcerptLength: app.Config.ExcerptLength,
	}

	app.DocumentsRepo = docRepo
	app.ChunksRepo = chunksRepo
	app.SessionsRepo = sessionsRepo
	app.MessagesRepo = messagesRepo
	app.IngestPool = pool
	app.DocumentsService = docSvc
	app.ChatService = chatSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.ChatHandler = chat.NewHandler(chatSvc)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
