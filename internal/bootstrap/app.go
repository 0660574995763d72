package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"lexiguide-backend/internal/analyses"
	"lexiguide-backend/internal/chat"
	"lexiguide-backend/internal/llm"
	gemini "lexiguide-backend/internal/llm/gemini"
	openai "lexiguide-backend/internal/llm/openai"
	"lexiguide-backend/internal/shared/config"
	"lexiguide-backend/internal/shared/server"
	"lexiguide-backend/internal/shared/storage/db"
	"lexiguide-backend/internal/shared/storage/object"
	localstore "lexiguide-backend/internal/shared/storage/object/local"
	s3store "lexiguide-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	LLM             llm.Client
	AnalysesRepo    analyses.Repo
	AnalysesService *analyses.Service
	ChatService     *chat.Service
	AnalysisHandler *analyses.Handler
	ChatHandler     *chat.Handler
}

// Build prepares shared dependencies and wires the router.
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

	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo analyses.Repo
	if sqlDB != nil {
		repo = &analyses.PGRepo{DB: sqlDB}
	} else {
		repo = analyses.NewMemoryRepo()
	}

	analysisSvc := analyses.NewService(repo, store, llmClient, cfg.LLMProvider, cfg.LLMModel, cfg.LLMTimeout)
	chatSvc := chat.NewService(llmClient, cfg.LLMTimeout)

	app := &App{
		Config:          cfg,
		DB:              sqlDB,
		Store:           store,
		LLM:             llmClient,
		AnalysesRepo:    repo,
		AnalysesService: analysisSvc,
		ChatService:     chatSvc,
		AnalysisHandler: analyses.NewHandler(analysisSvc),
		ChatHandler:     chat.NewHandler(chatSvc),
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: app.AnalysisHandler,
		ChatHandler:     app.ChatHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repository")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repository: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey())
	if apiKey == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: no %s API key; model calls will fail until one is set", cfg.LLMProvider)
			return llm.PlaceholderClient{}, nil
		}
		return nil, fmt.Errorf("%s API key is required", cfg.LLMProvider)
	}

	switch cfg.LLMProvider {
	case "openai":
		return openai.NewClient(apiKey, cfg.LLMModel)
	default:
		return gemini.NewClient(ctx, apiKey, cfg.LLMModel)
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
