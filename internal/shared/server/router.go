package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"bloodreport-backend/internal/analyses"
	"bloodreport-backend/internal/llm"
	openai "bloodreport-backend/internal/llm/openai"
	"bloodreport-backend/internal/reports"
	"bloodreport-backend/internal/services/health"
	"bloodreport-backend/internal/shared/config"
	"bloodreport-backend/internal/shared/metrics"
	"bloodreport-backend/internal/shared/server/middleware"
	"bloodreport-backend/internal/shared/server/respond"
	"bloodreport-backend/internal/shared/storage/db"
	"bloodreport-backend/internal/tasks"
	"bloodreport-backend/internal/users"
)

// App owns the router plus the background machinery behind it.
type App struct {
	Router *gin.Engine
	Runner *tasks.Runner

	janitorCancel context.CancelFunc
}

// Build wires dependencies and routes. The returned App has its worker pool
// and upload janitor already running.
func Build(cfg config.Config) *App {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	limiter := middleware.NewWindowLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, nil)
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(limiter),
	)

	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else {
			dbConn = migrateOrClose(context.Background(), dbConn, db.RunMigrations)
		}
		sqlDB = dbConn
	}

	var analysisRepo analyses.Repo
	var userRepo users.Repo
	if sqlDB != nil {
		analysisRepo = &analyses.PGRepo{DB: sqlDB}
		userRepo = &users.PGRepo{DB: sqlDB}
	} else {
		analysisRepo = analyses.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if cfg.LLMProvider == "openai" {
		client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
		if err != nil {
			log.Printf("openai client unavailable, using placeholder: %v", err)
		} else {
			llmClient = client
		}
	}

	analysisSvc := &analyses.Service{
		Repo:  analysisRepo,
		Users: userRepo,
		LLM:   llmClient,
	}

	runner := tasks.NewRunner(&analyses.TaskExecutor{Service: analysisSvc}, tasks.Config{
		Workers:   cfg.WorkerCount,
		QueueSize: cfg.QueueSize,
		Retention: cfg.TaskRetention,
	})
	runner.Start(context.Background(), cfg.WorkerCount)

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	janitor := &reports.Janitor{Dir: cfg.UploadDir, MaxAge: cfg.UploadMaxAge}
	go janitor.Run(janitorCtx)

	reportsHandler := &reports.Handler{
		Runner:    runner,
		Analyses:  analysisSvc,
		UploadDir: cfg.UploadDir,
	}
	healthSvc := health.NewService(sqlDB, runner)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status(c.Request.Context()))
	})
	reportsHandler.RegisterRoutes(api)

	r.GET("/metrics", metrics.Handler())

	return &App{Router: r, Runner: runner, janitorCancel: janitorCancel}
}

// migrateOrClose runs migrations against an open pool. On failure the pool
// is closed before falling back to memory repositories, so the verified
// connections are not leaked for the process lifetime.
func migrateOrClose(ctx context.Context, dbConn *sql.DB, migrate func(context.Context, *sql.DB) error) *sql.DB {
	if err := migrate(ctx, dbConn); err != nil {
		log.Printf("failed to run migrations, falling back to memory: %v", err)
		dbConn.Close()
		return nil
	}
	return dbConn
}

// Shutdown stops background work: the janitor immediately, the runner after
// draining in-flight tasks.
func (a *App) Shutdown() {
	if a.janitorCancel != nil {
		a.janitorCancel()
	}
	if a.Runner != nil {
		a.Runner.Stop()
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
