package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"codepad/configs"
	"codepad/internal/catalog"
	"codepad/internal/dbs"
	"codepad/internal/handlers"
	"codepad/internal/harness"
	"codepad/internal/logger"
	"codepad/internal/middlewares"
	"codepad/internal/services"
	"codepad/internal/session"
	"codepad/internal/workerpool"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gradingStream = "submission_grading"
	gradingGroup  = "graders"
)

// App holds the long-lived collaborators behind the HTTP surface.
type App struct {
	Catalog     *catalog.Catalog
	Sessions    *session.Store
	Tokens      *services.TokenService
	Runner      *services.CodeRunnerService
	Submissions *services.SubmissionService
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg *configs.Config, app *App) *gin.Engine {
	router := gin.New()
	router.Use(middlewares.ErrorHandlerMiddleware())
	router.Use(middlewares.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "sessions": app.Sessions.Len()})
	})

	sessionMW := middlewares.SessionMiddleware(app.Tokens, app.Sessions)

	handlers.NewSessionHandler(app.Sessions, app.Tokens, app.Catalog).RegisterRoutes(router, sessionMW)
	handlers.NewProblemHandler(app.Catalog).RegisterRoutes(router)
	handlers.NewRunHandler(app.Runner).RegisterRoutes(router, sessionMW)
	handlers.NewSubmissionHandler(app.Submissions).RegisterRoutes(router, sessionMW)

	return router
}

func StartGinServer() {
	config := configs.LoadConfig()

	logger.InitLogger(config.AppEnv)
	defer logger.SyncLogger()

	if config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	problems, err := catalog.Load(config.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load problem catalog: %v", err)
	}

	rdb, err := dbs.InitRedis(ctx, config.RedisAddr, config.RedisDB)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer dbs.CloseRedis(rdb)

	var (
		queue workerpool.Queue
		cache services.Cache
	)
	if rdb != nil {
		stream := workerpool.InstanceStream(gradingStream, uuid.NewString())
		streamQueue := workerpool.NewRedisStreamQueue(rdb, stream, gradingGroup, 2*time.Second)
		defer func() {
			if err := streamQueue.Remove(context.Background()); err != nil {
				logger.Log.Warn("Failed to remove grading stream", zap.String("stream", stream), zap.Error(err))
			}
		}()
		logger.Log.Info("Using Redis grading stream", zap.String("stream", stream))
		queue = streamQueue
		cache = services.NewRedisCache(rdb)
	} else {
		logger.Log.Info("REDIS_ADDR not set, using in-process grading queue and no run cache")
		queue = workerpool.NewMemoryQueue(256, 2*time.Second)
		cache = services.NewNoopCache()
	}

	sessions := session.NewStore(config.SessionTTL)
	defer sessions.CloseAll()
	sessions.StartJanitor(ctx, time.Minute)

	registry := harness.NewRegistry(config.ExecTimeout)
	submissions := services.NewSubmissionService(problems, sessions,
		services.NewRandomGrader(config.AcceptRate), queue, config.GradeDelay)

	app := &App{
		Catalog:     problems,
		Sessions:    sessions,
		Tokens:      services.NewTokenService(config.JWTSecret, config.SessionTTL),
		Runner:      services.NewCodeRunnerService(registry, problems, cache, config.RunDelay, config.RunCacheTTL),
		Submissions: submissions,
	}

	pool := workerpool.NewGradeWorkerPool(config.NumberOfWorkers, queue, submissions)
	if err := pool.Start(ctx); err != nil {
		logger.Log.Error("Failed starting worker pool")
		log.Fatalf("failed to start worker pool: %v", err)
	}
	defer pool.Stop()

	srv := &http.Server{
		Addr:    ":" + config.ServerPort,
		Handler: NewRouter(config, app),
	}

	go func() {
		logger.Log.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server shutdown failed", zap.Error(err))
	}
}
