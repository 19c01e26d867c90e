package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/dcarvalho/projectdesk/internal/auth"
	"github.com/dcarvalho/projectdesk/internal/cache"
	"github.com/dcarvalho/projectdesk/internal/config"
	"github.com/dcarvalho/projectdesk/internal/http/handlers"
	"github.com/dcarvalho/projectdesk/internal/http/middlewares"
	"github.com/dcarvalho/projectdesk/internal/observability"
	"github.com/dcarvalho/projectdesk/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(cfg config.Config, log *slog.Logger, pool *pgxpool.Pool, statsCache *cache.Cache, jwt *auth.Manager) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(otelgin.Middleware("projectdesk-api"))
	r.Use(prom.GinHandleMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// health
	pingDB := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}
	pingCache := func() error {
		if statsCache == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return statsCache.Ping(ctx)
	}

	health := handlers.NewHealthHandler(pingDB, pingCache)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	tasksRepo := postgres.NewTasksRepo(pool, prom)
	projectsRepo := postgres.NewProjectsRepo(pool, prom)
	clientsRepo := postgres.NewClientsRepo(pool, prom)
	activityRepo := postgres.NewActivityRepo(pool, prom)
	notificationsRepo := postgres.NewNotificationsRepo(pool, prom)
	jobsRepo := postgres.NewJobsRepo(pool, prom)
	dashboardRepo := postgres.NewDashboardRepo(pool, prom)

	// a nil *cache.Cache must stay nil as an interface too
	var stats handlers.StatsCache
	if statsCache != nil {
		stats = statsCache
	}

	// wire up handlers
	authHandler := handlers.NewAuthHandler(usersRepo, jwt, log)
	usersHandler := handlers.NewUsersHandler(usersRepo)
	tasksHandler := handlers.NewTasksHandler(tasksRepo, activityRepo, jobsRepo, cfg, log)
	projectsHandler := handlers.NewProjectsHandler(projectsRepo, activityRepo, log)
	clientsHandler := handlers.NewClientsHandler(clientsRepo)
	dashboardHandler := handlers.NewDashboardHandler(dashboardRepo, activityRepo, stats, log)
	notificationsHandler := handlers.NewNotificationsHandler(notificationsRepo)
	adminJobsHandler := handlers.NewAdminJobsHandler(jobsRepo)

	authmw := middlewares.NewAuthMiddleware(jwt, usersRepo)

	globalLimiter := middlewares.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute)
	loginLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)

	api := r.Group("/api")
	api.Use(globalLimiter.Middleware(middlewares.KeyByUserOrIP))
	api.Use(middlewares.RequireJSON())
	api.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	authGroup := api.Group("/auth")
	{
		tight := loginLimiter.Middleware(middlewares.KeyByIP)
		authGroup.POST("/login", tight, authHandler.Login)
		authGroup.POST("/register", tight, authHandler.Register)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.GET("/me", authmw.RequireAuth(), authHandler.Me)
		authGroup.POST("/change-password", authmw.RequireAuth(), authHandler.ChangePassword)
	}

	users := api.Group("/users", authmw.RequireAuth())
	{
		users.GET("", middlewares.RequireRole("ADMIN", "MANAGER"), usersHandler.List)
		users.POST("", middlewares.RequireRole("ADMIN"), usersHandler.Create)
		users.GET("/:id", usersHandler.Get)
		users.PATCH("/:id", usersHandler.Update)
		users.DELETE("/:id", middlewares.RequireRole("ADMIN"), usersHandler.Delete)
		users.POST("/:id/reset-password", middlewares.RequireRole("ADMIN"), usersHandler.ResetPassword)
	}

	tasks := api.Group("/tasks", authmw.RequireAuth())
	{
		tasks.GET("", tasksHandler.List)
		tasks.GET("/my-tasks", tasksHandler.MyTasks)
		tasks.POST("", tasksHandler.Create)
		tasks.POST("/reorder", tasksHandler.Reorder)
		tasks.GET("/:id", tasksHandler.Get)
		tasks.PATCH("/:id", tasksHandler.Update)
		tasks.PATCH("/:id/status", tasksHandler.UpdateStatus)
		tasks.DELETE("/:id", tasksHandler.Delete)
		tasks.POST("/:id/comments", tasksHandler.CreateComment)
	}

	projects := api.Group("/projects", authmw.RequireAuth())
	{
		projects.GET("", projectsHandler.List)
		projects.GET("/:id", projectsHandler.Get)
		projects.POST("", middlewares.RequireRole("ADMIN", "MANAGER"), projectsHandler.Create)
		projects.PATCH("/:id", middlewares.RequireRole("ADMIN", "MANAGER"), projectsHandler.Update)
		projects.DELETE("/:id", middlewares.RequireRole("ADMIN", "MANAGER"), projectsHandler.Delete)
	}

	clients := api.Group("/clients", authmw.RequireAuth())
	{
		clients.GET("", clientsHandler.List)
		clients.GET("/:id", clientsHandler.Get)
		clients.POST("", middlewares.RequireRole("ADMIN", "MANAGER"), clientsHandler.Create)
		clients.PATCH("/:id", middlewares.RequireRole("ADMIN", "MANAGER"), clientsHandler.Update)
		clients.DELETE("/:id", middlewares.RequireRole("ADMIN", "MANAGER"), clientsHandler.Delete)
	}

	dashboard := api.Group("/dashboard", authmw.RequireAuth())
	{
		dashboard.GET("/stats", dashboardHandler.Stats)
		dashboard.GET("/activity", dashboardHandler.Activity)
		dashboard.GET("/projects-by-status", dashboardHandler.ProjectsByStatus)
	}

	notifications := api.Group("/notifications", authmw.RequireAuth())
	{
		notifications.GET("", notificationsHandler.List)
		notifications.PATCH("/:id/read", notificationsHandler.MarkRead)
	}

	adminJobs := api.Group("/admin/jobs", authmw.RequireAuth(), middlewares.RequireRole("ADMIN"))
	{
		adminJobs.GET("", adminJobsHandler.List)
		adminJobs.GET("/:id", adminJobsHandler.GetByID)
		adminJobs.POST("/:id/retry", adminJobsHandler.Retry)
		adminJobs.POST("/reprocess-dead", adminJobsHandler.ReprocessDead)
	}

	return r
}
