package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/medfac-dev/timetable-api/api/swagger"
	"github.com/medfac-dev/timetable-api/internal/handler"
	"github.com/medfac-dev/timetable-api/internal/middleware"
	"github.com/medfac-dev/timetable-api/internal/models"
	"github.com/medfac-dev/timetable-api/internal/repository"
	"github.com/medfac-dev/timetable-api/internal/service"
	"github.com/medfac-dev/timetable-api/pkg/cache"
	"github.com/medfac-dev/timetable-api/pkg/config"
	"github.com/medfac-dev/timetable-api/pkg/database"
	"github.com/medfac-dev/timetable-api/pkg/jobs"
	"github.com/medfac-dev/timetable-api/pkg/logger"
	corsmiddleware "github.com/medfac-dev/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/medfac-dev/timetable-api/pkg/middleware/requestid"
)

// @title Faculty Timetable API
// @version 1.0.0
// @description Weekly scheduling, conflict resolution, and teaching hour ledger for the faculty portal
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, ledger cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	weekRepo := repository.NewWeekRepository(db)
	termRepo := repository.NewTermRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	overlayRepo := repository.NewOverlayRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(cfg.JWT, logr)
	calendarSvc := service.NewCalendarService(weekRepo, termRepo, validate, logr)
	overlaySvc := service.NewOverlayService(overlayRepo, weekRepo, doctorRepo, validate, logr)
	ledgerSvc := service.NewLedgerService(courseRepo, slotRepo, cacheRepo, cfg.Ledger.CacheTTL, validate, logr)
	ledgerSvc.SetMetrics(metricsSvc)
	resolverSvc := service.NewResolverService(slotRepo, overlayRepo, weekRepo, doctorRepo, courseRepo, ledgerSvc, validate, logr)
	resolverSvc.SetMetrics(metricsSvc)
	advancementSvc := service.NewAdvancementService(studentRepo, cfg.Advancement.BatchSize, validate, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	warmQueue := jobs.NewQueue("ledger-warm", ledgerSvc.WarmHandler(), jobs.QueueConfig{
		Workers: cfg.Ledger.WarmWorkers,
		Logger:  logr,
	})
	warmQueue.Start(ctx)
	defer warmQueue.Stop()
	ledgerSvc.SetWarmQueue(warmQueue)

	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	scheduleHandler := handler.NewScheduleHandler(resolverSvc)
	overlayHandler := handler.NewOverlayHandler(overlaySvc)
	ledgerHandler := handler.NewLedgerHandler(ledgerSvc)
	advancementHandler := handler.NewAdvancementHandler(advancementSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	admin := middleware.RequireRoles(models.RoleAdmin)
	adminOrSelf := middleware.RBAC(string(models.RoleAdmin), "SELF")

	api.GET("/years", calendarHandler.ListYears)
	api.GET("/terms", calendarHandler.ListTerms)
	api.GET("/terms/active", calendarHandler.GetActiveTerm)
	api.GET("/terms/:id/weeks", calendarHandler.ListWeeks)
	api.GET("/weeks/:id", calendarHandler.GetWeek)
	api.POST("/weeks", admin, calendarHandler.StartWeek)
	api.PUT("/weeks/:id/type", admin, calendarHandler.SetWeekType)
	api.DELETE("/terms/:id/weeks/active", admin, calendarHandler.StopWeek)
	api.POST("/terms/:id/reset-weeks", admin, calendarHandler.ResetTermWeeks)

	api.GET("/doctors/:id/schedule", adminOrSelf, scheduleHandler.GetSchedule)
	api.POST("/schedule/slots", admin, scheduleHandler.ManageSchedule)
	api.POST("/schedule/check", admin, scheduleHandler.CheckConflict)

	api.POST("/cancellations/days", admin, overlayHandler.CancelDay)
	api.DELETE("/cancellations/days", admin, overlayHandler.UncancelDay)
	api.POST("/cancellations/slots", admin, overlayHandler.CancelSlot)
	api.DELETE("/cancellations/slots", admin, overlayHandler.UncancelSlot)
	api.POST("/unavailability", overlayHandler.AddUnavailability)
	api.DELETE("/unavailability/:id", overlayHandler.RemoveUnavailability)
	api.GET("/doctors/:id/unavailability", adminOrSelf, overlayHandler.ListUnavailability)
	api.POST("/availability", overlayHandler.SetAvailability)
	api.GET("/doctors/:id/availability", adminOrSelf, overlayHandler.GetAvailability)

	api.GET("/courses/:id/hours", ledgerHandler.GetCourseHours)
	api.PUT("/courses/:id/doctors", admin, ledgerHandler.SetCourseDoctors)
	api.PUT("/courses/:id/allocations", admin, ledgerHandler.SetAllocations)
	api.GET("/courses/:id/doctor-hours", ledgerHandler.GetCourseDoctorHours)
	api.GET("/doctors/:id/hours", adminOrSelf, ledgerHandler.GetDoctorTotals)

	api.POST("/students/advance", admin, advancementHandler.AdvanceStudents)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
