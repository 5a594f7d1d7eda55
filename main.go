package main

import (
	"context"
	"log"

	"TenantHub/blob"
	"TenantHub/config"
	"TenantHub/controllers"
	"TenantHub/events"
	"TenantHub/jobs"
	"TenantHub/logger"
	"TenantHub/metrics"
	"TenantHub/migrations"
	"TenantHub/routes"
	"TenantHub/services"
	"TenantHub/store"

	db "github.com/KanapuramVaishnavi/Core/config/db"
	server "github.com/KanapuramVaishnavi/Core/server"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var (
	startServer = server.Start
	isTest      = false
)

func main() {
	run()
}

type app struct {
	cfg       *config.Config
	deps      services.Deps
	handler   *controllers.Handler
	registry  *prometheus.Registry
	scheduler *jobs.Scheduler
	events    events.Publisher
}

/*
* Storage root on the local filesystem
* NATS publisher when a URL is configured, otherwise events are dropped
* Metrics on a registry of our own
 */
func build(cfg *config.Config, records store.RecordStore, cache services.Cache, zl *zap.Logger) (*app, error) {
	blobs, err := blob.NewFS(cfg.Storage.Root)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.NatsURL != "" {
		p, err := events.NewNatsPublisher(events.NatsConfig{
			URL:           cfg.Events.NatsURL,
			Name:          cfg.ServiceName,
			SubjectPrefix: cfg.Events.SubjectPrefix,
		})
		if err != nil {
			zl.Warn("Events disabled, unable to reach NATS", zap.Error(err))
		} else {
			publisher = p
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := services.Deps{
		Records:    records,
		Blobs:      blobs,
		Cache:      cache,
		Events:     publisher,
		Metrics:    metrics.New(cfg.Metrics.Prefix, reg),
		Log:        zl,
		StagingDir: cfg.Storage.StagingDir,
		SweepGrace: cfg.Storage.SweepGrace,
	}
	h := controllers.NewHandler(deps, cfg.Storage.MaxUploadBytes)
	return &app{
		cfg:       cfg,
		deps:      deps,
		handler:   h,
		registry:  reg,
		scheduler: jobs.NewScheduler(h.Documents, cfg, zl),
		events:    publisher,
	}, nil
}

func run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error in loading the config: ", err)
	}
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		log.Fatal("Error in initializing the logger: ", err)
	}
	zl := logger.GetLogger()
	zl.Info("Starting", cfg.LogFields()...)

	a, err := build(cfg, store.NewMongo(), services.RedisCache{}, zl)
	if err != nil {
		zl.Fatal("Error in building the app", zap.Error(err))
	}

	defaultopts := server.GetDefaultOptions()

	options := server.Options{
		CacheEnabled:     defaultopts.CacheEnabled,
		MongoEnabled:     defaultopts.MongoEnabled,
		WebServerEnabled: defaultopts.WebServerEnabled,
		WebServerPort:    defaultopts.WebServerPort,

		JobsEnabled: !isTest,
		JobsHandler: func() {
			if isTest {
				return
			}
			if err := a.scheduler.Start(); err != nil {
				zl.Error("Error in starting the scheduler", zap.Error(err))
			}
		},

		WebServerPreHandler: func(r *gin.Engine) {
			if isTest {
				return
			}
			r.Use(cors.New(cors.Config{
				AllowOrigins:     []string{"*"},
				AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
				AllowCredentials: true,
			}))
			routes.Routes(r, a.handler, routes.Options{Gatherer: a.registry})
		},

		MigrationEnabled: !isTest,
		MigrationHandler: func() {
			if isTest {
				return
			}
			ctx := context.Background()
			if err := migrations.BackfillDocumentLists(ctx, db.DB, zl); err != nil {
				zl.Error("Migration failed", zap.Error(err))
			}
			if _, err := migrations.MigrateLegacyDocumentPaths(ctx, a.deps.Records, a.deps.Blobs, zl); err != nil {
				zl.Error("Migration failed", zap.Error(err))
			}
		},
	}
	startServer(options)
}
