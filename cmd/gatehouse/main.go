package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platinummonkey/gatehouse/pkg/auth"
	"github.com/platinummonkey/gatehouse/pkg/config"
	"github.com/platinummonkey/gatehouse/pkg/logging"
	"github.com/platinummonkey/gatehouse/pkg/middleware"
	"github.com/platinummonkey/gatehouse/pkg/notification"
	"github.com/platinummonkey/gatehouse/pkg/observability"
	"github.com/platinummonkey/gatehouse/pkg/projects/club"
	"github.com/platinummonkey/gatehouse/pkg/session"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("gatehouse exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	// Session store
	store, storeClose, err := buildSessionStore(cfg, logger)
	if err != nil {
		return err
	}
	defer storeClose()

	// Event log sinks behind one async queue
	eventLog, err := buildEventLog(cfg, logger)
	if err != nil {
		return err
	}

	// Project auth configuration
	projects, err := config.LoadProjects(cfg.ProjectsDir)
	if err != nil {
		return err
	}
	for _, p := range projects.Configs {
		logger.WithField("project", p.Project()).Info("Loaded project auth config")
	}

	// The session header is project configuration, not a built-in.
	sessionHeader, err := projects.SessionHeaderName()
	if err != nil {
		return err
	}

	metrics := auth.NewMetrics(prometheus.DefaultRegisterer)

	engine, err := auth.NewEngine(
		[]auth.CredentialScheme{
			auth.NewAPIKeyScheme(),
			auth.NewSessionTokenScheme(store, sessionHeader),
		},
		projects.Sources, projects.Roles, projects.Configs, logger,
		auth.WithAuditWriter(eventLog),
		auth.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	// Notification channel
	sender, err := buildSender(cfg)
	if err != nil {
		return err
	}

	var catalog *notification.Catalog
	if cfg.Notification.CatalogDir != "" {
		catalog, err = notification.LoadCatalog(cfg.Notification.CatalogDir)
		if err != nil {
			return err
		}
		defer catalog.Close()
		if cfg.Notification.CatalogWatch {
			if err := catalog.Watch(); err != nil {
				return err
			}
		}
	}

	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	defer cancelDispatch()
	dispatcher := notification.NewDispatcher(dispatchCtx, sender, eventLog, cfg.Notification.Workers)

	// Routes
	router := mux.NewRouter()
	router.Use(middleware.Recoverer(logger, eventLog))
	router.Use(middleware.RequestID)

	authn := middleware.NewAuthenticator(engine, logger)
	club.RegisterRoutes(router, &club.Handlers{
		Authn:      authn,
		Dispatcher: dispatcher,
		Catalog:    catalog,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := buildHealthServer(cfg)

	sm := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	sm.Register(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	sm.Register(func(_ context.Context) error {
		return dispatcher.Shutdown(cfg.Server.ShutdownTimeout)
	})
	sm.Register(eventLog.Shutdown)

	go func() {
		logger.WithField("addr", healthServer.Addr).Info("Health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	go func() {
		logger.WithField("addr", server.Addr).Info("Gatehouse listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
		}
	}()

	return sm.WaitForShutdown()
}

// buildSessionStore constructs the configured session store and a cleanup
// function. The store only holds records; TTL and renew policy come from each
// project's session config when a credential is validated.
func buildSessionStore(cfg *config.Config, logger *observability.Logger) (session.Store, func(), error) {
	sessionCfg := &session.Config{}
	sessionCfg.Normalize()

	switch cfg.SessionStore.Type {
	case "redis":
		client, err := session.NewRedisClient(cfg.SessionStore.Redis)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using redis session store")
		return session.NewRedisStore(client, sessionCfg), func() { client.Close() }, nil
	case "memory":
		store, err := session.NewMemoryStore(cfg.SessionStore.MemorySize, sessionCfg, cfg.SessionStore.SweepSchedule)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using in-memory session store")
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store type %q", cfg.SessionStore.Type)
	}
}

// buildEventLog assembles the enabled sinks behind a single async writer
func buildEventLog(cfg *config.Config, logger *observability.Logger) (logging.Writer, error) {
	var sinks []logging.Writer

	if cfg.EventLog.FileEnabled {
		fw, err := logging.NewFileWriter(logging.FileWriterConfig{
			BasePath: cfg.EventLog.FileDir,
			Rotate:   cfg.EventLog.FileRotate,
			MaxSize:  cfg.EventLog.FileMaxSize,
			MaxFiles: cfg.EventLog.FileMaxFiles,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fw)
	}

	if cfg.EventLog.PostgresEnabled {
		db, err := sql.Open("postgres", cfg.EventLog.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log database: %w", err)
		}
		pw, err := logging.NewPostgresWriter(db)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, pw)
	}

	if cfg.EventLog.S3Enabled {
		client, err := buildS3Client(cfg.EventLog)
		if err != nil {
			return nil, err
		}
		sw, err := logging.NewS3Writer(client, logging.S3WriterConfig{
			Bucket:    cfg.EventLog.S3Bucket,
			Prefix:    cfg.EventLog.S3Prefix,
			BatchSize: cfg.EventLog.S3BatchSize,
			Interval:  cfg.EventLog.S3Interval,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sw)
	}

	var next logging.Writer
	switch len(sinks) {
	case 0:
		logger.Warn("No event log sinks enabled, events will be dropped")
		return logging.NewAsyncWriter(logging.NewMultiWriter(), cfg.EventLog.QueueSize, logger), nil
	case 1:
		next = sinks[0]
	default:
		next = logging.NewMultiWriter(sinks...)
	}

	return logging.NewAsyncWriter(next, cfg.EventLog.QueueSize, logger), nil
}

// buildS3Client creates the S3 client for the event log sink. Static
// credentials and a custom endpoint support MinIO in local development; the
// default credential chain covers IAM roles in production.
func buildS3Client(cfg config.EventLogConfig) (*s3.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var awsCfg aws.Config
	var err error
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.S3AccessKey,
				cfg.S3SecretKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		if cfg.S3UsePathStyle {
			o.UsePathStyle = true
		}
	}), nil
}

// buildSender constructs the configured notification channel
func buildSender(cfg *config.Config) (notification.ChannelSender, error) {
	switch cfg.Notification.Channel {
	case "webhook":
		return notification.NewWebhookSender(cfg.Notification.WebhookURL, cfg.Notification.MaxReceivers), nil
	case "mock":
		return notification.NewMockSender(), nil
	default:
		return nil, fmt.Errorf("unknown notification channel %q", cfg.Notification.Channel)
	}
}

// buildHealthServer serves liveness and metrics on the separate health port
func buildHealthServer(cfg *config.Config) *http.Server {
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", promhttp.Handler())
	}
	return &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}
}
