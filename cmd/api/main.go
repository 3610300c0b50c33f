package main

import (
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"net/smtp"
	"os"
	"time"

	"github.com/Shockvaluemedia/directfanz-billing/broker"
	"github.com/Shockvaluemedia/directfanz-billing/db"
	"github.com/Shockvaluemedia/directfanz-billing/notification"
	"github.com/Shockvaluemedia/directfanz-billing/subscription"
	"github.com/Shockvaluemedia/directfanz-billing/webhook"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi"
	"github.com/go-redis/redis/v7"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build-time injected variables
var (
	Version = ""
)

func main() {
	var logger *zap.Logger
	var dotFile string
	var err error

	// Determine running environment and initialize structural logger
	env := os.Getenv("API_ENV")
	production := "production" == env
	if production {
		dotFile = ".env.production"
		logger, err = zap.NewProduction()
	} else {
		dotFile = ".env.development"
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Cannot initialize logger: %v\n", err)
	}
	logger = logger.With(zap.String("Version", Version))
	defer logger.Sync()

	// Load configurations from dotFile
	if err := godotenv.Load(dotFile); err != nil {
		logger.Fatal("Cannot load configurations from .env",
			zap.Error(err),
		)
	}

	// Initialize sentry for error reporting
	if err := sentry.Init(sentry.ClientOptions{
		Environment: env,
		Debug:       !production,
	}); err != nil {
		logger.Fatal("Cannot initialize sentry",
			zap.Error(err),
		)
	}
	defer sentry.Flush(time.Second * 2)

	// Attach sentry to zap so we can do automatic error capturing
	cfg := zapsentry.Configuration{
		Level: zapcore.ErrorLevel,
		Tags: map[string]string{
			"component": "api",
		},
	}
	core, err := zapsentry.NewCore(cfg, zapsentry.NewSentryClientFromClient(sentry.CurrentHub().Client()))
	if err != nil {
		logger.Fatal("Cannot initialize zapsentry",
			zap.Error(err),
		)
	}
	logger = zapsentry.AttachCoreToLogger(core, logger)

	// The webhook secret authenticates every inbound event; without it the
	// endpoint cannot run at all
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if len(webhookSecret) == 0 {
		logger.Fatal("STRIPE_WEBHOOK_SECRET is not configured")
	}

	dbInstance, err := db.New(logger, os.Getenv("POSTGRES_URI"))
	if err != nil {
		logger.Fatal("Cannot connect to Postgres",
			zap.Error(err),
		)
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{os.Getenv("REDIS_URI")},
		Password: os.Getenv("REDIS_PW"),
		DB:       0,
	})
	if _, err := rdb.Ping().Result(); err != nil {
		logger.Fatal("Cannot connect to Redis",
			zap.Error(err),
		)
	}
	defer rdb.Close()

	subscriptionManager, err := subscription.NewManager(subscription.ManagerOptions{
		DB:     dbInstance,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize SubscriptionManager",
			zap.Error(err),
		)
	}

	deduper, err := webhook.NewRedisDeduper(webhook.RedisDeduperOptions{
		Client: rdb,
	})
	if err != nil {
		logger.Fatal("Cannot initialize webhook Deduper",
			zap.Error(err),
		)
	}

	// Notifications go through the broker when one is configured, otherwise
	// straight out via SMTP
	var sender notification.Sender
	if amqpURI := os.Getenv("AMQP_URI"); len(amqpURI) > 0 {
		amqpBroker, err := broker.NewAMQPBroker(amqpURI)
		if err != nil {
			logger.Fatal("Cannot connect to Broker",
				zap.Error(err),
			)
		}
		defer amqpBroker.Close()
		sender = amqpBroker
	} else {
		smtpAuth := smtp.PlainAuth("", os.Getenv("SMTP_USERNAME"), os.Getenv("SMTP_PASSWORD"), os.Getenv("SMTP_HOST"))
		mailer, err := notification.NewMailer(notification.MailerOptions{
			Auth:     smtpAuth,
			From:     os.Getenv("SMTP_FROM"),
			Hostname: os.Getenv("SMTP_HOST") + ":" + os.Getenv("SMTP_PORT"),
		})
		if err != nil {
			logger.Fatal("Cannot initialize Mailer",
				zap.Error(err),
			)
		}
		sender = mailer
	}

	engine, err := webhook.NewEngine(webhook.EngineOptions{
		Store:    subscriptionManager,
		Sender:   sender,
		Deduper:  deduper,
		Logger:   logger,
		SiteName: os.Getenv("SITE_NAME"),
	})
	if err != nil {
		logger.Fatal("Cannot initialize webhook Engine",
			zap.Error(err),
		)
	}

	verifier, err := webhook.NewVerifier(webhookSecret)
	if err != nil {
		logger.Fatal("Cannot initialize webhook Verifier",
			zap.Error(err),
		)
	}

	webhookRouter, err := webhook.NewService(webhook.Options{
		Verifier: verifier,
		Engine:   engine,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Webhook Service Router",
			zap.Error(err),
		)
	}

	rootRouter := chi.NewRouter()

	rootRouter.Mount("/webhooks/stripe", webhookRouter.Router())

	rootRouter.HandleFunc("/pprof/*", pprof.Index)
	rootRouter.HandleFunc("/pprof/cmdline", pprof.Cmdline)
	rootRouter.HandleFunc("/pprof/profile", pprof.Profile)
	rootRouter.HandleFunc("/pprof/symbol", pprof.Symbol)
	rootRouter.HandleFunc("/pprof/trace", pprof.Trace)

	rootRouter.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok")
	})

	srv := &http.Server{
		Handler: rootRouter,
		Addr:    ":42069",
	}

	log.Fatalln(srv.ListenAndServe())
}
