package main

import (
	"context"
	"log"
	"net/smtp"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shockvaluemedia/directfanz-billing/broker"
	"github.com/Shockvaluemedia/directfanz-billing/notification"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
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
			"component": "mailer",
		},
	}
	core, err := zapsentry.NewCore(cfg, zapsentry.NewSentryClientFromClient(sentry.CurrentHub().Client()))
	if err != nil {
		logger.Fatal("Cannot initialize zapsentry",
			zap.Error(err),
		)
	}
	logger = zapsentry.AttachCoreToLogger(core, logger)

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

	amqpBroker, err := broker.NewAMQPBroker(os.Getenv("AMQP_URI"))
	if err != nil {
		logger.Fatal("Cannot connect to Broker",
			zap.Error(err),
		)
	}
	defer amqpBroker.Close()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	msgChan, err := amqpBroker.ReceiveMessages(ctx)
	if err != nil {
		logger.Fatal("Cannot get message channel",
			zap.Error(err),
		)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgChan:
				if err := mailer.Send(ctx, msg); err != nil {
					logger.Error("Unable to deliver notification",
						zap.String("To", msg.To),
						zap.Error(err),
					)
				}
			}
		}
	}()

	logger.Info("Mailer worker started")

	<-c
	cancel()
}
