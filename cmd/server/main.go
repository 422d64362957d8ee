package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"infocollect/internal/config"
	"infocollect/internal/db"
	"infocollect/internal/handler"
	transport "infocollect/internal/http"
	"infocollect/internal/logger"
	"infocollect/internal/mail"
	"infocollect/internal/network"
	"infocollect/internal/repository"
	"infocollect/internal/service"
	"infocollect/internal/snowflake"
	"infocollect/internal/transient"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := snowflake.Init(1); err != nil {
		log.Fatalf("init snowflake: %v", err)
	}

	dbConn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer dbConn.Close()

	submissionRepo := repository.NewSubmissionRepository(dbConn)
	settingsRepo := repository.NewSettingsRepository(dbConn)

	var sender mail.Sender
	if cfg.SMTPHost != "" {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		sender = mail.NewNoopSender()
	}

	clientFactory := network.NewClientFactory(cfg.WebhookInsecureSkipVerify)

	settingsService := service.NewSettingsService(settingsRepo)
	authService := service.NewAuthService(settingsRepo)
	webhookService := service.NewWebhookService(settingsRepo, submissionRepo, clientFactory, cfg.SiteURL, cfg.SiteName)
	notificationService := service.NewNotificationService(settingsRepo, sender, cfg.SiteURL, cfg.SiteName, cfg.AdminEmail)
	submissionService := service.NewSubmissionService(submissionRepo, notificationService, webhookService)

	transients := transient.NewStore(settingsRepo)

	formHandler := handler.NewFormHandler(submissionService, transients, cfg.SiteURL, cfg.SiteName)
	submissionHandler := handler.NewSubmissionHandler(submissionService)
	settingsHandler := handler.NewSettingsHandler(settingsService, webhookService)
	authHandler := handler.NewAuthHandler(authService)

	router, err := transport.NewRouter(formHandler, submissionHandler, settingsHandler, authHandler, authService)
	if err != nil {
		log.Fatalf("init router: %v", err)
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down",
			"module", "main", "action", "shutdown", "resource", "server", "result", "ok")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := router.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	logger.Info("server starting",
		"module", "main", "action", "start", "resource", "server", "result", "ok",
		"addr", cfg.Addr)
	if err := router.Start(cfg.Addr); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
