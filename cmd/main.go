package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodcourt-system/internal/archive"
	"foodcourt-system/internal/catalog"
	"foodcourt-system/internal/config"
	"foodcourt-system/internal/database"
	"foodcourt-system/internal/logger"
	"foodcourt-system/internal/messaging"
	"foodcourt-system/internal/models"
	"foodcourt-system/internal/notify"
	"foodcourt-system/internal/payments"
	"foodcourt-system/internal/services/notification"
	"foodcourt-system/internal/services/order"
	"foodcourt-system/internal/services/report"
	"foodcourt-system/internal/session"
)

func main() {
	var (
		mode     = flag.String("mode", "", "Service mode (order-service, notification-subscriber, report-sender)")
		port     = flag.Int("port", 3000, "HTTP port")
		prefetch = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode": *mode,
		"port": *port,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	switch *mode {
	case "order-service":
		err = runOrderService(ctx, cfg, log, *port)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log, *prefetch)
	case "report-sender":
		err = runReportSender(ctx, cfg, log)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// newArchive selects the order ledger backend: PostgreSQL when the
// database is configured, the flat CSV file otherwise.
func newArchive(ctx context.Context, cfg *config.Config, log *logger.Logger) (archive.Archive, func(), error) {
	if cfg.Database.Host == "" {
		return archive.NewCSVArchive(cfg.Catalog.OrdersFile), func() {}, nil
	}

	db, err := database.New(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(ctx, "migrations"); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return archive.NewPostgresArchive(db), db.Close, nil
}

// runOrderService runs the HTTP ordering front end
func runOrderService(ctx context.Context, cfg *config.Config, log *logger.Logger, port int) error {
	requestID := logger.GenerateRequestID()

	cat, err := catalog.Load(cfg.Catalog.MenuFile)
	if err != nil {
		var schemaErr models.SchemaError
		if !errors.As(err, &schemaErr) {
			return err
		}
		// Malformed menu source: keep serving with an empty catalog.
		log.Error("catalog_schema_invalid", "Falling back to empty catalog", requestID, err, nil)
		cat = catalog.Empty()
	}
	log.Info("catalog_loaded", fmt.Sprintf("Loaded %d menu entries", cat.Len()), requestID, nil)

	ledger, closeLedger, err := newArchive(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()
	log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)

	publisher := messaging.NewPublisher(conn, log)

	var gateway session.LinkCreator
	if cfg.Payments.GatewayURL != "" {
		gateway = payments.NewGatewayClient(cfg.Payments.GatewayURL, cfg.Payments.GatewayKey)
	}

	loc, err := time.LoadLocation(cfg.Session.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Session.Timezone, err)
	}

	rates := models.RateConfig{
		TaxRatePercent:       cfg.Rates.TaxRatePercent,
		DeliveryRatePercent:  cfg.Rates.DeliveryRatePercent,
		DiscountAbsolute:     cfg.Rates.DiscountAbsolute,
		SurchargeRatePercent: cfg.Rates.SurchargeRatePercent,
	}
	sessions := session.NewManager(rates, loc,
		time.Duration(cfg.Session.IdleTimeoutSeconds)*time.Second,
		time.Duration(cfg.Session.FinalizedLingerSeconds)*time.Second)

	service := order.NewService(sessions, cat, ledger, publisher, gateway, cfg.Payments, log)
	handler := order.NewHandler(service, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler.SetupRoutes(),
	}

	go func() {
		log.Info("service_started", fmt.Sprintf("Order service started on port %d", port), requestID, map[string]interface{}{
			"port": port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// runNotificationSubscriber consumes finalized orders and notifies
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	mailer := notify.NewMailer(cfg.SMTP)

	subscriber := notification.NewSubscriber(consumer, mailer, log)
	return subscriber.Start(ctx)
}

// runReportSender emails the consolidated orders report once and exits
func runReportSender(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	ledger, closeLedger, err := newArchive(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	mailer := notify.NewMailer(cfg.SMTP)
	reporter := report.NewReporter(ledger, mailer, cfg.SMTP.OwnerEmail, log)

	sendCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	return reporter.Send(sendCtx)
}
