package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"canteen-system/internal/canteen"
	"canteen-system/internal/cart"
	"canteen-system/internal/checkout"
	"canteen-system/internal/config"
	"canteen-system/internal/database"
	"canteen-system/internal/feedback"
	"canteen-system/internal/logger"
	"canteen-system/internal/menu"
	"canteen-system/internal/messaging"
	"canteen-system/internal/order"
	"canteen-system/internal/services/notification"
	"canteen-system/internal/services/pos"
)

func main() {
	// Parse command line flags
	var (
		mode       = flag.String("mode", "", "Service mode (pos-service, notification-subscriber)")
		port       = flag.Int("port", 3000, "HTTP port")
		configPath = flag.String("config", "config.yaml", "Path to the config file")
	)
	flag.Parse()

	// Validate required mode flag
	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	// Load local environment overrides, then configuration
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
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

	// Set up graceful shutdown
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
	case "pos-service":
		if err := runPOSService(ctx, cfg, log, *port); err != nil {
			log.Error("service_failed", "POS service failed", requestID, err, nil)
			os.Exit(1)
		}
	case "notification-subscriber":
		if err := runNotificationSubscriber(ctx, cfg, log); err != nil {
			log.Error("service_failed", "Notification subscriber failed", requestID, err, nil)
			os.Exit(1)
		}
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// runPOSService runs the point-of-sale service
func runPOSService(ctx context.Context, cfg *config.Config, log *logger.Logger, port int) error {
	requestID := logger.GenerateRequestID()

	// Feedback store: durable when a database is configured, in-memory
	// otherwise. Orders and the cart always stay in memory.
	var store feedback.Store = feedback.NewMemoryStore()
	var health pos.HealthFunc

	if cfg.Database.Host != "" {
		db, err := database.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)
		store = feedback.NewPostgresStore(db)
		health = func(ctx context.Context) bool { return db.Ping(ctx) == nil }
	} else {
		log.Info("db_skipped", "No database configured, feedback kept in memory", requestID, nil)
	}

	// Status stream: optional, display collaborators can also poll.
	var sinks []order.StatusSink
	if cfg.RabbitMQ.Host != "" {
		conn, err := messaging.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()

		log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)
		sinks = append(sinks, messaging.NewStatusSink(messaging.NewPublisher(conn, log), log))
	} else {
		log.Info("rabbitmq_skipped", "No RabbitMQ configured, status updates are poll-only", requestID, nil)
	}

	// One vendor, one customer, one cart per process run.
	vend := canteen.NewVendor("V001", "Abhyasi Cafe")
	cust := canteen.NewCustomer("C001", "John Doe")
	seedMenu(vend, log, requestID)

	sessionCart := cart.New("CART-1", cust.CustomerID())
	engine := checkout.NewEngine(cfg.PreparationTime(), cfg.TickInterval(), store, log, sinks...)
	handler := pos.NewHandler(engine, sessionCart, cust, vend, log, health)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler.SetupRoutes(),
	}

	go func() {
		log.Info("service_started", fmt.Sprintf("POS service started on port %d", port), requestID, map[string]interface{}{
			"port":                port,
			"preparation_time_ms": cfg.Canteen.PreparationTimeMS,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

// runNotificationSubscriber runs the status stream display collaborator
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, messaging.StatusQueue, "notification-subscriber", 1)
	subscriber := notification.NewSubscriber(consumer, log)

	return subscriber.Start(ctx)
}

// seedMenu fills the vendor's menu with the canteen's standing items
func seedMenu(vend *canteen.Vendor, log *logger.Logger, requestID string) {
	seed := []struct {
		id       string
		name     string
		price    float64
		category string
	}{
		{"F001", "Veg Momo", 12.5, "Snacks"},
		{"F002", "Burger", 15.0, "Snacks"},
		{"F003", "Cold Coffee", 10.0, "Beverages"},
		{"F004", "Masala Dosa", 14.0, "Meals"},
		{"F005", "Lemon Tea", 5.0, "Beverages"},
	}

	for _, s := range seed {
		item, err := menu.NewFoodItem(s.id, s.name, s.price, s.category)
		if err != nil {
			log.Error("menu_seed_failed", fmt.Sprintf("Skipping menu item %s", s.id), requestID, err, nil)
			continue
		}
		vend.Menu().AddItem(item)
	}
}
