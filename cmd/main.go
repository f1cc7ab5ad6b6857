package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	createLeadHandler "github.com/m04kA/AgencyBookingService/internal/api/handlers/create_lead"
	getLeadHandler "github.com/m04kA/AgencyBookingService/internal/api/handlers/get_lead"
	getSlotsHandler "github.com/m04kA/AgencyBookingService/internal/api/handlers/get_slots"
	listLeadsHandler "github.com/m04kA/AgencyBookingService/internal/api/handlers/list_leads"
	syncLeadHandler "github.com/m04kA/AgencyBookingService/internal/api/handlers/sync_lead"
	updateLeadHandler "github.com/m04kA/AgencyBookingService/internal/api/handlers/update_lead"
	"github.com/m04kA/AgencyBookingService/internal/api/middleware"
	"github.com/m04kA/AgencyBookingService/internal/config"
	"github.com/m04kA/AgencyBookingService/internal/events"
	slotsCache "github.com/m04kA/AgencyBookingService/internal/infra/cache/slots"
	bookingRepo "github.com/m04kA/AgencyBookingService/internal/infra/storage/booking"
	outboxRepo "github.com/m04kA/AgencyBookingService/internal/infra/storage/outbox"
	"github.com/m04kA/AgencyBookingService/internal/integrations/googlecalendar"
	bookingsService "github.com/m04kA/AgencyBookingService/internal/service/bookings"
	"github.com/m04kA/AgencyBookingService/internal/service/calendarsync"
	createBookingUC "github.com/m04kA/AgencyBookingService/internal/usecase/create_booking"
	getClaimedSlotsUC "github.com/m04kA/AgencyBookingService/internal/usecase/get_claimed_slots"
	"github.com/m04kA/AgencyBookingService/pkg/dbmetrics"
	"github.com/m04kA/AgencyBookingService/pkg/logger"
	"github.com/m04kA/AgencyBookingService/pkg/metrics"
	"github.com/m04kA/AgencyBookingService/pkg/txmanager"
)

func main() {
	configPath := "config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting AgencyBookingService...")
	log.Info("Configuration loaded from %s", configPath)

	venueLocation, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Fatal("Failed to load venue timezone %s: %v", cfg.Booking.Timezone, err)
	}

	// Метрики. nil-коллектор безопасен, вызовы игнорируются
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}

	// Репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	outboxRepository := outboxRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Кэш занятых слотов (опционально). Интерфейсы остаются nil, если Redis выключен
	var (
		claimedCache     getClaimedSlotsUC.SlotCache
		cacheInvalidator createBookingUC.SlotCacheInvalidator
		serviceCache     bookingsService.SlotCacheInvalidator
	)
	if cfg.Redis.Enabled {
		redisClient, err := slotsCache.NewClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()

		cache := slotsCache.NewCache(redisClient, cfg.Redis.SlotsTTL)
		claimedCache, cacheInvalidator, serviceCache = cache, cache, cache
		log.Info("Claimed slots cache enabled (addr=%s, ttl=%s)", cfg.Redis.Addr, cfg.Redis.SlotsTTL)
	}

	// Доставка событий смены статуса
	deliverer := events.NewDeliverer(outboxRepository, log, metricsCollector).
		WithBatchSize(cfg.Sync.BatchSize).
		WithInterval(cfg.Sync.PollInterval).
		WithLease(cfg.Sync.Lease).
		WithRetryDelays(cfg.Sync.RetryBaseDelay, cfg.Sync.RetryMaxDelay)

	if cfg.Calendar.Enabled {
		calendarLocation, err := time.LoadLocation(cfg.Calendar.Timezone)
		if err != nil {
			log.Fatal("Failed to load calendar timezone %s: %v", cfg.Calendar.Timezone, err)
		}

		calendarClient, err := googlecalendar.NewClient(
			context.Background(),
			cfg.Calendar.CredentialsFile,
			cfg.Calendar.CalendarID,
			cfg.Calendar.Timezone,
			cfg.Calendar.Timeout,
		)
		if err != nil {
			log.Fatal("Failed to initialize calendar client: %v", err)
		}

		reconciler := calendarsync.NewReconciler(
			bookingRepository,
			txMgr,
			calendarClient,
			metricsCollector,
			log,
			calendarLocation,
			cfg.Calendar.EventDuration,
		)
		deliverer.Subscribe(reconciler)
		log.Info("Calendar sync enabled (calendar=%s, timezone=%s, timeout=%s)",
			cfg.Calendar.CalendarID, cfg.Calendar.Timezone, cfg.Calendar.Timeout)
	} else {
		log.Warn("Calendar sync disabled, status events are acknowledged without external sync")
	}

	// Сервисы и use cases
	timeProvider := &getClaimedSlotsUC.RealTimeProvider{Location: venueLocation}

	bookingSvc := bookingsService.NewService(
		bookingRepository,
		outboxRepository,
		txMgr,
		serviceCache,
		deliverer,
		metricsCollector,
		log,
	)

	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		cacheInvalidator,
		metricsCollector,
		timeProvider,
		log,
	)

	getClaimedSlotsUseCase := getClaimedSlotsUC.NewUseCase(
		bookingRepository,
		claimedCache,
		metricsCollector,
		timeProvider,
		log,
	)

	// Инициализируем handlers
	createLead := createLeadHandler.NewHandler(createBookingUseCase, log)
	getSlots := getSlotsHandler.NewHandler(getClaimedSlotsUseCase, log)
	listLeads := listLeadsHandler.NewHandler(bookingSvc, log)
	getLead := getLeadHandler.NewHandler(bookingSvc, log)
	updateLead := updateLeadHandler.NewHandler(bookingSvc, log)
	syncLead := syncLeadHandler.NewHandler(bookingSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.Recover(log))
	r.Use(middleware.Observe(log, metricsCollector))

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// --- Форма записи ---
	api.HandleFunc("/slots", getSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/leads", createLead.Handle).Methods(http.MethodPost)

	// --- Администрирование заявок ---
	api.HandleFunc("/leads", listLeads.Handle).Methods(http.MethodGet)
	api.HandleFunc("/leads/{leadId}", getLead.Handle).Methods(http.MethodGet)
	api.HandleFunc("/leads/{leadId}", updateLead.Handle).Methods(http.MethodPatch)
	api.HandleFunc("/leads/{leadId}/sync", syncLead.Handle).Methods(http.MethodPost)

	// Запускаем доставку событий
	delivererCtx, stopDeliverer := context.WithCancel(context.Background())
	delivererDone := make(chan struct{})
	go func() {
		defer close(delivererDone)
		deliverer.Start(delivererCtx)
	}()
	log.Info("Outbox deliverer started (interval=%s, batch=%d)", cfg.Sync.PollInterval, cfg.Sync.BatchSize)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Незавершенные события останутся в outbox и будут доставлены после рестарта
	stopDeliverer()
	select {
	case <-delivererDone:
		log.Info("Outbox deliverer stopped")
	case <-shutdownCtx.Done():
		log.Warn("Outbox deliverer did not stop before shutdown timeout")
	}

	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	log.Info("Server stopped gracefully")
}
