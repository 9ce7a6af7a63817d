package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	adminConfirmHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/admin_confirm_appointment"
	confirmHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/confirm_appointment"
	createAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_appointment"
	deleteAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/delete_appointment"
	getAvailableSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_available_slots"
	listAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_appointments"
	refreshCodeHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/refresh_code"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	customerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/customer"
	occupationRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/occupation"
	offeringRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/offering"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifier"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/whatsapp"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	createAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
	getAvailableSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/tracing"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

const eventsPublishTimeout = 5 * time.Second

// codeNotifier доставка кода подтверждения клиенту
type codeNotifier interface {
	SendConfirmationCode(ctx context.Context, phone, code string) error
}

func main() {
	// Загружаем конфигурацию
	configPath := "config.toml"
	if v, ok := os.LookupEnv("CONFIG_PATH"); ok {
		configPath = v
	}
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

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from %s", configPath)

	// Трейсинг (no-op провайдер, если выключен)
	shutdownTracing, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Metrics.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal("Failed to setup tracing: %v", err)
	}
	if cfg.Tracing.Enabled {
		log.Info("Tracing enabled (otlp=%s, ratio=%.2f)", cfg.Tracing.OTLPEndpoint, cfg.Tracing.SampleRatio)
	}

	// Инициализируем метрики (если включены)
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

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Без коллектора обёртка только переносит транзакцию через контекст
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)

	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	customerRepository := customerRepo.NewRepository(wrappedDB)
	occupationRepository := occupationRepo.NewRepository(wrappedDB)
	offeringRepository := offeringRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Доставка кода подтверждения
	codeSender, notifierCloser, err := newNotifier(cfg.Notifications, log)
	if err != nil {
		log.Fatal("Failed to initialize notifier: %v", err)
	}
	defer notifierCloser.Close()
	log.Info("Confirmation code notifier: %s", cfg.Notifications.Driver)

	// События жизненного цикла записи
	var publisher interface {
		createAppointmentUC.EventPublisher
		io.Closer
	} = events.NopPublisher{}
	if cfg.Events.Enabled {
		publisher = events.NewPublisher(events.NewKafkaWriter(cfg.Events.Brokers, cfg.Events.Topic), eventsPublishTimeout)
		log.Info("Appointment events enabled (brokers=%v, topic=%s)", cfg.Events.Brokers, cfg.Events.Topic)
	}
	defer publisher.Close()

	slotsConfig, err := newSlotsConfig(cfg.Slots)
	if err != nil {
		log.Fatal("Failed to build slots config: %v", err)
	}

	// Инициализируем сервисы
	appointmentSvc := appointmentsService.NewService(
		appointmentRepository,
		customerRepository,
		txMgr,
		codeSender,
		publisher,
		metricsCollector,
		slotsConfig.Location,
		log,
	)

	// Инициализируем use cases
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		customerRepository,
		offeringRepository,
		occupationRepository,
		appointmentRepository,
		txMgr,
		codeSender,
		publisher,
		metricsCollector,
		createAppointmentUC.Options{
			Slots:      slotsConfig,
			CodeLength: cfg.Confirmation.CodeLength,
			Attempts:   cfg.Confirmation.Attempts,
		},
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		offeringRepository,
		occupationRepository,
		slotsConfig,
		log,
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, slotsConfig.Location, log)
	refreshCode := refreshCodeHandler.NewHandler(appointmentSvc, log)
	confirmAppointment := confirmHandler.NewHandler(appointmentSvc, log)
	adminConfirm := adminConfirmHandler.NewHandler(appointmentSvc, log)
	deleteAppointment := deleteAppointmentHandler.NewHandler(appointmentSvc, log)
	listAppointments := listAppointmentsHandler.NewHandler(appointmentSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.Recover(log), middleware.RequestID, middleware.AccessLog(log))

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES
	// ============================================================

	// Свободные слоты услуги мастера
	api.HandleFunc("/offerings/{offering_id}/slots/", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Маршруты с кодом подтверждения ограничиваются по частоте
	codes := api.PathPrefix("").Subrouter()
	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		var limiter middleware.Limiter
		if cfg.RateLimit.RedisAddr != "" {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.RateLimit.RedisAddr,
				Password: cfg.RateLimit.RedisPassword,
				DB:       cfg.RateLimit.RedisDB,
			})
			if err := redisClient.Ping(context.Background()).Err(); err != nil {
				log.Warn("Redis is not reachable at %s: %v", cfg.RateLimit.RedisAddr, err)
			}
			limiter = middleware.NewRedisLimiter(redisClient, cfg.RateLimit.Limit, window, "rl:appointments")
			log.Info("Rate limiting enabled (redis=%s, limit=%d per %s)", cfg.RateLimit.RedisAddr, cfg.RateLimit.Limit, window)
		} else {
			limiter = middleware.NewLocalLimiter(cfg.RateLimit.Limit, window)
			log.Info("Rate limiting enabled (in-memory, limit=%d per %s)", cfg.RateLimit.Limit, window)
		}
		codes.Use(middleware.RateLimit(limiter, cfg.RateLimit.FailOpen, log))
	}

	// Создание записи, клиент получает код
	codes.HandleFunc("/appointments/", createAppointment.Handle).Methods(http.MethodPost)

	// Повторная отправка кода
	codes.HandleFunc("/appointments/{id}/refresh/", refreshCode.Handle).Methods(http.MethodPost)

	// Подтверждение кодом
	codes.HandleFunc("/appointments/{id}/confirm/", confirmAppointment.Handle).Methods(http.MethodPost)

	// ============================================================
	// ADMIN ROUTES (требуют Auth-Token header)
	// ============================================================

	admin := api.PathPrefix("").Subrouter()
	admin.Use(middleware.AdminAuth(cfg.Auth.AdminToken, log))
	if cfg.Auth.AdminToken == "" {
		log.Warn("auth.admin_token is empty, admin routes will reject every request")
	}

	// Список записей с фильтрами
	admin.HandleFunc("/appointments/", listAppointments.Handle).Methods(http.MethodGet)

	// Подтверждение без кода
	admin.HandleFunc("/appointments/{id}/admin_confirm/", adminConfirm.Handle).Methods(http.MethodPost)

	// Удаление записи вместе со слотом
	admin.HandleFunc("/appointments/{id}/", deleteAppointment.Handle).Methods(http.MethodDelete)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, cfg.Metrics.ServiceName),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
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

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("Failed to close redis client: %v", err)
		}
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// newNotifier выбирает канал доставки кода по настройке driver
func newNotifier(cfg config.NotificationsConfig, log *logger.Logger) (codeNotifier, io.Closer, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Driver {
	case config.NotifierRabbitMQ:
		mq, err := notifier.Dial(cfg.URL, cfg.Queue, timeout, log)
		if err != nil {
			return nil, nil, err
		}
		return mq, mq, nil

	case config.NotifierWhatsApp:
		client := whatsapp.NewClient(cfg.GatewayURL, cfg.GatewayToken, timeout, log)
		return client, client, nil

	default:
		n := notifier.NewLogNotifier(log)
		return n, n, nil
	}
}

// newSlotsConfig переводит секцию [slots] в сетку слотов домена
func newSlotsConfig(cfg config.SlotsConfig) (domain.SlotsConfig, error) {
	loc, err := cfg.Location()
	if err != nil {
		return domain.SlotsConfig{}, err
	}

	return domain.SlotsConfig{
		Days:     cfg.Days,
		Open:     cfg.StartTime,
		Close:    cfg.EndTime,
		Interval: time.Duration(cfg.IntervalMinutes) * time.Minute,
		Location: loc,
	}, nil
}
