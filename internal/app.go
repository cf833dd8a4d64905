package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	logger_adapter "automation-service/internal/adapters/logger"
	postgres_adapter "automation-service/internal/adapters/postgres"
	"automation-service/internal/adapters/realtime"
	"automation-service/internal/adapters/rest"
	"automation-service/internal/configs"
	"automation-service/internal/core/port"
	"automation-service/internal/core/usecase"
	fluentlogger "automation-service/pkg/fluent_logger"
	"automation-service/pkg/postgres"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App – структура приложения
type App struct {
	config    *configs.AppConfig
	dbPool    *pgxpool.Pool
	apiServer *rest.Server

	brokerBackend *realtime.AMQPBackend
	logger        port.LoggerPort
	fluentClient  *fluent.Fluent
}

// NewApp создает новый экземпляр приложения
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false, // текстовый формат
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	// Добавляем Fluent Bit логгер, если он включен в конфигурации
	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName, // Используем имя приложения как префикс
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	// Создаем наш композитный логгер
	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 2. ИСХОДЯЩИЕ АДАПТЕРЫ ---
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool", nil)

	automationStore, err := postgres_adapter.NewAutomationStoreAdapter(dbPool)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to create postgres automation store: %w", err)
	}

	// --- 3. ШИНА СОБЫТИЙ ---
	// Внутрипроцессный бэкенд работает всегда. Бэкенд поверх брокера
	// подключается только если задан RABBITMQ_URL: без него сервис
	// обслуживает подписчиков одного инстанса
	memoryBackend := realtime.NewMemoryBackend(baseLogger)

	var brokerBackend *realtime.AMQPBackend
	var eventBus *realtime.EventBus
	if appConfig.RabbitMQ.URL != "" {
		brokerBackend = realtime.NewAMQPBackend(appConfig.RabbitMQ.URL, baseLogger)
		eventBus = realtime.NewEventBus(memoryBackend, brokerBackend, baseLogger)
		appLogger.Info("Event bus initialized with broker backend", nil)
	} else {
		eventBus = realtime.NewEventBus(memoryBackend, nil, baseLogger)
		appLogger.Info("Event bus initialized in single-instance mode", nil)
	}

	// --- 4. USE CASES ---
	executeRulesUseCase := usecase.NewExecuteRulesUseCase()
	createTaskUseCase := usecase.NewCreateTaskUseCase(automationStore, executeRulesUseCase, eventBus)
	completeTaskUseCase := usecase.NewCompleteTaskUseCase(automationStore, executeRulesUseCase, eventBus)
	moveTaskUseCase := usecase.NewMoveTaskUseCase(automationStore, executeRulesUseCase, eventBus)
	addCommentUseCase := usecase.NewAddCommentUseCase(automationStore, executeRulesUseCase, eventBus)
	appLogger.Info("All use cases initialized", nil)

	// --- 5. REST API Server ---
	taskHandlers := rest.NewTaskHandler(createTaskUseCase, completeTaskUseCase, moveTaskUseCase, addCommentUseCase)
	eventsHandlers := rest.NewEventsHandler(eventBus)
	apiServer := rest.NewServer(appConfig.Rest.PORT, appConfig.Rest.CorsAllowedOrigins, taskHandlers, eventsHandlers, baseLogger)

	// Собираем приложение
	application := &App{
		config:        appConfig,
		dbPool:        dbPool,
		apiServer:     apiServer,
		brokerBackend: brokerBackend,
		logger:        appLogger,
		fluentClient:  fluentClient,
	}

	return application, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	// Единый контекст для всего приложения для управления graceful shutdown
	appCtx, cancelApp := context.WithCancel(context.Background())

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		if a.apiServer != nil {
			if err := a.apiServer.Stop(context.Background()); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
		}

		if a.brokerBackend != nil {
			if err := a.brokerBackend.Close(); err != nil {
				a.logger.Error("Error closing broker backend", err, nil)
			}
		}

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("PostgreSQL pool closed", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				// Логируем в stdout, так как fluent может быть уже недоступен
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	// Ожидание сигнала на завершение или ошибки от одного из компонентов
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	case err := <-serverErrors:
		a.logger.Error("HTTP server failed to start, shutting down", err, nil)
	}

	// Инициируем graceful shutdown, отменяя главный контекст
	cancelApp()

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Возвращаем безопасное значение по умолчанию и логируем предупреждение
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
