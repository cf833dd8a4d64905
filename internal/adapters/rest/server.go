package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	core_port "automation-service/internal/core/port"
)

// Server - наш REST API сервер для automation-service.
type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

func NewServer(port string, corsAllowedOrigins []string, taskHandlers *TaskHandler, eventsHandlers *EventsHandler, baseLogger core_port.LoggerPort) *Server {
	r := chi.NewRouter()

	// Общие middleware
	r.Use(LoggerMiddleware(baseLogger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		// AllowedOrigins - список доменов, с которых разрешены запросы
		AllowedOrigins: corsAllowedOrigins,

		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},

		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-User-ID", "X-Trace-ID"},

		AllowCredentials: true,

		// На сколько секунд браузер может кэшировать результат preflight-запроса
		MaxAge: 300,
	}))

	// Роутинг для API v1. Все роуты вызываются от имени пользователя
	// (через API Gateway), поэтому AuthMiddleware применяется ко всем.
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware)

			// POST /api/v1/tasks - создать задачу
			r.Post("/tasks", taskHandlers.CreateTask)

			// POST /api/v1/tasks/{taskID}/complete - завершить задачу
			r.Post("/tasks/{taskID}/complete", taskHandlers.CompleteTask)

			// POST /api/v1/tasks/{taskID}/move - переместить задачу в секцию
			r.Post("/tasks/{taskID}/move", taskHandlers.MoveTask)

			// POST /api/v1/tasks/{taskID}/comments - добавить комментарий
			r.Post("/tasks/{taskID}/comments", taskHandlers.AddComment)

			// GET /api/v1/events/subscribe - подписаться на события рабочего пространства
			r.Get("/events/subscribe", eventsHandlers.SubscribeToEvents)
		})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	return &Server{
		httpServer: srv,
		logger:     baseLogger,
	}
}

// Start запускает HTTP-сервер.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
