package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"automation-service/internal/contextkeys"
	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"

	"github.com/google/uuid"
)

// Интервал heartbeat-комментариев, которые не дают прокси закрыть
// простаивающее SSE-соединение.
const heartbeatInterval = 30 * time.Second

// Размер буфера исходящих кадров на одного клиента. Медленный клиент
// с заполненным буфером теряет новые события, но не блокирует шину.
const clientBufferSize = 64

type EventsHandler struct {
	bus port.EventBusPort
}

func NewEventsHandler(bus port.EventBusPort) *EventsHandler {
	return &EventsHandler{bus: bus}
}

// formatSSEFrame - сериализация события в текстовый кадр SSE.
// В data кладем полезную нагрузку события вместе с его типом и
// workspaceId, чтобы клиент мог обойтись одним onmessage-обработчиком.
func formatSSEFrame(event domain.RealtimeEvent) ([]byte, error) {
	payload := make(map[string]interface{}, len(event.Data)+2)
	for k, v := range event.Data {
		payload[k] = v
	}
	payload["type"] = event.Type
	payload["workspaceId"] = event.WorkspaceID

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SSE payload: %w", err)
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, body)), nil
}

// SubscribeToEvents - обработчик для GET /api/v1/events/subscribe
func (h *EventsHandler) SubscribeToEvents(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SubscribeToEvents"})

	userID, ok := r.Context().Value(userIDKey).(uuid.UUID)
	if !ok {
		logger.Error("User ID in context for SSE subscription invalid or missing", nil, nil)
		WriteJSONError(w, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	workspaceID := r.URL.Query().Get("workspace_id")
	if workspaceID == "" {
		logger.Warn("Query parameter 'workspace_id' is required", nil)
		WriteJSONError(w, http.StatusBadRequest, "Query parameter 'workspace_id' is required")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{
		"user_id":      userID.String(),
		"workspace_id": workspaceID,
	})
	handlerLogger.Info("New client subscribing to SSE events", nil)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan []byte, clientBufferSize)
	dispose := h.bus.Subscribe(workspaceID, func(event domain.RealtimeEvent) {
		frame, err := formatSSEFrame(event)
		if err != nil {
			handlerLogger.Error("Failed to format SSE frame, event dropped", err, port.Fields{"event_type": event.Type})
			return
		}
		// Не блокируемся на медленном клиенте: при переполнении
		// буфера событие для этого клиента теряется.
		select {
		case clientChan <- frame:
		default:
			handlerLogger.Warn("Client buffer full, SSE event dropped", port.Fields{"event_type": event.Type})
		}
	})
	// Порядок важен: сначала останавливается тикер (defer ниже),
	// и только потом снимается подписка.
	defer dispose()

	// Отправляем подтверждение установки соединения
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"ok\"}\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	// Строки, начинающиеся с двоеточия, по спецификации SSE являются
	// комментариями: браузер их игнорирует, но соединение живет
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-clientChan:
			if _, err := w.Write(frame); err != nil {
				handlerLogger.Error("Error writing to client, closing SSE connection", err, nil)
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": heartbeat\n\n"); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

		case <-r.Context().Done():
			handlerLogger.Info("SSE client disconnected", nil)
			return
		}
	}
}
