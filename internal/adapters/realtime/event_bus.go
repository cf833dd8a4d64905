package realtime

import (
	"context"

	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"
)

// channelForWorkspace - детерминированное имя канала доставки.
// Сырые имена каналов наружу из пакета не выходят.
func channelForWorkspace(workspaceID string) string {
	return "realtime:" + workspaceID
}

// EventBus - фасад шины событий на весь процесс. Всегда владеет
// внутрипроцессным fallback-бэкендом; при сконфигурированном брокере
// дополнительно владеет брокерным бэкендом как основным.
//
// Жизненный цикл: создается один раз на старте процесса и внедряется
// в транспорт и в места доменных мутаций; обязательного teardown нет
// (Close брокерного бэкенда - best-effort на завершении).
type EventBus struct {
	fallback port.RealtimeBackend
	broker   port.RealtimeBackend // nil, если брокер не сконфигурирован

	logger port.LoggerPort
}

// NewEventBus собирает шину. broker может быть nil - тогда доставка
// работает только внутри процесса.
func NewEventBus(fallback port.RealtimeBackend, broker port.RealtimeBackend, baseLogger port.LoggerPort) *EventBus {
	return &EventBus{
		fallback: fallback,
		broker:   broker,
		logger:   baseLogger.WithFields(port.Fields{"component": "event_bus"}),
	}
}

// Publish всегда публикует в fallback-бэкенд и дополнительно в брокерный,
// если он есть: подписчики того же процесса достижимы даже при лежащем
// брокере, а подписчики других инстансов - когда брокер жив.
// Ошибки доставки логируются и никогда не поднимаются к месту вызова.
func (bus *EventBus) Publish(ctx context.Context, event domain.RealtimeEvent) {
	channel := channelForWorkspace(event.WorkspaceID)

	if err := bus.fallback.Publish(ctx, channel, event); err != nil {
		bus.logger.Error("Local publish failed", err, port.Fields{"event_type": event.Type})
	}

	if bus.broker != nil {
		if err := bus.broker.Publish(ctx, channel, event); err != nil {
			bus.logger.Error("Broker publish failed, local delivery unaffected", err, port.Fields{"event_type": event.Type})
		}
	}
}

// Subscribe подписывает колбэк на события рабочего пространства.
// При наличии брокерного бэкенда подписка оформляется на оба бэкенда:
// сообщение может прийти любым путем (локальный вызов publish или
// круг через брокер), и подписчик не должен пропустить ни один из них.
// Возвращаемый disposer составной - закрывает обе подписки, повторный
// вызов безопасен.
func (bus *EventBus) Subscribe(workspaceID string, handler port.EventHandler) port.Disposer {
	channel := channelForWorkspace(workspaceID)

	disposeFallback, err := bus.fallback.Subscribe(channel, handler)
	if err != nil {
		// Внутрипроцессный бэкенд не возвращает ошибок; ветка на случай
		// другой реализации fallback
		bus.logger.Error("Fallback subscribe failed", err, port.Fields{"workspace_id": workspaceID})
		disposeFallback = func() {}
	}

	if bus.broker == nil {
		return disposeFallback
	}

	disposeBroker, err := bus.broker.Subscribe(channel, handler)
	if err != nil {
		bus.logger.Error("Broker subscribe failed, falling back to local delivery only", err, port.Fields{"workspace_id": workspaceID})
		return disposeFallback
	}

	return func() {
		disposeFallback()
		disposeBroker()
	}
}
