package port

import (
	"context"

	"automation-service/internal/core/domain"
)

// EventHandler - колбэк подписчика. Вызывается по одному разу на каждое
// доставленное событие канала.
type EventHandler func(event domain.RealtimeEvent)

// Disposer отменяет одну подписку. Повторный вызов безопасен и ничего
// не делает; disposer убирает только собственную подписку.
type Disposer func()

// RealtimeBackend - транспорт pub/sub поверх именованного канала.
// Две взаимозаменяемые реализации: внутрипроцессная (один инстанс)
// и поверх общего брокера (флот инстансов).
type RealtimeBackend interface {
	Publish(ctx context.Context, channel string, event domain.RealtimeEvent) error
	Subscribe(channel string, handler EventHandler) (Disposer, error)
}

// EventBusPort - фасад шины событий для всего процесса. Скрывает от
// вызывающих топологию развертывания и имена каналов: снаружи виден
// только идентификатор рабочего пространства.
type EventBusPort interface {
	// Publish - публикация "лучшее из возможного": ошибки доставки
	// никогда не поднимаются к месту вызова.
	Publish(ctx context.Context, event domain.RealtimeEvent)
	Subscribe(workspaceID string, handler EventHandler) Disposer
}
