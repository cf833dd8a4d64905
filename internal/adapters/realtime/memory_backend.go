package realtime

import (
	"context"
	"sync"

	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"
)

// subscription - одна локальная подписка. Уникальный id гарантирует, что
// disposer удаляет именно свою подписку, даже если два подписчика одного
// канала зарегистрированы со структурно одинаковыми колбэками.
type subscription struct {
	id      uint64
	handler port.EventHandler
}

// MemoryBackend - внутрипроцессная реализация RealtimeBackend: карта
// канал -> список подписчиков. Используется как fallback-транспорт
// при единственном инстансе сервиса и при недоступности брокера.
type MemoryBackend struct {
	mu       sync.RWMutex
	nextID   uint64
	channels map[string][]subscription

	logger port.LoggerPort
}

func NewMemoryBackend(baseLogger port.LoggerPort) *MemoryBackend {
	return &MemoryBackend{
		channels: make(map[string][]subscription),
		logger:   baseLogger.WithFields(port.Fields{"component": "memory_backend"}),
	}
}

// Publish доставляет событие каждому текущему подписчику канала по одному
// разу, в порядке регистрации. Ноль подписчиков - тихий no-op.
// Список подписчиков снимается "снимком" до вызова колбэков: подписчик
// может отписаться прямо во время рассылки, не ломая итерацию.
func (b *MemoryBackend) Publish(_ context.Context, channel string, event domain.RealtimeEvent) error {
	b.mu.RLock()
	subs := b.channels[channel]
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	b.mu.RUnlock()

	for _, sub := range snapshot {
		sub.handler(event)
	}
	return nil
}

// Subscribe регистрирует колбэк на канале. Канал создается неявно при
// первой подписке и удаляется, когда отписывается последний подписчик.
func (b *MemoryBackend) Subscribe(channel string, handler port.EventHandler) (port.Disposer, error) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.channels[channel] = append(b.channels[channel], subscription{id: id, handler: handler})
	b.mu.Unlock()

	b.logger.Debug("Subscriber registered", port.Fields{"channel": channel})

	var once sync.Once
	dispose := func() {
		// Повторный вызов - безопасный no-op
		once.Do(func() {
			b.remove(channel, id)
		})
	}
	return dispose, nil
}

func (b *MemoryBackend) remove(channel string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, found := b.channels[channel]
	if !found {
		return
	}

	remaining := make([]subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.id != id {
			remaining = append(remaining, sub)
		}
	}

	if len(remaining) == 0 {
		delete(b.channels, channel)
		b.logger.Debug("Last subscriber left, channel removed", port.Fields{"channel": channel})
	} else {
		b.channels[channel] = remaining
	}
}
