package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"automation-service/internal/constants"
	"automation-service/internal/contracts"
	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"
	"automation-service/pkg/rabbitmq/rabbitmq_common"
	"automation-service/pkg/rabbitmq/rabbitmq_producer"
	"automation-service/pkg/rabbitmq/rabbitmq_subscriber"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPBackend - реализация RealtimeBackend поверх общего брокера.
// Публикация идет в topic-обменник с ключом маршрутизации = имени канала;
// входящие сообщения с эксклюзивной очереди этого инстанса раздаются
// локальным подписчикам соответствующего канала.
//
// Если брокер недоступен в момент создания, бэкенд молча становится
// инертным: Publish/Subscribe превращаются в no-op. Доставку в этом
// случае обеспечивает fallback-бэкенд шины событий.
type AMQPBackend struct {
	publisher  *rabbitmq_producer.Publisher
	subscriber *rabbitmq_subscriber.Subscriber

	mu       sync.RWMutex
	nextID   uint64
	channels map[string][]subscription

	inert         bool
	cancelConsume context.CancelFunc

	logger port.LoggerPort
}

// NewAMQPBackend подключается к брокеру и запускает цикл потребления.
// Никогда не возвращает ошибку: при любом сбое подключения возвращается
// инертный бэкенд, а причина пишется в лог.
func NewAMQPBackend(url string, baseLogger port.LoggerPort) *AMQPBackend {
	logger := baseLogger.WithFields(port.Fields{"component": "amqp_backend"})
	bridge := NewPkgLoggerBridge(logger)

	b := &AMQPBackend{
		channels: make(map[string][]subscription),
		logger:   logger,
	}

	connManager, err := rabbitmq_common.GetManager(url, bridge)
	if err != nil {
		logger.Warn("Broker unreachable, realtime backend is inert", port.Fields{"error": err.Error()})
		b.inert = true
		return b
	}

	publisher, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		Config:                   rabbitmq_common.Config{URL: url},
		ExchangeName:             constants.RealtimeExchange,
		ExchangeType:             constants.RealtimeExchangeType,
		DurableExchange:          false,
		DeclareExchangeIfMissing: true,
		Logger:                   bridge,
	}, connManager)
	if err != nil {
		logger.Warn("Failed to create broker publisher, realtime backend is inert", port.Fields{"error": err.Error()})
		b.inert = true
		return b
	}

	subscriber, err := rabbitmq_subscriber.NewSubscriber(rabbitmq_subscriber.SubscriberConfig{
		Config:          rabbitmq_common.Config{URL: url},
		ExchangeName:    constants.RealtimeExchange,
		ExchangeType:    constants.RealtimeExchangeType,
		DeclareExchange: true,
		ConsumerTag:     "realtime-backend",
		Logger:          bridge,
	}, connManager)
	if err != nil {
		logger.Warn("Failed to create broker subscriber, realtime backend is inert", port.Fields{"error": err.Error()})
		_ = publisher.Close()
		b.inert = true
		return b
	}

	b.publisher = publisher
	b.subscriber = subscriber

	consumeCtx, cancel := context.WithCancel(context.Background())
	b.cancelConsume = cancel
	go func() {
		if err := subscriber.StartConsuming(consumeCtx, b.handleDelivery); err != nil {
			// Обрыв цикла потребления не фатален для процесса:
			// локальная доставка продолжает работать через fallback
			logger.Error("Broker consumption loop stopped", err, nil)
		}
	}()

	logger.Info("Broker realtime backend initialized", port.Fields{"exchange": constants.RealtimeExchange})
	return b
}

// Publish сериализует событие и отправляет его на канал брокера
func (b *AMQPBackend) Publish(ctx context.Context, channel string, event domain.RealtimeEvent) error {
	if b.inert {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("amqp backend: failed to marshal event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
		Headers: amqp.Table{
			constants.HeaderEventType:    constants.RealtimeEventType,
			constants.HeaderEventVersion: constants.RealtimeEventVersion,
		},
	}

	if err := b.publisher.Publish(ctx, channel, msg); err != nil {
		return fmt.Errorf("amqp backend: failed to publish to channel '%s': %w", channel, err)
	}
	return nil
}

// Subscribe регистрирует локальный колбэк и привязывает очередь инстанса
// к ключу маршрутизации канала при первом локальном подписчике
func (b *AMQPBackend) Subscribe(channel string, handler port.EventHandler) (port.Disposer, error) {
	if b.inert {
		return func() {}, nil
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.channels[channel] = append(b.channels[channel], subscription{id: id, handler: handler})
	first := len(b.channels[channel]) == 1
	b.mu.Unlock()

	if first {
		if err := b.subscriber.Bind(channel); err != nil {
			b.remove(channel, id)
			return nil, fmt.Errorf("amqp backend: failed to bind channel '%s': %w", channel, err)
		}
	}

	var once sync.Once
	dispose := func() {
		once.Do(func() {
			b.remove(channel, id)
		})
	}
	return dispose, nil
}

// remove удаляет подписку; когда отписался последний локальный подписчик
// канала, отвязывает очередь от ключа (гигиена, не корректность)
func (b *AMQPBackend) remove(channel string, id uint64) {
	b.mu.Lock()
	subs, found := b.channels[channel]
	if !found {
		b.mu.Unlock()
		return
	}

	remaining := make([]subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.id != id {
			remaining = append(remaining, sub)
		}
	}

	last := len(remaining) == 0
	if last {
		delete(b.channels, channel)
	} else {
		b.channels[channel] = remaining
	}
	b.mu.Unlock()

	if last {
		if err := b.subscriber.Unbind(channel); err != nil {
			b.logger.Warn("Failed to unbind channel", port.Fields{"channel": channel, "error": err.Error()})
		}
	}
}

// handleDelivery - обработка одного сообщения брокера: валидация по
// схеме контракта, десериализация и локальный fan-out. Испорченные
// сообщения отбрасываются, не ломая цикл потребления.
func (b *AMQPBackend) handleDelivery(d amqp.Delivery) {
	channel := d.RoutingKey

	eventType, _ := d.Headers[constants.HeaderEventType].(string)
	eventVersion, _ := d.Headers[constants.HeaderEventVersion].(string)
	if err := contracts.ValidateEvent(eventType, eventVersion, d.Body); err != nil {
		b.logger.Warn("Dropping broker message that failed schema validation", port.Fields{
			"channel": channel,
			"error":   err.Error(),
		})
		return
	}

	var event domain.RealtimeEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		b.logger.Warn("Dropping malformed broker message", port.Fields{
			"channel": channel,
			"error":   err.Error(),
		})
		return
	}

	b.mu.RLock()
	subs := b.channels[channel]
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	b.mu.RUnlock()

	for _, sub := range snapshot {
		sub.handler(event)
	}
}

// Close останавливает цикл потребления и закрывает каналы брокера.
// Вызывается только при завершении процесса; корректность доставки
// от этого не зависит
func (b *AMQPBackend) Close() error {
	if b.inert {
		return nil
	}

	b.cancelConsume()

	var firstErr error
	if err := b.subscriber.Close(); err != nil {
		firstErr = err
	}
	if err := b.publisher.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
