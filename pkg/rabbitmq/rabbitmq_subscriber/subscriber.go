package rabbitmq_subscriber

import (
	"context"
	"fmt"
	"sync"

	"automation-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliveryHandler обработчик одной доставки. Ack/Nack не требуется:
// подписчик работает в режиме auto-ack (доставка "максимум один раз").
type DeliveryHandler func(d amqp.Delivery)

// SubscriberConfig конфигурация подписчика
type SubscriberConfig struct {
	rabbitmq_common.Config
	// Настройки обменника, к которому привязывается очередь
	ExchangeName    string
	ExchangeType    string // обычно "topic" или "direct"
	DeclareExchange bool
	DurableExchange bool
	// Тег потребителя (если пустой, генерируется RabbitMQ)
	ConsumerTag string

	Logger rabbitmq_common.Logger
}

// Subscriber — подписчик на эксклюзивной очереди с серверным именем.
// Очередь авто-удаляемая: живет ровно столько, сколько живет процесс.
// Ключи маршрутизации привязываются и отвязываются динамически через
// Bind/Unbind, по одному ключу на логический канал.
type Subscriber struct {
	config     SubscriberConfig
	connection *amqp.Connection
	channel    *amqp.Channel
	queueName  string

	mu sync.Mutex // защищает Bind/Unbind от параллельных вызовов

	Logger rabbitmq_common.Logger
}

// NewSubscriber создает подписчика: объявляет обменник (если нужно)
// и эксклюзивную очередь с именем, сгенерированным сервером.
func NewSubscriber(cfg SubscriberConfig, connManager *rabbitmq_common.ConnectionManager) (*Subscriber, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("subscriber: invalid base config: %w", err)
	}
	if cfg.ExchangeName == "" {
		return nil, fmt.Errorf("subscriber: exchange name is required")
	}
	if cfg.DeclareExchange && cfg.ExchangeType == "" {
		return nil, fmt.Errorf("subscriber: exchange type is required if declaring the exchange")
	}

	s := &Subscriber{
		config: cfg,
		Logger: logger,
	}

	conn, ch, err := connManager.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("subscriber: failed to get channel from manager: %w", err)
	}
	s.connection = conn
	s.channel = ch
	s.Logger.Debug("Channel obtained from ConnectionManager")

	if cfg.DeclareExchange {
		s.Logger.Debug("Declaring exchange", "name", cfg.ExchangeName, "type", cfg.ExchangeType)
		err = ch.ExchangeDeclare(
			cfg.ExchangeName,
			cfg.ExchangeType,
			cfg.DurableExchange,
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("subscriber: failed to declare exchange '%s': %w", cfg.ExchangeName, err)
		}
	}

	q, err := ch.QueueDeclare(
		"",    // имя генерирует сервер
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("subscriber: failed to declare exclusive queue: %w", err)
	}
	s.queueName = q.Name

	s.Logger.Debug("Subscriber queue declared", "queue", s.queueName)
	return s, nil
}

// Bind привязывает очередь подписчика к ключу маршрутизации
func (s *Subscriber) Bind(routingKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channel == nil {
		return fmt.Errorf("subscriber: channel is closed")
	}

	s.Logger.Debug("Binding queue", "queue", s.queueName, "routing_key", routingKey)
	if err := s.channel.QueueBind(s.queueName, routingKey, s.config.ExchangeName, false, nil); err != nil {
		return fmt.Errorf("subscriber: failed to bind queue '%s' to key '%s': %w", s.queueName, routingKey, err)
	}
	return nil
}

// Unbind отвязывает очередь от ключа маршрутизации (гигиена ресурсов:
// брокер перестает копировать сообщения этого ключа в нашу очередь)
func (s *Subscriber) Unbind(routingKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channel == nil {
		return fmt.Errorf("subscriber: channel is closed")
	}

	s.Logger.Debug("Unbinding queue", "queue", s.queueName, "routing_key", routingKey)
	if err := s.channel.QueueUnbind(s.queueName, routingKey, s.config.ExchangeName, nil); err != nil {
		return fmt.Errorf("subscriber: failed to unbind queue '%s' from key '%s': %w", s.queueName, routingKey, err)
	}
	return nil
}

// StartConsuming блокирует до отмены контекста или обрыва канала доставки.
// Каждая доставка передается обработчику синхронно, что сохраняет порядок
// сообщений в рамках очереди.
func (s *Subscriber) StartConsuming(ctx context.Context, handler DeliveryHandler) error {
	if handler == nil {
		return fmt.Errorf("subscriber: delivery handler is required")
	}
	if s.channel == nil || s.connection == nil || s.connection.IsClosed() {
		return fmt.Errorf("subscriber: not connected")
	}

	msgs, err := s.channel.Consume(
		s.queueName,
		s.config.ConsumerTag,
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("subscriber: failed to register a consumer on queue '%s': %w", s.queueName, err)
	}

	s.Logger.Info("[*] Waiting for messages on queue", "queue_name", s.queueName)

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("Context cancelled. Exiting consumption loop.")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("subscriber: delivery channel closed by broker")
			}
			handler(d)
		}
	}
}

// Close закрывает канал подписчика
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			s.Logger.Error(err, "Error closing channel")
			firstErr = err
		}
		s.channel = nil
	}
	s.Logger.Info("Subscriber closed")
	return firstErr
}
