package constants

// Обменник для событий реального времени. Ключ маршрутизации - имя
// канала (один канал на рабочее пространство).
const (
	RealtimeExchange     = "realtime_events"
	RealtimeExchangeType = "topic"
)

// Заголовки сообщений для валидации по схеме контракта
const (
	HeaderEventType    = "event-type"
	HeaderEventVersion = "event-version"

	RealtimeEventType    = "RealtimeEventEvent"
	RealtimeEventVersion = "1.0.0"
)
