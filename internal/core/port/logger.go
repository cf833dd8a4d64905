package port

// Fields - произвольные структурированные поля лога
type Fields map[string]interface{}

// LoggerPort - контракт логирования для ядра и адаптеров.
// Конкретные реализации (slog, fluent, multilogger) живут в adapters/logger.
type LoggerPort interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, err error, fields Fields)
	WithFields(fields Fields) LoggerPort
}
