package domain

// Типы событий реального времени — стабильные строковые константы,
// на которые подписаны клиенты. Продюсер может опубликовать событие
// с любым другим типом: потребители обязаны его переслать как есть.
const (
	EventTaskCreated     = "task.created"
	EventTaskUpdated     = "task.updated"
	EventTaskCompleted   = "task.completed"
	EventTaskDeleted     = "task.deleted"
	EventCommentAdded    = "comment.added"
	EventProjectUpdated  = "project.updated"
	EventNotificationNew = "notification.new"
)

// RealtimeEvent — событие реального времени. Создается в момент публикации,
// никогда не персистится. WorkspaceID — ключ партиционирования доставки.
type RealtimeEvent struct {
	Type        string                 `json:"type"`
	WorkspaceID string                 `json:"workspaceId"`
	Data        map[string]interface{} `json:"data"`
}
