package usecases_port

import (
	"context"

	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"
)

// ExecuteRulesPort - входная точка движка правил. Вызов не возвращает
// ошибку: автоматизация работает по принципу "лучшее из возможного" и
// не должна ронять или откатывать доменную операцию, которая ее вызвала.
type ExecuteRulesPort interface {
	Execute(ctx context.Context, store port.AutomationStore, triggerType domain.TriggerType, trigCtx domain.TriggerContext)
}
