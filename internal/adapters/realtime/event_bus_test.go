package realtime

import (
	"context"
	"errors"
	"testing"

	"automation-service/internal/core/domain"
	"automation-service/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend - управляемая реализация RealtimeBackend для тестов шины
type fakeBackend struct {
	published    []string // имена каналов публикаций
	subscribed   []string // имена каналов подписок
	disposeCalls int

	publishErr   error
	subscribeErr error
}

func (f *fakeBackend) Publish(_ context.Context, channel string, _ domain.RealtimeEvent) error {
	f.published = append(f.published, channel)
	return f.publishErr
}

func (f *fakeBackend) Subscribe(channel string, _ port.EventHandler) (port.Disposer, error) {
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	f.subscribed = append(f.subscribed, channel)
	return func() { f.disposeCalls++ }, nil
}

func TestEventBus_PublishGoesToBothBackends(t *testing.T) {
	fallback := &fakeBackend{}
	broker := &fakeBackend{}
	bus := NewEventBus(fallback, broker, &nopLogger{})

	bus.Publish(context.Background(), testEvent(domain.EventTaskCreated, "w1"))

	assert.Equal(t, []string{"realtime:w1"}, fallback.published)
	assert.Equal(t, []string{"realtime:w1"}, broker.published)
}

func TestEventBus_PublishWithoutBroker(t *testing.T) {
	fallback := &fakeBackend{}
	bus := NewEventBus(fallback, nil, &nopLogger{})

	bus.Publish(context.Background(), testEvent(domain.EventTaskCompleted, "w1"))

	assert.Equal(t, []string{"realtime:w1"}, fallback.published)
}

func TestEventBus_BrokerPublishErrorDoesNotAffectLocalDelivery(t *testing.T) {
	fallback := &fakeBackend{}
	broker := &fakeBackend{publishErr: errors.New("broker is down")}
	bus := NewEventBus(fallback, broker, &nopLogger{})

	// Ошибка брокера не должна подниматься к месту вызова
	bus.Publish(context.Background(), testEvent(domain.EventTaskCreated, "w1"))

	assert.Equal(t, []string{"realtime:w1"}, fallback.published)
}

func TestEventBus_SubscribeRegistersOnBothBackends(t *testing.T) {
	fallback := &fakeBackend{}
	broker := &fakeBackend{}
	bus := NewEventBus(fallback, broker, &nopLogger{})

	dispose := bus.Subscribe("w1", func(event domain.RealtimeEvent) {})
	require.NotNil(t, dispose)

	assert.Equal(t, []string{"realtime:w1"}, fallback.subscribed)
	assert.Equal(t, []string{"realtime:w1"}, broker.subscribed)

	// Составной disposer закрывает обе подписки
	dispose()
	assert.Equal(t, 1, fallback.disposeCalls)
	assert.Equal(t, 1, broker.disposeCalls)
}

func TestEventBus_BrokerSubscribeErrorFallsBackToLocal(t *testing.T) {
	fallback := &fakeBackend{}
	broker := &fakeBackend{subscribeErr: errors.New("channel closed")}
	bus := NewEventBus(fallback, broker, &nopLogger{})

	dispose := bus.Subscribe("w1", func(event domain.RealtimeEvent) {})
	require.NotNil(t, dispose)

	assert.Equal(t, []string{"realtime:w1"}, fallback.subscribed)
	assert.Empty(t, broker.subscribed)

	dispose()
	assert.Equal(t, 1, fallback.disposeCalls)
}

func TestEventBus_EndToEndLocalDelivery(t *testing.T) {
	memory := NewMemoryBackend(&nopLogger{})
	bus := NewEventBus(memory, nil, &nopLogger{})

	var got []domain.RealtimeEvent
	dispose := bus.Subscribe("w1", func(event domain.RealtimeEvent) {
		got = append(got, event)
	})
	defer dispose()

	otherDispose := bus.Subscribe("w2", func(event domain.RealtimeEvent) {
		t.Error("subscriber of another workspace must not receive the event")
	})
	defer otherDispose()

	bus.Publish(context.Background(), domain.RealtimeEvent{
		Type:        domain.EventCommentAdded,
		WorkspaceID: "w1",
		Data:        map[string]interface{}{"commentId": "c1"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, domain.EventCommentAdded, got[0].Type)
	assert.Equal(t, "w1", got[0].WorkspaceID)
	assert.Equal(t, "c1", got[0].Data["commentId"])
}
