package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := New()
	_, ch1 := bus.Subscribe(1)
	_, ch2 := bus.Subscribe(1)

	bus.PublishNew(EventTaskChanged, "3", nil)

	ev1 := <-ch1
	ev2 := <-ch2
	require.Equal(t, EventTaskChanged, ev1.Type)
	require.Equal(t, "3", ev1.Resource)
	require.Equal(t, ev1.ID, ev2.ID)
	require.NotEmpty(t, ev1.ID)
	require.False(t, ev1.CreatedAt.IsZero())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)

	bus.Unsubscribe(id)

	_, open := <-ch
	require.False(t, open)

	// Publishing after unsubscribe must not panic.
	bus.PublishNew(EventSprintChanged, "sprint", nil)
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	bus := New()
	_, ch := bus.Subscribe(1)

	bus.PublishNew(EventPredictionsUpdated, "predictions", nil)
	bus.PublishNew(EventPredictionsUpdated, "predictions", nil) // dropped

	<-ch
	select {
	case ev := <-ch:
		t.Fatalf("expected second event to be dropped, got %v", ev)
	default:
	}
}

func TestPublishWithMetadata(t *testing.T) {
	bus := New()
	_, ch := bus.Subscribe(1)

	bus.PublishNew(EventTaskChanged, "7", map[string]string{"action": "update"})

	ev := <-ch
	require.Equal(t, "update", ev.Metadata["action"])
}
