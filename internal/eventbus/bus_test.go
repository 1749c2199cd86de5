package eventbus

import (
	"testing"
	"time"

	"mediascribe/internal/models"

	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesOnlyItsOwnClientEvents(t *testing.T) {
	b := New()
	defer b.Shutdown()

	chA, unsubA := b.Subscribe("client-a")
	defer unsubA()
	chB, unsubB := b.Subscribe("client-b")
	defer unsubB()

	b.Publish(models.ProgressEvent{ClientID: "client-a", StageCode: models.StageProcessing, StageText: "hello"})

	select {
	case event := <-chA:
		require.Equal(t, "hello", event.StageText)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for client-a event")
	}

	select {
	case <-chB:
		t.Fatal("client-b should not have received client-a's event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	defer b.Shutdown()

	ch, unsub := b.Subscribe("client-c")
	unsub()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestMultipleSubscribersToSameClientAllReceive(t *testing.T) {
	b := New()
	defer b.Shutdown()

	ch1, unsub1 := b.Subscribe("client-d")
	defer unsub1()
	ch2, unsub2 := b.Subscribe("client-d")
	defer unsub2()

	b.Publish(models.ProgressEvent{ClientID: "client-d", StageCode: models.StageCompleted})

	for _, ch := range []<-chan models.ProgressEvent{ch1, ch2} {
		select {
		case event := <-ch:
			require.Equal(t, models.StageCompleted, event.StageCode)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}
