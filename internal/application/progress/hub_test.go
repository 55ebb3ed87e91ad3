package progress

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubSubscribePublish(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("b1")
	defer cancel()

	hub.Publish(Event{Type: "chapter_update", BookID: "b1", Payload: json.RawMessage(`{"status":"generating"}`)})

	select {
	case ev := <-ch:
		if ev.Type != "chapter_update" || ev.BookID != "b1" {
			t.Errorf("event = %+v", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Error("timestamp not filled on publish")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestHubIsolatesBooks(t *testing.T) {
	hub := NewHub()
	ch1, cancel1 := hub.Subscribe("b1")
	defer cancel1()
	_, cancel2 := hub.Subscribe("b2")
	defer cancel2()

	hub.Publish(Event{Type: "agent_status", BookID: "b2"})

	select {
	case ev := <-ch1:
		t.Errorf("subscriber of b1 received event for %s", ev.BookID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastsToAllSubscribers(t *testing.T) {
	hub := NewHub()
	ch1, cancel1 := hub.Subscribe("b1")
	defer cancel1()
	ch2, cancel2 := hub.Subscribe("b1")
	defer cancel2()

	hub.Publish(Event{Type: "chapter_update", BookID: "b1"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive event", i)
		}
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("b1")
	defer cancel()

	// 不消费，超出缓冲的事件应被丢弃而不是阻塞
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(Event{Type: "agent_status", BookID: "b1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on full subscriber buffer")
	}
	if got := len(ch); got != subscriberBuffer {
		t.Errorf("buffered events = %d, want %d", got, subscriberBuffer)
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("b1")

	cancel()
	cancel() // 幂等

	if _, ok := <-ch; ok {
		t.Error("channel not closed after cancel")
	}
	if n := hub.SubscriberCount("b1"); n != 0 {
		t.Errorf("SubscriberCount = %d, want 0", n)
	}

	// 取消后的发布不应 panic
	hub.Publish(Event{Type: "chapter_update", BookID: "b1"})
}

func TestHubSubscriberCount(t *testing.T) {
	hub := NewHub()
	if n := hub.SubscriberCount("b1"); n != 0 {
		t.Fatalf("initial count = %d", n)
	}
	_, cancel1 := hub.Subscribe("b1")
	_, cancel2 := hub.Subscribe("b1")
	if n := hub.SubscriberCount("b1"); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	cancel1()
	cancel2()
	if n := hub.SubscriberCount("b1"); n != 0 {
		t.Errorf("count after cancel = %d, want 0", n)
	}
}
