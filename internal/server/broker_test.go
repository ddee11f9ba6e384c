package server

import (
	"encoding/json"
	"testing"

	"github.com/playperu/demovote/internal/booth"
)

func TestBrokerRoutesBySession(t *testing.T) {
	b := NewBroker()
	a := b.Subscribe("a")
	other := b.Subscribe("b")

	b.Publish("a", booth.Event{Type: booth.EventPulse, Row: 4})

	select {
	case data := <-a:
		var e booth.Event
		if err := json.Unmarshal(data, &e); err != nil || e.Row != 4 {
			t.Errorf("event = %s (%v)", data, err)
		}
	default:
		t.Fatal("subscriber of a got nothing")
	}
	select {
	case data := <-other:
		t.Errorf("subscriber of b got %s", data)
	default:
	}

	b.Unsubscribe("a", a)
	if n := b.subscribers("a"); n != 0 {
		t.Errorf("subscribers after unsubscribe = %d", n)
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("s")
	for range cap(ch) + 5 {
		b.Publish("s", booth.Event{Type: booth.EventFlipped})
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered = %d, want %d", len(ch), cap(ch))
	}
}
