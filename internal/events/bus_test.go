package events

import "testing"

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe(DealConfirmed, func(event string, payload Payload) {
		got = append(got, event)
	})
	bus.SubscribeAll(func(event string, payload Payload) {
		got = append(got, "all:"+event)
	})

	bus.Emit(DealConfirmed, Payload{"post_id": "p1"})
	bus.Emit(ListingExpired, Payload{"id": "l1"})

	want := []string{DealConfirmed, "all:" + DealConfirmed, "all:" + ListingExpired}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestBusSurvivesPanickingHandler(t *testing.T) {
	bus := NewBus()

	delivered := false
	bus.Subscribe(ListingPublished, func(event string, payload Payload) {
		panic("bad handler")
	})
	bus.Subscribe(ListingPublished, func(event string, payload Payload) {
		delivered = true
	})

	bus.Emit(ListingPublished, Payload{"id": "l1"})
	if !delivered {
		t.Fatalf("a panicking handler must not stop delivery")
	}
}
