package events

import "sync"

// Domain event names emitted by the services.
const (
	ListingPublished    = "listing.published"
	ListingRepublished  = "listing.republished"
	ListingExpired      = "listing.expired"
	ContactPurchased    = "deal.contact.purchased"
	DealConfirmed       = "deal.confirmed"
	ConfirmationPending = "deal.confirmation.pending"
	RechargeReminder    = "recharge.pending.reminder"
)

type Payload map[string]interface{}

type Handler func(event string, payload Payload)

// Bus is a small in-process event bus. Emit is fire-and-forget: handlers
// run synchronously, a panicking handler is recovered and the rest still
// run. No delivery guarantee is offered beyond that.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a single event name.
func (b *Bus) Subscribe(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

// SubscribeAll registers a handler for every event.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

func (b *Bus) Emit(event string, payload Payload) {
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.handlers[event])+len(b.all))
	targets = append(targets, b.handlers[event]...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	for _, h := range targets {
		safeCall(h, event, payload)
	}
}

func safeCall(h Handler, event string, payload Payload) {
	defer func() {
		_ = recover()
	}()
	h(event, payload)
}
