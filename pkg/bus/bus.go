package bus

import (
	"sync"
)

// Subscriber is a named tap on a message stream. Multiple subscribers can
// independently consume the same published messages (fan-out).
type Subscriber struct {
	Name string
	ch   chan interface{} // receives copies of published messages
}

// MessageBus fans delivered messages and system events out to taps.
// Publishing never blocks: slow subscribers drop.
type MessageBus struct {
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	outboundSubs []*Subscriber
	systemSubs   []*Subscriber
}

func NewMessageBus() *MessageBus {
	return &MessageBus{}
}

// SubscribeOutboundTap creates a named subscriber for delivered messages.
// The returned channel is buffered; slow consumers drop.
func (mb *MessageBus) SubscribeOutboundTap(name string) <-chan interface{} {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	sub := &Subscriber{Name: name, ch: make(chan interface{}, 64)}
	if mb.closed {
		close(sub.ch)
		return sub.ch
	}
	mb.outboundSubs = append(mb.outboundSubs, sub)
	return sub.ch
}

// SubscribeSystem creates a named subscriber for system events.
func (mb *MessageBus) SubscribeSystem(name string) <-chan interface{} {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	sub := &Subscriber{Name: name, ch: make(chan interface{}, 64)}
	if mb.closed {
		close(sub.ch)
		return sub.ch
	}
	mb.systemSubs = append(mb.systemSubs, sub)
	return sub.ch
}

// PublishOutbound publishes a delivered message to all outbound taps.
func (mb *MessageBus) PublishOutbound(msg OutboundMessage) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	fanOut(mb.outboundSubs, msg)
}

// PublishSystem publishes a system event to all system subscribers.
func (mb *MessageBus) PublishSystem(event SystemEvent) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}
	fanOut(mb.systemSubs, event)
}

func fanOut(subs []*Subscriber, v interface{}) {
	for _, sub := range subs {
		select {
		case sub.ch <- v:
		default: // drop if subscriber is slow
		}
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (mb *MessageBus) Close() {
	mb.closeOnce.Do(func() {
		mb.mu.Lock()
		defer mb.mu.Unlock()
		mb.closed = true
		for _, sub := range mb.outboundSubs {
			close(sub.ch)
		}
		for _, sub := range mb.systemSubs {
			close(sub.ch)
		}
	})
}
