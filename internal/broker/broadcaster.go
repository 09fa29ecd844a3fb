package broker

import "sync"

type publication[TID comparable, TPayload any] struct {
	ID      TID
	Payload TPayload
}

type subscription[TID comparable, TPayload any] struct {
	ID      TID
	Channel chan TPayload
}

// Broadcaster fans out the latest state published for an ID to every subscriber of that ID.
//
// Subscribers only care about the current state, e.g. whether the completion indicator of a puzzle is visible.
// Each subscriber channel buffers one payload. A subscriber that falls behind gets the newest payload instead of
// blocking the broadcaster, and a new subscriber immediately receives the last published payload.
type Broadcaster[TID comparable, TPayload any] struct {
	stopChannel        chan struct{}
	stopOnce           sync.Once
	publishChannel     chan publication[TID, TPayload]
	forgetChannel      chan TID
	subscribeChannel   chan subscription[TID, TPayload]
	unsubscribeChannel chan subscription[TID, TPayload]
}

// NewBroadcaster creates a new Broadcaster. Use Start() to run it and Stop() to stop it.
func NewBroadcaster[TID comparable, TPayload any]() *Broadcaster[TID, TPayload] {
	return &Broadcaster[TID, TPayload]{
		stopChannel:        make(chan struct{}),
		stopOnce:           sync.Once{},
		publishChannel:     make(chan publication[TID, TPayload]),
		forgetChannel:      make(chan TID),
		subscribeChannel:   make(chan subscription[TID, TPayload]),
		unsubscribeChannel: make(chan subscription[TID, TPayload]),
	}
}

// Start listening for publish, subscribe and unsubscribe events. This function blocks until Stop() is called,
// so it should be called in a goroutine. All subscriber channels are closed when it returns.
func (b *Broadcaster[TID, TPayload]) Start() {
	latest := map[TID]TPayload{}
	subscribers := map[TID]map[chan TPayload]struct{}{}
	for {
		select {
		case <-b.stopChannel:
			for _, channels := range subscribers {
				for c := range channels {
					close(c)
				}
			}
			return

		case s := <-b.subscribeChannel:
			if subscribers[s.ID] == nil {
				subscribers[s.ID] = map[chan TPayload]struct{}{}
			}
			subscribers[s.ID][s.Channel] = struct{}{}
			if payload, ok := latest[s.ID]; ok {
				s.Channel <- payload
			}

		case s := <-b.unsubscribeChannel:
			if _, ok := subscribers[s.ID][s.Channel]; ok {
				delete(subscribers[s.ID], s.Channel)
				close(s.Channel)
			}
			if len(subscribers[s.ID]) == 0 {
				delete(subscribers, s.ID)
			}

		case p := <-b.publishChannel:
			latest[p.ID] = p.Payload
			for c := range subscribers[p.ID] {
				sendLatest(c, p.Payload)
			}

		case id := <-b.forgetChannel:
			delete(latest, id)
			for c := range subscribers[id] {
				close(c)
			}
			delete(subscribers, id)
		}
	}
}

// sendLatest replaces a payload the subscriber has not consumed yet. Only the broadcaster goroutine sends, so the
// second send cannot block.
func sendLatest[TPayload any](c chan TPayload, payload TPayload) {
	select {
	case c <- payload:
	default:
		select {
		case <-c:
		default:
		}
		c <- payload
	}
}

// Stop the goroutine that handles the broadcaster. Stopping more than once is a no-op.
func (b *Broadcaster[TID, TPayload]) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopChannel)
	})
}

// Subscribe to the payloads of ID. The returned function unsubscribes and closes the channel. The channel is also
// closed when the ID is forgotten or the broadcaster stops.
func (b *Broadcaster[TID, TPayload]) Subscribe(id TID) (<-chan TPayload, func()) {
	channel := make(chan TPayload, 1)
	s := subscription[TID, TPayload]{ID: id, Channel: channel}
	select {
	case b.subscribeChannel <- s:
	case <-b.stopChannel:
		close(channel)
		return channel, func() {}
	}
	return channel, func() {
		select {
		case b.unsubscribeChannel <- s:
		case <-b.stopChannel:
		}
	}
}

// Publish the payload to the current subscribers of ID and keep it for later subscribers.
func (b *Broadcaster[TID, TPayload]) Publish(id TID, payload TPayload) {
	select {
	case b.publishChannel <- publication[TID, TPayload]{ID: id, Payload: payload}:
	case <-b.stopChannel:
	}
}

// Forget the latest payload of ID and close its subscriber channels.
func (b *Broadcaster[TID, TPayload]) Forget(id TID) {
	select {
	case b.forgetChannel <- id:
	case <-b.stopChannel:
	}
}
