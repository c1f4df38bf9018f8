// Package ws fans transaction events out to live websocket and SSE subscribers.
package ws

import "sync"

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// sendQueueSize bounds how far a subscriber may fall behind before it is dropped.
const sendQueueSize = 16

// Hub routes payloads to subscribers grouped by user id. A subscriber only ever
// receives payloads broadcast under the key it registered with. Each subscriber is
// written by its own goroutine, so the hub loop never waits on a network write.
type Hub struct {
	clients   map[string]map[Subscriber]*outbox
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
	count     chan countRequest
	done      chan struct{}
	closeOnce sync.Once
}

type message struct {
	userID  string
	payload []byte
}

type subscription struct {
	userID string
	client Subscriber
}

type countRequest struct {
	userID string
	reply  chan int
}

// outbox queues payloads for one subscriber.
type outbox struct {
	client Subscriber
	queue  chan []byte
	quit   chan struct{}
	once   sync.Once
}

func (o *outbox) stop() {
	o.once.Do(func() { close(o.quit) })
}

// NewHub creates an initialized Hub and starts its loop.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]*outbox),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message, 64),
		count:     make(chan countRequest),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			for _, clients := range h.clients {
				for c, box := range clients {
					box.stop()
					c.Close()
				}
			}
			h.clients = nil
			return
		case sub := <-h.register:
			clients, ok := h.clients[sub.userID]
			if !ok {
				clients = make(map[Subscriber]*outbox)
				h.clients[sub.userID] = clients
			}
			if _, exists := clients[sub.client]; exists {
				continue
			}
			box := &outbox{client: sub.client, queue: make(chan []byte, sendQueueSize), quit: make(chan struct{})}
			clients[sub.client] = box
			go h.pump(sub.userID, box)
		case sub := <-h.unreg:
			h.drop(sub.userID, sub.client)
		case msg := <-h.broadcast:
			for c, box := range h.clients[msg.userID] {
				select {
				case box.queue <- msg.payload:
				default:
					// Queue full: the subscriber is too slow to keep.
					h.drop(msg.userID, c)
					c.Close()
				}
			}
		case req := <-h.count:
			req.reply <- len(h.clients[req.userID])
		}
	}
}

// pump writes queued payloads until the outbox stops or a write fails.
func (h *Hub) pump(userID string, box *outbox) {
	for {
		select {
		case <-box.quit:
			return
		case payload := <-box.queue:
			if err := box.client.Send(payload); err != nil {
				box.client.Close()
				h.Unregister(userID, box.client)
				return
			}
		}
	}
}

func (h *Hub) drop(userID string, client Subscriber) {
	clients, ok := h.clients[userID]
	if !ok {
		return
	}
	if box, ok := clients[client]; ok {
		box.stop()
		delete(clients, client)
	}
	if len(clients) == 0 {
		delete(h.clients, userID)
	}
}

// Register subscribes client to the user's stream.
func (h *Hub) Register(userID string, client Subscriber) {
	select {
	case h.register <- subscription{userID: userID, client: client}:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client. Unknown clients are ignored.
func (h *Hub) Unregister(userID string, client Subscriber) {
	select {
	case h.unreg <- subscription{userID: userID, client: client}:
	case <-h.done:
	}
}

// Broadcast queues payload for every subscriber of userID. It never waits on a
// subscriber write.
func (h *Hub) Broadcast(userID string, payload []byte) {
	select {
	case h.broadcast <- message{userID: userID, payload: payload}:
	case <-h.done:
	}
}

// Subscribers reports how many clients are attached to userID.
func (h *Hub) Subscribers(userID string) int {
	reply := make(chan int, 1)
	select {
	case h.count <- countRequest{userID: userID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Close disconnects every subscriber and stops the loop.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
