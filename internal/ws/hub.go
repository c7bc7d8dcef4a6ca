// Package ws implements WebSocket hub and client management.
//
// Clients are keyed by the authenticated user's email. Negotiation events
// are delivered only to the parties they concern; the LISTEN/NOTIFY change
// feed is fanned out to every connected client.
package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/metrics"
)

// Hub channel buffer sizes.
const (
	broadcastBuffer = 256
	registerBuffer  = 64
)

// Connection caps.
const (
	maxClients        = 1000
	maxClientsPerUser = 10
)

// drainTimeout is how long the hub waits for clients to flush after shutdown.
const drainTimeout = 3 * time.Second

// maxBroadcastPayload is the maximum allowed notification payload size (4 KB).
const maxBroadcastPayload = 4096

// userBroadcast is sent through the broadcast channel to the Run goroutine.
// A nil emails slice addresses every connected client.
type userBroadcast struct {
	emails []string
	msg    []byte
}

// addresses reports whether the broadcast targets the given user.
func (b userBroadcast) addresses(email string) bool {
	if b.emails == nil {
		return true
	}

	for _, e := range b.emails {
		if e == email {
			return true
		}
	}

	return false
}

// Hub manages active WebSocket clients and broadcasts messages.
// All client map mutations happen exclusively in the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	userCount  map[string]int // O(1) per-user connection counting
	register   chan *Client
	unregister chan *Client
	broadcast  chan userBroadcast
	shutdown   chan struct{} // signals Run to begin graceful drain
	done       chan struct{} // closed when Run has finished draining
	count      atomic.Int64
	log        *logrus.Logger
	seq        *EventSequence
	buffer     *EventBuffer
}

// NewHub creates a new Hub instance.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		userCount:  make(map[string]int),
		register:   make(chan *Client, registerBuffer),
		unregister: make(chan *Client, registerBuffer),
		broadcast:  make(chan userBroadcast, broadcastBuffer),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
		seq:        NewEventSequence(),
		buffer:     NewEventBuffer(defaultBufferMaxLen, defaultBufferMaxAge),
	}
}

// Run starts the hub event loop. It should be run as a goroutine.
// It exits when Shutdown is called or the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.drainClients()

			return
		case <-h.shutdown:
			h.drainClients()

			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.dropClient(client)
			h.syncGauges()
			h.log.WithField("total", len(h.clients)).Info("client unregistered")
		case b := <-h.broadcast:
			h.fanOut(b)
			h.syncGauges()
		}
	}
}

// addClient admits a client unless a connection cap is hit. Run goroutine only.
func (h *Hub) addClient(client *Client) {
	if len(h.clients) >= maxClients {
		h.log.Warn("global connection limit reached, dropping client")
		client.closeSend()
		return
	}

	if h.userCount[client.Email] >= maxClientsPerUser {
		h.log.WithField("email", client.Email).Warn("per-user connection limit reached, dropping client")
		client.closeSend()
		return
	}

	h.clients[client] = true
	h.userCount[client.Email]++
	h.syncGauges()
	h.log.WithField("total", len(h.clients)).Info("client registered")
}

// dropClient removes a client and its per-user count. Run goroutine only.
func (h *Hub) dropClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	client.closeSend()

	h.userCount[client.Email]--
	if h.userCount[client.Email] <= 0 {
		delete(h.userCount, client.Email)
	}
}

// fanOut delivers one broadcast to every addressed client, dropping clients
// whose send buffers are full. Run goroutine only.
func (h *Hub) fanOut(b userBroadcast) {
	for client := range h.clients {
		if !b.addresses(client.Email) {
			continue
		}

		select {
		case client.send <- b.msg:
		default:
			// A full buffer means the client stopped reading.
			h.dropClient(client)
		}
	}
}

// syncGauges refreshes the connection counters. Run goroutine only.
func (h *Hub) syncGauges() {
	h.count.Store(int64(len(h.clients)))
	metrics.WSConnections.Set(float64(len(h.clients)))
}

// send queues a broadcast for the Run goroutine, dropping oversized or
// overflowing payloads with a warning.
func (h *Hub) send(emails []string, msg []byte) {
	if len(msg) > maxBroadcastPayload {
		h.log.WithFields(logrus.Fields{
			"payload_size": len(msg),
			"max_size":     maxBroadcastPayload,
		}).Warn("dropping oversized broadcast payload")
		return
	}
	select {
	case h.broadcast <- userBroadcast{emails: emails, msg: msg}:
	default:
		h.log.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	default:
		h.log.Warn("register channel full, dropping client")
		c.closeSend()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	default:
		// Run loop already exited; client cleanup happened in Run shutdown.
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// NotifyUsers assigns per-user sequence IDs, stores the event in each
// recipient's replay buffer, and sends it to their connected clients. This
// is how negotiation transitions reach the owner and seeker they concern.
func (h *Hub) NotifyUsers(eventType string, emails []string, data json.RawMessage) {
	for _, email := range emails {
		evt := Event{
			Type: eventType,
			ID:   h.seq.Next(email),
			User: email,
			Data: data,
			Time: time.Now(),
		}

		msg, err := json.Marshal(evt)
		if err != nil {
			h.log.WithError(err).Error("failed to marshal event")
			continue
		}

		h.buffer.Append(email, &evt)
		h.send([]string{email}, msg)
	}
}

// BroadcastEvent sends a change-feed event to every connected client.
// These events carry no sequence ID and are not buffered for replay;
// they exist so list views can refresh, not as a delivery guarantee.
func (h *Hub) BroadcastEvent(eventType string, data json.RawMessage) {
	evt := Event{
		Type: eventType,
		Data: data,
		Time: time.Now(),
	}

	msg, err := json.Marshal(evt)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")
		return
	}

	h.send(nil, msg)
}

// Shutdown initiates a graceful WebSocket drain: sends a shutdown frame to
// every connected client, waits for their write pumps to flush, then closes
// all connections. It blocks until drain is complete or the timeout expires.
func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.done
}

// drainClients tells every client the server is going away, gives their
// write pumps a moment to flush, then closes everything.
func (h *Hub) drainClients() {
	if len(h.clients) == 0 {
		return
	}

	h.log.WithField("clients", len(h.clients)).Info("draining WebSocket clients")

	shutdownMsg := []byte(`{"type":"shutdown","message":"server shutting down"}`)
	for client := range h.clients {
		select {
		case client.send <- shutdownMsg:
		default:
		}
	}

	h.waitForFlush()

	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}

	h.userCount = make(map[string]int)
	h.count.Store(0)
	metrics.WSConnections.Set(0)
}

// waitForFlush polls until every send buffer is empty or the drain
// timeout expires.
func (h *Hub) waitForFlush() {
	deadline := time.After(drainTimeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		flushed := true

		for client := range h.clients {
			if len(client.send) > 0 {
				flushed = false

				break
			}
		}

		if flushed {
			return
		}

		select {
		case <-deadline:
			h.log.Warn("WebSocket drain timeout, closing remaining clients")

			return
		case <-ticker.C:
		}
	}
}

// ReplayEvents sends buffered events since lastEventID to the client.
// Returns false if the requested ID is too old (not in buffer).
func (h *Hub) ReplayEvents(client *Client, lastEventID uint64) bool {
	oldest := h.buffer.OldestID(client.Email)
	if oldest > 0 && lastEventID > 0 && lastEventID < oldest {
		return false
	}

	for _, evt := range h.buffer.Since(client.Email, lastEventID) {
		msg, err := json.Marshal(evt)
		if err != nil {
			continue
		}
		select {
		case client.send <- msg:
		default:
			return true // channel full, stop replay
		}
	}
	return true
}
