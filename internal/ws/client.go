package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout     = 10 * time.Second
	wsReadLimit      = 4096
	clientSendBuffer = 256
	maxConnLifetime  = 4 * time.Hour // safety-net lifetime (token expiry handles auth)
	pingInterval     = 30 * time.Second
	pingTimeout      = 10 * time.Second
	maxMissedPongs   = 2
)

// Client is one WebSocket connection owned by the Hub. The read pump
// handles subscribe/replay requests; the write pump delivers queued
// events and enforces the connection deadline.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	log       *logrus.Logger
	Email     string
	deadline  time.Time
	closeWhy  string
	closeOnce sync.Once
}

// NewClient wraps conn for the authenticated user. The connection closes
// at tokenExpiry or after the lifetime cap, whichever comes first.
func NewClient(hub *Hub, conn *websocket.Conn, email string, tokenExpiry time.Time) *Client {
	deadline := time.Now().Add(maxConnLifetime)
	why := "max connection lifetime exceeded"

	if !tokenExpiry.IsZero() && tokenExpiry.Before(deadline) {
		deadline = tokenExpiry
		why = "authentication expired"
	}

	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, clientSendBuffer),
		log:      hub.log,
		Email:    email,
		deadline: deadline,
		closeWhy: why,
	}
}

// closeSend safely closes the send channel exactly once.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// ReadPump consumes inbound frames until the connection drops. The only
// meaningful client message is a subscribe request carrying the last event
// ID it saw.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown
	}()

	c.conn.SetReadLimit(wsReadLimit)

	for {
		_, raw, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.log.WithField("status", status).Debug("client disconnected")
			}

			return
		}

		c.handleSubscribe(raw)
	}
}

// handleSubscribe replays missed events, or tells the client to do a full
// refresh when its last seen event has already been evicted.
func (c *Client) handleSubscribe(raw []byte) {
	var sub SubscribeMsg
	if err := json.Unmarshal(raw, &sub); err != nil || sub.Type != "subscribe" {
		return
	}

	if c.hub.ReplayEvents(c, sub.LastEventID) {
		return
	}

	reset, err := json.Marshal(ResetMsg{
		Type:   "reset",
		Reason: "requested events no longer available, perform full refresh",
	})
	if err != nil {
		return
	}

	select {
	case c.send <- reset:
	default:
	}
}

// WritePump drains the send channel onto the wire, keeps the connection
// alive with pings, and closes it when the deadline passes.
func (c *Client) WritePump(ctx context.Context) {
	defer c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown

	deadlineTimer := time.NewTimer(time.Until(c.deadline))
	defer deadlineTimer.Stop()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	missedPongs := 0

	for {
		select {
		case <-pingTicker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()

			if err == nil {
				missedPongs = 0
				continue
			}

			missedPongs++
			if missedPongs >= maxMissedPongs {
				c.log.WithField("missed", missedPongs).Debug("closing: consecutive missed pongs")

				return
			}

		case msg, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()

			if err != nil {
				c.log.WithError(err).Debug("write failed")

				return
			}

		case <-deadlineTimer.C:
			c.log.WithField("reason", c.closeWhy).Info("closing WebSocket")
			c.conn.Close(websocket.StatusPolicyViolation, c.closeWhy) //nolint:errcheck // best-effort

			return
		}
	}
}
