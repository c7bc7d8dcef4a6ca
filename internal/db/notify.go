package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/ghorbari/ghorbari/internal/dbpool"
)

// listenChannel is where the stores pg_notify after committing a write.
const listenChannel = "gb_changes"

// validChannel matches safe PostgreSQL LISTEN channel names.
var validChannel = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Backoff bounds for the reconnect loop.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// Broadcaster sends events to connected clients.
type Broadcaster interface {
	BroadcastEvent(eventType string, data json.RawMessage)
}

// NotifyBridge turns committed database writes into WebSocket traffic. It
// LISTENs on gb_changes and hands every payload to the hub, so a write on
// any instance of the service reaches the clients of every instance.
type NotifyBridge struct {
	log  *logrus.Logger
	pool *dbpool.Pool
	hub  Broadcaster
}

// NewNotifyBridge creates a NotifyBridge wired to the given pool and hub.
func NewNotifyBridge(log *logrus.Logger, pool *dbpool.Pool, hub Broadcaster) *NotifyBridge {
	return &NotifyBridge{
		log:  log,
		pool: pool,
		hub:  hub,
	}
}

// Start verifies the database is reachable, then runs the listen loop in
// the background. Failures after startup are handled by reconnecting, not
// by returning.
func (b *NotifyBridge) Start(ctx context.Context) error {
	if !validChannel.MatchString(listenChannel) {
		return fmt.Errorf("notify bridge: invalid channel name %q", listenChannel)
	}

	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("notify bridge: database not reachable: %w", err)
	}

	go b.listen(ctx)

	return nil
}

// listen re-establishes the subscription whenever it drops, backing off
// exponentially with jitter between attempts.
func (b *NotifyBridge) listen(ctx context.Context) {
	backoff := initialBackoff

	for ctx.Err() == nil {
		err := b.consume(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}

		b.log.WithError(err).WithField("retry_in", backoff).
			Warn("notify bridge connection lost, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff = nextBackoff(backoff)
	}
}

// consume holds one dedicated connection, LISTENs, and forwards
// notifications until the connection or the context dies.
func (b *NotifyBridge) consume(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	// LISTEN takes the channel name inline rather than as a parameter;
	// pgx.Identifier quotes it safely.
	channel := pgx.Identifier{listenChannel}.Sanitize()
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		return fmt.Errorf("executing LISTEN: %w", err)
	}

	b.log.WithField("channel", listenChannel).Info("notify bridge listening")

	for {
		// A bounded read deadline lets the loop notice ctx cancellation
		// even when the channel is quiet.
		if err := conn.Conn().PgConn().Conn().SetReadDeadline(time.Now().Add(2 * time.Minute)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}

		notification, err := conn.Conn().WaitForNotification(ctx)

		switch {
		case err == nil:
			b.forward(notification)
		case ctx.Err() != nil:
			return nil
		case isTimeout(err):
			continue
		default:
			return fmt.Errorf("waiting for notification: %w", err)
		}
	}
}

// isTimeout reports whether err is a network read timeout.
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// forward relays one notification payload to the hub as a
// "<table>.<op>" event.
func (b *NotifyBridge) forward(n *pgconn.Notification) {
	b.log.WithFields(logrus.Fields{
		"channel": n.Channel,
		"pid":     n.PID,
	}).Debug("notification received")

	var payload struct {
		Table string `json:"table"`
		Op    string `json:"op"`
	}
	if err := json.Unmarshal([]byte(n.Payload), &payload); err != nil || payload.Table == "" {
		b.log.Warn("dropping notification without table")
		return
	}

	b.hub.BroadcastEvent(payload.Table+"."+payload.Op, json.RawMessage(n.Payload))
}

// nextBackoff doubles the delay up to maxBackoff, with ±25% jitter so a
// fleet of instances does not reconnect in lockstep.
func nextBackoff(current time.Duration) time.Duration {
	next := min(current*2, maxBackoff)

	jitter := float64(next) * (0.75 + rand.Float64()*0.5) //nolint:gosec // jitter doesn't need crypto rand.

	return time.Duration(jitter)
}
