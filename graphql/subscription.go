package graphql

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	wsSubprotocol    = "graphql-transport-ws"
	handshakeTimeout = 10 * time.Second
	ackTimeout       = 10 * time.Second

	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 30 * time.Second
)

// Protocol message types, per the graphql-transport-ws spec.
const (
	messageConnectionInit = "connection_init"
	messageConnectionAck  = "connection_ack"
	messagePing           = "ping"
	messagePong           = "pong"
	messageSubscribe      = "subscribe"
	messageNext           = "next"
	messageError          = "error"
	messageComplete       = "complete"
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Subscription is a live GraphQL subscription. Updates carries every "next"
// payload pushed by the backend; after a reconnect the backend re-delivers a
// fresh snapshot, so consumers can treat each update as a full replacement.
type Subscription struct {
	id      string
	request Request

	updates chan json.RawMessage
	errs    chan error
	done    chan struct{}

	sock *socket

	// mu serializes channel sends against close, so an in-flight emit can
	// never hit a closed channel.
	mu     sync.Mutex
	closed bool
}

// Updates delivers raw subscription payloads.
func (s *Subscription) Updates() <-chan json.RawMessage { return s.updates }

// Err delivers backend subscription errors. The subscription stays registered;
// transport-level failures are retried by the socket.
func (s *Subscription) Err() <-chan error { return s.errs }

// Close stops the subscription and closes its channels.
func (s *Subscription) Close() {
	s.sock.unsubscribe(s)
}

func (s *Subscription) closeChannels() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.updates)
	close(s.errs)
	close(s.done)
}

// socket owns the single shared WebSocket connection. It dials lazily once a
// subscription exists, replays live subscriptions after every reconnect, and
// retries with exponential backoff and jitter.
type socket struct {
	url   string
	token TokenSource
	log   *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	subs      map[string]*Subscription
	connected bool
	closed    bool

	writeMu sync.Mutex
	notify  chan struct{}
	done    chan struct{}
}

func newSocket(url string, token TokenSource, log *slog.Logger) *socket {
	s := &socket{
		url:    url,
		token:  token,
		log:    log,
		subs:   map[string]*Subscription{},
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *socket) subscribe(ctx context.Context, request Request) (*Subscription, error) {
	sub := &Subscription{
		id:      uuid.New().String(),
		request: request,
		updates: make(chan json.RawMessage, 16),
		errs:    make(chan error, 4),
		done:    make(chan struct{}),
		sock:    s,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("socket is closed")
	}
	s.subs[sub.id] = sub
	conn := s.conn
	connected := s.connected
	s.mu.Unlock()

	if connected {
		if err := s.writeMessage(conn, s.subscribeMessage(sub)); err != nil {
			// The read loop will notice the broken connection and replay.
			s.log.Warn("subscribe write failed, deferring to reconnect", "error", err)
		}
	}
	s.wake()

	// Tie the subscription to the caller's context.
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (s *socket) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	_, present := s.subs[sub.id]
	delete(s.subs, sub.id)
	conn := s.conn
	connected := s.connected
	s.mu.Unlock()

	if present && connected {
		_ = s.writeMessage(conn, wsMessage{ID: sub.id, Type: messageComplete})
	}
	sub.closeChannels()
}

func (s *socket) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = map[string]*Subscription{}
	s.mu.Unlock()

	close(s.done)
	if conn != nil {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
			time.Now().Add(250*time.Millisecond),
		)
		_ = conn.Close()
	}
	for _, sub := range subs {
		sub.closeChannels()
	}
}

func (s *socket) isConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// run is the connection manager loop: dial, replay subscriptions, read until
// failure, back off, repeat.
func (s *socket) run() {
	attempt := 0
	for {
		select {
		case <-s.done:
			return
		default:
		}

		if !s.hasSubscribers() {
			select {
			case <-s.done:
				return
			case <-s.notify:
				continue
			}
		}

		conn, err := s.dial()
		if err != nil {
			delay := backoffDelay(attempt)
			attempt++
			s.log.Warn("subscription socket dial failed", "error", err, "retry_in", delay)
			select {
			case <-s.done:
				return
			case <-time.After(delay):
			}
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conn = conn
		s.connected = true
		replay := make([]*Subscription, 0, len(s.subs))
		for _, sub := range s.subs {
			replay = append(replay, sub)
		}
		s.mu.Unlock()

		for _, sub := range replay {
			if err := s.writeMessage(conn, s.subscribeMessage(sub)); err != nil {
				break
			}
		}

		healthy := s.readLoop(conn)

		s.mu.Lock()
		s.conn = nil
		s.connected = false
		closed := s.closed
		s.mu.Unlock()
		_ = conn.Close()
		if closed {
			return
		}

		// A connection that acked the handshake but died before delivering a
		// single frame counts against the backoff, otherwise a flapping
		// backend gets hammered with immediate redials.
		if healthy {
			attempt = 0
		} else {
			delay := backoffDelay(attempt)
			attempt++
			s.log.Warn("subscription socket dropped before first frame", "retry_in", delay)
			select {
			case <-s.done:
				return
			case <-time.After(delay):
			}
		}
	}
}

// dial establishes the WebSocket and performs the connection_init handshake,
// attaching the current bearer credential the way the HTTP link does.
func (s *socket) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		Subprotocols:     []string{wsSubprotocol},
	}
	conn, _, err := dialer.Dial(s.url, http.Header{})
	if err != nil {
		return nil, errors.Wrap(err, "dialing websocket")
	}

	authorization := ""
	if token := s.token(); token != "" {
		authorization = "Bearer " + token
	}
	initPayload, err := json.Marshal(map[string]any{
		"headers": map[string]string{"Authorization": authorization},
	})
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "marshaling init payload")
	}
	if err := conn.WriteJSON(wsMessage{Type: messageConnectionInit, Payload: initPayload}); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "sending connection_init")
	}

	// Wait for the ack before surfacing the connection.
	_ = conn.SetReadDeadline(time.Now().Add(ackTimeout))
	for {
		var message wsMessage
		if err := conn.ReadJSON(&message); err != nil {
			_ = conn.Close()
			return nil, errors.Wrap(err, "awaiting connection_ack")
		}
		if message.Type == messageConnectionAck {
			break
		}
	}
	_ = conn.SetReadDeadline(time.Time{})
	return conn, nil
}

// readLoop reads frames until the connection fails. It reports whether at
// least one frame was read, which distinguishes a working connection from one
// that dropped right after the handshake.
func (s *socket) readLoop(conn *websocket.Conn) bool {
	healthy := false
	for {
		var message wsMessage
		if err := conn.ReadJSON(&message); err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.log.Warn("subscription socket read failed", "error", err)
			}
			return healthy
		}
		healthy = true

		switch message.Type {
		case messagePing:
			_ = s.writeMessage(conn, wsMessage{Type: messagePong})

		case messageNext:
			sub := s.lookup(message.ID)
			if sub == nil {
				continue
			}
			payload := struct {
				Data   json.RawMessage `json:"data"`
				Errors Errors          `json:"errors"`
			}{}
			if err := json.Unmarshal(message.Payload, &payload); err != nil {
				sub.emitErr(errors.Wrap(err, "decoding next payload"), s.log)
				continue
			}
			if len(payload.Errors) > 0 {
				sub.emitErr(payload.Errors, s.log)
				continue
			}
			sub.emitUpdate(payload.Data, s.log)

		case messageError:
			sub := s.lookup(message.ID)
			if sub == nil {
				continue
			}
			var gqlErrors Errors
			if err := json.Unmarshal(message.Payload, &gqlErrors); err != nil {
				gqlErrors = Errors{{Message: string(message.Payload)}}
			}
			sub.emitErr(gqlErrors, s.log)
			s.mu.Lock()
			delete(s.subs, sub.id)
			s.mu.Unlock()
			sub.closeChannels()

		case messageComplete:
			sub := s.lookup(message.ID)
			if sub == nil {
				continue
			}
			s.mu.Lock()
			delete(s.subs, sub.id)
			s.mu.Unlock()
			sub.closeChannels()
		}
	}
}

func (s *socket) lookup(id string) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[id]
}

func (s *socket) hasSubscribers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) > 0
}

func (s *socket) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *socket) subscribeMessage(sub *Subscription) wsMessage {
	payload, _ := json.Marshal(sub.request)
	return wsMessage{ID: sub.id, Type: messageSubscribe, Payload: payload}
}

func (s *socket) writeMessage(conn *websocket.Conn, message wsMessage) error {
	if conn == nil {
		return errors.New("not connected")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteJSON(message)
}

func (sub *Subscription) emitUpdate(payload json.RawMessage, log *slog.Logger) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case sub.updates <- payload:
	default:
		log.Warn("dropping subscription update, consumer too slow", "subscription", sub.id)
	}
}

func (sub *Subscription) emitErr(err error, log *slog.Logger) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case sub.errs <- err:
	default:
		log.Warn("dropping subscription error, consumer too slow", "subscription", sub.id, "error", err)
	}
}

// backoffDelay computes an exponential backoff with ±20% jitter.
func backoffDelay(attempt int) time.Duration {
	delay := baseBackoff << attempt
	if delay > maxBackoff || delay <= 0 {
		delay = maxBackoff
	}
	jitter := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(delay) * jitter)
}
