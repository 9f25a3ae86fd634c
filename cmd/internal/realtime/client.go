package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"

	v1 "github.com/Wenura17125/Tech-Care-official-sub001/contracts/realtime/v1"
)

const subprotocolV1 = "techcare.realtime.v1"

// Options configures a Client.
type Options struct {
	// URL is the ws(s) endpoint of the push gateway.
	URL string

	// AccessToken supplies connection credentials. It is re-read on every
	// (re)connect and on RefreshCredentials, so token rotation needs no
	// rewiring. May be nil for anonymous channels.
	AccessToken func() string

	Log *slog.Logger

	DialTimeout      time.Duration
	WriteTimeout     time.Duration
	ReadIdleTimeout  time.Duration
	HeartbeatEvery   time.Duration
	HeartbeatTimeout time.Duration

	SendQueueSize int
}

// Client owns one physical websocket connection and multiplexes logical
// topic subscriptions over it.
type Client struct {
	log  *slog.Logger
	opts Options

	mu      sync.Mutex
	subs    map[string]map[uint64]*Subscription
	nextID  uint64
	state   ConnectionState
	started bool
	closed  bool

	// sendQ outlives individual connections; frames queued while offline are
	// flushed by the next connection's writer.
	sendQ chan v1.Envelope

	cancel context.CancelFunc
	done   chan struct{}
}

// NewClient constructs a Client with safe defaults. Call Start to connect.
func NewClient(opts Options) *Client {
	if opts.Log == nil {
		opts.Log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.ReadIdleTimeout <= 0 {
		opts.ReadIdleTimeout = defaultReadIdle
	}
	if opts.HeartbeatEvery <= 0 {
		opts.HeartbeatEvery = heartbeatInterval
	}
	if opts.HeartbeatTimeout <= 0 {
		opts.HeartbeatTimeout = heartbeatTimeout
	}
	if opts.SendQueueSize < minSendQueueSize {
		opts.SendQueueSize = defaultSendQueueSize
	}

	return &Client{
		log:   opts.Log,
		opts:  opts,
		subs:  make(map[string]map[uint64]*Subscription),
		sendQ: make(chan v1.Envelope, opts.SendQueueSize),
		done:  make(chan struct{}),
	}
}

// State returns the externally observable connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s ConnectionState) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()

	stateGauge.Set(float64(s))
	if prev != s {
		c.log.Info("ws.state", "from", prev.String(), "to", s.String())
	}
}

// Start launches the connect/reconnect loop. It is a no-op after the first
// call and after Close.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(runCtx)
}

// Close stops the reconnect loop and tears down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	started := c.started
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if started {
		<-c.done
	}
	c.setState(StateDisconnected)
}

// Subscribe registers handlers for a topic and returns a disposable handle.
// The subscription survives reconnects until Unsubscribe is called.
func (c *Client) Subscribe(topic string, h Handlers) *Subscription {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}

	c.mu.Lock()
	c.nextID++
	sub := &Subscription{id: c.nextID, topic: topic, handlers: h, client: c}
	set := c.subs[topic]
	if set == nil {
		set = make(map[uint64]*Subscription)
		c.subs[topic] = set
	}
	first := len(set) == 0
	set[sub.id] = sub
	connected := c.state == StateConnected
	c.mu.Unlock()

	if first && connected {
		c.enqueueSubscribe(topic)
	}
	return sub
}

// unsubscribe is invoked by Subscription.Unsubscribe exactly once.
func (c *Client) unsubscribe(sub *Subscription) {
	c.mu.Lock()
	set := c.subs[sub.topic]
	delete(set, sub.id)
	last := set != nil && len(set) == 0
	if last {
		delete(c.subs, sub.topic)
	}
	connected := c.state == StateConnected
	c.mu.Unlock()

	if last && connected {
		payload, _ := json.Marshal(v1.UnsubscribePayload{Topic: sub.topic})
		c.enqueue(newEnvelope(v1.TypeUnsubscribe, sub.topic, payload))
	}
}

// RefreshCredentials pushes the current access token to the gateway in place.
// When disconnected this is a no-op: the next dial reads the token anyway.
func (c *Client) RefreshCredentials() {
	if c.State() != StateConnected {
		return
	}
	payload, _ := json.Marshal(v1.AuthRefreshPayload{AccessToken: c.token()})
	c.enqueue(newEnvelope(v1.TypeAuthRefresh, "", payload))
}

func (c *Client) token() string {
	if c.opts.AccessToken == nil {
		return ""
	}
	return strings.TrimSpace(c.opts.AccessToken())
}

// ---- connect loop ----

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer c.setState(StateDisconnected)

	bo := newReconnectBackoff()

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return
		}

		c.setState(StateConnecting)
		if attempt > 0 {
			reconnectsTotal.Inc()
		}

		err := c.runConn(ctx, bo)
		if ctx.Err() != nil {
			return
		}

		c.setState(StateDisconnected)

		delay := bo.NextBackOff()
		c.log.Info("ws.reconnect.wait", "delay", delay.String(), "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func newReconnectBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = reconnectInitialInterval
	bo.MaxInterval = reconnectMaxInterval
	bo.Multiplier = 2
	return bo
}

// runConn dials once and runs the read/write/heartbeat loops until the
// connection dies or ctx is cancelled.
func (c *Client) runConn(ctx context.Context, bo *backoff.ExponentialBackOff) error {
	dialCtx, dialCancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	conn, _, err := websocket.Dial(dialCtx, c.opts.URL, &websocket.DialOptions{
		Subprotocols: []string{subprotocolV1},
	})
	dialCancel()
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	conn.SetReadLimit(maxFrameBytes)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handshake: hello carries the current credentials.
	helloPayload, _ := json.Marshal(v1.HelloPayload{AccessToken: c.token()})
	if err := writeEnvelope(connCtx, conn, newEnvelope(v1.TypeHello, "", helloPayload), c.opts.WriteTimeout); err != nil {
		return fmt.Errorf("hello: %w", err)
	}

	// A successful handshake resets the reconnect backoff.
	bo.Reset()
	c.setState(StateConnected)

	c.replaySubscriptions()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-connCtx.Done():
				return
			case env := <-c.sendQ:
				if err := writeEnvelope(connCtx, conn, env, c.opts.WriteTimeout); err != nil {
					c.log.Info("ws.write.fail", "close_status", websocket.CloseStatus(err), "err", err)
					cancel()
					return
				}
			}
		}
	}()

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)

		t := time.NewTicker(c.opts.HeartbeatEvery)
		defer t.Stop()

		failures := 0
		for {
			select {
			case <-connCtx.Done():
				return
			case <-t.C:
				hbCtx, hbCancel := context.WithTimeout(connCtx, c.opts.HeartbeatTimeout)
				err := conn.Ping(hbCtx)
				hbCancel()

				if err != nil {
					failures++
					c.log.Info("ws.ping.fail", "failures", failures, "err", err)
					if failures >= maxPingFailures {
						cancel()
						return
					}
					continue
				}
				failures = 0
			}
		}
	}()

	var readErr error
readLoop:
	for {
		readCtx, readCancel := context.WithTimeout(connCtx, c.opts.ReadIdleTimeout)
		env, err := readEnvelope(readCtx, conn)
		readCancel()

		if err != nil {
			switch classifyReadErr(err) {
			case readErrBadJSON:
				c.log.Info("ws.read.bad_json", "err", err)
				continue readLoop
			default:
				readErr = err
				break readLoop
			}
		}

		if err := env.Validate(); err != nil {
			c.log.Info("ws.envelope.invalid", "err", err)
			continue readLoop
		}

		switch env.Type {
		case v1.TypeEvent:
			c.dispatchEvent(env)
		case v1.TypeHelloAck, v1.TypeSubscribeAck:
			c.log.Debug("ws.ack", "type", env.Type, "topic", env.Topic)
		case v1.TypeError:
			var p v1.ErrorPayload
			_ = json.Unmarshal(env.Payload, &p)
			c.log.Info("ws.server.error", "code", p.Code, "message", p.Message)
		default:
			c.log.Debug("ws.ignore", "type", env.Type)
		}
	}

	cancel()
	<-writerDone
	<-heartbeatDone
	return readErr
}

// replaySubscriptions re-announces every desired topic after a (re)connect.
func (c *Client) replaySubscriptions() {
	c.mu.Lock()
	topics := make([]string, 0, len(c.subs))
	for topic := range c.subs {
		topics = append(topics, topic)
	}
	c.mu.Unlock()

	for _, topic := range topics {
		c.enqueueSubscribe(topic)
	}
}

func (c *Client) enqueueSubscribe(topic string) {
	payload, _ := json.Marshal(v1.SubscribePayload{Topic: topic})
	c.enqueue(newEnvelope(v1.TypeSubscribe, topic, payload))
}

// enqueue is non-blocking; frames dropped on a full queue are recovered by
// subscription replay on the next reconnect.
func (c *Client) enqueue(env v1.Envelope) {
	select {
	case c.sendQ <- env:
	default:
		c.log.Info("ws.send.drop", "type", env.Type, "topic", env.Topic)
	}
}

// dispatchEvent routes one change event to every handler set for its topic.
// Handlers run in arrival order on the read goroutine.
func (c *Client) dispatchEvent(env v1.Envelope) {
	var p v1.EventPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		c.log.Info("ws.event.bad_payload", "topic", env.Topic, "err", err)
		return
	}
	if err := p.Validate(); err != nil {
		c.log.Info("ws.event.invalid", "topic", env.Topic, "err", err)
		return
	}

	c.mu.Lock()
	set := c.subs[env.Topic]
	handlers := make([]Handlers, 0, len(set))
	for _, sub := range set {
		handlers = append(handlers, sub.handlers)
	}
	c.mu.Unlock()

	if len(handlers) == 0 {
		return
	}
	eventsTotal.WithLabelValues(p.Kind).Inc()

	for _, h := range handlers {
		switch p.Kind {
		case v1.KindInsert:
			if h.OnInsert != nil {
				h.OnInsert(env.Topic, p.New)
			}
		case v1.KindUpdate:
			if h.OnUpdate != nil {
				h.OnUpdate(env.Topic, p.New, p.Old)
			}
		case v1.KindDelete:
			if h.OnDelete != nil {
				h.OnDelete(env.Topic, p.Old)
			}
		}
	}
}

// ---- envelope IO ----

func newEnvelope(typ, topic string, payload json.RawMessage) v1.Envelope {
	return v1.Envelope{
		V:       v1.Version,
		Type:    typ,
		ID:      newEnvelopeID(),
		Topic:   topic,
		TS:      time.Now().UTC(),
		Payload: payload,
	}
}

func readEnvelope(ctx context.Context, conn *websocket.Conn) (v1.Envelope, error) {
	mt, data, err := conn.Read(ctx)
	if err != nil {
		return v1.Envelope{}, err
	}
	if mt != websocket.MessageText && mt != websocket.MessageBinary {
		return v1.Envelope{}, fmt.Errorf("unsupported message type: %v", mt)
	}
	var env v1.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return v1.Envelope{}, err
	}
	return env, nil
}

func writeEnvelope(parent context.Context, conn *websocket.Conn, env v1.Envelope, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}

// ---- read error classification ----

type readErrKind uint8

const (
	readErrUnknown readErrKind = iota
	readErrClose
	readErrCtxDone
	readErrConnClosed
	readErrBadJSON
)

func classifyReadErr(err error) readErrKind {
	if websocket.CloseStatus(err) != -1 {
		return readErrClose
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return readErrCtxDone
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return readErrConnClosed
	}

	var synErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &synErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return readErrBadJSON
	}
	return readErrUnknown
}
