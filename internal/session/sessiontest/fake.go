// Package sessiontest provides in-memory fakes of the session collaborators
// for endpoint and manager tests.
package sessiontest

import (
	"errors"
	"sync"

	"github.com/nerrad567/pico-link/internal/infrastructure/mqtt"
	"github.com/nerrad567/pico-link/internal/session"
	"github.com/nerrad567/pico-link/internal/telemetry"
)

// ErrLinkDown is the CheckMsg error a Conn reports once Drop is called.
var ErrLinkDown = errors.New("sessiontest: link down")

// Message is one publish recorded by a Conn.
type Message struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

// Conn is a fake session.Conn that records everything done to it.
type Conn struct {
	mu sync.Mutex

	// Ops lists operations in call order: "subscribe <topic>",
	// "publish <topic> <payload>", "close".
	Ops          []string
	Messages     []Message
	Closed       int
	handlers     map[string]mqtt.MessageHandler
	pending      []Message
	dropped      bool
	PublishErr   error
	SubscribeErr error
	CheckErr     error
	CloseErr     error
}

// NewConn returns an empty fake connection.
func NewConn() *Conn {
	return &Conn{handlers: make(map[string]mqtt.MessageHandler)}
}

// Publish records the message, then returns PublishErr.
func (c *Conn) Publish(topic string, payload []byte, qos byte, retained bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Ops = append(c.Ops, "publish "+topic+" "+string(payload))
	if c.PublishErr != nil {
		return c.PublishErr
	}
	c.Messages = append(c.Messages, Message{Topic: topic, Payload: string(payload), QoS: qos, Retained: retained})
	return nil
}

// Subscribe records the handler unless SubscribeErr is set.
func (c *Conn) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Ops = append(c.Ops, "subscribe "+topic)
	if c.SubscribeErr != nil {
		return c.SubscribeErr
	}
	c.handlers[topic] = handler
	return nil
}

// Deliver queues an inbound message for the next CheckMsg.
func (c *Conn) Deliver(topic, payload string) {
	c.mu.Lock()
	c.pending = append(c.pending, Message{Topic: topic, Payload: payload})
	c.mu.Unlock()
}

// Drop makes every later CheckMsg fail with ErrLinkDown.
func (c *Conn) Drop() {
	c.mu.Lock()
	c.dropped = true
	c.mu.Unlock()
}

// CheckMsg dispatches one pending message to the handler subscribed on its
// exact topic. Messages on topics without a handler are discarded.
func (c *Conn) CheckMsg() error {
	c.mu.Lock()
	if c.CheckErr != nil {
		err := c.CheckErr
		c.mu.Unlock()
		return err
	}
	if len(c.pending) == 0 {
		dropped := c.dropped
		c.mu.Unlock()
		if dropped {
			return ErrLinkDown
		}
		return nil
	}
	msg := c.pending[0]
	c.pending = c.pending[1:]
	handler := c.handlers[msg.Topic]
	c.mu.Unlock()

	if handler != nil {
		_ = handler(msg.Topic, []byte(msg.Payload))
	}
	return nil
}

// Close counts the call and returns CloseErr.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Ops = append(c.Ops, "close")
	c.Closed++
	return c.CloseErr
}

// Published returns the payloads successfully published on topic, in order.
func (c *Conn) Published(topic string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.Messages {
		if m.Topic == topic {
			out = append(out, m.Payload)
		}
	}
	return out
}

// Operations returns a copy of Ops.
func (c *Conn) Operations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Ops...)
}

// SetPublishErr changes PublishErr under the lock.
func (c *Conn) SetPublishErr(err error) {
	c.mu.Lock()
	c.PublishErr = err
	c.mu.Unlock()
}

// Dialer hands out queued connections and errors in order. Once the queue
// is empty it returns fresh connections.
type Dialer struct {
	mu    sync.Mutex
	queue []dialResult
	Wills []mqtt.Will
	Conns []*Conn
}

type dialResult struct {
	conn *Conn
	err  error
}

// Queue schedules the result of a future Dial.
func (d *Dialer) Queue(conn *Conn, err error) {
	d.mu.Lock()
	d.queue = append(d.queue, dialResult{conn: conn, err: err})
	d.mu.Unlock()
}

// Dial implements session.Dialer.
func (d *Dialer) Dial(will mqtt.Will) (session.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Wills = append(d.Wills, will)

	next := dialResult{conn: NewConn()}
	if len(d.queue) > 0 {
		next = d.queue[0]
		d.queue = d.queue[1:]
	}
	if next.err != nil {
		return nil, next.err
	}
	d.Conns = append(d.Conns, next.conn)
	return next.conn, nil
}

// Calls returns how many times Dial was called.
func (d *Dialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Wills)
}

// Network is a fake session.Network that reports connected after a number
// of IsConnected calls.
type Network struct {
	mu      sync.Mutex
	UpAfter int
	Addr    string
	checks  int
}

// IsConnected implements session.Network.
func (n *Network) IsConnected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.checks++
	return n.checks > n.UpAfter
}

// Address implements session.Network.
func (n *Network) Address() string {
	return n.Addr
}

// Checks returns how many times IsConnected was called.
func (n *Network) Checks() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.checks
}

// Recorder collects telemetry events.
type Recorder struct {
	mu     sync.Mutex
	events []telemetry.Event
}

// Record implements telemetry.Recorder.
func (r *Recorder) Record(e telemetry.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Kinds returns the recorded event kinds in order.
func (r *Recorder) Kinds() []telemetry.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]telemetry.Kind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []telemetry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]telemetry.Event(nil), r.events...)
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind telemetry.Kind) int {
	n := 0
	for _, k := range r.Kinds() {
		if k == kind {
			n++
		}
	}
	return n
}
