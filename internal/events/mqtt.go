// Package events publishes fleet changes to an MQTT broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/logiroute/internal/fleet"
)

const (
	qosAtLeastOnce = 1
	publishTimeout = 5 * time.Second
	connectTimeout = 10 * time.Second
	drainTimeout   = 10 * time.Second
	queueSize      = 1024
)

// Config describes the broker connection.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Client is the subset of mqtt.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Event is the payload published for every applied or rejected action. Seq
// increases by one per event in the order the store committed them.
type Event struct {
	Seq    uint64       `json:"seq"`
	Kind   string       `json:"kind"`
	Action fleet.Action `json:"action"`
	Cause  string       `json:"cause,omitempty"`
	Error  string       `json:"error,omitempty"`
	At     time.Time    `json:"at"`
}

type message struct {
	topic   string
	kind    string
	payload []byte
}

// Publisher implements fleet.Listener on top of an MQTT client. Events are
// queued and sent by a single worker so dispatches never wait on the broker.
type Publisher struct {
	client Client
	prefix string
	now    func() time.Time

	mu     sync.Mutex
	seq    uint64
	closed bool
	queue  chan message
	done   chan struct{}
}

// NewPublisher wraps an already connected client and starts its worker.
func NewPublisher(client Client, topicPrefix string) *Publisher {
	p := &Publisher{
		client: client,
		prefix: topicPrefix,
		now:    time.Now,
		queue:  make(chan message, queueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Connect dials the broker and returns a publisher on top of it.
func Connect(cfg Config) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	return NewPublisher(client, cfg.TopicPrefix), nil
}

// Topic returns the topic used for an event kind.
func (p *Publisher) Topic(kind string) string {
	return p.prefix + "/" + kind
}

// Applied queues one event per applied action, cascades included.
func (p *Publisher) Applied(_ context.Context, root fleet.Action, applied []fleet.Action) {
	for i, a := range applied {
		ev := Event{Kind: a.Kind(), Action: a}
		if i > 0 {
			ev.Cause = root.Kind()
		}
		p.enqueue(p.Topic(a.Kind()), ev)
	}
}

// Rejected queues the rejected action with the reason.
func (p *Publisher) Rejected(_ context.Context, root fleet.Action, err error) {
	p.enqueue(p.Topic("rejected"), Event{Kind: root.Kind(), Action: root, Error: err.Error()})
}

func (p *Publisher) enqueue(topic string, ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry := log.WithFields(log.Fields{"topic": topic, "kind": ev.Kind})
	if p.closed {
		entry.Warn("Publisher closed, dropping event")
		return
	}

	p.seq++
	ev.Seq = p.seq
	ev.At = p.now()
	payload, err := json.Marshal(ev)
	if err != nil {
		entry.WithError(err).Error("Failed to marshal event")
		return
	}

	select {
	case p.queue <- message{topic: topic, kind: ev.Kind, payload: payload}:
	default:
		entry.WithField("seq", ev.Seq).Warn("Event queue full, dropping event")
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for m := range p.queue {
		p.send(m)
	}
}

func (p *Publisher) send(m message) {
	entry := log.WithFields(log.Fields{"topic": m.topic, "kind": m.kind})
	token := p.client.Publish(m.topic, qosAtLeastOnce, false, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		entry.Warn("Timed out publishing event")
		return
	}
	if err := token.Error(); err != nil {
		entry.WithError(err).Error("Failed to publish event")
		return
	}
	entry.Debug("Published event")
}

// Close stops accepting events, waits up to drainTimeout for the queue to
// empty and disconnects from the broker.
func (p *Publisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-time.After(drainTimeout):
		log.Warn("Timed out draining event queue")
	}
	p.client.Disconnect(250)
}
