// Package notify publishes crossing events to an MQTT broker.
package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cyclopcam/logs"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/swdee/go-crosscount/config"
	"github.com/swdee/go-crosscount/counter"
)

// queueSize is the number of events buffered before new ones are dropped
const queueSize = 256

// publisher is the part of mqtt.Client the notifier uses
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Event is the JSON payload published for each crossing
type Event struct {
	RunID string `json:"run_id"`
	counter.Crossing
}

type queued struct {
	runID    string
	crossing counter.Crossing
}

// Notifier publishes crossings to <topic>/<boundary> with QoS 0.  Events are
// queued and sent from their own goroutine so Notify never blocks
type Notifier struct {
	log        logs.Log
	client     publisher
	topic      string
	timeout    time.Duration
	queue      chan queued
	done       chan struct{}
	disconnect func()
	closeOnce  sync.Once
}

// New connects to the broker and returns a running notifier
func New(cfg config.MQTTConfig, log logs.Log) (*Notifier, error) {

	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker)

	clientID := cfg.ClientID

	if clientID == "" {
		clientID = "crosscount-" + uuid.New().String()[:8]
	}

	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, token.Error())
	}

	log.Infof("Connected to MQTT broker %v as %v", cfg.Broker, clientID)

	n := newNotifier(client, cfg.Topic, log)
	n.disconnect = func() { client.Disconnect(250) }

	return n, nil
}

func newNotifier(client publisher, topic string, log logs.Log) *Notifier {
	n := &Notifier{
		log:     log,
		client:  client,
		topic:   topic,
		timeout: 5 * time.Second,
		queue:   make(chan queued, queueSize),
		done:    make(chan struct{}),
	}
	go n.sender()
	return n
}

// Notify queues a crossing for publishing.  When the queue is full the event
// is dropped
func (n *Notifier) Notify(runID string, c counter.Crossing) {
	select {
	case n.queue <- queued{runID: runID, crossing: c}:
	default:
		n.log.Warnf("MQTT queue full, dropping crossing of %v on %v", c.ID, c.Boundary)
	}
}

func (n *Notifier) sender() {
	defer close(n.done)

	for q := range n.queue {

		payload, err := json.Marshal(Event{RunID: q.runID, Crossing: q.crossing})

		if err != nil {
			n.log.Errorf("Failed to encode crossing: %v", err)
			continue
		}

		topic := n.topic + "/" + q.crossing.Boundary
		token := n.client.Publish(topic, 0, false, payload)

		if !token.WaitTimeout(n.timeout) {
			n.log.Warnf("Timed out publishing to %v", topic)
			continue
		}

		if err := token.Error(); err != nil {
			n.log.Errorf("Failed to publish to %v: %v", topic, err)
		}
	}
}

// Close sends any queued events then disconnects
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		close(n.queue)
		<-n.done

		if n.disconnect != nil {
			n.disconnect()
		}
	})
}
