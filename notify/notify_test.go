package notify

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-crosscount/counter"
)

type doneToken struct {
	done chan struct{}
}

func newDoneToken() *doneToken {
	t := &doneToken{done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return nil }

type message struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu   sync.Mutex
	sent []message
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message{topic: topic, payload: payload.([]byte)})
	return newDoneToken()
}

func TestNotifierPublishes(t *testing.T) {
	client := &fakeClient{}
	n := newNotifier(client, "crosscount", logs.NewTestingLog(t))

	n.Notify("run-1", counter.Crossing{ID: 4, Boundary: "north", Class: "car", Direction: -1})
	n.Notify("run-1", counter.Crossing{ID: 5, Boundary: "south", Class: "bus", Direction: 1})
	n.Close()

	// close is idempotent
	n.Close()

	require.Len(t, client.sent, 2)
	assert.Equal(t, "crosscount/north", client.sent[0].topic)
	assert.Equal(t, "crosscount/south", client.sent[1].topic)

	var ev Event
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &ev))
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, int64(4), ev.ID)
	assert.Equal(t, "car", ev.Class)
	assert.Equal(t, -1, ev.Direction)
}
