package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error, complete bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool             { <-t.done; return true }
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient implements only what the publisher uses.
type fakeClient struct {
	mqtt.Client
	token        *fakeToken
	sent         []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeClient{token: newFakeToken(nil, true)}
	p := newMQTTPublisher(client, "motolog/items")

	at := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), Event{Type: ItemCreated, ItemID: 7, Name: "Oil Filter", At: at})
	require.NoError(t, err)

	require.Len(t, client.sent, 1)
	assert.Equal(t, "motolog/items/created", client.sent[0].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)

	var ev Event
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &ev))
	assert.Equal(t, int64(7), ev.ItemID)
	assert.Equal(t, "Oil Filter", ev.Name)
	assert.True(t, at.Equal(ev.At))

	p.Close()
	assert.True(t, client.disconnected)
}

func TestMQTTPublisher_BrokerError(t *testing.T) {
	client := &fakeClient{token: newFakeToken(errors.New("not connected"), true)}
	p := newMQTTPublisher(client, "motolog/items")

	err := p.Publish(context.Background(), Event{Type: ItemDeleted, ItemID: 1})
	assert.EqualError(t, err, "not connected")
}

func TestMQTTPublisher_ContextDone(t *testing.T) {
	client := &fakeClient{token: newFakeToken(nil, false)}
	p := newMQTTPublisher(client, "motolog/items")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Publish(ctx, Event{Type: ItemUpdated, ItemID: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMQTTPublisher_Unacknowledged(t *testing.T) {
	client := &fakeClient{token: newFakeToken(nil, false)}
	p := newMQTTPublisher(client, "motolog/items")
	p.timeout = 50 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		done <- p.Publish(context.Background(), Event{Type: ItemCreated, ItemID: 1})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("Publish did not give up on an unacknowledged message")
	}
}

func TestNew_NoBroker(t *testing.T) {
	p, err := New(MQTTConfig{})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(context.Background(), Event{Type: ItemCreated}))
	p.Close()
}
