package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"campusface/recognition"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct {
	done chan struct{}
	err  error
}

func newDoneToken(err error) *doneToken {
	t := &doneToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

type pendingToken struct{ doneToken }

func (t *pendingToken) Done() <-chan struct{} { return make(chan struct{}) }

// fakeClient only implements what MQTT uses; other calls panic.
type fakeClient struct {
	mqtt.Client
	topic        string
	payload      []byte
	qos          byte
	token        mqtt.Token
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.topic = topic
	c.qos = qos
	c.payload = payload.([]byte)
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestAttendanceRecordedPublishesJSON(t *testing.T) {
	client := &fakeClient{token: newDoneToken(nil)}
	n := newMQTT(client, "campus/attendance", time.Second)

	ev := recognition.Event{StudentID: 3, Name: "Asha", RollNo: "R1", Time: "2026-03-02 08:00:00"}
	require.NoError(t, n.AttendanceRecorded(context.Background(), ev))

	assert.Equal(t, "campus/attendance", client.topic)
	assert.Equal(t, byte(1), client.qos)
	var got map[string]any
	require.NoError(t, json.Unmarshal(client.payload, &got))
	assert.Equal(t, "Asha", got["name"])
	assert.Equal(t, float64(3), got["student_id"])

	n.Close()
	assert.True(t, client.disconnected)
}

func TestAttendanceRecordedReturnsPublishError(t *testing.T) {
	boom := errors.New("not connected")
	n := newMQTT(&fakeClient{token: newDoneToken(boom)}, "t", time.Second)
	assert.ErrorIs(t, n.AttendanceRecorded(context.Background(), recognition.Event{}), boom)
}

func TestAttendanceRecordedHonoursContext(t *testing.T) {
	n := newMQTT(&fakeClient{token: &pendingToken{}}, "t", time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.AttendanceRecorded(ctx, recognition.Event{}), context.Canceled)
}

func TestAttendanceRecordedGivesUpOnUnreachableBroker(t *testing.T) {
	// The caller's context never ends, like a browser that stays on the stream.
	n := newMQTT(&fakeClient{token: &pendingToken{}}, "t", 20*time.Millisecond)

	start := time.Now()
	err := n.AttendanceRecorded(context.Background(), recognition.Event{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewMQTTReturnsWhileBrokerDown(t *testing.T) {
	start := time.Now()
	n, err := NewMQTT("tcp://127.0.0.1:1", "campusface-test", "t")
	require.NoError(t, err)
	defer n.Close()
	assert.Less(t, time.Since(start), 2*time.Second, "startup does not wait for the broker")
}
