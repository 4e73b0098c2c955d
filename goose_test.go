package mmsclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goCbRef = "IEDLD0/LLN0$GO$gcbEvents"

func newTestGoose(t *testing.T) (*GooseSubscriber, *fakeEngine, *Dispatcher) {
	t.Helper()
	engine := &fakeEngine{}
	events := NewDispatcher(16, 0, testLogger())
	t.Cleanup(events.Close)
	return NewGooseSubscriber(engine, events, testLogger()), engine, events
}

func TestGooseSubscriber_Subscribe(t *testing.T) {
	g, engine, events := newTestGoose(t)

	id, err := g.Subscribe("eth0", goCbRef)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, engine.receivers, 1)
	r := engine.receivers[0]
	assert.Equal(t, "eth0", r.iface)
	assert.True(t, r.started)

	r.deliver(goCbRef, GooseFrame{
		GoCbRef:   goCbRef,
		StNum:     4,
		SqNum:     17,
		ConfRev:   1,
		Valid:     true,
		Timestamp: 1700000000000,
		Values:    &MmsValue{Type: Array, Value: []*MmsValue{boolValue(true)}},
	})

	ev := <-events.Events()
	assert.Equal(t, EventGoose, ev.Name)
	assert.Equal(t, TypeData, ev.Type)
	assert.Equal(t, ChannelData, ev.Channel)
	assert.Equal(t, ArrayNode{Elements: []Node{BooleanNode{Value: true}}}, ev.Value)
	assert.Equal(t, uint32(4), ev.Data["stNum"])
	assert.Equal(t, uint32(17), ev.Data["sqNum"])
	assert.Equal(t, id, ev.Data["subscriptionID"])
	assert.Equal(t, "2023-11-14 22:13:20.000", ev.Data["timestamp"])
}

func TestGooseSubscriber_InvalidFrame(t *testing.T) {
	g, engine, events := newTestGoose(t)
	_, err := g.Subscribe("eth0", goCbRef)
	require.NoError(t, err)

	engine.receivers[0].deliver(goCbRef, GooseFrame{GoCbRef: goCbRef})
	ev := <-events.Events()
	assert.Equal(t, TypeError, ev.Type)
	assert.Equal(t, "Invalid GOOSE data", ev.Reason)
	assert.Nil(t, ev.Value)
}

func TestGooseSubscriber_Errors(t *testing.T) {
	t.Run("invalid params", func(t *testing.T) {
		g, _, _ := newTestGoose(t)
		_, err := g.Subscribe("", goCbRef)
		assert.ErrorIs(t, err, ErrInvalidParams)
	})

	t.Run("already running", func(t *testing.T) {
		g, engine, _ := newTestGoose(t)
		_, err := g.Subscribe("eth0", goCbRef)
		require.NoError(t, err)
		_, err = g.Subscribe("eth1", goCbRef)
		assert.ErrorIs(t, err, ErrAlreadyRunning)
		assert.Len(t, engine.receivers, 1)
	})

	t.Run("start fails", func(t *testing.T) {
		engine := &startFailEngine{fakeEngine: &fakeEngine{}, fail: true}
		events := NewDispatcher(16, 0, testLogger())
		defer events.Close()
		g := NewGooseSubscriber(engine, events, testLogger())

		_, err := g.Subscribe("eth9", goCbRef)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindEngine))
		assert.Equal(t, 1, engine.receivers[0].destroys)

		// a failed start leaves the subscriber free for another attempt
		engine.fail = false
		_, err = g.Subscribe("eth0", goCbRef)
		assert.NoError(t, err)
	})
}

func TestGooseSubscriber_Stop(t *testing.T) {
	g, engine, _ := newTestGoose(t)
	g.Stop()

	_, err := g.Subscribe("eth0", goCbRef)
	require.NoError(t, err)
	g.Stop()
	g.Stop()

	r := engine.receivers[0]
	assert.Equal(t, 1, r.stops)
	assert.Equal(t, 1, r.destroys)

	_, err = g.Subscribe("eth0", goCbRef)
	assert.NoError(t, err, "a stopped subscriber can subscribe again")
}

type startFailEngine struct {
	*fakeEngine
	fail bool
}

func (e *startFailEngine) NewGooseReceiver() GooseReceiver {
	r := e.fakeEngine.NewGooseReceiver().(*fakeGooseReceiver)
	if e.fail {
		r.startErr = errors.New("permission denied")
	}
	return r
}
