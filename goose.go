package mmsclient

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GooseSubscriber receives GOOSE messages for one GoCB on one network
// interface and emits them as "goose" events. It does not use the MMS session.
type GooseSubscriber struct {
	engine Engine
	events *Dispatcher
	log    logrus.FieldLogger

	mu       sync.Mutex
	receiver GooseReceiver
	id       string
	goCbRef  string
}

// NewGooseSubscriber creates a subscriber emitting into events. log may be nil.
func NewGooseSubscriber(engine Engine, events *Dispatcher, log logrus.FieldLogger) *GooseSubscriber {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GooseSubscriber{engine: engine, events: events, log: log}
}

// Subscribe starts receiving goCbRef on interfaceID (e.g. "eth0") and returns
// the subscription ID carried by every event.
func (g *GooseSubscriber) Subscribe(interfaceID, goCbRef string) (string, error) {
	if interfaceID == "" || goCbRef == "" {
		return "", newError(KindConfiguration, "SubscribeGoose", goCbRef, ErrInvalidParams)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.receiver != nil {
		return "", newError(KindConfiguration, "SubscribeGoose", goCbRef, ErrAlreadyRunning)
	}

	id := uuid.NewString()
	receiver := g.engine.NewGooseReceiver()
	receiver.SetInterfaceID(interfaceID)
	if err := receiver.AddSubscriber(goCbRef, func(frame GooseFrame) { g.onFrame(id, frame) }); err != nil {
		receiver.Destroy()
		return "", newError(KindEngine, "SubscribeGoose", goCbRef, err)
	}
	if err := receiver.Start(); err != nil {
		receiver.Destroy()
		return "", newError(KindEngine, "SubscribeGoose", goCbRef, fmt.Errorf("start receiver on %s: %w", interfaceID, err))
	}

	g.receiver, g.id, g.goCbRef = receiver, id, goCbRef
	g.log.WithFields(logrus.Fields{
		"interface":      interfaceID,
		"goCbRef":        goCbRef,
		"subscriptionID": id,
	}).Info("goose receiver started")
	return id, nil
}

// Stop stops and destroys the receiver. It is safe to call more than once.
func (g *GooseSubscriber) Stop() {
	g.mu.Lock()
	receiver, goCbRef := g.receiver, g.goCbRef
	g.receiver = nil
	g.mu.Unlock()
	if receiver == nil {
		return
	}
	receiver.Stop()
	receiver.Destroy()
	g.log.WithField("goCbRef", goCbRef).Info("goose receiver stopped")
}

func (g *GooseSubscriber) onFrame(id string, frame GooseFrame) {
	defer func() {
		if r := recover(); r != nil {
			g.log.WithField("goCbRef", frame.GoCbRef).Errorf("panic in goose listener: %v", r)
		}
	}()

	if !frame.Valid {
		g.events.Emit(Event{
			Channel: ChannelData,
			Type:    TypeError,
			Name:    EventGoose,
			Reason:  "Invalid GOOSE data",
			Data:    map[string]interface{}{"goCbRef": frame.GoCbRef, "subscriptionID": id},
		})
		return
	}

	g.events.Emit(Event{
		Channel: ChannelData,
		Type:    TypeData,
		Name:    EventGoose,
		Value:   FromMmsValue(frame.Values, ""),
		Data: map[string]interface{}{
			"goCbRef":        frame.GoCbRef,
			"stNum":          frame.StNum,
			"sqNum":          frame.SqNum,
			"confRev":        frame.ConfRev,
			"subscriptionID": id,
			"timestamp":      formatTimestamp(frame.Timestamp),
		},
	})
}
