package mmsclient

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Client is one MMS client session with primary/reserve failover. All
// operations are safe for concurrent use; engine calls are serialized through
// a single session mutex.
type Client struct {
	engine   Engine
	settings ClientSettings
	log      logrus.FieldLogger
	events   *Dispatcher
	reports  *reportRegistry

	// mu is the session mutex. It guards conn and is held for every engine
	// call on it.
	mu   sync.Mutex
	conn Connection

	// life guards params, stop and loop. Stopping the loop takes only life,
	// so Close never waits behind an engine call to signal it.
	life   sync.Mutex
	params ConnectParams
	stop   chan struct{}
	loop   *errgroup.Group

	closed       atomic.Bool
	running      atomic.Bool
	connected    atomic.Bool
	usingPrimary atomic.Bool

	idMu     sync.RWMutex
	clientID string
}

// Status is the snapshot returned by GetStatus.
type Status struct {
	Connected    bool   `json:"connected"`
	ClientID     string `json:"clientID"`
	Running      bool   `json:"running"`
	UsingPrimary bool   `json:"usingPrimary"`
}

// NewClient creates a client and its engine session. Nothing is connected
// until Connect is called. log may be nil.
func NewClient(engine Engine, settings ClientSettings, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	settings = settings.withDefaults()
	c := &Client{
		engine:   engine,
		settings: settings,
		log:      log,
		events:   NewDispatcher(settings.EventQueueSize, settings.EmitTimeout, log),
		reports:  newReportRegistry(),
		conn:     engine.NewConnection(),
	}
	c.usingPrimary.Store(true)
	c.conn.InstallStateChangedHandler(c.onStateChanged)
	return c
}

// Events returns the outbound event queue. It must have exactly one consumer.
func (c *Client) Events() <-chan Event {
	return c.events.Events()
}

// Dispatcher returns the client's event dispatcher.
func (c *Client) Dispatcher() *Dispatcher {
	return c.events
}

// GetStatus returns the connection status without waiting for the session.
func (c *Client) GetStatus() Status {
	return Status{
		Connected:    c.connected.Load(),
		ClientID:     c.ClientID(),
		Running:      c.running.Load(),
		UsingPrimary: c.usingPrimary.Load(),
	}
}

func (c *Client) ClientID() string {
	c.idMu.RLock()
	defer c.idMu.RUnlock()
	return c.clientID
}

func (c *Client) setClientID(id string) {
	c.idMu.Lock()
	c.clientID = id
	c.idMu.Unlock()
}

func (c *Client) logger() logrus.FieldLogger {
	return c.log.WithField("clientID", c.ClientID())
}

// lockSession acquires the session mutex for a foreground operation. On
// success the caller owns c.mu and must unlock it.
func (c *Client) lockSession(op, ref string) error {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return newError(KindSession, op, ref, ErrClientClosed)
	}
	if !c.connected.Load() {
		c.mu.Unlock()
		return newError(KindSession, op, ref, ErrNotConnected)
	}
	return nil
}

func (c *Client) emit(ev Event) {
	if ev.Channel == "" {
		ev.Channel = ChannelData
	}
	ev.ClientID = c.ClientID()
	c.events.Emit(ev)
}

func (c *Client) emitError(ev Event) {
	ev.Type = TypeError
	c.emit(ev)
}

// recoverOp turns a panic inside a public operation into an error event and
// a KindInternal error. It must be deferred before any other defer.
func (c *Client) recoverOp(op, ref string, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	err := fmt.Errorf("panic: %v", r)
	c.logger().WithFields(logrus.Fields{
		"op":    op,
		"ref":   ref,
		"stack": strings.TrimSpace(string(debug.Stack())),
	}).Error("recovered panic")
	c.emitError(Event{DataRef: ref, Reason: fmt.Sprintf("Internal error in %s: %v", op, r)})
	*errp = newError(KindInternal, op, ref, err)
}

// lastSegment returns the attribute name of an object reference, the part
// after the last '.' or '$'.
func lastSegment(ref string) string {
	if i := strings.LastIndexAny(ref, ".$"); i != -1 {
		return ref[i+1:]
	}
	return ref
}
