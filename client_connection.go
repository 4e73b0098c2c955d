package mmsclient

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Connect validates params and starts the background connect loop. It returns
// as soon as the loop is running; progress is reported through events.
func (c *Client) Connect(params ConnectParams) (err error) {
	defer c.recoverOp("Connect", params.Host, &err)

	if err := params.Validate(); err != nil {
		return newError(KindConfiguration, "Connect", params.Host, err)
	}
	params = params.withDefaults()

	c.life.Lock()
	defer c.life.Unlock()
	if c.closed.Load() {
		return newError(KindConfiguration, "Connect", params.Host, ErrClientClosed)
	}
	if c.running.Load() {
		return newError(KindConfiguration, "Connect", params.Host, ErrAlreadyRunning)
	}

	c.params = params
	c.setClientID(params.ClientID)
	c.usingPrimary.Store(true)
	c.running.Store(true)

	stop := make(chan struct{})
	c.stop = stop
	c.loop = &errgroup.Group{}
	c.loop.Go(func() error {
		c.run(params, stop)
		return nil
	})

	c.logger().WithFields(logrus.Fields{
		"address": params.Host,
		"port":    params.Port,
		"reserve": params.ReserveHost,
	}).Info("connect loop started")
	return nil
}

// Close stops the connect loop, disables active report subscriptions, closes
// the session and releases the engine handle. Calling Close again is a no-op.
// If the loop is still inside an engine call after ShutdownTimeout, Close
// returns ErrShutdownTimeout and the session is released once the call returns.
func (c *Client) Close() (err error) {
	defer c.recoverOp("Close", "", &err)

	stop, loop, first := c.beginClose()
	if !first {
		return nil
	}
	if stop != nil {
		close(stop)
	}

	if loop != nil && !c.join(loop) {
		c.logger().Warn("connect loop still inside an engine call, session released when it returns")
		go func() {
			_ = loop.Wait()
			c.finish()
		}()
		return newError(KindInternal, "Close", "", ErrShutdownTimeout)
	}

	c.finish()
	return nil
}

func (c *Client) beginClose() (chan struct{}, *errgroup.Group, bool) {
	c.life.Lock()
	defer c.life.Unlock()
	if c.closed.Load() {
		return nil, nil, false
	}
	c.closed.Store(true)
	c.running.Store(false)
	return c.stop, c.loop, true
}

func (c *Client) join(loop *errgroup.Group) bool {
	done := make(chan struct{})
	go func() {
		_ = loop.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(c.settings.ShutdownTimeout):
		return false
	}
}

// finish runs once the loop has exited.
func (c *Client) finish() {
	c.release()
	c.emit(Event{Channel: ChannelConn, Type: TypeControl, Name: EventClose})
	c.events.Close()
}

func (c *Client) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disableAllReports()
	if c.conn.State() != IED_STATE_CLOSED {
		c.conn.Close()
	}
	c.connected.Store(false)
	c.conn.Destroy()
}

// run is the connect/retry/failover loop. It exits when stop is closed and
// closes the session on the way out.
func (c *Client) run(params ConnectParams, stop <-chan struct{}) {
	log := c.logger()
	var primaryRetries, reserveRetries int

	for !stopped(stop) {
		host := params.Host
		retries := primaryRetries
		if !c.usingPrimary.Load() {
			host = params.ReserveHost
			retries = reserveRetries
		}

		err := c.connectOnce(host, params.Port)
		if err == nil {
			primaryRetries, reserveRetries = 0, 0
			log.WithField("address", host).Info("connected")
			c.emit(Event{
				Channel: ChannelConn,
				Type:    TypeControl,
				Name:    EventOpened,
				Data:    map[string]interface{}{"isPrimaryIP": c.usingPrimary.Load()},
			})
			c.waitConnected(params, stop)
			continue
		}

		log.WithFields(logrus.Fields{"address": host, "attempt": retries + 1}).
			WithError(err).Debug("connect failed")
		c.emit(Event{
			Channel: ChannelConn,
			Type:    TypeControl,
			Name:    EventReconnecting,
			Reason:  fmt.Sprintf("attempt %d to %s", retries+1, host),
			Data:    map[string]interface{}{"error": err.Error()},
		})

		if c.usingPrimary.Load() {
			primaryRetries++
			if params.ReserveHost != "" && primaryRetries >= maxRetries {
				log.WithField("address", params.ReserveHost).Info("switching to reserve address")
				c.switchAddress(false)
				primaryRetries = 0
			}
		} else {
			reserveRetries++
			if reserveRetries >= maxRetries {
				log.WithField("address", params.Host).Info("switching back to primary address")
				c.switchAddress(true)
				reserveRetries = 0
			}
		}

		if !sleep(stop, params.ReconnectDelay) {
			break
		}
	}

	c.mu.Lock()
	c.disableAllReports()
	if c.connected.Load() || c.conn.State() == IED_STATE_CONNECTED {
		c.conn.Close()
	}
	c.connected.Store(false)
	c.mu.Unlock()
	log.Info("connect loop stopped")
}

// connectOnce opens the session and marks it connected. A session the engine
// already reports closed again counts as a failed attempt.
func (c *Client) connectOnce(host string, port int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn.State() != IED_STATE_CLOSED {
		c.conn.Close()
	}
	if err := c.conn.Connect(host, port); err != nil {
		return err
	}
	if c.conn.State() != IED_STATE_CONNECTED {
		return IED_ERROR_CONNECTION_LOST
	}
	c.connected.Store(true)
	return nil
}

func (c *Client) switchAddress(primary bool) {
	c.mu.Lock()
	c.usingPrimary.Store(primary)
	c.mu.Unlock()
}

// sessionUp reports whether the flag and the engine both still see the
// session connected.
func (c *Client) sessionUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn.State() != IED_STATE_CONNECTED {
		c.connected.Store(false)
	}
	return c.connected.Load()
}

// waitConnected polls the session until it drops, the loop is stopped, or the
// primary answers again while running on the reserve.
func (c *Client) waitConnected(params ConnectParams, stop <-chan struct{}) {
	ticker := time.NewTicker(c.settings.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		if !c.sessionUp() {
			c.logger().Info("connection lost")
			return
		}
		if c.usingPrimary.Load() || params.ReserveHost == "" {
			continue
		}
		if !c.primaryReachable(params.Host, params.Port) {
			continue
		}
		if c.backToPrimary(params.Host, stop) {
			return
		}
	}
}

// primaryReachable tries a throwaway connection to host. It does not take
// the session mutex, so foreground calls keep running on the reserve
// session meanwhile.
func (c *Client) primaryReachable(host string, port int) bool {
	test := c.engine.NewConnection()
	defer test.Destroy()
	if err := test.Connect(host, port); err != nil {
		return false
	}
	test.Close()
	return true
}

// backToPrimary tears down the reserve session so the loop reconnects to the
// primary. It does nothing once stop is closed.
func (c *Client) backToPrimary(host string, stop <-chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stopped(stop) {
		return false
	}
	c.logger().WithField("address", host).Info("primary address reachable, switching back")
	c.conn.Close()
	c.connected.Store(false)
	c.usingPrimary.Store(true)
	return true
}

// onStateChanged runs on an engine thread. It must not take the session mutex
// because the engine may call it from inside Connect or Close.
func (c *Client) onStateChanged(state ConnectionState) {
	connected := state == IED_STATE_CONNECTED
	if !connected {
		c.connected.Store(false)
	}
	c.emit(Event{
		Channel: ChannelConn,
		Type:    TypeControl,
		Name:    EventStateChanged,
		Data: map[string]interface{}{
			"state":       state.String(),
			"isConnected": connected,
		},
	})
}

func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// sleep waits for d and reports false if stop was closed first.
func sleep(stop <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}
