package mmsclient

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// TerminationOutcome is what was observed of the CommandTermination of an
// enhanced-security control.
type TerminationOutcome int

const (
	TerminationNone TerminationOutcome = iota
	TerminationPositive
	TerminationNegative
	TerminationNotObserved
)

func (t TerminationOutcome) String() string {
	switch t {
	case TerminationPositive:
		return "positive"
	case TerminationNegative:
		return "negative"
	case TerminationNotObserved:
		return "notObserved"
	default:
		return "none"
	}
}

// ControlResult describes one Control call.
type ControlResult struct {
	DataRef       string
	Model         ControlModel
	Operated      bool
	Termination   TerminationOutcome
	LastApplError LastApplError
	// Status is the .stVal read back after the operation, nil if that read failed.
	Status Node
}

// Control operates the controllable object dataRef with value, using the
// control model configured in its ctlModel attribute. value is coerced to a
// boolean. After the attempt the object's status is read back and emitted,
// whether the operation succeeded or not.
func (c *Client) Control(dataRef string, value interface{}) (res ControlResult, err error) {
	defer c.recoverOp("Control", dataRef, &err)

	res.DataRef = dataRef
	if dataRef == "" {
		return res, newError(KindConfiguration, "Control", dataRef, ErrInvalidParams)
	}
	if err := c.lockSession("Control", dataRef); err != nil {
		return res, err
	}
	defer c.mu.Unlock()

	res.Model = c.readControlModel(dataRef)
	if res.Model == CONTROL_MODEL_STATUS_ONLY {
		c.emitError(Event{DataRef: dataRef, Reason: fmt.Sprintf("Control blocked for %s: status-only", dataRef)})
		return res, newError(KindControl, "Control", dataRef, fmt.Errorf("%w: status-only", ErrControlBlocked))
	}

	err = c.operate(dataRef, value, &res)
	res.Status = c.readStatus(dataRef, err == nil)
	return res, err
}

// readControlModel falls back to direct-with-normal-security when ctlModel
// cannot be read.
func (c *Client) readControlModel(dataRef string) ControlModel {
	log := c.logger().WithField("dataRef", dataRef)
	v, err := c.conn.ReadObject(dataRef+".ctlModel", CF)
	if err != nil || v == nil {
		log.WithError(err).Warn("failed to read ctlModel, assuming direct-with-normal-security")
		return CONTROL_MODEL_DIRECT_NORMAL
	}
	n, err := cast.ToIntE(v.Value)
	if err != nil || n < int(CONTROL_MODEL_STATUS_ONLY) || n > int(CONTROL_MODEL_SBO_ENHANCED) {
		log.WithField("ctlModel", v.Value).Warn("unexpected ctlModel, assuming direct-with-normal-security")
		return CONTROL_MODEL_DIRECT_NORMAL
	}
	return ControlModel(n)
}

func (c *Client) operate(dataRef string, value interface{}, res *ControlResult) error {
	co, err := c.conn.CreateControlObject(dataRef)
	if err == nil && co == nil {
		err = errors.New("no control object")
	}
	if err != nil {
		c.emitError(Event{DataRef: dataRef, Reason: fmt.Sprintf("Failed to create control object for %s", dataRef)})
		return newError(KindControl, "Control", dataRef, fmt.Errorf("create control object: %w", err))
	}
	defer co.Destroy()

	b, err := cast.ToBoolE(value)
	var ctlVal *MmsValue
	if err == nil {
		ctlVal, err = ToMmsValue(BooleanNode{Value: b})
	}
	if err != nil {
		c.emitError(Event{DataRef: dataRef, Reason: fmt.Sprintf("Failed to create control value for %s", dataRef)})
		return newError(KindControl, "Control", dataRef, fmt.Errorf("control value: %w", err))
	}

	var terminated chan CommandTermination
	if res.Model.Enhanced() {
		terminated = make(chan CommandTermination, 1)
		co.SetCommandTerminationHandler(func(ct CommandTermination) {
			c.emitTermination(dataRef, ct)
			select {
			case terminated <- ct:
			default:
			}
		})
	}
	co.SetOrigin(c.settings.OriginIdent, c.settings.originCategory())

	switch res.Model {
	case CONTROL_MODEL_SBO_NORMAL:
		if err := co.Select(); err != nil {
			c.emitError(Event{DataRef: dataRef, Reason: fmt.Sprintf("SBO select failed for %s", dataRef)})
			return newError(KindControl, "Control", dataRef, fmt.Errorf("select: %w", err))
		}
	case CONTROL_MODEL_SBO_ENHANCED:
		if err := co.SelectWithValue(ctlVal); err != nil {
			c.emitError(Event{DataRef: dataRef, Reason: fmt.Sprintf("SBO selectWithValue failed for %s", dataRef)})
			return newError(KindControl, "Control", dataRef, fmt.Errorf("select with value: %w", err))
		}
	}

	if err := co.Operate(ctlVal, 0); err != nil {
		c.emitError(Event{DataRef: dataRef, Reason: fmt.Sprintf("Control failed for %s: %v", dataRef, err)})
		return newError(KindControl, "Control", dataRef, fmt.Errorf("operate: %w", err))
	}
	res.Operated = true
	c.logger().WithFields(logrus.Fields{"dataRef": dataRef, "ctlModel": res.Model, "value": b}).Info("control operated")
	c.emit(Event{Type: TypeControl, Name: EventControl, DataRef: dataRef, Value: BooleanNode{Value: b}})

	if terminated == nil {
		return nil
	}

	timer := time.NewTimer(c.settings.SettleTimeout)
	defer timer.Stop()
	select {
	case ct := <-terminated:
		if ct.Positive {
			res.Termination = TerminationPositive
			return nil
		}
		res.Termination = TerminationNegative
		res.LastApplError = ct.LastApplError
		return newError(KindControl, "Control", dataRef, fmt.Errorf("negative command termination: error=%d addCause=%d",
			ct.LastApplError.Error, ct.LastApplError.AddCause))
	case <-timer.C:
		res.Termination = TerminationNotObserved
		c.emit(Event{
			Type:    TypeControl,
			Name:    EventTerminationNotObserved,
			DataRef: dataRef,
			Reason:  fmt.Sprintf("No command termination for %s within %s", dataRef, c.settings.SettleTimeout),
		})
		return nil
	}
}

// emitTermination runs on the engine thread that delivered the termination.
func (c *Client) emitTermination(dataRef string, ct CommandTermination) {
	ev := Event{Type: TypeControl, Name: EventTerminationPositive, DataRef: dataRef}
	if !ct.Positive {
		ev.Name = EventTerminationNegative
		ev.Data = map[string]interface{}{
			"error":    ct.LastApplError.Error,
			"addCause": ct.LastApplError.AddCause,
			"ctlNum":   ct.LastApplError.CtlNum,
		}
	}
	c.emit(ev)
}

// readStatus reads back dataRef.stVal and emits it tagged with whether the
// control succeeded.
func (c *Client) readStatus(dataRef string, success bool) Node {
	v, err := c.conn.ReadObject(dataRef+".stVal", ST)
	if err != nil {
		c.emitError(Event{DataRef: dataRef, Reason: fmt.Sprintf("Failed to read status for %s after control: %v", dataRef, err)})
		return nil
	}
	node := FromMmsValue(v, "stVal")
	ev := Event{
		Type:    TypeData,
		Name:    EventData,
		DataRef: dataRef,
		Value:   node,
		Data:    map[string]interface{}{"success": success},
	}
	if !success {
		ev.Reason = "Control operation failed, current status reported"
	}
	c.emit(ev)
	return node
}
