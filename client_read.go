package mmsclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// fcHints maps naming conventions to the FC the object is most likely
// published under. The first match wins: object-level names are checked
// before attribute-level ones, so X.SPCSO1.ctlModel guesses ST and relies on
// the fallback sequence to reach CF.
var fcHints = []struct {
	pattern string
	fc      FC
}{
	{".SPCSO", ST},
	{".AnIn", MX},
	{".NamPlt", DC},
	{".PhyNam", DC},
	{".Mod", ST},
	{".Proxy", ST},
	{".Oper", CO},
	{".ctlModel", CF},
}

// matchFC returns the FC suggested by the object's name, if any.
func matchFC(ref string) (FC, bool) {
	for _, h := range fcHints {
		if strings.Contains(ref, h.pattern) {
			return h.fc, true
		}
	}
	return NONE, false
}

// guessFC is matchFC with ST as the default.
func guessFC(ref string) FC {
	if fc, ok := matchFC(ref); ok {
		return fc
	}
	return ST
}

// fallbackFCs returns the order in which FCs are tried for ref.
func fallbackFCs(guessed FC) []FC {
	return []FC{guessed, ALL, ST, MX, DC, SP, CO, CF}
}

func isStatusPoint(ref string) bool {
	return strings.Contains(ref, ".SPCSO")
}

// ReadObject reads dataRef, trying the guessed FC and then the fallback FCs
// until one succeeds. The value is also emitted as a "data" event.
func (c *Client) ReadObject(dataRef string) (node Node, err error) {
	defer c.recoverOp("ReadObject", dataRef, &err)

	if dataRef == "" {
		return nil, newError(KindConfiguration, "ReadObject", dataRef, ErrInvalidParams)
	}
	if err := c.lockSession("ReadObject", dataRef); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()

	v, fc, err := c.readWithFallback(dataRef)
	if err != nil {
		c.emitError(Event{DataRef: dataRef, Reason: fmt.Sprintf("Failed to read %s: %v", dataRef, err)})
		return nil, newError(KindEngine, "ReadObject", dataRef, err)
	}

	node = FromMmsValue(v, lastSegment(dataRef))
	if isStatusPoint(dataRef) {
		c.sideRead(dataRef)
	}
	c.emit(Event{
		Type:    TypeData,
		Name:    EventData,
		DataRef: dataRef,
		Value:   node,
		Data:    map[string]interface{}{"fc": fc.String()},
	})
	return node, nil
}

// readWithFallback must be called with c.mu held. It returns the last engine
// error when every FC fails.
func (c *Client) readWithFallback(ref string) (*MmsValue, FC, error) {
	var lastErr error
	for _, fc := range fallbackFCs(guessFC(ref)) {
		v, err := c.conn.ReadObject(ref, fc)
		if err == nil && v != nil {
			return v, fc, nil
		}
		if err == nil {
			err = errors.New("empty value")
		}
		c.logger().WithFields(logrus.Fields{"dataRef": ref, "fc": fc}).WithError(err).Debug("read attempt failed")
		lastErr = err
	}
	return nil, NONE, lastErr
}

// sideRead logs the quality and timestamp siblings of a status point. Failures
// are ignored.
func (c *Client) sideRead(ref string) {
	base := ref
	if !strings.HasPrefix(lastSegment(ref), "SPCSO") {
		if i := strings.LastIndex(ref, "."); i != -1 {
			base = ref[:i]
		}
	}
	fields := logrus.Fields{"dataRef": ref}
	if v, err := c.conn.ReadObject(base+".q", ST); err == nil {
		fields["q"] = FromMmsValue(v, "q")
	}
	if v, err := c.conn.ReadObject(base+".t", ST); err == nil {
		fields["t"] = FromMmsValue(v, "t")
	}
	c.logger().WithFields(fields).Debug("status point side read")
}
