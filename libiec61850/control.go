package libiec61850

// #include <stdint.h>
// #include <iec61850_client.h>
//
// // Implemented in bridge.c
// extern void installCommandTerminationBridge(ControlObjectClient control, uintptr_t handle);
import "C"

import (
	"errors"
	"fmt"
	"runtime/cgo"
	"sync"

	"github.com/marrasen/mmsclient"
)

func (c *connection) CreateControlObject(ref string) (mmsclient.ControlObject, error) {
	cRef := Go2CStr(ref)
	defer freeCStr(cRef)
	co := C.ControlObjectClient_create(cRef, c.conn)
	if co == nil {
		return nil, fmt.Errorf("ControlObjectClient_create failed for %s", ref)
	}
	return &controlObject{co: co}, nil
}

type controlCtx struct {
	mu      sync.Mutex
	handler mmsclient.CommandTerminationHandler
}

func (ctx *controlCtx) terminated(co C.ControlObjectClient) {
	ctx.mu.Lock()
	handler := ctx.handler
	ctx.mu.Unlock()
	if handler == nil {
		return
	}
	appl := lastApplError(co)
	handler(mmsclient.CommandTermination{Positive: appl.Error == 0, LastApplError: appl})
}

type controlObject struct {
	co     C.ControlObjectClient
	handle cgo.Handle
	ctx    *controlCtx
}

func (o *controlObject) ControlModel() mmsclient.ControlModel {
	return mmsclient.ControlModel(C.ControlObjectClient_getControlModel(o.co))
}

func (o *controlObject) SetOrigin(orIdent string, orCat int) {
	var cIdent *C.char
	if orIdent != "" {
		cIdent = Go2CStr(orIdent)
		defer freeCStr(cIdent)
	}
	C.ControlObjectClient_setOrigin(o.co, cIdent, C.int(orCat))
}

func (o *controlObject) Select() error {
	if bool(C.ControlObjectClient_select(o.co)) {
		return nil
	}
	return o.lastError("select")
}

func (o *controlObject) SelectWithValue(ctlVal *mmsclient.MmsValue) error {
	v, err := toMmsValue(ctlVal)
	if err != nil {
		return err
	}
	defer C.MmsValue_delete(v)
	if bool(C.ControlObjectClient_selectWithValue(o.co, v)) {
		return nil
	}
	return o.lastError("select with value")
}

func (o *controlObject) Operate(ctlVal *mmsclient.MmsValue, operTime uint64) error {
	v, err := toMmsValue(ctlVal)
	if err != nil {
		return err
	}
	defer C.MmsValue_delete(v)
	if bool(C.ControlObjectClient_operate(o.co, v, C.uint64_t(operTime))) {
		return nil
	}
	return o.lastError("operate")
}

func (o *controlObject) SetCommandTerminationHandler(handler mmsclient.CommandTerminationHandler) {
	if o.ctx == nil {
		o.ctx = &controlCtx{}
		o.handle = cgo.NewHandle(o.ctx)
		C.installCommandTerminationBridge(o.co, C.uintptr_t(o.handle))
	}
	o.ctx.mu.Lock()
	o.ctx.handler = handler
	o.ctx.mu.Unlock()
}

func (o *controlObject) LastApplError() mmsclient.LastApplError {
	return lastApplError(o.co)
}

func (o *controlObject) Destroy() {
	C.ControlObjectClient_destroy(o.co)
	if o.ctx != nil {
		o.handle.Delete()
		o.ctx = nil
	}
}

func (o *controlObject) lastError(op string) error {
	if err := GetIedClientError(C.ControlObjectClient_getLastError(o.co)); err != nil {
		return err
	}
	appl := lastApplError(o.co)
	if appl.Error != 0 {
		return fmt.Errorf("%s rejected: error=%d addCause=%d", op, appl.Error, appl.AddCause)
	}
	return errors.New(op + " rejected")
}

func lastApplError(co C.ControlObjectClient) mmsclient.LastApplError {
	e := C.ControlObjectClient_getLastApplError(co)
	return mmsclient.LastApplError{
		CtlNum:   int(e.ctlNum),
		Error:    int(e.error),
		AddCause: int(e.addCause),
	}
}
