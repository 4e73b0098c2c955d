package libiec61850

// #include <stdint.h>
// #include <goose_receiver.h>
// #include <goose_subscriber.h>
//
// // Implemented in bridge.c
// extern void installGooseBridge(GooseSubscriber subscriber, uintptr_t handle);
import "C"

import (
	"fmt"
	"runtime/cgo"

	"github.com/marrasen/mmsclient"
)

func (e *Engine) NewGooseReceiver() mmsclient.GooseReceiver {
	return &gooseReceiver{receiver: C.GooseReceiver_create()}
}

type gooseCtx struct {
	goCbRef  string
	listener mmsclient.GooseListener
}

type gooseReceiver struct {
	receiver C.GooseReceiver
	handles  []cgo.Handle
}

func (r *gooseReceiver) SetInterfaceID(interfaceID string) {
	cID := Go2CStr(interfaceID)
	defer freeCStr(cID)
	C.GooseReceiver_setInterfaceId(r.receiver, cID)
}

// AddSubscriber registers listener for goCbRef. The receiver owns the
// subscriber and destroys it with itself.
func (r *gooseReceiver) AddSubscriber(goCbRef string, listener mmsclient.GooseListener) error {
	cRef := Go2CStr(goCbRef)
	defer freeCStr(cRef)
	sub := C.GooseSubscriber_create(cRef, nil)
	if sub == nil {
		return fmt.Errorf("GooseSubscriber_create failed for %s", goCbRef)
	}
	h := cgo.NewHandle(&gooseCtx{goCbRef: goCbRef, listener: listener})
	r.handles = append(r.handles, h)
	C.installGooseBridge(sub, C.uintptr_t(h))
	C.GooseReceiver_addSubscriber(r.receiver, sub)
	return nil
}

func (r *gooseReceiver) Start() error {
	C.GooseReceiver_start(r.receiver)
	if !bool(C.GooseReceiver_isRunning(r.receiver)) {
		return fmt.Errorf("GOOSE receiver not running, check interface and permissions")
	}
	return nil
}

func (r *gooseReceiver) Stop() {
	C.GooseReceiver_stop(r.receiver)
}

func (r *gooseReceiver) Destroy() {
	C.GooseReceiver_destroy(r.receiver)
	for _, h := range r.handles {
		h.Delete()
	}
	r.handles = nil
}

func convertGooseFrame(goCbRef string, sub C.GooseSubscriber) mmsclient.GooseFrame {
	return mmsclient.GooseFrame{
		GoCbRef:   goCbRef,
		StNum:     uint32(C.GooseSubscriber_getStNum(sub)),
		SqNum:     uint32(C.GooseSubscriber_getSqNum(sub)),
		ConfRev:   uint32(C.GooseSubscriber_getConfRev(sub)),
		Valid:     bool(C.GooseSubscriber_isValid(sub)),
		Timestamp: uint64(C.GooseSubscriber_getTimestamp(sub)),
		Values:    toGoValue(C.GooseSubscriber_getDataSetValues(sub)),
	}
}
