package libiec61850

// #include <stdint.h>
// #include <iec61850_client.h>
// #include <goose_subscriber.h>
import "C"

import (
	"runtime/cgo"
	"sync"
	"sync/atomic"

	"github.com/marrasen/mmsclient"
)

// State handlers are registered by id and passed to C as an integer, so a
// late callback after Destroy finds no handler instead of a freed handle.
var (
	callbackIdGen        atomic.Int32
	stateCallbacksMu     sync.RWMutex
	stateChangeCallbacks = make(map[int32]mmsclient.StateChangedHandler)
)

func registerStateHandler(h mmsclient.StateChangedHandler) int32 {
	id := callbackIdGen.Add(1)
	stateCallbacksMu.Lock()
	stateChangeCallbacks[id] = h
	stateCallbacksMu.Unlock()
	return id
}

func unregisterStateHandler(id int32) {
	stateCallbacksMu.Lock()
	delete(stateChangeCallbacks, id)
	stateCallbacksMu.Unlock()
}

//export goStateChanged
func goStateChanged(id C.uintptr_t, state C.int) {
	stateCallbacksMu.RLock()
	cb := stateChangeCallbacks[int32(id)]
	stateCallbacksMu.RUnlock()
	if cb != nil {
		cb(mmsclient.ConnectionState(state))
	}
}

//export goReportReceived
func goReportReceived(handle C.uintptr_t, report C.ClientReport) {
	ctx, ok := cgo.Handle(handle).Value().(*reportCtx)
	if !ok || ctx.handler == nil {
		return
	}
	ctx.handler(convertReport(report))
}

//export goCommandTermination
func goCommandTermination(handle C.uintptr_t, co C.ControlObjectClient) {
	ctx, ok := cgo.Handle(handle).Value().(*controlCtx)
	if !ok {
		return
	}
	ctx.terminated(co)
}

//export goGooseReceived
func goGooseReceived(handle C.uintptr_t, sub C.GooseSubscriber) {
	ctx, ok := cgo.Handle(handle).Value().(*gooseCtx)
	if !ok || ctx.listener == nil {
		return
	}
	ctx.listener(convertGooseFrame(ctx.goCbRef, sub))
}
