package libiec61850

// #include <stdint.h>
// #include <stdlib.h>
// #include <iec61850_client.h>
//
// // Implemented in bridge.c
// extern void installStateChangedBridge(IedConnection con, uintptr_t id);
import "C"

import (
	"errors"
	"fmt"
	"runtime/cgo"
	"sync"

	"github.com/marrasen/mmsclient"
	"github.com/sirupsen/logrus"
	"gopkg.in/validator.v2"
)

// Settings tunes the libiec61850 connections created by an Engine. Zero
// values keep the library defaults.
type Settings struct {
	ConnectTimeout uint `yaml:"connectTimeout" validate:"max=600000"` // ms
	RequestTimeout uint `yaml:"requestTimeout" validate:"max=600000"` // ms
}

// Engine creates libiec61850 connections and GOOSE receivers.
type Engine struct {
	settings Settings
	log      logrus.FieldLogger
}

var _ mmsclient.Engine = (*Engine)(nil)

// NewEngine validates settings and returns an engine. log may be nil.
func NewEngine(settings Settings, log logrus.FieldLogger) (*Engine, error) {
	if err := validator.Validate(settings); err != nil {
		return nil, fmt.Errorf("%w: %v", mmsclient.ErrInvalidParams, err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{settings: settings, log: log}, nil
}

func (e *Engine) NewConnection() mmsclient.Connection {
	conn := C.IedConnection_create()
	if e.settings.ConnectTimeout > 0 {
		C.IedConnection_setConnectTimeout(conn, C.uint32_t(e.settings.ConnectTimeout))
	}
	if e.settings.RequestTimeout > 0 {
		C.IedConnection_setRequestTimeout(conn, C.uint32_t(e.settings.RequestTimeout))
	}
	return &connection{conn: conn, log: e.log, reports: make(map[string]cgo.Handle)}
}

type connection struct {
	conn C.IedConnection
	log  logrus.FieldLogger

	stateHandlerID int32

	mu      sync.Mutex
	reports map[string]cgo.Handle
}

func (c *connection) Connect(host string, port int) error {
	var clientError C.IedClientError
	cHost := Go2CStr(host)
	defer freeCStr(cHost)
	C.IedConnection_connect(c.conn, &clientError, cHost, C.int(port))
	return GetIedClientError(clientError)
}

func (c *connection) Close() {
	C.IedConnection_close(c.conn)
}

// Destroy releases the C connection and every handle registered on it.
func (c *connection) Destroy() {
	C.IedConnection_destroy(c.conn)
	if c.stateHandlerID != 0 {
		unregisterStateHandler(c.stateHandlerID)
	}
	c.mu.Lock()
	for ref, h := range c.reports {
		h.Delete()
		delete(c.reports, ref)
	}
	c.mu.Unlock()
}

func (c *connection) State() mmsclient.ConnectionState {
	return mmsclient.ConnectionState(C.IedConnection_getState(c.conn))
}

// InstallStateChangedHandler registers handler for connection state changes.
// Calling it again replaces the previous handler.
func (c *connection) InstallStateChangedHandler(handler mmsclient.StateChangedHandler) {
	if handler == nil {
		return
	}
	if c.stateHandlerID != 0 {
		unregisterStateHandler(c.stateHandlerID)
	}
	c.stateHandlerID = registerStateHandler(handler)
	C.installStateChangedBridge(c.conn, C.uintptr_t(c.stateHandlerID))
}

func (c *connection) ReadObject(ref string, fc mmsclient.FC) (*mmsclient.MmsValue, error) {
	var clientError C.IedClientError
	cRef := Go2CStr(ref)
	defer freeCStr(cRef)

	value := C.IedConnection_readObject(c.conn, &clientError, cRef, C.FunctionalConstraint(fc))
	if err := GetIedClientError(clientError); err != nil {
		if value != nil {
			C.MmsValue_delete(value)
		}
		return nil, err
	}
	if value == nil {
		return nil, errors.New("IedConnection_readObject returned NULL")
	}
	defer C.MmsValue_delete(value)
	return toGoValue(value), nil
}

// linkedListToStrings converts and destroys a LinkedList of C strings.
func linkedListToStrings(list C.LinkedList) []string {
	if list == nil {
		return nil
	}
	defer C.LinkedList_destroy(list)
	var out []string
	it := list.next
	for it != nil {
		out = append(out, C2GoStr((*C.char)(it.data)))
		it = it.next
	}
	return out
}

// GetLogicalDeviceList wraps C.IedConnection_getLogicalDeviceList and returns Go strings.
func (c *connection) GetLogicalDeviceList() ([]string, error) {
	var clientError C.IedClientError
	list := C.IedConnection_getLogicalDeviceList(c.conn, &clientError)
	out := linkedListToStrings(list)
	if err := GetIedClientError(clientError); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLogicalDeviceDirectory wraps C.IedConnection_getLogicalDeviceDirectory and returns Go strings
func (c *connection) GetLogicalDeviceDirectory(logicalDeviceName string) ([]string, error) {
	var clientError C.IedClientError
	cStr := Go2CStr(logicalDeviceName)
	defer freeCStr(cStr)

	out := linkedListToStrings(C.IedConnection_getLogicalDeviceDirectory(c.conn, &clientError, cStr))
	if err := GetIedClientError(clientError); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLogicalNodeDirectory wraps C.IedConnection_getLogicalNodeDirectory and returns Go strings
func (c *connection) GetLogicalNodeDirectory(logicalNodeReference string, acsiClass mmsclient.ACSIClass) ([]string, error) {
	var clientError C.IedClientError
	cRef := Go2CStr(logicalNodeReference)
	defer freeCStr(cRef)

	out := linkedListToStrings(C.IedConnection_getLogicalNodeDirectory(c.conn, &clientError, cRef, C.ACSIClass(C.int(acsiClass))))
	if err := GetIedClientError(clientError); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDataDirectoryFC returns attribute names with their FC suffix, e.g. "stVal[ST]".
func (c *connection) GetDataDirectoryFC(dataObjectReference string) ([]string, error) {
	var clientError C.IedClientError
	cRef := Go2CStr(dataObjectReference)
	defer freeCStr(cRef)

	out := linkedListToStrings(C.IedConnection_getDataDirectoryFC(c.conn, &clientError, cRef))
	if err := GetIedClientError(clientError); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDataSetDirectory wraps C.IedConnection_getDataSetDirectory and returns Go strings
func (c *connection) GetDataSetDirectory(dataSetReference string) ([]string, bool, error) {
	var clientError C.IedClientError
	var isDeletable C.bool

	cRef := Go2CStr(dataSetReference)
	defer freeCStr(cRef)

	out := linkedListToStrings(C.IedConnection_getDataSetDirectory(c.conn, &clientError, cRef, &isDeletable))
	if err := GetIedClientError(clientError); err != nil {
		return nil, false, err
	}
	return out, bool(isDeletable), nil
}

func (c *connection) ReadDataSetValues(dataSetReference string) (*mmsclient.MmsValue, error) {
	var clientError C.IedClientError
	cRef := Go2CStr(dataSetReference)
	defer freeCStr(cRef)

	ds := C.IedConnection_readDataSetValues(c.conn, &clientError, cRef, nil)
	if ds != nil {
		defer C.ClientDataSet_destroy(ds)
	}
	if err := GetIedClientError(clientError); err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, errors.New("IedConnection_readDataSetValues returned NULL")
	}
	return toGoValue(C.ClientDataSet_getValues(ds)), nil
}

func (c *connection) CreateDataSet(dataSetReference string, members []string) error {
	var clientError C.IedClientError
	cRef := Go2CStr(dataSetReference)
	defer freeCStr(cRef)

	// LinkedList_destroy frees the member strings.
	list := C.LinkedList_create()
	defer C.LinkedList_destroy(list)
	for _, m := range members {
		C.LinkedList_add(list, unsafePointer(Go2CStr(m)))
	}
	C.IedConnection_createDataSet(c.conn, &clientError, cRef, list)
	return GetIedClientError(clientError)
}

func (c *connection) DeleteDataSet(dataSetReference string) (bool, error) {
	var clientError C.IedClientError
	cRef := Go2CStr(dataSetReference)
	defer freeCStr(cRef)

	deleted := C.IedConnection_deleteDataSet(c.conn, &clientError, cRef)
	if err := GetIedClientError(clientError); err != nil {
		return false, err
	}
	return bool(deleted), nil
}
