package mmsclient

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errRefused = errors.New("connection refused")

type fakeEngine struct {
	mu        sync.Mutex
	main      *fakeConn
	spare     func() *fakeConn
	spares    int
	receivers []*fakeGooseReceiver
}

// NewConnection returns the main connection first and spare connections after.
func (e *fakeEngine) NewConnection() Connection {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.main != nil && !e.main.handedOut {
		e.main.handedOut = true
		return e.main
	}
	e.spares++
	if e.spare != nil {
		return e.spare()
	}
	return &fakeConn{connectFn: func(string, int) error { return errRefused }}
}

func (e *fakeEngine) spareCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spares
}

func (e *fakeEngine) NewGooseReceiver() GooseReceiver {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := &fakeGooseReceiver{}
	e.receivers = append(e.receivers, r)
	return r
}

type readCall struct {
	Ref string
	FC  FC
}

type setRCBCall struct {
	RCB      ClientReportControlBlock
	Elements RCBElement
}

type fakeConn struct {
	mu        sync.Mutex
	handedOut bool

	state        ConnectionState
	stateHandler StateChangedHandler
	connectFn    func(host string, port int) error
	afterConnect func(f *fakeConn)
	connects     []string
	closes       int
	destroys     int

	readFn func(ref string, fc FC) (*MmsValue, error)
	reads  []readCall

	lds       []string
	ldErr     error
	ldDirs    map[string][]string
	lnDirs    map[string]map[ACSIClass][]string
	dataDirs  map[string][]string
	dsMembers map[string][]string
	dsDelete  map[string]bool
	dsValues  map[string]*MmsValue

	createDSErr error
	createdDS   map[string][]string
	deleteDS    func(ref string) (bool, error)

	control    ControlObject
	controlErr error

	rcbs       map[string]*ClientReportControlBlock
	setRCBErr  func(call setRCBCall) error
	setRCBs    []setRCBCall
	handlers   map[string]ReportHandler
	uninstalls []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		connectFn: func(string, int) error { return nil },
		readFn:    func(ref string, fc FC) (*MmsValue, error) { return nil, IED_ERROR_OBJECT_DOES_NOT_EXIST },
		ldDirs:    map[string][]string{},
		lnDirs:    map[string]map[ACSIClass][]string{},
		dataDirs:  map[string][]string{},
		dsMembers: map[string][]string{},
		dsDelete:  map[string]bool{},
		dsValues:  map[string]*MmsValue{},
		createdDS: map[string][]string{},
		rcbs:      map[string]*ClientReportControlBlock{},
		handlers:  map[string]ReportHandler{},
	}
}

func (f *fakeConn) Connect(host string, port int) error {
	f.mu.Lock()
	f.connects = append(f.connects, host)
	err := f.connectFn(host, port)
	if err == nil {
		f.state = IED_STATE_CONNECTED
	}
	h := f.stateHandler
	after := f.afterConnect
	f.mu.Unlock()
	if err == nil && h != nil {
		h(IED_STATE_CONNECTED)
	}
	if err == nil && after != nil {
		after(f)
	}
	return err
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closes++
	was := f.state
	f.state = IED_STATE_CLOSED
	h := f.stateHandler
	f.mu.Unlock()
	if was != IED_STATE_CLOSED && h != nil {
		h(IED_STATE_CLOSED)
	}
}

// drop simulates the peer going away.
func (f *fakeConn) drop() {
	f.Close()
}

func (f *fakeConn) Destroy() {
	f.mu.Lock()
	f.destroys++
	f.mu.Unlock()
}

func (f *fakeConn) State() ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeConn) InstallStateChangedHandler(h StateChangedHandler) {
	f.mu.Lock()
	f.stateHandler = h
	f.mu.Unlock()
}

func (f *fakeConn) ReadObject(ref string, fc FC) (*MmsValue, error) {
	f.mu.Lock()
	f.reads = append(f.reads, readCall{Ref: ref, FC: fc})
	fn := f.readFn
	f.mu.Unlock()
	return fn(ref, fc)
}

func (f *fakeConn) GetLogicalDeviceList() ([]string, error) {
	return f.lds, f.ldErr
}

func (f *fakeConn) GetLogicalDeviceDirectory(ld string) ([]string, error) {
	if lns, ok := f.ldDirs[ld]; ok {
		return lns, nil
	}
	return nil, IED_ERROR_OBJECT_DOES_NOT_EXIST
}

func (f *fakeConn) GetLogicalNodeDirectory(ln string, class ACSIClass) ([]string, error) {
	if byClass, ok := f.lnDirs[ln]; ok {
		return byClass[class], nil
	}
	return nil, IED_ERROR_OBJECT_DOES_NOT_EXIST
}

func (f *fakeConn) GetDataDirectoryFC(ref string) ([]string, error) {
	if names, ok := f.dataDirs[ref]; ok {
		return names, nil
	}
	return nil, IED_ERROR_OBJECT_DOES_NOT_EXIST
}

func (f *fakeConn) GetDataSetDirectory(ref string) ([]string, bool, error) {
	if members, ok := f.dsMembers[ref]; ok {
		return members, f.dsDelete[ref], nil
	}
	return nil, false, IED_ERROR_OBJECT_DOES_NOT_EXIST
}

func (f *fakeConn) ReadDataSetValues(ref string) (*MmsValue, error) {
	if v, ok := f.dsValues[ref]; ok {
		return v, nil
	}
	return nil, IED_ERROR_OBJECT_DOES_NOT_EXIST
}

func (f *fakeConn) CreateDataSet(ref string, members []string) error {
	if f.createDSErr != nil {
		return f.createDSErr
	}
	f.createdDS[ref] = members
	return nil
}

func (f *fakeConn) DeleteDataSet(ref string) (bool, error) {
	if f.deleteDS != nil {
		return f.deleteDS(ref)
	}
	return true, nil
}

func (f *fakeConn) CreateControlObject(ref string) (ControlObject, error) {
	if f.controlErr != nil {
		return nil, f.controlErr
	}
	return f.control, nil
}

func (f *fakeConn) GetRCBValues(ref string) (*ClientReportControlBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rcb, ok := f.rcbs[ref]
	if !ok {
		return nil, IED_ERROR_OBJECT_DOES_NOT_EXIST
	}
	cp := *rcb
	return &cp, nil
}

func (f *fakeConn) SetRCBValues(rcb *ClientReportControlBlock, elements RCBElement, single bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := setRCBCall{RCB: *rcb, Elements: elements}
	f.setRCBs = append(f.setRCBs, call)
	if f.setRCBErr != nil {
		if err := f.setRCBErr(call); err != nil {
			return err
		}
	}
	if stored, ok := f.rcbs[rcb.Ref]; ok {
		stored.Ena = rcb.Ena
		if elements&RCB_ELEMENT_DATSET != 0 {
			stored.DatSet = rcb.DatSet
		}
	}
	return nil
}

func (f *fakeConn) InstallReportHandler(rcbRef, rptID string, h ReportHandler) {
	f.mu.Lock()
	f.handlers[rcbRef] = h
	f.mu.Unlock()
}

func (f *fakeConn) UninstallReportHandler(rcbRef string) {
	f.mu.Lock()
	delete(f.handlers, rcbRef)
	f.uninstalls = append(f.uninstalls, rcbRef)
	f.mu.Unlock()
}

func (f *fakeConn) handler(rcbRef string) ReportHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[rcbRef]
}

func (f *fakeConn) readCalls() []readCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]readCall(nil), f.reads...)
}

func (f *fakeConn) connectHosts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.connects...)
}

func (f *fakeConn) destroyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroys
}

type fakeControl struct {
	mock.Mock
}

func (m *fakeControl) ControlModel() ControlModel {
	return m.Called().Get(0).(ControlModel)
}

func (m *fakeControl) SetOrigin(orIdent string, orCat int) {
	m.Called(orIdent, orCat)
}

func (m *fakeControl) Select() error {
	return m.Called().Error(0)
}

func (m *fakeControl) SelectWithValue(v *MmsValue) error {
	return m.Called(v).Error(0)
}

func (m *fakeControl) Operate(v *MmsValue, operTime uint64) error {
	return m.Called(v, operTime).Error(0)
}

func (m *fakeControl) SetCommandTerminationHandler(h CommandTerminationHandler) {
	m.Called(h)
}

func (m *fakeControl) LastApplError() LastApplError {
	return m.Called().Get(0).(LastApplError)
}

func (m *fakeControl) Destroy() {
	m.Called()
}

type fakeGooseReceiver struct {
	mu        sync.Mutex
	iface     string
	listeners map[string]GooseListener
	startErr  error
	started   bool
	stops     int
	destroys  int
}

func (r *fakeGooseReceiver) SetInterfaceID(id string) {
	r.iface = id
}

func (r *fakeGooseReceiver) AddSubscriber(goCbRef string, l GooseListener) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listeners == nil {
		r.listeners = map[string]GooseListener{}
	}
	r.listeners[goCbRef] = l
	return nil
}

func (r *fakeGooseReceiver) Start() error {
	if r.startErr != nil {
		return r.startErr
	}
	r.started = true
	return nil
}

func (r *fakeGooseReceiver) Stop()    { r.stops++ }
func (r *fakeGooseReceiver) Destroy() { r.destroys++ }

func (r *fakeGooseReceiver) deliver(goCbRef string, frame GooseFrame) {
	r.mu.Lock()
	l := r.listeners[goCbRef]
	r.mu.Unlock()
	l(frame)
}

func testSettings() ClientSettings {
	return ClientSettings{
		PollInterval:    5 * time.Millisecond,
		SettleTimeout:   50 * time.Millisecond,
		ShutdownTimeout: time.Second,
		EventQueueSize:  256,
		EmitTimeout:     50 * time.Millisecond,
		OriginIdent:     "test",
	}
}

func testParams() ConnectParams {
	return ConnectParams{
		Host:           "10.0.0.1",
		Port:           102,
		ClientID:       "c1",
		ReconnectDelay: 5 * time.Millisecond,
	}
}

func testLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

// newTestClient returns a client over conn that has completed its first
// connection. The opened event is consumed.
func newTestClient(t *testing.T, conn *fakeConn) (*Client, *fakeEngine) {
	t.Helper()
	engine := &fakeEngine{main: conn}
	c := NewClient(engine, testSettings(), testLogger())
	require.NoError(t, c.Connect(testParams()))
	waitEvent(t, c, EventOpened)
	t.Cleanup(func() { _ = c.Close() })
	return c, engine
}

// waitEvent reads events until one named name arrives.
func waitEvent(t *testing.T, c *Client, name string) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events():
			require.True(t, ok, "event queue closed while waiting for %s", name)
			if ev.Name == name {
				return ev
			}
		case <-timeout:
			require.FailNow(t, fmt.Sprintf("timed out waiting for event %s", name))
		}
	}
}

// drain returns the events queued right now, skipping connection-channel
// events.
func drain(c *Client) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				return out
			}
			if ev.Channel == ChannelConn {
				continue
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func ofType(evs []Event, typ EventType) []Event {
	var out []Event
	for _, ev := range evs {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func named(evs []Event, name string) []Event {
	var out []Event
	for _, ev := range evs {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func boolValue(b bool) *MmsValue { return &MmsValue{Type: Boolean, Value: b} }

func intValue(i int32) *MmsValue { return &MmsValue{Type: Integer, Value: i} }
