package mmsclient

import "fmt"

// Engine creates protocol sessions and GOOSE receivers. The libiec61850
// package provides the cgo implementation.
type Engine interface {
	NewConnection() Connection
	NewGooseReceiver() GooseReceiver
}

// StateChangedHandler is called by the engine on its own thread whenever the
// connection state changes.
type StateChangedHandler func(state ConnectionState)

// ReportHandler is called by the engine on its own thread for every report
// received for an installed RCB.
type ReportHandler func(report ClientReport)

// CommandTerminationHandler is called by the engine when a CommandTermination
// arrives for an enhanced-security control.
type CommandTerminationHandler func(ct CommandTermination)

// Connection is one MMS association. Implementations need not be safe for
// concurrent use; Client serializes every call through its session mutex.
type Connection interface {
	Connect(host string, port int) error
	Close()
	Destroy()
	State() ConnectionState
	InstallStateChangedHandler(handler StateChangedHandler)

	ReadObject(objectRef string, fc FC) (*MmsValue, error)

	GetLogicalDeviceList() ([]string, error)
	GetLogicalDeviceDirectory(logicalDeviceName string) ([]string, error)
	GetLogicalNodeDirectory(logicalNodeRef string, acsiClass ACSIClass) ([]string, error)
	// GetDataDirectoryFC returns attribute names with an optional "[FC]" suffix.
	GetDataDirectoryFC(dataObjectRef string) ([]string, error)

	GetDataSetDirectory(dataSetRef string) ([]string, bool, error)
	ReadDataSetValues(dataSetRef string) (*MmsValue, error)
	CreateDataSet(dataSetRef string, members []string) error
	DeleteDataSet(dataSetRef string) (bool, error)

	CreateControlObject(objectRef string) (ControlObject, error)

	GetRCBValues(rcbRef string) (*ClientReportControlBlock, error)
	SetRCBValues(rcb *ClientReportControlBlock, elements RCBElement, singleRequest bool) error
	InstallReportHandler(rcbRef, rptID string, handler ReportHandler)
	UninstallReportHandler(rcbRef string)
}

// ControlObject is a client-side control handle for one controllable object.
type ControlObject interface {
	ControlModel() ControlModel
	SetOrigin(orIdent string, orCat int)
	Select() error
	SelectWithValue(value *MmsValue) error
	Operate(value *MmsValue, operTime uint64) error
	SetCommandTerminationHandler(handler CommandTerminationHandler)
	LastApplError() LastApplError
	Destroy()
}

type LastApplError struct {
	CtlNum   int
	Error    int
	AddCause int
}

type CommandTermination struct {
	Positive      bool
	LastApplError LastApplError
}

// ClientReport is a detached copy of one received report.
type ClientReport struct {
	RcbRef       string
	RptID        string
	DataSetName  string
	HasTimestamp bool
	Timestamp    uint64 // ms since epoch
	Reasons      []ReasonForInclusion
	Values       *MmsValue
}

func (r ClientReport) GetRcbReference() string {
	return r.RcbRef
}

// GetReasonForInclusion returns the reason for element i, or
// IEC61850_REASON_NOT_INCLUDED when the report carries no reason for it.
func (r ClientReport) GetReasonForInclusion(i int) ReasonForInclusion {
	if i < 0 || i >= len(r.Reasons) {
		return IEC61850_REASON_NOT_INCLUDED
	}
	return r.Reasons[i]
}

func (r ClientReport) GetElement(i int) (*MmsValue, error) {
	if r.Values == nil {
		return nil, fmt.Errorf("report %s carries no data set values", r.RcbRef)
	}
	children, ok := r.Values.Value.([]*MmsValue)
	if !ok {
		return nil, fmt.Errorf("report %s data set values are %s, not a collection", r.RcbRef, r.Values.Type)
	}
	if i < 0 || i >= len(children) {
		return nil, fmt.Errorf("report %s has no element %d", r.RcbRef, i)
	}
	return children[i], nil
}

// GooseListener is called on the receiver thread for each received frame.
type GooseListener func(frame GooseFrame)

// GooseReceiver listens for GOOSE frames on one network interface.
type GooseReceiver interface {
	SetInterfaceID(interfaceID string)
	AddSubscriber(goCbRef string, listener GooseListener) error
	Start() error
	Stop()
	Destroy()
}

type GooseFrame struct {
	GoCbRef   string
	StNum     uint32
	SqNum     uint32
	ConfRev   uint32
	Valid     bool
	Timestamp uint64
	Values    *MmsValue
}
