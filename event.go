package mmsclient

import (
	"encoding/json"
	"time"
)

// Channel is the coarse routing hint handed to the host side.
type Channel string

const (
	ChannelConn Channel = "conn"
	ChannelData Channel = "data"
)

type EventType string

const (
	TypeControl EventType = "control"
	TypeData    EventType = "data"
	TypeError   EventType = "error"
)

// Event names
const (
	EventOpened                 = "opened"
	EventReconnecting           = "reconnecting"
	EventStateChanged           = "stateChanged"
	EventClose                  = "close"
	EventData                   = "data"
	EventDataSet                = "dataSet"
	EventDataSetCreated         = "dataSetCreated"
	EventDataSetDeleted         = "dataSetDeleted"
	EventDataSetDirectory       = "dataSetDirectory"
	EventDataModel              = "dataModel"
	EventLogicalDevices         = "logicalDevices"
	EventReport                 = "report"
	EventReportingEnabled       = "reportingEnabled"
	EventReportingDisabled      = "reportingDisabled"
	EventControl                = "control"
	EventTerminationPositive    = "CommandTermination+"
	EventTerminationNegative    = "CommandTermination-"
	EventTerminationNotObserved = "terminationNotObserved"
	EventGoose                  = "goose"
)

// Event is the only way results leave the client asynchronously.
type Event struct {
	Channel        Channel
	Type           EventType
	Name           string
	ClientID       string
	DataRef        string
	RcbRef         string
	DatasetRef     string
	LogicalNodeRef string
	Value          Node
	Reason         string
	Data           map[string]interface{}
	Time           time.Time
}

// Map flattens the event into the payload shape handed to the host.
func (e Event) Map() map[string]interface{} {
	m := make(map[string]interface{}, 8+len(e.Data))
	for k, v := range e.Data {
		m[k] = v
	}
	m["type"] = string(e.Type)
	if e.Name != "" {
		m["event"] = e.Name
	}
	if e.ClientID != "" {
		m["clientID"] = e.ClientID
	}
	if e.DataRef != "" {
		m["dataRef"] = e.DataRef
	}
	if e.RcbRef != "" {
		m["rcbRef"] = e.RcbRef
	}
	if e.DatasetRef != "" {
		m["datasetRef"] = e.DatasetRef
	}
	if e.LogicalNodeRef != "" {
		m["logicalNodeRef"] = e.LogicalNodeRef
	}
	if e.Value != nil {
		m["value"] = NodeMap(e.Value)
		m["isValid"] = e.Value.Valid()
	}
	if e.Reason != "" {
		m["reason"] = e.Reason
	}
	if !e.Time.IsZero() {
		m["time"] = e.Time.UTC().Format(time.RFC3339Nano)
	}
	return m
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Map())
}
