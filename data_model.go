package mmsclient

// DataModel is the tree returned by BrowseDataModel (data sets and report
// control blocks) and GetLogicalDevices (data objects with values).
type DataModel struct {
	LDs []LD `json:"logicalDevices"`
}

// LD is a Logical Device
type LD struct {
	Data string `json:"name"`
	LNs  []LN   `json:"logicalNodes"`
}

// LN is a Logical Node
type LN struct {
	Data      string     `json:"name"`
	Ref       string     `json:"reference"`
	DOs       []DO       `json:"dataObjects,omitempty"`
	DSs       []DS       `json:"dataSets,omitempty"`
	URReports []URReport `json:"unbufferedReports,omitempty"`
	BRReports []BRReport `json:"bufferedReports,omitempty"`
}

// URReport are Unbuffer Reports
type URReport struct {
	Data string `json:"name"`
	Ref  string `json:"reference"`
}

// BRReport are Buffered Reports
type BRReport struct {
	Data string `json:"name"`
	Ref  string `json:"reference"`
}

// DS represents a DataSet
type DS struct {
	Data        string  `json:"name"`
	Ref         string  `json:"reference"`
	DSRefs      []DSRef `json:"members"`
	IsDeletable bool    `json:"isDeletable"`
}

type DSRef struct {
	Data string `json:"reference"`
}

// DO represents a Data Object
type DO struct {
	Data string `json:"name"`
	Ref  string `json:"reference"`
	DAs  []DA   `json:"attributes"`
}

// DA represents a Data Attribute
type DA struct {
	Data  string `json:"name"`
	Ref   string `json:"reference"`
	FC    FC     `json:"fc"`
	Value Node   `json:"value"`
	DAs   []DA   `json:"attributes,omitempty"`
}
