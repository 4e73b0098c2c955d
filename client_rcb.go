package mmsclient

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type TrgOps struct {
	DataChange            bool // Value change
	QualityChange         bool // Quality change
	DataUpdate            bool // Data update
	TriggeredPeriodically bool // Periodic trigger (integrity)
	Gi                    bool // GI (general interrogation) trigger
	Transient             bool // Transient
}

// Trigger option bits as used by libiec61850 (TRG_OPT_*).
const (
	TRG_OPT_DATA_CHANGED    = 1
	TRG_OPT_QUALITY_CHANGED = 2
	TRG_OPT_DATA_UPDATE     = 4
	TRG_OPT_INTEGRITY       = 8
	TRG_OPT_GI              = 16
	TRG_OPT_TRANSIENT       = 128
)

func (t TrgOps) Bits() int {
	var g int
	if t.DataChange {
		g |= TRG_OPT_DATA_CHANGED
	}
	if t.QualityChange {
		g |= TRG_OPT_QUALITY_CHANGED
	}
	if t.DataUpdate {
		g |= TRG_OPT_DATA_UPDATE
	}
	if t.TriggeredPeriodically {
		g |= TRG_OPT_INTEGRITY
	}
	if t.Gi {
		g |= TRG_OPT_GI
	}
	if t.Transient {
		g |= TRG_OPT_TRANSIENT
	}
	return g
}

func TrgOpsFromBits(g int) TrgOps {
	return TrgOps{
		DataChange:            IsBitSet(g, 0),
		QualityChange:         IsBitSet(g, 1),
		DataUpdate:            IsBitSet(g, 2),
		TriggeredPeriodically: IsBitSet(g, 3),
		Gi:                    IsBitSet(g, 4),
		Transient:             IsBitSet(g, 7),
	}
}

type OptFlds struct {
	SequenceNumber     bool // Sequence number
	TimeOfEntry        bool // Report timestamp
	ReasonForInclusion bool // Reason code (reason for inclusion)
	DataSetName        bool // Data set
	DataReference      bool // Data reference
	BufferOverflow     bool // Buffer overflow indicator
	EntryID            bool // Report entry identifier
	ConfigRevision     bool // Configuration revision
}

func (o OptFlds) Bits() int {
	flags := []bool{o.SequenceNumber, o.TimeOfEntry, o.ReasonForInclusion, o.DataSetName,
		o.DataReference, o.BufferOverflow, o.EntryID, o.ConfigRevision}
	var g int
	for i, set := range flags {
		if set {
			g |= 1 << i
		}
	}
	return g
}

func OptFldsFromBits(g int) OptFlds {
	return OptFlds{
		SequenceNumber:     IsBitSet(g, 0),
		TimeOfEntry:        IsBitSet(g, 1),
		ReasonForInclusion: IsBitSet(g, 2),
		DataSetName:        IsBitSet(g, 3),
		DataReference:      IsBitSet(g, 4),
		BufferOverflow:     IsBitSet(g, 5),
		EntryID:            IsBitSet(g, 6),
		ConfigRevision:     IsBitSet(g, 7),
	}
}

// ClientReportControlBlock is the client-side copy of an RCB.
type ClientReportControlBlock struct {
	Ref      string  // RCB object reference
	Buffered bool    // BRCB rather than URCB
	Ena      bool    // Enable
	IntgPd   int     // Integrity period (ms)
	BufTm    int     // Buffer time (ms)
	Resv     bool    // Reservation for URCB
	GI       bool    // Request a general interrogation
	TrgOps   TrgOps  // Trigger options
	OptFlds  OptFlds // Report options
	RptId    string  // RCB report ID
	DatSet   string  // Data set reference
	ConfRev  uint32  // Configuration revision
	Owner    string  // Current owner (IP:port) if enabled
}

// ReportSubscription binds an RCB to the directory of its data set. Directory
// order is the element order of incoming reports.
type ReportSubscription struct {
	RcbRef     string
	DatasetRef string
	Directory  []string
	Snapshot   Node
	RCB        ClientReportControlBlock
}

// ReportValue is one included element of a report.
type ReportValue struct {
	Index  int                `json:"index"`
	Member string             `json:"member"`
	Reason ReasonForInclusion `json:"reason"`
	Value  Node               `json:"value"`
}

// reportRegistry is guarded by its own lock so report delivery never waits on
// the session mutex.
type reportRegistry struct {
	mu   sync.RWMutex
	subs map[string]*ReportSubscription
}

func newReportRegistry() *reportRegistry {
	return &reportRegistry{subs: make(map[string]*ReportSubscription)}
}

func (r *reportRegistry) get(rcbRef string) (*ReportSubscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[rcbRef]
	return sub, ok
}

func (r *reportRegistry) add(sub *ReportSubscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.RcbRef]; ok {
		return false
	}
	r.subs[sub.RcbRef] = sub
	return true
}

func (r *reportRegistry) remove(rcbRef string) {
	r.mu.Lock()
	delete(r.subs, rcbRef)
	r.mu.Unlock()
}

func (r *reportRegistry) refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]string, 0, len(r.subs))
	for ref := range r.subs {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Subscriptions returns the RCB references with an active subscription.
func (c *Client) Subscriptions() []string {
	return c.reports.refs()
}

func sameDataSet(a, b string) bool {
	// normalize LN/DataSet separator: $ or .
	norm := func(s string) string {
		return strings.ReplaceAll(s, "$", ".")
	}
	return norm(a) == norm(b)
}

// EnableReporting binds rcbRef to dataSetRef, enables it with data-change,
// quality-change and GI triggers and requests a general interrogation.
// Reports are emitted as "report" events.
func (c *Client) EnableReporting(rcbRef, dataSetRef string) (err error) {
	defer c.recoverOp("EnableReporting", rcbRef, &err)

	if rcbRef == "" || dataSetRef == "" {
		return newError(KindConfiguration, "EnableReporting", rcbRef, ErrInvalidParams)
	}
	if err := c.lockSession("EnableReporting", rcbRef); err != nil {
		return err
	}
	defer c.mu.Unlock()

	if _, ok := c.reports.get(rcbRef); ok {
		c.emitError(Event{RcbRef: rcbRef, Reason: fmt.Sprintf("Report already enabled for %s", rcbRef)})
		return newError(KindConfiguration, "EnableReporting", rcbRef, ErrAlreadySubscribed)
	}

	fail := func(reason string, err error) error {
		c.emitError(Event{RcbRef: rcbRef, DatasetRef: dataSetRef, Reason: fmt.Sprintf("%s: %v", reason, err)})
		return newError(KindEngine, "EnableReporting", rcbRef, err)
	}

	directory, _, err := c.conn.GetDataSetDirectory(dataSetRef)
	if err != nil {
		return fail("Failed to read dataset directory for "+dataSetRef, err)
	}
	snapshot, err := c.conn.ReadDataSetValues(dataSetRef)
	if err != nil {
		return fail("Failed to read dataset "+dataSetRef, err)
	}
	rcb, err := c.conn.GetRCBValues(rcbRef)
	if err != nil {
		return fail("Failed to read RCB values for "+rcbRef, err)
	}

	datSet := strings.ReplaceAll(dataSetRef, ".", "$")
	log := c.logger().WithFields(logrus.Fields{"rcbRef": rcbRef, "datasetRef": dataSetRef})
	if rcb.DatSet != "" && !sameDataSet(rcb.DatSet, datSet) {
		log.WithField("previous", rcb.DatSet).Info("rebinding RCB to a different dataset")
	}

	rcb.Ref = rcbRef
	rcb.Resv = !rcb.Buffered
	rcb.TrgOps = TrgOps{DataChange: true, QualityChange: true, Gi: true}
	rcb.DatSet = datSet
	rcb.Ena = true
	rcb.GI = true
	elements := RCB_ELEMENT_DATSET | RCB_ELEMENT_TRG_OPS | RCB_ELEMENT_RPT_ENA | RCB_ELEMENT_GI
	if !rcb.Buffered {
		elements |= RCB_ELEMENT_RESV
	}

	// Register before the write so the GI report that follows is correlated.
	sub := &ReportSubscription{
		RcbRef:     rcbRef,
		DatasetRef: dataSetRef,
		Directory:  directory,
		Snapshot:   FromMmsValue(snapshot, ""),
		RCB:        *rcb,
	}
	c.reports.add(sub)
	c.conn.InstallReportHandler(rcbRef, rcb.RptId, c.handleReport)

	if err := c.conn.SetRCBValues(rcb, elements, true); err != nil {
		c.conn.UninstallReportHandler(rcbRef)
		c.reports.remove(rcbRef)
		return fail("Failed to enable reporting for "+rcbRef, err)
	}

	log.WithField("members", len(directory)).Info("reporting enabled")
	c.emit(Event{
		Type:       TypeControl,
		Name:       EventReportingEnabled,
		RcbRef:     rcbRef,
		DatasetRef: dataSetRef,
		Data:       map[string]interface{}{"rptId": rcb.RptId, "members": directory},
	})
	return nil
}

// DisableReporting disables rcbRef and drops its subscription. The local
// subscription is removed even when the write to the server fails.
func (c *Client) DisableReporting(rcbRef string) (err error) {
	defer c.recoverOp("DisableReporting", rcbRef, &err)

	if rcbRef == "" {
		return newError(KindConfiguration, "DisableReporting", rcbRef, ErrInvalidParams)
	}
	if err := c.lockSession("DisableReporting", rcbRef); err != nil {
		return err
	}
	defer c.mu.Unlock()

	sub, ok := c.reports.get(rcbRef)
	if !ok {
		c.emitError(Event{RcbRef: rcbRef, Reason: fmt.Sprintf("No active report for %s", rcbRef)})
		return newError(KindConfiguration, "DisableReporting", rcbRef, ErrNotSubscribed)
	}

	if err := c.unsubscribe(sub, true); err != nil {
		return newError(KindEngine, "DisableReporting", rcbRef, err)
	}
	return nil
}

// unsubscribe must be called with c.mu held. With writeBack the RCB is
// disabled on the server first; a failure there is reported and returned
// after local cleanup.
func (c *Client) unsubscribe(sub *ReportSubscription, writeBack bool) error {
	var werr error
	if writeBack {
		rcb := sub.RCB
		rcb.Ena = false
		if werr = c.conn.SetRCBValues(&rcb, RCB_ELEMENT_RPT_ENA, true); werr != nil {
			c.logger().WithField("rcbRef", sub.RcbRef).WithError(werr).Warn("failed to disable RCB")
			c.emitError(Event{RcbRef: sub.RcbRef, Reason: fmt.Sprintf("Failed to disable reporting for %s: %v", sub.RcbRef, werr)})
		}
	}
	c.conn.UninstallReportHandler(sub.RcbRef)
	c.reports.remove(sub.RcbRef)

	c.logger().WithField("rcbRef", sub.RcbRef).Info("reporting disabled")
	c.emit(Event{Type: TypeControl, Name: EventReportingDisabled, RcbRef: sub.RcbRef, DatasetRef: sub.DatasetRef})
	return werr
}

// disableAllReports must be called with c.mu held.
func (c *Client) disableAllReports() {
	connected := c.connected.Load()
	for _, ref := range c.reports.refs() {
		if sub, ok := c.reports.get(ref); ok {
			_ = c.unsubscribe(sub, connected)
		}
	}
}

// handleReport runs on the engine's report thread. Reports for RCBs without a
// subscription are dropped.
func (c *Client) handleReport(report ClientReport) {
	defer func() {
		if r := recover(); r != nil {
			c.logger().WithField("rcbRef", report.RcbRef).Errorf("panic in report handler: %v", r)
			c.emitError(Event{RcbRef: report.RcbRef, Reason: fmt.Sprintf("Internal error handling report: %v", r)})
		}
	}()

	sub, ok := c.reports.get(report.GetRcbReference())
	if !ok {
		c.logger().WithField("rcbRef", report.RcbRef).Debug("dropping report without subscription")
		return
	}

	reasons := make([]ReasonForInclusion, len(sub.Directory))
	values := make([]ReportValue, 0, len(sub.Directory))
	for i, member := range sub.Directory {
		reason := report.GetReasonForInclusion(i)
		reasons[i] = reason
		if reason == IEC61850_REASON_NOT_INCLUDED {
			continue
		}
		ref, _ := splitFCSuffix(member)
		var node Node
		el, err := report.GetElement(i)
		if err != nil {
			node = InvalidNode{Cause: err.Error()}
		} else {
			node = FromMmsValue(el, lastSegment(ref))
		}
		values = append(values, ReportValue{Index: i, Member: member, Reason: reason, Value: node})
	}

	data := map[string]interface{}{
		"rptId":               report.RptID,
		"values":              values,
		"reasonsForInclusion": reasons,
	}
	if report.HasTimestamp {
		data["timestamp"] = formatTimestamp(report.Timestamp)
	}
	c.emit(Event{
		Type:       TypeData,
		Name:       EventReport,
		RcbRef:     sub.RcbRef,
		DatasetRef: sub.DatasetRef,
		Data:       data,
	})
}
