package libiec61850

// #include <stdint.h>
// #include <iec61850_client.h>
//
// // Implemented in bridge.c
// extern void installReportBridge(IedConnection con, const char* rcbReference, const char* rptId, uintptr_t handle);
import "C"

import (
	"runtime/cgo"

	"github.com/marrasen/mmsclient"
)

type reportCtx struct {
	handler mmsclient.ReportHandler
}

// InstallReportHandler routes reports for rcbRef to handler. An existing
// handler for the same RCB is replaced.
func (c *connection) InstallReportHandler(rcbRef, rptID string, handler mmsclient.ReportHandler) {
	cRef := Go2CStr(rcbRef)
	defer freeCStr(cRef)
	var cRptID *C.char
	if rptID != "" {
		cRptID = Go2CStr(rptID)
		defer freeCStr(cRptID)
	}

	h := cgo.NewHandle(&reportCtx{handler: handler})
	c.mu.Lock()
	old, replaced := c.reports[rcbRef]
	c.reports[rcbRef] = h
	c.mu.Unlock()

	C.installReportBridge(c.conn, cRef, cRptID, C.uintptr_t(h))
	if replaced {
		old.Delete()
	}
}

func (c *connection) UninstallReportHandler(rcbRef string) {
	cRef := Go2CStr(rcbRef)
	defer freeCStr(cRef)
	C.IedConnection_uninstallReportHandler(c.conn, cRef)

	c.mu.Lock()
	h, ok := c.reports[rcbRef]
	delete(c.reports, rcbRef)
	c.mu.Unlock()
	if ok {
		h.Delete()
	}
}

// convertReport copies a report out of the C callback. The C report is only
// valid for the duration of the callback.
func convertReport(report C.ClientReport) mmsclient.ClientReport {
	out := mmsclient.ClientReport{
		RcbRef:       C2GoStr(C.ClientReport_getRcbReference(report)),
		RptID:        C2GoStr(C.ClientReport_getRptId(report)),
		DataSetName:  C2GoStr(C.ClientReport_getDataSetName(report)),
		HasTimestamp: bool(C.ClientReport_hasTimestamp(report)),
	}
	if out.HasTimestamp {
		out.Timestamp = uint64(C.ClientReport_getTimestamp(report))
	}

	values := C.ClientReport_getDataSetValues(report)
	if values == nil {
		return out
	}
	out.Values = toGoValue(values)
	size := int(C.MmsValue_getArraySize(values))
	out.Reasons = make([]mmsclient.ReasonForInclusion, size)
	for i := 0; i < size; i++ {
		out.Reasons[i] = mmsclient.ReasonForInclusion(C.ClientReport_getReasonForInclusion(report, C.int(i)))
	}
	return out
}
