package libiec61850

// #include <iec61850_client.h>
// #include <iec61850_common.h>
// #include <mms_value.h>
import "C"

import (
	"encoding/hex"
	"unsafe"

	"github.com/marrasen/mmsclient"
)

func (c *connection) GetRCBValues(objectReference string) (*mmsclient.ClientReportControlBlock, error) {
	var clientError C.IedClientError
	cObjectRef := Go2CStr(objectReference)
	defer freeCStr(cObjectRef)
	rcb := C.IedConnection_getRCBValues(c.conn, &clientError, cObjectRef, nil)
	if rcb == nil {
		if err := GetIedClientError(clientError); err != nil {
			return nil, err
		}
		return nil, mmsclient.IED_ERROR_UNKNOWN
	}
	defer C.ClientReportControlBlock_destroy(rcb)
	if err := GetIedClientError(clientError); err != nil {
		return nil, err
	}

	// Owner is an octet string and may contain binary data
	ownerStr := ""
	if ownerMms := C.ClientReportControlBlock_getOwner(rcb); ownerMms != nil {
		sz := C.MmsValue_getOctetStringSize(ownerMms)
		buf := C.MmsValue_getOctetStringBuffer(ownerMms)
		if sz > 0 && buf != nil {
			ownerStr = hex.EncodeToString(C.GoBytes(unsafe.Pointer(buf), C.int(sz)))
		}
	}

	return &mmsclient.ClientReportControlBlock{
		Ref:      objectReference,
		Buffered: bool(C.ClientReportControlBlock_isBuffered(rcb)),
		Ena:      bool(C.ClientReportControlBlock_getRptEna(rcb)),
		IntgPd:   int(C.ClientReportControlBlock_getIntgPd(rcb)),
		BufTm:    int(C.ClientReportControlBlock_getBufTm(rcb)),
		Resv:     bool(C.ClientReportControlBlock_getResv(rcb)),
		GI:       bool(C.ClientReportControlBlock_getGI(rcb)),
		TrgOps:   mmsclient.TrgOpsFromBits(int(C.ClientReportControlBlock_getTrgOps(rcb))),
		OptFlds:  mmsclient.OptFldsFromBits(int(C.ClientReportControlBlock_getOptFlds(rcb))),
		RptId:    C2GoStr(C.ClientReportControlBlock_getRptId(rcb)),
		DatSet:   C2GoStr(C.ClientReportControlBlock_getDataSetReference(rcb)),
		ConfRev:  uint32(C.ClientReportControlBlock_getConfRev(rcb)),
		Owner:    ownerStr,
	}, nil
}

// SetRCBValues writes the elements of settings selected by the elements mask.
func (c *connection) SetRCBValues(settings *mmsclient.ClientReportControlBlock, elements mmsclient.RCBElement, singleRequest bool) error {
	var clientError C.IedClientError
	cObjectRef := Go2CStr(settings.Ref)
	defer freeCStr(cObjectRef)
	rcb := C.ClientReportControlBlock_create(cObjectRef)
	defer C.ClientReportControlBlock_destroy(rcb)

	if elements&mmsclient.RCB_ELEMENT_RESV != 0 {
		C.ClientReportControlBlock_setResv(rcb, C.bool(settings.Resv))
	}
	if elements&mmsclient.RCB_ELEMENT_DATSET != 0 {
		cDs := Go2CStr(settings.DatSet)
		defer freeCStr(cDs)
		C.ClientReportControlBlock_setDataSetReference(rcb, cDs)
	}
	if elements&mmsclient.RCB_ELEMENT_TRG_OPS != 0 {
		C.ClientReportControlBlock_setTrgOps(rcb, C.int(settings.TrgOps.Bits()))
	}
	if elements&mmsclient.RCB_ELEMENT_OPT_FLDS != 0 {
		C.ClientReportControlBlock_setOptFlds(rcb, C.int(settings.OptFlds.Bits()))
	}
	if elements&mmsclient.RCB_ELEMENT_INTG_PD != 0 {
		C.ClientReportControlBlock_setIntgPd(rcb, C.uint32_t(settings.IntgPd))
	}
	if elements&mmsclient.RCB_ELEMENT_BUF_TM != 0 {
		C.ClientReportControlBlock_setBufTm(rcb, C.uint32_t(settings.BufTm))
	}
	if elements&mmsclient.RCB_ELEMENT_GI != 0 {
		C.ClientReportControlBlock_setGI(rcb, C.bool(settings.GI))
	}
	if elements&mmsclient.RCB_ELEMENT_RPT_ENA != 0 {
		C.ClientReportControlBlock_setRptEna(rcb, C.bool(settings.Ena))
	}

	C.IedConnection_setRCBValues(c.conn, &clientError, rcb, C.uint32_t(elements), C.bool(singleRequest))
	return GetIedClientError(clientError)
}
