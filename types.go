package mmsclient

type MmsType int

// MmsValue is the engine-neutral form of an MMS value. Value holds:
//
//	Array, Structure           []*MmsValue
//	Boolean                    bool
//	BitString                  BitStringValue
//	Integer, Int8..Int64       int64, int8, int16, int32 or int64
//	Unsigned, Uint8..Uint32    uint32, uint8, uint16 or uint32
//	Float                      float32 or float64
//	OctetString                []byte
//	VisibleString, String      string
//	UTCTime, BinaryTime        uint64 (ms since epoch)
//	DataAccessError            MmsDataAccessError
type MmsValue struct {
	Type  MmsType
	Value interface{}
}

type BitStringValue struct {
	Size int
	Bits uint32
}

// data types
const (
	Array MmsType = iota
	Structure
	Boolean
	BitString
	Integer
	Unsigned
	Float
	OctetString
	VisibleString
	GeneralizedTime
	BinaryTime
	Bcd
	ObjId
	String
	UTCTime
	DataAccessError
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
)

type MmsDataAccessError int

const (
	DATA_ACCESS_ERROR_SUCCESS_NO_UPDATE             MmsDataAccessError = -3
	DATA_ACCESS_ERROR_NO_RESPONSE                   MmsDataAccessError = -2
	DATA_ACCESS_ERROR_SUCCESS                       MmsDataAccessError = -1
	DATA_ACCESS_ERROR_OBJECT_INVALIDATED            MmsDataAccessError = 0
	DATA_ACCESS_ERROR_HARDWARE_FAULT                MmsDataAccessError = 1
	DATA_ACCESS_ERROR_TEMPORARILY_UNAVAILABLE       MmsDataAccessError = 2
	DATA_ACCESS_ERROR_OBJECT_ACCESS_DENIED          MmsDataAccessError = 3
	DATA_ACCESS_ERROR_OBJECT_UNDEFINED              MmsDataAccessError = 4
	DATA_ACCESS_ERROR_INVALID_ADDRESS               MmsDataAccessError = 5
	DATA_ACCESS_ERROR_TYPE_UNSUPPORTED              MmsDataAccessError = 6
	DATA_ACCESS_ERROR_TYPE_INCONSISTENT             MmsDataAccessError = 7
	DATA_ACCESS_ERROR_OBJECT_ATTRIBUTE_INCONSISTENT MmsDataAccessError = 8
	DATA_ACCESS_ERROR_OBJECT_ACCESS_UNSUPPORTED     MmsDataAccessError = 9
	DATA_ACCESS_ERROR_OBJECT_NONE_EXISTENT          MmsDataAccessError = 10
	DATA_ACCESS_ERROR_OBJECT_VALUE_INVALID          MmsDataAccessError = 11
	DATA_ACCESS_ERROR_UNKNOWN                       MmsDataAccessError = 12
)

type ControlModel int

const (
	// CONTROL_MODEL_STATUS_ONLY No support for control functions. Control object only support status information.
	CONTROL_MODEL_STATUS_ONLY ControlModel = iota
	// CONTROL_MODEL_DIRECT_NORMAL Direct control with normal security: Supports Operate, TimeActivatedOperate (optional), and Cancel (optional).
	CONTROL_MODEL_DIRECT_NORMAL
	// CONTROL_MODEL_SBO_NORMAL Select before operate (SBO) with normal security: Supports Select, Operate, TimeActivatedOperate (optional), and Cancel (optional).
	CONTROL_MODEL_SBO_NORMAL
	// CONTROL_MODEL_DIRECT_ENHANCED Direct control with enhanced security (enhanced security includes the CommandTermination service)
	CONTROL_MODEL_DIRECT_ENHANCED
	// CONTROL_MODEL_SBO_ENHANCED Select before operate (SBO) with enhanced security (enhanced security includes the CommandTermination service)
	CONTROL_MODEL_SBO_ENHANCED
)

// Enhanced reports whether the model includes the CommandTermination service.
func (m ControlModel) Enhanced() bool {
	return m == CONTROL_MODEL_DIRECT_ENHANCED || m == CONTROL_MODEL_SBO_ENHANCED
}

// ACSIClass represents the different ACSI class types as defined in IEC 61850
type ACSIClass int

const (
	ACSI_CLASS_DATA_OBJECT ACSIClass = iota
	ACSI_CLASS_DATA_SET
	ACSI_CLASS_BRCB
	ACSI_CLASS_URCB
	ACSI_CLASS_LCB
	ACSI_CLASS_LOG
	ACSI_CLASS_SGCB
	ACSI_CLASS_GoCB
	ACSI_CLASS_GsCB
	ACSI_CLASS_MSVCB
	ACSI_CLASS_USVCB
)

// ReasonForInclusion is the per-element reason code carried by a report.
type ReasonForInclusion int

const (
	IEC61850_REASON_NOT_INCLUDED   ReasonForInclusion = 0
	IEC61850_REASON_DATA_CHANGE    ReasonForInclusion = 1
	IEC61850_REASON_QUALITY_CHANGE ReasonForInclusion = 2
	IEC61850_REASON_DATA_UPDATE    ReasonForInclusion = 4
	IEC61850_REASON_INTEGRITY      ReasonForInclusion = 8
	IEC61850_REASON_GI             ReasonForInclusion = 16
	IEC61850_REASON_UNKNOWN        ReasonForInclusion = 32
)

// RCBElement selects which report control block attributes a write touches.
type RCBElement int

const (
	RCB_ELEMENT_RPT_ID        RCBElement = 1
	RCB_ELEMENT_RPT_ENA       RCBElement = 2
	RCB_ELEMENT_RESV          RCBElement = 4
	RCB_ELEMENT_DATSET        RCBElement = 8
	RCB_ELEMENT_CONF_REV      RCBElement = 16
	RCB_ELEMENT_OPT_FLDS      RCBElement = 32
	RCB_ELEMENT_BUF_TM        RCBElement = 64
	RCB_ELEMENT_SQ_NUM        RCBElement = 128
	RCB_ELEMENT_TRG_OPS       RCBElement = 256
	RCB_ELEMENT_INTG_PD       RCBElement = 512
	RCB_ELEMENT_GI            RCBElement = 1024
	RCB_ELEMENT_PURGE_BUF     RCBElement = 2048
	RCB_ELEMENT_ENTRY_ID      RCBElement = 4096
	RCB_ELEMENT_TIME_OF_ENTRY RCBElement = 8192
	RCB_ELEMENT_RESV_TMS      RCBElement = 16384
	RCB_ELEMENT_OWNER         RCBElement = 32768
)

// ConnectionState mirrors IedConnectionState.
type ConnectionState int

const (
	IED_STATE_CLOSED ConnectionState = iota
	IED_STATE_CONNECTING
	IED_STATE_CONNECTED
	IED_STATE_CLOSING
)

func IsBitSet(val int, pos int) bool {
	return (val & (1 << pos)) != 0
}
