package mmsclient

import (
	"fmt"
	"strings"
)

// String implements fmt.Stringer for MmsValue.
func (v MmsValue) String() string {
	var b strings.Builder
	writeMmsValue(&b, v)
	return b.String()
}

func writeMmsValue(b *strings.Builder, v MmsValue) {
	switch v.Type {
	case Array, Structure:
		open, closing := "[", "]"
		if v.Type == Structure {
			open, closing = "{", "}"
		}
		b.WriteString(open)
		if children, ok := v.Value.([]*MmsValue); ok {
			for i, child := range children {
				if i > 0 {
					b.WriteString(", ")
				}
				if child == nil {
					b.WriteString("<nil>")
					continue
				}
				writeMmsValue(b, *child)
			}
		}
		b.WriteString(closing)
	case BitString:
		if bs, ok := v.Value.(BitStringValue); ok {
			fmt.Fprintf(b, "BitString(size=%d, 0b%b)", bs.Size, bs.Bits)
		} else {
			fmt.Fprintf(b, "BitString(%v)", v.Value)
		}
	case OctetString:
		if bs, ok := v.Value.([]byte); ok {
			fmt.Fprintf(b, "OctetString(% X)", bs)
		} else {
			fmt.Fprintf(b, "OctetString(%v)", v.Value)
		}
	case BinaryTime:
		fmt.Fprintf(b, "BinaryTime(utcMs=%v)", v.Value)
	case UTCTime:
		fmt.Fprintf(b, "UTCTime(utcMs=%v)", v.Value)
	default:
		fmt.Fprintf(b, "%s(%v)", v.Type, v.Value)
	}
}

func mmsTypeName(t MmsType) string {
	switch t {
	case Array:
		return "Array"
	case Structure:
		return "Structure"
	case Boolean:
		return "Boolean"
	case BitString:
		return "BitString"
	case Integer:
		return "Integer"
	case Unsigned:
		return "Unsigned"
	case Float:
		return "Float"
	case OctetString:
		return "OctetString"
	case VisibleString:
		return "VisibleString"
	case GeneralizedTime:
		return "GeneralizedTime"
	case BinaryTime:
		return "BinaryTime"
	case Bcd:
		return "Bcd"
	case ObjId:
		return "ObjId"
	case String:
		return "String"
	case UTCTime:
		return "UTCTime"
	case DataAccessError:
		return "DataAccessError"
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Uint8:
		return "Uint8"
	case Uint16:
		return "Uint16"
	case Uint32:
		return "Uint32"
	default:
		return fmt.Sprintf("MmsType(%d)", int(t))
	}
}

func (mt MmsType) String() string {
	return mmsTypeName(mt)
}

func (m ControlModel) String() string {
	switch m {
	case CONTROL_MODEL_STATUS_ONLY:
		return "status-only"
	case CONTROL_MODEL_DIRECT_NORMAL:
		return "direct-with-normal-security"
	case CONTROL_MODEL_SBO_NORMAL:
		return "sbo-with-normal-security"
	case CONTROL_MODEL_DIRECT_ENHANCED:
		return "direct-with-enhanced-security"
	case CONTROL_MODEL_SBO_ENHANCED:
		return "sbo-with-enhanced-security"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

func (r ReasonForInclusion) String() string {
	switch r {
	case IEC61850_REASON_NOT_INCLUDED:
		return "not-included"
	case IEC61850_REASON_DATA_CHANGE:
		return "data-change"
	case IEC61850_REASON_QUALITY_CHANGE:
		return "quality-change"
	case IEC61850_REASON_DATA_UPDATE:
		return "data-update"
	case IEC61850_REASON_INTEGRITY:
		return "integrity"
	case IEC61850_REASON_GI:
		return "general-interrogation"
	case IEC61850_REASON_UNKNOWN:
		return "unknown"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

func (s ConnectionState) String() string {
	switch s {
	case IED_STATE_CLOSED:
		return "closed"
	case IED_STATE_CONNECTING:
		return "connecting"
	case IED_STATE_CONNECTED:
		return "connected"
	case IED_STATE_CLOSING:
		return "closing"
	default:
		return "unknown"
	}
}

func (e MmsDataAccessError) String() string {
	switch e {
	case DATA_ACCESS_ERROR_OBJECT_INVALIDATED:
		return "object-invalidated"
	case DATA_ACCESS_ERROR_HARDWARE_FAULT:
		return "hardware-fault"
	case DATA_ACCESS_ERROR_TEMPORARILY_UNAVAILABLE:
		return "temporarily-unavailable"
	case DATA_ACCESS_ERROR_OBJECT_ACCESS_DENIED:
		return "object-access-denied"
	case DATA_ACCESS_ERROR_OBJECT_UNDEFINED:
		return "object-undefined"
	case DATA_ACCESS_ERROR_INVALID_ADDRESS:
		return "invalid-address"
	case DATA_ACCESS_ERROR_TYPE_UNSUPPORTED:
		return "type-unsupported"
	case DATA_ACCESS_ERROR_TYPE_INCONSISTENT:
		return "type-inconsistent"
	case DATA_ACCESS_ERROR_OBJECT_ATTRIBUTE_INCONSISTENT:
		return "object-attribute-inconsistent"
	case DATA_ACCESS_ERROR_OBJECT_ACCESS_UNSUPPORTED:
		return "object-access-unsupported"
	case DATA_ACCESS_ERROR_OBJECT_NONE_EXISTENT:
		return "object-non-existent"
	case DATA_ACCESS_ERROR_OBJECT_VALUE_INVALID:
		return "object-value-invalid"
	default:
		return fmt.Sprintf("data-access-error(%d)", int(e))
	}
}
