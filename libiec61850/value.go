package libiec61850

// #include <stdlib.h>
// #include <mms_value.h>
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/marrasen/mmsclient"
	"github.com/spf13/cast"
)

// toGoValue copies a C MmsValue into a detached mmsclient.MmsValue. The C value
// is not freed.
func toGoValue(v *C.MmsValue) *mmsclient.MmsValue {
	if v == nil {
		return nil
	}
	t := mmsclient.MmsType(C.MmsValue_getType(v))
	out := &mmsclient.MmsValue{Type: t}

	switch t {
	case mmsclient.Array, mmsclient.Structure:
		size := int(C.MmsValue_getArraySize(v))
		children := make([]*mmsclient.MmsValue, 0, size)
		for i := 0; i < size; i++ {
			children = append(children, toGoValue(C.MmsValue_getElement(v, C.int(i))))
		}
		out.Value = children
	case mmsclient.Boolean:
		out.Value = bool(C.MmsValue_getBoolean(v))
	case mmsclient.BitString:
		out.Value = mmsclient.BitStringValue{
			Size: int(C.MmsValue_getBitStringSize(v)),
			Bits: uint32(C.MmsValue_getBitStringAsInteger(v)),
		}
	case mmsclient.Integer:
		out.Value = int64(C.MmsValue_toInt64(v))
	case mmsclient.Unsigned:
		out.Value = uint32(C.MmsValue_toUint32(v))
	case mmsclient.Float:
		out.Value = float32(C.MmsValue_toFloat(v))
	case mmsclient.OctetString:
		size := C.MmsValue_getOctetStringSize(v)
		buf := C.MmsValue_getOctetStringBuffer(v)
		if size > 0 && buf != nil {
			out.Value = C.GoBytes(unsafe.Pointer(buf), C.int(size))
		} else {
			out.Value = []byte{}
		}
	case mmsclient.VisibleString, mmsclient.String:
		out.Value = C2GoStr(C.MmsValue_toString(v))
	case mmsclient.UTCTime:
		out.Value = uint64(C.MmsValue_getUtcTimeInMs(v))
	case mmsclient.BinaryTime:
		out.Value = uint64(C.MmsValue_getBinaryTimeAsUtcMs(v))
	case mmsclient.DataAccessError:
		out.Value = mmsclient.MmsDataAccessError(C.MmsValue_getDataAccessError(v))
	default:
		out.Value = nil
	}
	return out
}

// toMmsValue creates a C MmsValue from a Go value. The caller owns the result
// and must release it with MmsValue_delete.
func toMmsValue(v *mmsclient.MmsValue) (*C.MmsValue, error) {
	if v == nil {
		return nil, fmt.Errorf("nil value")
	}
	switch v.Type {
	case mmsclient.Boolean:
		b, err := cast.ToBoolE(v.Value)
		if err != nil {
			return nil, err
		}
		return C.MmsValue_newBoolean(C.bool(b)), nil
	case mmsclient.Integer, mmsclient.Int8, mmsclient.Int16, mmsclient.Int32, mmsclient.Int64:
		i, err := cast.ToInt64E(v.Value)
		if err != nil {
			return nil, err
		}
		return C.MmsValue_newIntegerFromInt64(C.int64_t(i)), nil
	case mmsclient.Unsigned, mmsclient.Uint8, mmsclient.Uint16, mmsclient.Uint32:
		u, err := cast.ToUint32E(v.Value)
		if err != nil {
			return nil, err
		}
		return C.MmsValue_newUnsignedFromUint32(C.uint32_t(u)), nil
	case mmsclient.Float:
		f, err := cast.ToFloat64E(v.Value)
		if err != nil {
			return nil, err
		}
		if _, double := v.Value.(float64); double {
			return C.MmsValue_newDouble(C.double(f)), nil
		}
		return C.MmsValue_newFloat(C.float(f)), nil
	case mmsclient.VisibleString:
		s := Go2CStr(cast.ToString(v.Value))
		defer freeCStr(s)
		return C.MmsValue_newVisibleString(s), nil
	case mmsclient.UTCTime:
		ms, err := cast.ToUint64E(v.Value)
		if err != nil {
			return nil, err
		}
		return C.MmsValue_newUtcTimeByMsTime(C.uint64_t(ms)), nil
	case mmsclient.Structure:
		children, ok := v.Value.([]*mmsclient.MmsValue)
		if !ok {
			return nil, fmt.Errorf("structure value is %T", v.Value)
		}
		out := C.MmsValue_createEmptyStructure(C.int(len(children)))
		for i, child := range children {
			cv, err := toMmsValue(child)
			if err != nil {
				C.MmsValue_delete(out)
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			C.MmsValue_setElement(out, C.int(i), cv)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported MMS type %s", v.Type)
	}
}
