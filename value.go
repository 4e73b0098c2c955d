package mmsclient

import (
	"fmt"
	"math"
	"time"
)

// Node is one value of a ValueTree. The types in this file are the only
// implementations, and Visitor has one method for each of them.
type Node interface {
	Valid() bool
	Reason() string
	Accept(v Visitor)
}

type Visitor interface {
	VisitFloat(n FloatNode)
	VisitInteger(n IntegerNode)
	VisitBoolean(n BooleanNode)
	VisitString(n StringNode)
	VisitTimestamp(n TimestampNode)
	VisitBitString(n BitStringNode)
	VisitStructure(n StructureNode)
	VisitArray(n ArrayNode)
	VisitAccessError(n AccessErrorNode)
	VisitUnsupported(n UnsupportedNode)
	VisitInvalid(n InvalidNode)
}

type FloatNode struct {
	Value  float64
	Double bool
}

// IntegerNode covers signed and unsigned MMS integers. Enum carries the
// symbolic name for enumerated attributes such as ctlModel.
type IntegerNode struct {
	Value int64
	Type  MmsType
	Enum  string
}

type BooleanNode struct {
	Value bool
}

type StringNode struct {
	Value string
	Type  MmsType
}

type TimestampNode struct {
	Ms   uint64
	Type MmsType
}

// BitStringNode holds a raw bit string. Quality is set when the bit string is
// a quality attribute.
type BitStringNode struct {
	Size    int
	Bits    uint32
	Quality string
}

type Field struct {
	Name  string
	Value Node
}

type StructureNode struct {
	Fields []Field
}

type ArrayNode struct {
	Elements []Node
}

type AccessErrorNode struct {
	Code MmsDataAccessError
}

type UnsupportedNode struct {
	Type MmsType
	raw  MmsValue
}

// InvalidNode is a value the engine delivered but that cannot be represented,
// such as a NaN float.
type InvalidNode struct {
	Type  MmsType
	Cause string
	raw   *MmsValue
}

func (FloatNode) Valid() bool       { return true }
func (IntegerNode) Valid() bool     { return true }
func (BooleanNode) Valid() bool     { return true }
func (StringNode) Valid() bool      { return true }
func (TimestampNode) Valid() bool   { return true }
func (BitStringNode) Valid() bool   { return true }
func (StructureNode) Valid() bool   { return true }
func (ArrayNode) Valid() bool       { return true }
func (AccessErrorNode) Valid() bool { return false }
func (UnsupportedNode) Valid() bool { return false }
func (InvalidNode) Valid() bool     { return false }

func (FloatNode) Reason() string     { return "" }
func (IntegerNode) Reason() string   { return "" }
func (BooleanNode) Reason() string   { return "" }
func (StringNode) Reason() string    { return "" }
func (TimestampNode) Reason() string { return "" }
func (BitStringNode) Reason() string { return "" }
func (StructureNode) Reason() string { return "" }
func (ArrayNode) Reason() string     { return "" }
func (AccessErrorNode) Reason() string {
	return "Data access error"
}
func (n UnsupportedNode) Reason() string {
	return "Unsupported type: " + n.Type.String()
}
func (n InvalidNode) Reason() string {
	return n.Cause
}

func (n FloatNode) Accept(v Visitor)       { v.VisitFloat(n) }
func (n IntegerNode) Accept(v Visitor)     { v.VisitInteger(n) }
func (n BooleanNode) Accept(v Visitor)     { v.VisitBoolean(n) }
func (n StringNode) Accept(v Visitor)      { v.VisitString(n) }
func (n TimestampNode) Accept(v Visitor)   { v.VisitTimestamp(n) }
func (n BitStringNode) Accept(v Visitor)   { v.VisitBitString(n) }
func (n StructureNode) Accept(v Visitor)   { v.VisitStructure(n) }
func (n ArrayNode) Accept(v Visitor)       { v.VisitArray(n) }
func (n AccessErrorNode) Accept(v Visitor) { v.VisitAccessError(n) }
func (n UnsupportedNode) Accept(v Visitor) { v.VisitUnsupported(n) }
func (n InvalidNode) Accept(v Visitor)     { v.VisitInvalid(n) }

// String formats the timestamp as UTC "2006-01-02 15:04:05.000".
func (n TimestampNode) String() string {
	return formatTimestamp(n.Ms)
}

func formatTimestamp(ms uint64) string {
	return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02 15:04:05.000")
}

func (n BitStringNode) String() string {
	if n.Quality != "" {
		return n.Quality
	}
	return fmt.Sprintf("BitString(size=%d)", n.Size)
}

// FromMmsValue converts an engine value into a ValueTree. name is the
// attribute name the value was read from (the last path segment); it selects
// the ctlModel and quality annotations.
func FromMmsValue(v *MmsValue, name string) Node {
	if v == nil {
		return InvalidNode{Cause: "No value"}
	}
	switch v.Type {
	case Float:
		f, double := floatOf(v.Value)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return InvalidNode{Type: Float, Cause: "Invalid float value", raw: rawCopy(v)}
		}
		return FloatNode{Value: f, Double: double}
	case Integer, Int8, Int16, Int32, Int64, Unsigned, Uint8, Uint16, Uint32:
		i, ok := intOf(v.Value)
		if !ok {
			return InvalidNode{Type: v.Type, Cause: fmt.Sprintf("Invalid integer value %T", v.Value), raw: rawCopy(v)}
		}
		n := IntegerNode{Value: i, Type: v.Type}
		if name == "ctlModel" {
			n.Enum = ControlModel(i).String()
		}
		return n
	case Boolean:
		b, ok := v.Value.(bool)
		if !ok {
			return InvalidNode{Type: Boolean, Cause: fmt.Sprintf("Invalid boolean value %T", v.Value), raw: rawCopy(v)}
		}
		return BooleanNode{Value: b}
	case VisibleString, String:
		s, ok := v.Value.(string)
		if !ok {
			return InvalidNode{Type: v.Type, Cause: fmt.Sprintf("Invalid string value %T", v.Value), raw: rawCopy(v)}
		}
		return StringNode{Value: s, Type: v.Type}
	case UTCTime, BinaryTime:
		ms, ok := v.Value.(uint64)
		if !ok {
			return InvalidNode{Type: v.Type, Cause: fmt.Sprintf("Invalid time value %T", v.Value), raw: rawCopy(v)}
		}
		return TimestampNode{Ms: ms, Type: v.Type}
	case BitString:
		bs, ok := v.Value.(BitStringValue)
		if !ok {
			return InvalidNode{Type: BitString, Cause: fmt.Sprintf("Invalid bit string value %T", v.Value), raw: rawCopy(v)}
		}
		n := BitStringNode{Size: bs.Size, Bits: bs.Bits}
		if name == "q" {
			n.Quality = Quality(bs.Bits).String()
		}
		return n
	case Structure:
		children, _ := v.Value.([]*MmsValue)
		fields := make([]Field, 0, len(children))
		for i, child := range children {
			fields = append(fields, Field{Name: fmt.Sprintf("field%d", i), Value: FromMmsValue(child, "")})
		}
		return StructureNode{Fields: fields}
	case Array:
		children, _ := v.Value.([]*MmsValue)
		elements := make([]Node, 0, len(children))
		for _, child := range children {
			elements = append(elements, FromMmsValue(child, ""))
		}
		return ArrayNode{Elements: elements}
	case DataAccessError:
		code, _ := v.Value.(MmsDataAccessError)
		return AccessErrorNode{Code: code}
	case OctetString, GeneralizedTime, Bcd, ObjId:
		return UnsupportedNode{Type: v.Type, raw: *v}
	default:
		return InvalidNode{Type: v.Type, Cause: fmt.Sprintf("Unknown MMS type %d", int(v.Type)), raw: rawCopy(v)}
	}
}

func floatOf(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), false
	case float64:
		return f, true
	}
	return math.NaN(), false
}

func intOf(v interface{}) (int64, bool) {
	switch i := v.(type) {
	case int8:
		return int64(i), true
	case int16:
		return int64(i), true
	case int32:
		return int64(i), true
	case int64:
		return i, true
	case int:
		return int64(i), true
	case uint8:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint32:
		return int64(i), true
	}
	return 0, false
}

func rawCopy(v *MmsValue) *MmsValue {
	cp := *v
	return &cp
}
