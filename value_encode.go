package mmsclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ToMmsValue converts a ValueTree back into the engine value it was built from.
func ToMmsValue(n Node) (*MmsValue, error) {
	e := &mmsEncoder{}
	n.Accept(e)
	return e.out, e.err
}

type mmsEncoder struct {
	out *MmsValue
	err error
}

func (e *mmsEncoder) VisitFloat(n FloatNode) {
	if n.Double {
		e.out = &MmsValue{Type: Float, Value: n.Value}
		return
	}
	e.out = &MmsValue{Type: Float, Value: float32(n.Value)}
}

func (e *mmsEncoder) VisitInteger(n IntegerNode) {
	var v interface{}
	switch n.Type {
	case Int8:
		v = int8(n.Value)
	case Int16:
		v = int16(n.Value)
	case Int32:
		v = int32(n.Value)
	case Uint8:
		v = uint8(n.Value)
	case Uint16:
		v = uint16(n.Value)
	case Unsigned, Uint32:
		v = uint32(n.Value)
	default:
		v = n.Value
	}
	t := n.Type
	if t == 0 {
		t = Integer
	}
	e.out = &MmsValue{Type: t, Value: v}
}

func (e *mmsEncoder) VisitBoolean(n BooleanNode) {
	e.out = &MmsValue{Type: Boolean, Value: n.Value}
}

func (e *mmsEncoder) VisitString(n StringNode) {
	t := n.Type
	if t != String {
		t = VisibleString
	}
	e.out = &MmsValue{Type: t, Value: n.Value}
}

func (e *mmsEncoder) VisitTimestamp(n TimestampNode) {
	t := n.Type
	if t != BinaryTime {
		t = UTCTime
	}
	e.out = &MmsValue{Type: t, Value: n.Ms}
}

func (e *mmsEncoder) VisitBitString(n BitStringNode) {
	e.out = &MmsValue{Type: BitString, Value: BitStringValue{Size: n.Size, Bits: n.Bits}}
}

func (e *mmsEncoder) VisitStructure(n StructureNode) {
	children := make([]*MmsValue, 0, len(n.Fields))
	for _, f := range n.Fields {
		child, err := ToMmsValue(f.Value)
		if err != nil {
			e.err = fmt.Errorf("field %s: %w", f.Name, err)
			return
		}
		children = append(children, child)
	}
	e.out = &MmsValue{Type: Structure, Value: children}
}

func (e *mmsEncoder) VisitArray(n ArrayNode) {
	children := make([]*MmsValue, 0, len(n.Elements))
	for i, el := range n.Elements {
		child, err := ToMmsValue(el)
		if err != nil {
			e.err = fmt.Errorf("element %d: %w", i, err)
			return
		}
		children = append(children, child)
	}
	e.out = &MmsValue{Type: Array, Value: children}
}

func (e *mmsEncoder) VisitAccessError(n AccessErrorNode) {
	e.out = &MmsValue{Type: DataAccessError, Value: n.Code}
}

func (e *mmsEncoder) VisitUnsupported(n UnsupportedNode) {
	raw := n.raw
	e.out = &raw
}

func (e *mmsEncoder) VisitInvalid(n InvalidNode) {
	if n.raw == nil {
		e.err = errors.New(n.Cause)
		return
	}
	e.out = n.raw
}

// NodeMap renders a ValueTree as plain maps and slices, the shape used for
// JSON and CBOR output.
func NodeMap(n Node) map[string]interface{} {
	if n == nil {
		return nil
	}
	m := &mapEncoder{}
	n.Accept(m)
	if !n.Valid() {
		m.out["isValid"] = false
		m.out["errorReason"] = n.Reason()
	} else {
		m.out["isValid"] = true
	}
	return m.out
}

type mapEncoder struct {
	out map[string]interface{}
}

func (m *mapEncoder) VisitFloat(n FloatNode) {
	m.out = map[string]interface{}{"type": "float", "value": n.Value}
}

func (m *mapEncoder) VisitInteger(n IntegerNode) {
	m.out = map[string]interface{}{"type": "integer", "value": n.Value}
	if n.Enum != "" {
		m.out["enum"] = n.Enum
	}
}

func (m *mapEncoder) VisitBoolean(n BooleanNode) {
	m.out = map[string]interface{}{"type": "boolean", "value": n.Value}
}

func (m *mapEncoder) VisitString(n StringNode) {
	m.out = map[string]interface{}{"type": "string", "value": n.Value}
}

func (m *mapEncoder) VisitTimestamp(n TimestampNode) {
	m.out = map[string]interface{}{"type": "timestamp", "value": n.String(), "ms": n.Ms}
}

func (m *mapEncoder) VisitBitString(n BitStringNode) {
	m.out = map[string]interface{}{"type": "bitString", "value": n.String(), "size": n.Size, "bits": n.Bits}
	if n.Quality != "" {
		m.out["quality"] = n.Quality
	}
}

func (m *mapEncoder) VisitStructure(n StructureNode) {
	fields := make([]interface{}, 0, len(n.Fields))
	for _, f := range n.Fields {
		fields = append(fields, map[string]interface{}{"name": f.Name, "value": NodeMap(f.Value)})
	}
	m.out = map[string]interface{}{"type": "structure", "fields": fields}
}

func (m *mapEncoder) VisitArray(n ArrayNode) {
	elements := make([]interface{}, 0, len(n.Elements))
	for _, el := range n.Elements {
		elements = append(elements, NodeMap(el))
	}
	m.out = map[string]interface{}{"type": "array", "elements": elements}
}

func (m *mapEncoder) VisitAccessError(n AccessErrorNode) {
	m.out = map[string]interface{}{"type": "accessError", "code": int(n.Code)}
}

func (m *mapEncoder) VisitUnsupported(n UnsupportedNode) {
	m.out = map[string]interface{}{"type": "unsupported", "kind": n.Type.String()}
}

func (m *mapEncoder) VisitInvalid(n InvalidNode) {
	m.out = map[string]interface{}{"type": "invalid", "kind": n.Type.String()}
}

func (n FloatNode) MarshalJSON() ([]byte, error)       { return json.Marshal(NodeMap(n)) }
func (n IntegerNode) MarshalJSON() ([]byte, error)     { return json.Marshal(NodeMap(n)) }
func (n BooleanNode) MarshalJSON() ([]byte, error)     { return json.Marshal(NodeMap(n)) }
func (n StringNode) MarshalJSON() ([]byte, error)      { return json.Marshal(NodeMap(n)) }
func (n TimestampNode) MarshalJSON() ([]byte, error)   { return json.Marshal(NodeMap(n)) }
func (n BitStringNode) MarshalJSON() ([]byte, error)   { return json.Marshal(NodeMap(n)) }
func (n StructureNode) MarshalJSON() ([]byte, error)   { return json.Marshal(NodeMap(n)) }
func (n ArrayNode) MarshalJSON() ([]byte, error)       { return json.Marshal(NodeMap(n)) }
func (n AccessErrorNode) MarshalJSON() ([]byte, error) { return json.Marshal(NodeMap(n)) }
func (n UnsupportedNode) MarshalJSON() ([]byte, error) { return json.Marshal(NodeMap(n)) }
func (n InvalidNode) MarshalJSON() ([]byte, error)     { return json.Marshal(NodeMap(n)) }
